package service

import (
	"context"
	"time"

	"github.com/voyago-next/internal/constants"
	"github.com/voyago-next/internal/inventory"
	"github.com/voyago-next/internal/logger"
	"github.com/voyago-next/internal/models"
	"github.com/voyago-next/internal/repository"
)

// ProviderBookingResult 单项供应商预订结果
type ProviderBookingResult struct {
	QuoteItemID        uint   `json:"quote_item_id"`
	ItemName           string `json:"item_name"`
	Success            bool   `json:"success"`
	ConfirmationNumber string `json:"confirmation_number,omitempty"`
	Error              string `json:"error,omitempty"`
}

// DispatchResult 预订派发结果（逐项独立，允许部分完成）
type DispatchResult struct {
	ProviderResults []ProviderBookingResult `json:"provider_results"`
	ManualTaskIDs   []uint                  `json:"manual_task_ids"`
}

// AllBooked 判断是否全部实时项预订成功且无人工项
func (r *DispatchResult) AllBooked() bool {
	if r == nil {
		return false
	}
	for _, result := range r.ProviderResults {
		if !result.Success {
			return false
		}
	}
	return len(r.ManualTaskIDs) == 0
}

// TaskReminder 人工任务到期提醒入队端口，延迟投递到任务截止时间
type TaskReminder interface {
	EnqueueBookingTaskRemind(taskID uint, delay time.Duration) error
}

// BookingDispatcher 预订派发器。实时项尝试供应商预订，
// 任何失败都降级为人工任务（这是主行为，不是边界情形）；
// 离线项直接生成人工任务。
type BookingDispatcher struct {
	registry            *inventory.Registry
	taskRepo            repository.BookingTaskRepository
	allocationRepo      repository.FundAllocationRepository
	quoteRepo           repository.QuoteRepository
	reminder            TaskReminder
	timeout             time.Duration
	bookDueDays         int
	confirmationDueDays int
}

// NewBookingDispatcher 创建预订派发器。reminder 允许为 nil（不发提醒）。
func NewBookingDispatcher(
	registry *inventory.Registry,
	taskRepo repository.BookingTaskRepository,
	allocationRepo repository.FundAllocationRepository,
	quoteRepo repository.QuoteRepository,
	reminder TaskReminder,
	timeout time.Duration,
	bookDueDays, confirmationDueDays int,
) *BookingDispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if bookDueDays <= 0 {
		bookDueDays = 1
	}
	if confirmationDueDays <= bookDueDays {
		confirmationDueDays = bookDueDays + 1
	}
	return &BookingDispatcher{
		registry:            registry,
		taskRepo:            taskRepo,
		allocationRepo:      allocationRepo,
		quoteRepo:           quoteRepo,
		reminder:            reminder,
		timeout:             timeout,
		bookDueDays:         bookDueDays,
		confirmationDueDays: confirmationDueDays,
	}
}

// Dispatch 派发报价单全部行程项。一旦开始即逐项运行到底，
// 单项失败不影响其余项；重复派发不产生重复任务。
func (d *BookingDispatcher) Dispatch(ctx context.Context, quote *models.Quote, holder inventory.HolderInfo) (*DispatchResult, error) {
	if quote == nil || len(quote.Items) == 0 {
		return nil, ErrQuoteNotFound
	}

	result := &DispatchResult{}
	for _, item := range quote.Items {
		if constants.IsProviderBacked(item.SupplierSource) {
			d.dispatchProviderItem(ctx, quote, item, holder, result)
			continue
		}
		d.createManualTasks(quote, item, result)
	}
	return result, nil
}

func (d *BookingDispatcher) dispatchProviderItem(ctx context.Context, quote *models.Quote, item models.QuoteItem, holder inventory.HolderInfo, result *DispatchResult) {
	provider, ok := d.registry.Resolve(item.SupplierSource)
	if !ok {
		logger.Warnw("booking_dispatch_provider_not_bound",
			"quote_id", quote.ID, "quote_item_id", item.ID, "source", item.SupplierSource)
		result.ProviderResults = append(result.ProviderResults, ProviderBookingResult{
			QuoteItemID: item.ID,
			ItemName:    item.Name,
			Success:     false,
			Error:       ErrProviderNotBound.Error(),
		})
		d.createManualTasks(quote, item, result)
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	confirmation, err := provider.Book(callCtx, item, holder)
	cancel()
	if err != nil || confirmation == nil {
		errText := "供应商返回空确认"
		if err != nil {
			errText = err.Error()
		}
		logger.Warnw("booking_dispatch_provider_failed_fallback_manual",
			"quote_id", quote.ID, "quote_item_id", item.ID, "error", errText)
		result.ProviderResults = append(result.ProviderResults, ProviderBookingResult{
			QuoteItemID: item.ID,
			ItemName:    item.Name,
			Success:     false,
			Error:       errText,
		})
		d.createManualTasks(quote, item, result)
		return
	}

	now := time.Now()
	updates := map[string]interface{}{"confirmation_number": confirmation.ConfirmationNumber}
	if item.SupplierCost == nil {
		updates["supplier_cost"] = confirmation.SupplierCost
	}
	if err := d.quoteRepo.UpdateItem(item.ID, updates); err != nil {
		logger.Errorw("booking_dispatch_item_update_failed", "quote_item_id", item.ID, "error", err)
	}
	if _, err := d.allocationRepo.UpdateItemEscrow(item.ID, constants.EscrowStatusHeld, constants.EscrowStatusReleased, now); err != nil {
		logger.Errorw("booking_dispatch_escrow_release_failed", "quote_item_id", item.ID, "error", err)
	}
	if err := d.allocationRepo.MarkSupplierDue(item.ID, now); err != nil {
		logger.Errorw("booking_dispatch_supplier_due_failed", "quote_item_id", item.ID, "error", err)
	}

	result.ProviderResults = append(result.ProviderResults, ProviderBookingResult{
		QuoteItemID:        item.ID,
		ItemName:           item.Name,
		Success:            true,
		ConfirmationNumber: confirmation.ConfirmationNumber,
	})
}

// createManualTasks 生成人工预订任务对：book 与 upload_confirmation，
// 后者截止日在前者之后一天。quote_item_id + kind 唯一保证幂等。
func (d *BookingDispatcher) createManualTasks(quote *models.Quote, item models.QuoteItem, result *DispatchResult) {
	bookDue := time.Now().AddDate(0, 0, d.bookDueDays)
	confirmationDue := bookDue.AddDate(0, 0, 1)

	tasks := []models.BookingTask{
		{
			QuoteID:     quote.ID,
			QuoteItemID: item.ID,
			Kind:        constants.BookingTaskKindBook,
			Status:      constants.BookingTaskStatusPending,
			Title:       "预订 " + item.Name,
			DueDate:     &bookDue,
		},
		{
			QuoteID:     quote.ID,
			QuoteItemID: item.ID,
			Kind:        constants.BookingTaskKindUploadConfirmation,
			Status:      constants.BookingTaskStatusPending,
			Title:       "上传确认件 " + item.Name,
			DueDate:     &confirmationDue,
		},
	}
	for i := range tasks {
		created, err := d.taskRepo.CreateIfAbsent(&tasks[i])
		if err != nil {
			logger.Errorw("booking_dispatch_task_create_failed",
				"quote_item_id", item.ID, "kind", tasks[i].Kind, "error", err)
			continue
		}
		if created {
			result.ManualTaskIDs = append(result.ManualTaskIDs, tasks[i].ID)
			// 仅新任务入队提醒，重派不重复投递
			if d.reminder != nil && tasks[i].DueDate != nil {
				if err := d.reminder.EnqueueBookingTaskRemind(tasks[i].ID, time.Until(*tasks[i].DueDate)); err != nil {
					logger.Warnw("booking_dispatch_remind_enqueue_failed",
						"booking_task_id", tasks[i].ID, "error", err)
				}
			}
			continue
		}
		existing, err := d.taskRepo.GetByItemAndKind(item.ID, tasks[i].Kind)
		if err == nil && existing != nil {
			result.ManualTaskIDs = append(result.ManualTaskIDs, existing.ID)
		}
	}
}
