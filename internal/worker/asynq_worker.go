package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/voyago-next/internal/constants"
	"github.com/voyago-next/internal/inventory"
	"github.com/voyago-next/internal/logger"
	"github.com/voyago-next/internal/provider"
	"github.com/voyago-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskBookingDispatch, c.handleBookingDispatch)
	mux.HandleFunc(queue.TaskCommissionSettle, c.handleCommissionSettle)
	mux.HandleFunc(queue.TaskBookingTaskRemind, c.handleBookingTaskRemind)
}

func (c *Consumer) handleBookingDispatch(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_booking_dispatch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.BookingDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_booking_dispatch_unmarshal_failed", "error", err)
		return err
	}
	if payload.QuoteID == 0 {
		logger.Debugw("worker_booking_dispatch_skip_invalid_payload", "quote_id", payload.QuoteID)
		return nil
	}
	result, err := c.QuoteService.DispatchBooking(ctx, payload.QuoteID, inventory.HolderInfo{})
	if err != nil {
		logger.Warnw("worker_booking_dispatch_failed",
			"quote_id", payload.QuoteID, "payment_id", payload.PaymentID, "error", err)
		return err
	}
	logger.Infow("worker_booking_dispatch_done", "quote_id", payload.QuoteID,
		"provider_results", len(result.ProviderResults), "manual_tasks", len(result.ManualTaskIDs))
	return nil
}

func (c *Consumer) handleCommissionSettle(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_commission_settle_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CommissionSettlePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_commission_settle_unmarshal_failed", "error", err)
		return err
	}
	deadline := time.Now()
	if payload.Deadline > 0 {
		deadline = time.Unix(payload.Deadline, 0)
	}
	if err := c.CommissionService.ApproveDueCommissions(deadline); err != nil {
		logger.Warnw("worker_commission_settle_failed", "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleBookingTaskRemind(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.BookingTaskRemindPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_booking_task_remind_unmarshal_failed", "error", err)
		return err
	}
	if payload.BookingTaskID == 0 {
		return nil
	}
	pending, err := c.BookingTaskRepo.GetByID(payload.BookingTaskID)
	if err != nil {
		logger.Warnw("worker_booking_task_remind_fetch_failed",
			"booking_task_id", payload.BookingTaskID, "error", err)
		return err
	}
	if pending == nil || pending.Status == constants.BookingTaskStatusCompleted ||
		pending.Status == constants.BookingTaskStatusCancelled {
		return nil
	}
	logger.Warnw("worker_booking_task_overdue", "booking_task_id", pending.ID,
		"quote_id", pending.QuoteID, "kind", pending.Kind, "status", pending.Status)
	return nil
}
