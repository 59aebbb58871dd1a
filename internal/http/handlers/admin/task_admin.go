package admin

import (
	"errors"
	"strconv"

	"github.com/voyago-next/internal/http/handlers/shared"
	"github.com/voyago-next/internal/http/response"
	"github.com/voyago-next/internal/repository"
	"github.com/voyago-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CompleteTaskRequest 完成任务请求
type CompleteTaskRequest struct {
	ConfirmationNumber string `json:"confirmation_number"`
}

// ListBookingTasks 分页查询人工预订任务
func (h *Handler) ListBookingTasks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.BookingTaskListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
		Kind:     c.Query("kind"),
	}
	if quoteID, err := strconv.Atoi(c.Query("quote_id")); err == nil && quoteID > 0 {
		filter.QuoteID = uint(quoteID)
	}

	tasks, total, err := h.BookingTaskService.List(filter)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "查询任务失败", err)
		return
	}
	response.SuccessWithPage(c, tasks, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// StartBookingTask 领取任务
func (h *Handler) StartBookingTask(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	task, err := h.BookingTaskService.Start(id)
	if err != nil {
		respondTaskError(c, err, "领取任务失败")
		return
	}
	response.Success(c, task)
}

// CompleteBookingTask 完成任务（确认件任务需携带确认号）
func (h *Handler) CompleteBookingTask(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req CompleteTaskRequest
	_ = c.ShouldBindJSON(&req)

	task, err := h.BookingTaskService.Complete(id, req.ConfirmationNumber)
	if err != nil {
		respondTaskError(c, err, "完成任务失败")
		return
	}
	response.Success(c, task)
}

// CancelBookingTask 取消任务
func (h *Handler) CancelBookingTask(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	task, err := h.BookingTaskService.Cancel(id)
	if err != nil {
		respondTaskError(c, err, "取消任务失败")
		return
	}
	response.Success(c, task)
}

func respondTaskError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		shared.RespondError(c, response.CodeNotFound, "预订任务不存在", nil)
	case errors.Is(err, service.ErrTaskStateInvalid):
		shared.RespondError(c, response.CodeBadRequest, "预订任务状态不允许该操作", nil)
	case errors.Is(err, service.ErrTaskConfirmationMissing):
		shared.RespondError(c, response.CodeBadRequest, "完成确认件任务需要提供确认号", nil)
	default:
		shared.RespondError(c, response.CodeInternal, fallbackMsg, err)
	}
}
