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

// DisputeCommissionRequest 佣金争议请求
type DisputeCommissionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListCommissions 分页查询佣金
func (h *Handler) ListCommissions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.CommissionListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
	}
	if agentID, err := strconv.Atoi(c.Query("agent_id")); err == nil && agentID > 0 {
		filter.AgentID = uint(agentID)
	}
	if quoteID, err := strconv.Atoi(c.Query("quote_id")); err == nil && quoteID > 0 {
		filter.QuoteID = uint(quoteID)
	}

	commissions, total, err := h.CommissionService.List(filter)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "查询佣金失败", err)
		return
	}
	response.SuccessWithPage(c, commissions, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// ApproveCommission 审批佣金（pending -> approved）
func (h *Handler) ApproveCommission(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	commission, err := h.CommissionService.Approve(id)
	if err != nil {
		respondCommissionError(c, err, "审批佣金失败")
		return
	}
	response.Success(c, commission)
}

// PayCommission 发放佣金（approved -> paid）
func (h *Handler) PayCommission(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	commission, err := h.CommissionService.Pay(id)
	if err != nil {
		respondCommissionError(c, err, "发放佣金失败")
		return
	}
	response.Success(c, commission)
}

// DisputeCommission 标记佣金争议
func (h *Handler) DisputeCommission(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req DisputeCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	commission, err := h.CommissionService.Dispute(id, req.Reason)
	if err != nil {
		respondCommissionError(c, err, "标记争议失败")
		return
	}
	response.Success(c, commission)
}

func respondCommissionError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrCommissionNotFound):
		shared.RespondError(c, response.CodeNotFound, "佣金记录不存在", nil)
	case errors.Is(err, service.ErrCommissionState):
		shared.RespondError(c, response.CodeBadRequest, "佣金状态不允许该迁移", nil)
	default:
		shared.RespondError(c, response.CodeInternal, fallbackMsg, err)
	}
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		shared.RespondError(c, response.CodeBadRequest, "ID 参数无效", err)
		return 0, false
	}
	return uint(id), true
}
