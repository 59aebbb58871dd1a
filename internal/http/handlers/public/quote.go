package public

import (
	"errors"
	"strconv"
	"time"

	"github.com/voyago-next/internal/gateway"
	"github.com/voyago-next/internal/http/handlers/shared"
	"github.com/voyago-next/internal/http/response"
	"github.com/voyago-next/internal/inventory"
	"github.com/voyago-next/internal/models"
	"github.com/voyago-next/internal/repository"
	"github.com/voyago-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ConfirmPaymentRequest 收款确认请求（网关回调侧投递的成功事件）
type ConfirmPaymentRequest struct {
	ProviderRef string  `json:"provider_ref" binding:"required"`
	Amount      float64 `json:"amount" binding:"required"`
	Currency    string  `json:"currency"`
	Kind        string  `json:"kind"`
	CapturedAt  *time.Time `json:"captured_at"`
}

// DispatchBookingRequest 预订派发请求
type DispatchBookingRequest struct {
	HolderName  string `json:"holder_name"`
	HolderEmail string `json:"holder_email"`
	HolderPhone string `json:"holder_phone"`
}

// CreateQuote 创建报价单
func (h *Handler) CreateQuote(c *gin.Context) {
	var req service.CreateQuoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	quote, err := h.QuoteService.CreateQuote(req)
	if err != nil {
		respondWithMappedError(c, err, quoteCommonErrorRules, response.CodeInternal, "创建报价单失败")
		return
	}
	response.Success(c, quote)
}

// GetQuote 查询报价单详情
func (h *Handler) GetQuote(c *gin.Context) {
	quote, ok := h.resolveQuote(c)
	if !ok {
		return
	}
	response.Success(c, quote)
}

// ListQuotes 分页查询报价单
func (h *Handler) ListQuotes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.QuoteListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
	}
	if agentID, err := strconv.Atoi(c.Query("agent_id")); err == nil && agentID > 0 {
		filter.AgentID = uint(agentID)
	}

	quotes, total, err := h.QuoteService.ListQuotes(filter)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "查询报价单失败", err)
		return
	}
	response.SuccessWithPage(c, quotes, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// AcceptQuote 客户接受报价
func (h *Handler) AcceptQuote(c *gin.Context) {
	quote, ok := h.resolveQuote(c)
	if !ok {
		return
	}
	updated, err := h.QuoteService.Accept(quote.ID)
	if err != nil {
		respondWithMappedError(c, err, quoteCommonErrorRules, response.CodeInternal, "接受报价失败")
		return
	}
	response.Success(c, updated)
}

// RepriceQuote 实时复价（只读，返回漂移明细）
func (h *Handler) RepriceQuote(c *gin.Context) {
	quote, ok := h.resolveQuote(c)
	if !ok {
		return
	}
	result, err := h.QuoteService.Reprice(c.Request.Context(), quote.ID)
	if err != nil {
		respondWithMappedError(c, err, quoteCommonErrorRules, response.CodeInternal, "复价失败")
		return
	}
	response.Success(c, result)
}

// ConfirmPayment 收款确认（复价守卫 + 分账 + 计佣）
func (h *Handler) ConfirmPayment(c *gin.Context) {
	quote, ok := h.resolveQuote(c)
	if !ok {
		return
	}
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	event := gateway.CaptureEvent{
		ProviderRef: req.ProviderRef,
		Amount:      models.NewMoneyFromFloat(req.Amount),
		Currency:    req.Currency,
		Kind:        req.Kind,
	}
	if req.CapturedAt != nil {
		event.CapturedAt = *req.CapturedAt
	}

	result, err := h.QuoteService.ConfirmPayment(c.Request.Context(), quote.ID, event)
	if err != nil {
		var drift *service.PriceDriftError
		if errors.As(err, &drift) {
			shared.RespondErrorWithData(c, response.CodeBadRequest, "检测到价格漂移，需确认最新价格后重试", err, drift)
			return
		}
		var invariant *service.AllocationInvariantError
		if errors.As(err, &invariant) {
			shared.RespondError(c, response.CodeInternal, "分账校验失败，已终止收款确认", err)
			return
		}
		respondWithMappedError(c, err, quoteCommonErrorRules, response.CodeInternal, "收款确认失败")
		return
	}
	response.Success(c, result)
}

// DispatchBooking 手动触发预订派发（正常路径由队列任务触发）
func (h *Handler) DispatchBooking(c *gin.Context) {
	quote, ok := h.resolveQuote(c)
	if !ok {
		return
	}
	// 请求体可选，预订人信息缺省时回落到报价单客户信息
	var req DispatchBookingRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.QuoteService.DispatchBooking(c.Request.Context(), quote.ID, inventory.HolderInfo{
		Name:  req.HolderName,
		Email: req.HolderEmail,
		Phone: req.HolderPhone,
	})
	if err != nil {
		respondWithMappedError(c, err, quoteCommonErrorRules, response.CodeInternal, "预订派发失败")
		return
	}
	response.Success(c, result)
}

// PreviewRefund 退款方案预览（只读）
func (h *Handler) PreviewRefund(c *gin.Context) {
	quote, ok := h.resolveQuote(c)
	if !ok {
		return
	}
	calc, err := h.QuoteService.PreviewRefund(quote.ID)
	if err != nil {
		respondWithMappedError(c, err, quoteCommonErrorRules, response.CodeInternal, "退款试算失败")
		return
	}
	response.Success(c, calc)
}

// CancelQuote 取消报价单并按政策退款
func (h *Handler) CancelQuote(c *gin.Context) {
	quote, ok := h.resolveQuote(c)
	if !ok {
		return
	}
	execution, err := h.QuoteService.CancelAndRefund(c.Request.Context(), quote.ID)
	if err != nil {
		respondWithMappedError(c, err, quoteCommonErrorRules, response.CodeInternal, "取消退款失败")
		return
	}
	response.Success(c, execution)
}

// resolveQuote 解析路径参数：数字按主键查，否则按报价单编号查
func (h *Handler) resolveQuote(c *gin.Context) (*models.Quote, bool) {
	ref := c.Param("quote")
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		quote, err := h.QuoteService.GetQuote(uint(id))
		if err != nil {
			respondWithMappedError(c, err, quoteCommonErrorRules, response.CodeInternal, "查询报价单失败")
			return nil, false
		}
		return quote, true
	}
	quote, err := h.QuoteService.GetQuoteByNo(ref)
	if err != nil {
		respondWithMappedError(c, err, quoteCommonErrorRules, response.CodeInternal, "查询报价单失败")
		return nil, false
	}
	return quote, true
}
