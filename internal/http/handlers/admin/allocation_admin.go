package admin

import (
	"errors"
	"strconv"

	"github.com/voyago-next/internal/http/handlers/shared"
	"github.com/voyago-next/internal/http/response"
	"github.com/voyago-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAllocation 查询分账记录详情
func (h *Handler) GetAllocation(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	allocation, err := h.FundAllocationService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrAllocationNotFound) {
			shared.RespondError(c, response.CodeNotFound, "分账记录不存在", nil)
			return
		}
		shared.RespondError(c, response.CodeInternal, "查询分账记录失败", err)
		return
	}
	response.Success(c, allocation)
}

// ListQuoteAllocations 查询报价单下的分账记录
func (h *Handler) ListQuoteAllocations(c *gin.Context) {
	quoteID, err := strconv.ParseUint(c.Query("quote_id"), 10, 64)
	if err != nil || quoteID == 0 {
		shared.RespondError(c, response.CodeBadRequest, "报价单参数无效", err)
		return
	}
	allocations, err := h.FundAllocationService.ListByQuote(uint(quoteID))
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "查询分账记录失败", err)
		return
	}
	response.Success(c, allocations)
}
