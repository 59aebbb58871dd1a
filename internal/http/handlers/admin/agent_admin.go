package admin

import (
	"github.com/voyago-next/internal/http/handlers/shared"
	"github.com/voyago-next/internal/http/response"
	"github.com/voyago-next/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateAgentRequest 创建销售顾问请求
type CreateAgentRequest struct {
	Name              string   `json:"name" binding:"required"`
	Email             string   `json:"email" binding:"required,email"`
	CommissionPercent float64  `json:"commission_percent"`
	MarkupPercent     *float64 `json:"markup_percent"`
}

// CreateAgent 创建销售顾问
func (h *Handler) CreateAgent(c *gin.Context) {
	var req CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	agent := &models.Agent{
		Name:              req.Name,
		Email:             req.Email,
		CommissionPercent: models.NewMoneyFromFloat(req.CommissionPercent),
		Active:            true,
	}
	if req.MarkupPercent != nil {
		markup := models.NewMoneyFromFloat(*req.MarkupPercent)
		agent.MarkupPercent = &markup
	}
	if err := h.AgentRepo.Create(agent); err != nil {
		shared.RespondError(c, response.CodeInternal, "创建顾问失败", err)
		return
	}
	response.Success(c, agent)
}

// GetAgent 查询顾问详情
func (h *Handler) GetAgent(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	agent, err := h.AgentRepo.GetByID(id)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "查询顾问失败", err)
		return
	}
	if agent == nil {
		shared.RespondError(c, response.CodeNotFound, "销售顾问不存在", nil)
		return
	}
	response.Success(c, agent)
}
