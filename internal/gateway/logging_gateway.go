package gateway

import (
	"context"

	"github.com/google/uuid"

	"github.com/voyago-next/internal/logger"
	"github.com/voyago-next/internal/models"
)

// LoggingGateway 开发环境网关实现：不对接真实渠道，
// 退款请求直接成功并记录日志。生产部署替换为渠道实现。
type LoggingGateway struct{}

// NewLoggingGateway 创建日志网关
func NewLoggingGateway() *LoggingGateway {
	return &LoggingGateway{}
}

// Refund 记录退款请求并返回本地生成的退款单号
func (g *LoggingGateway) Refund(_ context.Context, providerRef string, amount models.Money) (*RefundResult, error) {
	refundID := uuid.New().String()
	logger.Infow("gateway_refund_simulated",
		"provider_ref", providerRef, "amount", amount.String(), "refund_id", refundID)
	return &RefundResult{RefundID: refundID}, nil
}
