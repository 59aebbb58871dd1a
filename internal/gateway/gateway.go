package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/voyago-next/internal/models"
)

// 支付网关错误
var (
	ErrRefundFailed    = errors.New("支付网关退款失败")
	ErrCaptureNotFound = errors.New("支付网关找不到对应收款")
)

// CaptureEvent 收款成功事件（由网关回调产生，引擎只消费不发起）
type CaptureEvent struct {
	ProviderRef string       // 网关流水号
	Amount      models.Money // 实际到账金额
	Currency    string       // 币种
	Kind        string       // full / deposit
	CapturedAt  time.Time    // 到账时间
}

// RefundResult 退款结果
type RefundResult struct {
	RefundID string
}

// PaymentGateway 支付网关端口。收款由网关侧完成，引擎只消费
// 成功事件；退款由引擎发起。
type PaymentGateway interface {
	// Refund 按网关流水号发起退款
	Refund(ctx context.Context, providerRef string, amount models.Money) (*RefundResult, error)
}
