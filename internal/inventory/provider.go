package inventory

import (
	"context"
	"errors"

	"github.com/voyago-next/internal/models"
)

// 供应商调用错误（派发边界捕获后转人工任务，不向上传播）
var (
	ErrProviderUnavailable = errors.New("库存供应商不可用")
	ErrItemNotFound        = errors.New("供应商侧未找到行程项")
	ErrBookingRejected     = errors.New("供应商拒绝预订")
)

// HolderInfo 预订人信息
type HolderInfo struct {
	Name  string
	Email string
	Phone string
}

// BookingConfirmation 供应商预订确认结果
type BookingConfirmation struct {
	ConfirmationNumber string
	SupplierCost       models.Money
}

// Provider 库存供应商端口。具体的接口客户端在引擎之外实现，
// 引擎只依赖该接口；测试中以桩实现注入。
type Provider interface {
	// CurrentPrice 查询行程项的实时客户价
	CurrentPrice(ctx context.Context, item models.QuoteItem) (models.Money, error)
	// Book 向供应商发起预订
	Book(ctx context.Context, item models.QuoteItem, holder HolderInfo) (*BookingConfirmation, error)
}
