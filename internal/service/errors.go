package service

import (
	"errors"
	"fmt"

	"github.com/voyago-next/internal/models"
)

// 业务哨兵错误
var (
	ErrQuoteNotFound           = errors.New("报价单不存在")
	ErrQuoteInvalid            = errors.New("报价单参数无效")
	ErrQuoteStateInvalid       = errors.New("报价单状态不允许该操作")
	ErrAgentNotFound           = errors.New("销售顾问不存在")
	ErrPaymentNotFound         = errors.New("收款记录不存在")
	ErrPaymentInvalid          = errors.New("收款参数无效")
	ErrPaymentNotSucceeded     = errors.New("收款未成功，禁止分账")
	ErrPaymentAmountInvalid    = errors.New("收款金额与报价单不符")
	ErrAllocationExists        = errors.New("该收款已存在分账记录")
	ErrAllocationNotFound      = errors.New("分账记录不存在")
	ErrItemCostMissing         = errors.New("行程项缺少供应商成本")
	ErrCommissionNotFound      = errors.New("佣金记录不存在")
	ErrCommissionState         = errors.New("佣金状态不允许该迁移")
	ErrRateRecordInvalid       = errors.New("费率记录参数无效")
	ErrTaskNotFound            = errors.New("预订任务不存在")
	ErrTaskStateInvalid        = errors.New("预订任务状态不允许该操作")
	ErrTaskConfirmationMissing = errors.New("完成确认件任务需要提供确认号")
	ErrProviderNotBound        = errors.New("供应来源未注册实时供应商")
	ErrPriceDrift              = errors.New("检测到价格漂移")
	ErrAllocationInvariant     = errors.New("分账校验失败")
	ErrRefundNotAllowed        = errors.New("当前状态不允许退款")
)

// ItemPriceDelta 单项价格漂移明细
type ItemPriceDelta struct {
	QuoteItemID  uint         `json:"quote_item_id"`
	ItemName     string       `json:"item_name"`
	StoredPrice  models.Money `json:"stored_price"`
	CurrentPrice models.Money `json:"current_price"`
	Delta        models.Money `json:"delta"`
}

// PriceDriftError 价格漂移冲突，携带逐项差额，调用方需显式确认后重试
type PriceDriftError struct {
	QuoteID       uint             `json:"quote_id"`
	OriginalTotal models.Money     `json:"original_total"`
	NewTotal      models.Money     `json:"new_total"`
	Deltas        []ItemPriceDelta `json:"deltas"`
}

func (e *PriceDriftError) Error() string {
	return fmt.Sprintf("检测到价格漂移: 原总价 %s, 现总价 %s, 漂移项 %d",
		e.OriginalTotal, e.NewTotal, len(e.Deltas))
}

// Is 支持 errors.Is(err, ErrPriceDrift)
func (e *PriceDriftError) Is(target error) bool {
	return target == ErrPriceDrift
}

// AllocationInvariantError 分账守恒校验失败（上游定价数据错误，终止流程）
type AllocationInvariantError struct {
	QuoteItemID uint
	Detail      string
}

func (e *AllocationInvariantError) Error() string {
	if e.QuoteItemID != 0 {
		return fmt.Sprintf("分账校验失败（行程项 %d）: %s", e.QuoteItemID, e.Detail)
	}
	return "分账校验失败: " + e.Detail
}

// Is 支持 errors.Is(err, ErrAllocationInvariant)
func (e *AllocationInvariantError) Is(target error) bool {
	return target == ErrAllocationInvariant
}
