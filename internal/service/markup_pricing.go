package service

import (
	"github.com/voyago-next/internal/config"
	"github.com/voyago-next/internal/models"

	"github.com/shopspring/decimal"
)

// PricingPolicy 加价策略值对象。每次定价调用显式传入，
// 不存在共享可变的全局加价配置。
type PricingPolicy struct {
	DefaultMarkupPercent decimal.Decimal
	MinMarkupPercent     decimal.Decimal
	MaxMarkupPercent     decimal.Decimal
}

// NewPricingPolicy 从配置构建加价策略
func NewPricingPolicy(cfg config.PricingConfig) PricingPolicy {
	policy := PricingPolicy{
		DefaultMarkupPercent: decimal.NewFromFloat(cfg.DefaultMarkupPercent),
		MinMarkupPercent:     decimal.NewFromFloat(cfg.MinMarkupPercent),
		MaxMarkupPercent:     decimal.NewFromFloat(cfg.MaxMarkupPercent),
	}
	if policy.MinMarkupPercent.IsZero() && policy.MaxMarkupPercent.IsZero() {
		policy.MinMarkupPercent = decimal.NewFromInt(5)
		policy.MaxMarkupPercent = decimal.NewFromInt(100)
	}
	return policy
}

// Clamp 将加价比例收敛到 [min, max] 区间，所有定价路径先 Clamp 再使用
func (p PricingPolicy) Clamp(markupPercent decimal.Decimal) decimal.Decimal {
	if markupPercent.LessThan(p.MinMarkupPercent) {
		return p.MinMarkupPercent
	}
	if markupPercent.GreaterThan(p.MaxMarkupPercent) {
		return p.MaxMarkupPercent
	}
	return markupPercent
}

// ResolveMarkup 解析顾问生效的加价比例（顾问覆写优先，否则全局默认），已 Clamp
func (p PricingPolicy) ResolveMarkup(agent *models.Agent) decimal.Decimal {
	if agent != nil && agent.MarkupPercent != nil {
		return p.Clamp(agent.MarkupPercent.Decimal)
	}
	return p.Clamp(p.DefaultMarkupPercent)
}

// ClientPrice 由供应商成本计算客户价（四舍五入保留 2 位）
func ClientPrice(supplierCost models.Money, markupPercent decimal.Decimal, policy PricingPolicy) models.Money {
	markup := policy.Clamp(markupPercent)
	factor := decimal.NewFromInt(1).Add(markup.Div(decimal.NewFromInt(100)))
	return models.NewMoneyFromDecimal(supplierCost.Decimal.Mul(factor))
}

// SupplierCost ClientPrice 的逆运算，由客户价反推供应商成本
func SupplierCost(clientPrice models.Money, markupPercent decimal.Decimal, policy PricingPolicy) models.Money {
	markup := policy.Clamp(markupPercent)
	factor := decimal.NewFromInt(1).Add(markup.Div(decimal.NewFromInt(100)))
	return models.NewMoneyFromDecimal(clientPrice.Decimal.DivRound(factor, 8))
}

// Profit 毛利（报表用途的纯函数）
func Profit(clientPrice, supplierCost models.Money) models.Money {
	return models.NewMoneyFromDecimal(clientPrice.Decimal.Sub(supplierCost.Decimal))
}
