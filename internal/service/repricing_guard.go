package service

import (
	"context"
	"fmt"
	"time"

	"github.com/voyago-next/internal/constants"
	"github.com/voyago-next/internal/inventory"
	"github.com/voyago-next/internal/models"

	"github.com/shopspring/decimal"
)

// RepriceResult 收款前价格复核结果
type RepriceResult struct {
	Drifted       bool             `json:"drifted"`
	OriginalTotal models.Money     `json:"original_total"`
	NewTotal      models.Money     `json:"new_total"`
	Deltas        []ItemPriceDelta `json:"deltas"`
}

// RepricingGuard 收款前价格复核。每次调用都按供应商最新价重新比对，
// 不缓存任何已确认过的漂移结果。
type RepricingGuard struct {
	registry *inventory.Registry
	timeout  time.Duration
}

// NewRepricingGuard 创建价格复核守卫
func NewRepricingGuard(registry *inventory.Registry, timeout time.Duration) *RepricingGuard {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RepricingGuard{registry: registry, timeout: timeout}
}

// Reprice 校验报价单全部实时供应商项的当前价。
// 零容忍：任何差额都视为漂移。离线来源价格固定，不参与比对。
func (g *RepricingGuard) Reprice(ctx context.Context, quote *models.Quote) (*RepriceResult, error) {
	if quote == nil || len(quote.Items) == 0 {
		return nil, ErrQuoteNotFound
	}

	originalTotal := decimal.Zero
	newTotal := decimal.Zero
	var deltas []ItemPriceDelta

	for _, item := range quote.Items {
		originalTotal = originalTotal.Add(item.ClientPrice.Decimal)
		if !constants.IsProviderBacked(item.SupplierSource) {
			newTotal = newTotal.Add(item.ClientPrice.Decimal)
			continue
		}
		provider, ok := g.registry.Resolve(item.SupplierSource)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProviderNotBound, item.SupplierSource)
		}

		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		current, err := provider.CurrentPrice(callCtx, item)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("查询供应商当前价失败（行程项 %d）: %w", item.ID, err)
		}

		newTotal = newTotal.Add(current.Decimal)
		if current.Decimal.Equal(item.ClientPrice.Decimal) {
			continue
		}
		deltas = append(deltas, ItemPriceDelta{
			QuoteItemID:  item.ID,
			ItemName:     item.Name,
			StoredPrice:  item.ClientPrice,
			CurrentPrice: current,
			Delta:        models.NewMoneyFromDecimal(current.Decimal.Sub(item.ClientPrice.Decimal)),
		})
	}

	return &RepriceResult{
		Drifted:       len(deltas) > 0,
		OriginalTotal: models.NewMoneyFromDecimal(originalTotal),
		NewTotal:      models.NewMoneyFromDecimal(newTotal),
		Deltas:        deltas,
	}, nil
}

// DriftError 将漂移结果转为可供调用方识别的冲突错误
func (r *RepriceResult) DriftError(quoteID uint) error {
	if r == nil || !r.Drifted {
		return nil
	}
	return &PriceDriftError{
		QuoteID:       quoteID,
		OriginalTotal: r.OriginalTotal,
		NewTotal:      r.NewTotal,
		Deltas:        r.Deltas,
	}
}
