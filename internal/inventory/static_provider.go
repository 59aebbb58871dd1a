package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/voyago-next/internal/models"
)

// StaticProvider 内存供应商实现：价格与成本按项目标识查表，
// 用于开发环境与种子数据。未配置的项目按已存价格返回。
type StaticProvider struct {
	mu     sync.RWMutex
	prices map[string]models.Money // provider_item_ref -> 实时客户价
	costs  map[string]models.Money // provider_item_ref -> 供应商成本
}

// NewStaticProvider 创建内存供应商
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		prices: make(map[string]models.Money),
		costs:  make(map[string]models.Money),
	}
}

// SetPrice 设置项目的实时客户价
func (p *StaticProvider) SetPrice(itemRef string, price models.Money) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[itemRef] = price
}

// SetCost 设置项目的供应商成本
func (p *StaticProvider) SetCost(itemRef string, cost models.Money) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.costs[itemRef] = cost
}

// CurrentPrice 查询实时客户价；未配置时返回行程项已存价格（无漂移）
func (p *StaticProvider) CurrentPrice(_ context.Context, item models.QuoteItem) (models.Money, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if price, ok := p.prices[item.ProviderItemRef]; ok {
		return price, nil
	}
	return item.ClientPrice, nil
}

// Book 生成确认号完成预订；成本未配置时退回行程项已存成本
func (p *StaticProvider) Book(_ context.Context, item models.QuoteItem, _ HolderInfo) (*BookingConfirmation, error) {
	p.mu.RLock()
	cost, ok := p.costs[item.ProviderItemRef]
	p.mu.RUnlock()
	if !ok {
		if item.SupplierCost == nil {
			return nil, ErrItemNotFound
		}
		cost = *item.SupplierCost
	}
	return &BookingConfirmation{
		ConfirmationNumber: fmt.Sprintf("CNF-%s", uuid.New().String()[:8]),
		SupplierCost:       cost,
	}, nil
}
