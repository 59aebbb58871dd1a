package service

import (
	"testing"

	"github.com/voyago-next/internal/config"
	"github.com/voyago-next/internal/models"

	"github.com/shopspring/decimal"
)

func testPricingPolicy() PricingPolicy {
	return NewPricingPolicy(config.PricingConfig{
		DefaultMarkupPercent: 15,
		MinMarkupPercent:     5,
		MaxMarkupPercent:     100,
	})
}

func TestClientPriceAppliesMarkup(t *testing.T) {
	policy := testPricingPolicy()

	price := ClientPrice(models.NewMoneyFromFloat(480), decimal.NewFromInt(25), policy)
	if price.String() != "600.00" {
		t.Fatalf("expected client price 600.00, got %s", price)
	}
}

func TestSupplierCostInvertsClientPrice(t *testing.T) {
	policy := testPricingPolicy()
	markup := decimal.NewFromInt(25)

	cost := models.NewMoneyFromFloat(480)
	price := ClientPrice(cost, markup, policy)
	back := SupplierCost(price, markup, policy)
	if !back.Decimal.Equal(cost.Decimal) {
		t.Fatalf("expected round-trip cost %s, got %s", cost, back)
	}
}

func TestClampBoundsMarkup(t *testing.T) {
	policy := testPricingPolicy()

	if got := policy.Clamp(decimal.NewFromInt(2)); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected markup clamped up to 5, got %s", got)
	}
	if got := policy.Clamp(decimal.NewFromInt(250)); !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected markup clamped down to 100, got %s", got)
	}
	if got := policy.Clamp(decimal.NewFromInt(18)); !got.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("expected in-range markup unchanged, got %s", got)
	}
}

func TestResolveMarkupPrefersAgentOverride(t *testing.T) {
	policy := testPricingPolicy()

	override := models.NewMoneyFromFloat(22)
	agent := &models.Agent{MarkupPercent: &override}
	if got := policy.ResolveMarkup(agent); !got.Equal(decimal.NewFromInt(22)) {
		t.Fatalf("expected agent override 22, got %s", got)
	}
	if got := policy.ResolveMarkup(&models.Agent{}); !got.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected default markup 15, got %s", got)
	}
	if got := policy.ResolveMarkup(nil); !got.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected default markup for nil agent, got %s", got)
	}
}

func TestResolveMarkupClampsAgentOverride(t *testing.T) {
	policy := testPricingPolicy()

	override := models.NewMoneyFromFloat(300)
	agent := &models.Agent{MarkupPercent: &override}
	if got := policy.ResolveMarkup(agent); !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected override clamped to 100, got %s", got)
	}
}

func TestNewPricingPolicyDefaultsBoundsWhenUnset(t *testing.T) {
	policy := NewPricingPolicy(config.PricingConfig{DefaultMarkupPercent: 15})

	if !policy.MinMarkupPercent.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected default min markup 5, got %s", policy.MinMarkupPercent)
	}
	if !policy.MaxMarkupPercent.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected default max markup 100, got %s", policy.MaxMarkupPercent)
	}
}

func TestProfit(t *testing.T) {
	profit := Profit(models.NewMoneyFromFloat(600), models.NewMoneyFromFloat(480))
	if profit.String() != "120.00" {
		t.Fatalf("expected profit 120.00, got %s", profit)
	}
}
