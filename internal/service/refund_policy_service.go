package service

import (
	"sort"
	"time"

	"github.com/voyago-next/internal/config"
	"github.com/voyago-next/internal/constants"
	"github.com/voyago-next/internal/models"

	"github.com/shopspring/decimal"
)

// defaultRefundSchedule 无政策行程项的默认退款阶梯
var defaultRefundSchedule = []models.RefundRule{
	{DaysBeforeTravel: 30, RefundPercentage: 100},
	{DaysBeforeTravel: 14, RefundPercentage: 50},
	{DaysBeforeTravel: 7, RefundPercentage: 25},
}

// ItemRefundBreakdown 单项退款明细（展示与审计用途，不影响实际转账额）
type ItemRefundBreakdown struct {
	QuoteItemID      uint         `json:"quote_item_id"`
	ItemName         string       `json:"item_name"`
	RefundPercentage float64      `json:"refund_percentage"`
	RefundAmount     models.Money `json:"refund_amount"`
}

// RefundCalculation 退款计算结果（瞬态，按当下政策状态计算，不缓存）
type RefundCalculation struct {
	RefundPercentage         float64               `json:"refund_percentage"`
	RefundAmount             models.Money          `json:"refund_amount"`
	ServiceFee               models.Money          `json:"service_fee"`
	ClientReceives           models.Money          `json:"client_receives"`
	ShouldClawbackCommission bool                  `json:"should_clawback_commission"`
	CommissionClawbackAmount models.Money          `json:"commission_clawback_amount"`
	Items                    []ItemRefundBreakdown `json:"items"`
}

// RefundPolicyService 退款政策服务
type RefundPolicyService struct {
	serviceFeePercent decimal.Decimal
	now               func() time.Time
}

// NewRefundPolicyService 创建退款政策服务
func NewRefundPolicyService(cfg config.RefundConfig) *RefundPolicyService {
	return &RefundPolicyService{
		serviceFeePercent: decimal.NewFromFloat(cfg.ServiceFeePercent),
		now:               time.Now,
	}
}

// Compute 计算退款。单项比例按各自取消政策解析；
// 报价单比例取各项最大值（对客户最有利）。
func (s *RefundPolicyService) Compute(quote *models.Quote, totalPaid models.Money, paidCommissions []models.Commission) (*RefundCalculation, error) {
	if quote == nil || len(quote.Items) == 0 {
		return nil, ErrQuoteNotFound
	}

	now := s.now()
	quotePercent := 0.0
	items := make([]ItemRefundBreakdown, 0, len(quote.Items))
	for _, item := range quote.Items {
		percent := itemRefundPercent(item, now)
		if percent > quotePercent {
			quotePercent = percent
		}
		items = append(items, ItemRefundBreakdown{
			QuoteItemID:      item.ID,
			ItemName:         item.Name,
			RefundPercentage: percent,
			RefundAmount:     item.ClientPrice.PercentOf(decimal.NewFromFloat(percent)),
		})
	}

	pct := decimal.NewFromFloat(quotePercent)
	gross := totalPaid.PercentOf(pct)
	serviceFee := gross.PercentOf(s.serviceFeePercent)
	clientReceives := models.NewMoneyFromDecimal(gross.Decimal.Sub(serviceFee.Decimal))

	clawback := decimal.Zero
	for _, commission := range paidCommissions {
		if commission.Status != constants.CommissionStatusPaid || !commission.CommissionAmount.IsPositive() {
			continue
		}
		clawback = clawback.Add(commission.CommissionAmount.PercentOf(pct).Decimal)
	}

	return &RefundCalculation{
		RefundPercentage:         quotePercent,
		RefundAmount:             gross,
		ServiceFee:               serviceFee,
		ClientReceives:           clientReceives,
		ShouldClawbackCommission: clawback.IsPositive(),
		CommissionClawbackAmount: models.NewMoneyFromDecimal(clawback),
		Items:                    items,
	}, nil
}

// itemRefundPercent 解析单项退款比例：
// 不可退 0；免费取消期内 100；否则按 daysBeforeTravel 降序取
// 第一条仍满足门槛的规则（最宽松的可用档）；无政策走默认阶梯。
func itemRefundPercent(item models.QuoteItem, now time.Time) float64 {
	daysUntilTravel := int(item.StartDate.Sub(now).Hours() / 24)

	policy := item.CancellationPolicy
	if policy == nil {
		return percentFromRules(defaultRefundSchedule, daysUntilTravel)
	}
	if policy.NonRefundable {
		return 0
	}
	if policy.FreeCancellationUntil != nil && now.Before(*policy.FreeCancellationUntil) {
		return 100
	}
	if len(policy.RefundRules) == 0 {
		return percentFromRules(defaultRefundSchedule, daysUntilTravel)
	}
	return percentFromRules(policy.RefundRules, daysUntilTravel)
}

func percentFromRules(rules []models.RefundRule, daysUntilTravel int) float64 {
	sorted := make([]models.RefundRule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].DaysBeforeTravel > sorted[j].DaysBeforeTravel
	})
	for _, rule := range sorted {
		if rule.DaysBeforeTravel <= daysUntilTravel {
			return rule.RefundPercentage
		}
	}
	return 0
}
