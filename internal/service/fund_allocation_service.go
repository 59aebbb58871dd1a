package service

import (
	"fmt"
	"time"

	"github.com/voyago-next/internal/config"
	"github.com/voyago-next/internal/constants"
	"github.com/voyago-next/internal/logger"
	"github.com/voyago-next/internal/models"
	"github.com/voyago-next/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// allocationTolerance 分账守恒校验容差（±0.01）
var allocationTolerance = decimal.NewFromFloat(0.01)

// FeeSchedule 平台费率表（按供应来源固定查表）
type FeeSchedule struct {
	ProviderFeePercent        decimal.Decimal
	OfflinePlatformFeePercent decimal.Decimal
	OfflineAgentFeePercent    decimal.Decimal
}

// NewFeeSchedule 从配置构建平台费率表
func NewFeeSchedule(cfg config.AllocationConfig) FeeSchedule {
	return FeeSchedule{
		ProviderFeePercent:        decimal.NewFromFloat(cfg.ProviderFeePercent),
		OfflinePlatformFeePercent: decimal.NewFromFloat(cfg.OfflinePlatformFeePercent),
		OfflineAgentFeePercent:    decimal.NewFromFloat(cfg.OfflineAgentFeePercent),
	}
}

// FeePercentFor 查询供应来源的平台费率
func (f FeeSchedule) FeePercentFor(source string) decimal.Decimal {
	switch {
	case constants.IsProviderBacked(source):
		return f.ProviderFeePercent
	case source == constants.SupplierSourceOfflinePlatform:
		return f.OfflinePlatformFeePercent
	default:
		return f.OfflineAgentFeePercent
	}
}

// FundAllocationService 资金分账服务
type FundAllocationService struct {
	allocationRepo repository.FundAllocationRepository
	fees           FeeSchedule
}

// NewFundAllocationService 创建资金分账服务
func NewFundAllocationService(allocationRepo repository.FundAllocationRepository, fees FeeSchedule) *FundAllocationService {
	return &FundAllocationService{allocationRepo: allocationRepo, fees: fees}
}

// Allocate 为一笔成功收款创建分账。每笔收款至多一条分账记录；
// 计算结果不满足守恒校验时终止且不落任何数据。
func (s *FundAllocationService) Allocate(quote *models.Quote, payment *models.Payment) (*models.FundAllocation, error) {
	if quote == nil || len(quote.Items) == 0 {
		return nil, ErrQuoteNotFound
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	if payment.Status != constants.PaymentStatusSucceeded {
		return nil, ErrPaymentNotSucceeded
	}
	if payment.QuoteID != quote.ID {
		return nil, ErrPaymentInvalid
	}
	for _, item := range quote.Items {
		if item.SupplierCost == nil {
			return nil, fmt.Errorf("%w: 行程项 %d", ErrItemCostMissing, item.ID)
		}
	}

	existing, err := s.allocationRepo.GetByPaymentID(payment.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAllocationExists
	}

	quoteTotal := decimal.Zero
	for _, item := range quote.Items {
		quoteTotal = quoteTotal.Add(item.ClientPrice.Decimal)
	}
	if quoteTotal.IsZero() {
		return nil, ErrQuoteInvalid
	}

	// 全额收款要求金额与报价单相符；定金按比例分摊到每项
	ratio := decimal.NewFromInt(1)
	if payment.Kind == constants.PaymentKindDeposit {
		ratio = payment.Amount.Decimal.DivRound(quoteTotal, 8)
	} else if payment.Amount.Decimal.Sub(quoteTotal).Abs().GreaterThan(allocationTolerance) {
		return nil, ErrPaymentAmountInvalid
	}

	items := make([]models.FundAllocationItem, 0, len(quote.Items))
	allocated := decimal.Zero
	for i, item := range quote.Items {
		clientPaid := item.ClientPrice.Decimal.Mul(ratio).Round(2)
		if i == len(quote.Items)-1 {
			// 末项吸收舍入残差，保证 sum(clientPaid) == payment.amount
			clientPaid = payment.Amount.Decimal.Sub(allocated)
		}
		allocated = allocated.Add(clientPaid)

		supplierCost := item.SupplierCost.Decimal.Mul(ratio).Round(2)
		feePercent := s.fees.FeePercentFor(item.SupplierSource)
		platformFee := clientPaid.Mul(feePercent).Div(decimal.NewFromInt(100)).Round(2)
		agentCommission := clientPaid.Sub(supplierCost).Sub(platformFee)

		if agentCommission.IsNegative() {
			// 负佣金说明上游定价有误，保留并上抛信号，不做截断
			logger.Warnw("fund_allocation_negative_commission",
				"quote_id", quote.ID,
				"quote_item_id", item.ID,
				"client_paid", clientPaid.StringFixed(2),
				"supplier_cost", supplierCost.StringFixed(2),
				"platform_fee", platformFee.StringFixed(2),
				"agent_commission", agentCommission.StringFixed(2),
			)
		}

		sum := supplierCost.Add(platformFee).Add(agentCommission)
		if clientPaid.Sub(sum).Abs().GreaterThan(allocationTolerance) {
			return nil, &AllocationInvariantError{
				QuoteItemID: item.ID,
				Detail: fmt.Sprintf("clientPaid %s != cost %s + fee %s + commission %s",
					clientPaid.StringFixed(2), supplierCost.StringFixed(2),
					platformFee.StringFixed(2), agentCommission.StringFixed(2)),
			}
		}

		items = append(items, models.FundAllocationItem{
			QuoteItemID:     item.ID,
			ClientPaid:      models.NewMoneyFromDecimal(clientPaid),
			SupplierCost:    models.NewMoneyFromDecimal(supplierCost),
			PlatformFee:     models.NewMoneyFromDecimal(platformFee),
			AgentCommission: models.NewMoneyFromDecimal(agentCommission),
			EscrowStatus:    constants.EscrowStatusHeld,
		})
	}

	if allocated.Sub(payment.Amount.Decimal).Abs().GreaterThan(allocationTolerance) {
		return nil, &AllocationInvariantError{
			Detail: fmt.Sprintf("sum(clientPaid) %s != payment.amount %s",
				allocated.StringFixed(2), payment.Amount.String()),
		}
	}

	allocation := models.FundAllocation{
		AllocationNo: uuid.NewString(),
		PaymentID:    payment.ID,
		QuoteID:      quote.ID,
		TotalPaid:    payment.Amount,
	}
	if err := s.allocationRepo.CreateWithItems(&allocation, items); err != nil {
		return nil, err
	}
	allocation.Items = items
	return &allocation, nil
}

// Rollback 删除分账记录（佣金生成失败时的补偿动作）
func (s *FundAllocationService) Rollback(allocationID uint) error {
	return s.allocationRepo.DeleteWithItems(allocationID)
}

// GetByID 查询分账记录详情
func (s *FundAllocationService) GetByID(id uint) (*models.FundAllocation, error) {
	allocation, err := s.allocationRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if allocation == nil {
		return nil, ErrAllocationNotFound
	}
	return allocation, nil
}

// GetByPaymentID 按收款查询分账记录（不存在返回 nil）
func (s *FundAllocationService) GetByPaymentID(paymentID uint) (*models.FundAllocation, error) {
	return s.allocationRepo.GetByPaymentID(paymentID)
}

// ListByQuote 查询报价单全部分账记录
func (s *FundAllocationService) ListByQuote(quoteID uint) ([]models.FundAllocation, error) {
	return s.allocationRepo.GetByQuoteID(quoteID)
}

// ClawbackItemEscrow 追回行程项的托管资金：held -> clawed_back。
// 已放款（released）的行程项不再追回，返回影响行数 0。
func (s *FundAllocationService) ClawbackItemEscrow(quoteItemID uint, at time.Time) (int64, error) {
	return s.allocationRepo.UpdateItemEscrow(quoteItemID,
		constants.EscrowStatusHeld, constants.EscrowStatusClawedBack, at)
}
