package service

import (
	"fmt"
	"time"

	"github.com/voyago-next/internal/constants"
	"github.com/voyago-next/internal/logger"
	"github.com/voyago-next/internal/models"
	"github.com/voyago-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CommissionService 顾问佣金服务。佣金历史只追加：
// 追回以负额新记录表达，已支付记录永不改写。
type CommissionService struct {
	commissionRepo repository.CommissionRepository
	holdDays       int
}

// NewCommissionService 创建佣金服务
func NewCommissionService(commissionRepo repository.CommissionRepository, holdDays int) *CommissionService {
	if holdDays < 0 {
		holdDays = 0
	}
	return &CommissionService{commissionRepo: commissionRepo, holdDays: holdDays}
}

// CreateFromAllocation 依据分账结果生成佣金记录（pending，留存期后可审批）
func (s *CommissionService) CreateFromAllocation(quote *models.Quote, allocation *models.FundAllocation) (*models.Commission, error) {
	if quote == nil {
		return nil, ErrQuoteNotFound
	}
	if allocation == nil || len(allocation.Items) == 0 {
		return nil, ErrAllocationNotFound
	}

	amount := decimal.Zero
	for _, item := range allocation.Items {
		amount = amount.Add(item.AgentCommission.Decimal)
	}
	base := allocation.TotalPaid.Decimal
	rate := decimal.Zero
	if base.IsPositive() {
		rate = amount.Div(base).Mul(decimal.NewFromInt(100)).Round(2)
	}

	now := time.Now()
	availableAt := now.AddDate(0, 0, s.holdDays)
	allocationID := allocation.ID
	commission := models.Commission{
		AgentID:          quote.AgentID,
		QuoteID:          quote.ID,
		FundAllocationID: &allocationID,
		BookingAmount:    allocation.TotalPaid,
		CommissionRate:   models.NewMoneyFromDecimal(rate),
		CommissionAmount: models.NewMoneyFromDecimal(amount),
		Status:           constants.CommissionStatusPending,
		EarnedDate:       now,
		AvailableAt:      &availableAt,
	}
	if err := s.commissionRepo.Create(&commission); err != nil {
		return nil, err
	}
	return &commission, nil
}

// Approve 审批佣金（仅 pending 可审批）
func (s *CommissionService) Approve(id uint) (*models.Commission, error) {
	return s.transition(id, constants.CommissionStatusPending, constants.CommissionStatusApproved, "approved_at")
}

// Pay 支付佣金（仅 approved 可支付）
func (s *CommissionService) Pay(id uint) (*models.Commission, error) {
	return s.transition(id, constants.CommissionStatusApproved, constants.CommissionStatusPaid, "paid_at")
}

// Dispute 将佣金转入争议（pending/approved 可争议，paid 不可）
func (s *CommissionService) Dispute(id uint, reason string) (*models.Commission, error) {
	commission, err := s.commissionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if commission == nil {
		return nil, ErrCommissionNotFound
	}
	if commission.Status != constants.CommissionStatusPending &&
		commission.Status != constants.CommissionStatusApproved {
		return nil, fmt.Errorf("%w: %s -> disputed", ErrCommissionState, commission.Status)
	}
	now := time.Now()
	updates := map[string]interface{}{"disputed_at": now}
	if reason != "" {
		updates["reason"] = reason
	}
	if err := s.commissionRepo.UpdateStatus(id, constants.CommissionStatusDisputed, updates); err != nil {
		return nil, err
	}
	return s.commissionRepo.GetByID(id)
}

// ClawbackForRefund 退款后的佣金处理：
// 已支付佣金按退款比例生成负额追回记录（pending）；
// 未支付（pending/approved）佣金直接转争议，不产生负额记录。
func (s *CommissionService) ClawbackForRefund(quoteID uint, refundPercentage float64) ([]models.Commission, error) {
	commissions, err := s.commissionRepo.ListByQuote(quoteID)
	if err != nil {
		return nil, err
	}
	pct := decimal.NewFromFloat(refundPercentage)
	if pct.IsNegative() {
		pct = decimal.Zero
	}

	var clawbacks []models.Commission
	now := time.Now()
	for _, commission := range commissions {
		if commission.IsClawback() || !commission.CommissionAmount.IsPositive() {
			continue
		}
		switch commission.Status {
		case constants.CommissionStatusPaid:
			if pct.IsZero() {
				continue
			}
			clawAmount := commission.CommissionAmount.PercentOf(pct)
			originalID := commission.ID
			clawback := models.Commission{
				AgentID:          commission.AgentID,
				QuoteID:          commission.QuoteID,
				FundAllocationID: commission.FundAllocationID,
				OriginalID:       &originalID,
				BookingAmount:    commission.BookingAmount,
				CommissionRate:   commission.CommissionRate,
				CommissionAmount: models.NewMoneyFromDecimal(clawAmount.Decimal.Neg()),
				Status:           constants.CommissionStatusPending,
				EarnedDate:       now,
				Reason:           "退款追回",
			}
			if err := s.commissionRepo.Create(&clawback); err != nil {
				return nil, err
			}
			clawbacks = append(clawbacks, clawback)
		case constants.CommissionStatusPending, constants.CommissionStatusApproved:
			// 资金尚未流出，直接争议即可
			if err := s.commissionRepo.UpdateStatus(commission.ID, constants.CommissionStatusDisputed, map[string]interface{}{
				"disputed_at": now,
				"reason":      "退款争议",
			}); err != nil {
				return nil, err
			}
		}
	}
	return clawbacks, nil
}

// ApproveDueCommissions 审批留存期已到的佣金（worker 周期调用）
func (s *CommissionService) ApproveDueCommissions(now time.Time) error {
	due, err := s.commissionRepo.ListDueForApproval(now)
	if err != nil {
		return err
	}
	for _, commission := range due {
		if _, err := s.Approve(commission.ID); err != nil {
			logger.Warnw("commission_auto_approve_failed", "commission_id", commission.ID, "error", err)
		}
	}
	return nil
}

// ListByQuote 查询报价单的佣金记录
func (s *CommissionService) ListByQuote(quoteID uint) ([]models.Commission, error) {
	return s.commissionRepo.ListByQuote(quoteID)
}

// List 查询佣金列表
func (s *CommissionService) List(filter repository.CommissionListFilter) ([]models.Commission, int64, error) {
	return s.commissionRepo.List(filter)
}

func (s *CommissionService) transition(id uint, from, to, timestampField string) (*models.Commission, error) {
	commission, err := s.commissionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if commission == nil {
		return nil, ErrCommissionNotFound
	}
	if commission.Status != from {
		return nil, fmt.Errorf("%w: %s -> %s", ErrCommissionState, commission.Status, to)
	}
	if err := s.commissionRepo.UpdateStatus(id, to, map[string]interface{}{timestampField: time.Now()}); err != nil {
		return nil, err
	}
	return s.commissionRepo.GetByID(id)
}
