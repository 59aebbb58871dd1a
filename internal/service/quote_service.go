package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voyago-next/internal/constants"
	"github.com/voyago-next/internal/gateway"
	"github.com/voyago-next/internal/inventory"
	"github.com/voyago-next/internal/logger"
	"github.com/voyago-next/internal/models"
	"github.com/voyago-next/internal/repository"
)

// QuoteLocker 报价单级互斥锁。同一报价单的资金操作串行执行。
type QuoteLocker interface {
	Lock(ctx context.Context, quoteID uint) (func(), error)
}

// BookingEnqueuer 预订派发异步入队端口
type BookingEnqueuer interface {
	EnqueueBookingDispatch(ctx context.Context, quoteID, paymentID uint) error
}

// QuoteItemInput 行程项创建入参
type QuoteItemInput struct {
	Kind               string                     `json:"kind" binding:"required"`
	Name               string                     `json:"name" binding:"required"`
	Location           string                     `json:"location"`
	SupplierSource     string                     `json:"supplier_source" binding:"required"`
	ProviderItemRef    string                     `json:"provider_item_ref"`
	ClientPrice        *float64                   `json:"client_price"`
	SupplierCost       *float64                   `json:"supplier_cost"`
	CommissionPercent  float64                    `json:"commission_percent"`
	Occupancy          int                        `json:"occupancy"`
	Participants       int                        `json:"participants"`
	RatePerPerson      bool                       `json:"rate_per_person"`
	StartDate          time.Time                  `json:"start_date" binding:"required"`
	EndDate            time.Time                  `json:"end_date" binding:"required"`
	CancellationPolicy *models.CancellationPolicy `json:"cancellation_policy"`
}

// CreateQuoteInput 报价单创建入参
type CreateQuoteInput struct {
	AgentID     uint             `json:"agent_id" binding:"required"`
	ClientName  string           `json:"client_name" binding:"required"`
	ClientEmail string           `json:"client_email"`
	Currency    string           `json:"currency" binding:"required"`
	Items       []QuoteItemInput `json:"items" binding:"required"`
}

// ConfirmPaymentResult 收款确认结果
type ConfirmPaymentResult struct {
	Payment    *models.Payment        `json:"payment"`
	Allocation *models.FundAllocation `json:"allocation"`
	Commission *models.Commission     `json:"commission,omitempty"`
	Duplicate  bool                   `json:"duplicate"`
}

// RefundExecution 取消退款执行结果
type RefundExecution struct {
	Calculation *RefundCalculation     `json:"calculation"`
	Refunds     []gateway.RefundResult `json:"refunds"`
	Clawbacks   []models.Commission    `json:"clawbacks,omitempty"`
	QuoteStatus string                 `json:"quote_status"`
}

// QuoteService 报价单编排服务：报价、定价、收款确认、派发、取消退款
type QuoteService struct {
	quoteRepo   repository.QuoteRepository
	agentRepo   repository.AgentRepository
	paymentRepo repository.PaymentRepository
	pricing     PricingPolicy
	matcher     *RateMatcherService
	guard       *RepricingGuard
	allocator   *FundAllocationService
	commissions *CommissionService
	refunds     *RefundPolicyService
	dispatcher  *BookingDispatcher
	payGateway  gateway.PaymentGateway
	locker      QuoteLocker
	enqueuer    BookingEnqueuer
}

// NewQuoteService 创建报价单编排服务
func NewQuoteService(
	quoteRepo repository.QuoteRepository,
	agentRepo repository.AgentRepository,
	paymentRepo repository.PaymentRepository,
	pricing PricingPolicy,
	matcher *RateMatcherService,
	guard *RepricingGuard,
	allocator *FundAllocationService,
	commissions *CommissionService,
	refunds *RefundPolicyService,
	dispatcher *BookingDispatcher,
	payGateway gateway.PaymentGateway,
	locker QuoteLocker,
	enqueuer BookingEnqueuer,
) *QuoteService {
	return &QuoteService{
		quoteRepo:   quoteRepo,
		agentRepo:   agentRepo,
		paymentRepo: paymentRepo,
		pricing:     pricing,
		matcher:     matcher,
		guard:       guard,
		allocator:   allocator,
		commissions: commissions,
		refunds:     refunds,
		dispatcher:  dispatcher,
		payGateway:  payGateway,
		locker:      locker,
		enqueuer:    enqueuer,
	}
}

// CreateQuote 创建报价单。缺成本的行程项先走费率匹配，
// 客户价缺省时由成本加价计算，总额为各项客户价之和。
func (s *QuoteService) CreateQuote(input CreateQuoteInput) (*models.Quote, error) {
	if len(input.Items) == 0 {
		return nil, ErrQuoteInvalid
	}
	agent, err := s.agentRepo.GetByID(input.AgentID)
	if err != nil {
		return nil, err
	}
	if agent == nil || !agent.Active {
		return nil, ErrAgentNotFound
	}
	markup := s.pricing.ResolveMarkup(agent)

	var travelStart, travelEnd *time.Time
	items := make([]models.QuoteItem, 0, len(input.Items))
	total := decimal.Zero
	for _, in := range input.Items {
		if !constants.IsSupplierSource(in.SupplierSource) || in.Name == "" {
			return nil, ErrQuoteInvalid
		}
		if !in.EndDate.After(in.StartDate) && !in.EndDate.Equal(in.StartDate) {
			return nil, ErrQuoteInvalid
		}
		item := models.QuoteItem{
			Kind:               in.Kind,
			Name:               in.Name,
			Location:           in.Location,
			SupplierSource:     in.SupplierSource,
			ProviderItemRef:    in.ProviderItemRef,
			CommissionPercent:  models.NewMoneyFromFloat(in.CommissionPercent),
			Occupancy:          in.Occupancy,
			Participants:       in.Participants,
			RatePerPerson:      in.RatePerPerson,
			StartDate:          in.StartDate,
			EndDate:            in.EndDate,
			CancellationPolicy: in.CancellationPolicy,
		}
		if in.SupplierCost != nil {
			cost := models.NewMoneyFromFloat(*in.SupplierCost)
			item.SupplierCost = &cost
		} else if s.matcher != nil {
			match, err := s.matcher.Match(item)
			if err != nil {
				return nil, err
			}
			if match.Matched {
				cost := match.SupplierCost
				item.SupplierCost = &cost
			}
		}

		switch {
		case in.ClientPrice != nil:
			item.ClientPrice = models.NewMoneyFromFloat(*in.ClientPrice)
		case item.SupplierCost != nil:
			item.ClientPrice = ClientPrice(*item.SupplierCost, markup, s.pricing)
		default:
			return nil, ErrItemCostMissing
		}
		total = total.Add(item.ClientPrice.Decimal)

		if travelStart == nil || in.StartDate.Before(*travelStart) {
			start := in.StartDate
			travelStart = &start
		}
		if travelEnd == nil || in.EndDate.After(*travelEnd) {
			end := in.EndDate
			travelEnd = &end
		}
		items = append(items, item)
	}

	quote := &models.Quote{
		QuoteNo:     uuid.New().String(),
		AgentID:     agent.ID,
		ClientName:  input.ClientName,
		ClientEmail: input.ClientEmail,
		Status:      constants.QuoteStatusDraft,
		Currency:    input.Currency,
		TotalAmount: models.NewMoneyFromDecimal(total),
		TravelStart: travelStart,
		TravelEnd:   travelEnd,
	}
	if err := s.quoteRepo.Create(quote, items); err != nil {
		return nil, err
	}
	logger.Infow("quote_created", "quote_id", quote.ID, "quote_no", quote.QuoteNo,
		"agent_id", agent.ID, "total_amount", quote.TotalAmount.String(), "item_count", len(items))
	return s.quoteRepo.GetByID(quote.ID)
}

// Accept 客户接受报价（draft -> accepted）
func (s *QuoteService) Accept(quoteID uint) (*models.Quote, error) {
	quote, err := s.getQuote(quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status != constants.QuoteStatusDraft {
		return nil, ErrQuoteStateInvalid
	}
	now := time.Now()
	if err := s.quoteRepo.UpdateStatus(quote.ID, constants.QuoteStatusAccepted,
		map[string]interface{}{"accepted_at": now}); err != nil {
		return nil, err
	}
	return s.getQuote(quoteID)
}

// Reprice 对报价单执行实时复价，不落库，仅返回漂移明细
func (s *QuoteService) Reprice(ctx context.Context, quoteID uint) (*RepriceResult, error) {
	quote, err := s.getQuote(quoteID)
	if err != nil {
		return nil, err
	}
	return s.guard.Reprice(ctx, quote)
}

// ConfirmPayment 收款确认补偿链：复价 -> 落款 -> 资金分账 -> 计佣。
// 计佣失败回滚分账并把收款标记失败，不留下孤儿分账。
// 同一网关流水号重复投递幂等返回既有结果。
func (s *QuoteService) ConfirmPayment(ctx context.Context, quoteID uint, event gateway.CaptureEvent) (*ConfirmPaymentResult, error) {
	quote, err := s.getQuote(quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status != constants.QuoteStatusAccepted && quote.Status != constants.QuoteStatusConfirmed {
		return nil, ErrQuoteStateInvalid
	}
	if event.ProviderRef == "" || !event.Amount.IsPositive() {
		return nil, ErrPaymentInvalid
	}

	// 复价在锁外执行：只读外部调用，不应占用报价单锁
	reprice, err := s.guard.Reprice(ctx, quote)
	if err != nil {
		return nil, err
	}
	if reprice.Drifted {
		return nil, reprice.DriftError(quote.ID)
	}

	unlock, err := s.locker.Lock(ctx, quote.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.findPaymentByProviderRef(quote.ID, event.ProviderRef)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Infow("confirm_payment_duplicate", "quote_id", quote.ID, "provider_ref", event.ProviderRef)
		allocation, err := s.allocator.GetByPaymentID(existing.ID)
		if err != nil {
			return nil, err
		}
		return &ConfirmPaymentResult{Payment: existing, Allocation: allocation, Duplicate: true}, nil
	}

	capturedAt := event.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}
	payment := &models.Payment{
		PaymentNo:   uuid.New().String(),
		QuoteID:     quote.ID,
		Kind:        event.Kind,
		Amount:      event.Amount,
		Status:      constants.PaymentStatusSucceeded,
		ProviderRef: event.ProviderRef,
		CapturedAt:  &capturedAt,
	}
	if payment.Kind == "" {
		payment.Kind = constants.PaymentKindFull
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	allocation, err := s.allocator.Allocate(quote, payment)
	if err != nil {
		if updateErr := s.paymentRepo.UpdateStatus(payment.ID, constants.PaymentStatusFailed, nil); updateErr != nil {
			logger.Errorw("confirm_payment_mark_failed_error", "payment_id", payment.ID, "error", updateErr)
		}
		return nil, err
	}

	commission, err := s.commissions.CreateFromAllocation(quote, allocation)
	if err != nil {
		logger.Warnw("confirm_payment_commission_failed_compensating",
			"quote_id", quote.ID, "allocation_id", allocation.ID, "error", err)
		if rollbackErr := s.allocator.Rollback(allocation.ID); rollbackErr != nil {
			logger.Errorw("confirm_payment_rollback_failed",
				"allocation_id", allocation.ID, "error", rollbackErr)
		}
		if updateErr := s.paymentRepo.UpdateStatus(payment.ID, constants.PaymentStatusFailed, nil); updateErr != nil {
			logger.Errorw("confirm_payment_mark_failed_error", "payment_id", payment.ID, "error", updateErr)
		}
		return nil, err
	}

	if quote.Status != constants.QuoteStatusConfirmed {
		now := time.Now()
		if err := s.quoteRepo.UpdateStatus(quote.ID, constants.QuoteStatusConfirmed,
			map[string]interface{}{"confirmed_at": now}); err != nil {
			return nil, err
		}
	}
	logger.Infow("payment_confirmed", "quote_id", quote.ID, "payment_id", payment.ID,
		"amount", payment.Amount.String(), "allocation_id", allocation.ID)

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueBookingDispatch(ctx, quote.ID, payment.ID); err != nil {
			logger.Errorw("booking_dispatch_enqueue_failed", "quote_id", quote.ID, "error", err)
		}
	}

	return &ConfirmPaymentResult{Payment: payment, Allocation: allocation, Commission: commission}, nil
}

// DispatchBooking 派发报价单预订（confirmed / partially_booked 可重入）
func (s *QuoteService) DispatchBooking(ctx context.Context, quoteID uint, holder inventory.HolderInfo) (*DispatchResult, error) {
	unlock, err := s.locker.Lock(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	quote, err := s.getQuote(quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status != constants.QuoteStatusConfirmed && quote.Status != constants.QuoteStatusPartiallyBooked {
		return nil, ErrQuoteStateInvalid
	}
	if holder.Name == "" {
		holder.Name = quote.ClientName
	}
	if holder.Email == "" {
		holder.Email = quote.ClientEmail
	}

	result, err := s.dispatcher.Dispatch(ctx, quote, holder)
	if err != nil {
		return nil, err
	}

	status := constants.QuoteStatusPartiallyBooked
	if result.AllBooked() {
		status = constants.QuoteStatusBooked
	}
	if err := s.quoteRepo.UpdateStatus(quote.ID, status, nil); err != nil {
		return nil, err
	}
	logger.Infow("booking_dispatched", "quote_id", quote.ID, "status", status,
		"provider_results", len(result.ProviderResults), "manual_tasks", len(result.ManualTaskIDs))
	return result, nil
}

// PreviewRefund 仅计算退款方案，不执行任何写入
func (s *QuoteService) PreviewRefund(quoteID uint) (*RefundCalculation, error) {
	quote, err := s.getQuote(quoteID)
	if err != nil {
		return nil, err
	}
	totalPaid, err := s.totalPaid(quote.ID)
	if err != nil {
		return nil, err
	}
	commissions, err := s.commissions.ListByQuote(quote.ID)
	if err != nil {
		return nil, err
	}
	return s.refunds.Compute(quote, totalPaid, commissions)
}

// CancelAndRefund 取消报价单并退款：计算方案 -> 网关退款 ->
// 托管资金追回 -> 佣金追回 -> 终态落库。未收款的报价单直接取消。
func (s *QuoteService) CancelAndRefund(ctx context.Context, quoteID uint) (*RefundExecution, error) {
	unlock, err := s.locker.Lock(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	quote, err := s.getQuote(quoteID)
	if err != nil {
		return nil, err
	}
	switch quote.Status {
	case constants.QuoteStatusCancelled, constants.QuoteStatusRefunded:
		return nil, ErrRefundNotAllowed
	}

	now := time.Now()
	payments, err := s.paymentRepo.ListByQuote(quote.ID)
	if err != nil {
		return nil, err
	}
	succeeded := make([]models.Payment, 0, len(payments))
	totalPaid := decimal.Zero
	for _, p := range payments {
		if p.Status == constants.PaymentStatusSucceeded {
			succeeded = append(succeeded, p)
			totalPaid = totalPaid.Add(p.Amount.Decimal)
		}
	}

	if len(succeeded) == 0 {
		if err := s.quoteRepo.UpdateStatus(quote.ID, constants.QuoteStatusCancelled,
			map[string]interface{}{"cancelled_at": now}); err != nil {
			return nil, err
		}
		return &RefundExecution{QuoteStatus: constants.QuoteStatusCancelled}, nil
	}

	commissions, err := s.commissions.ListByQuote(quote.ID)
	if err != nil {
		return nil, err
	}
	calc, err := s.refunds.Compute(quote, models.NewMoneyFromDecimal(totalPaid), commissions)
	if err != nil {
		return nil, err
	}

	execution := &RefundExecution{Calculation: calc}
	if calc.ClientReceives.IsPositive() {
		remaining := calc.ClientReceives.Decimal
		for _, p := range succeeded {
			if !remaining.IsPositive() {
				break
			}
			amount := decimal.Min(remaining, p.Amount.Decimal)
			result, err := s.payGateway.Refund(ctx, p.ProviderRef, models.NewMoneyFromDecimal(amount))
			if err != nil {
				logger.Errorw("refund_gateway_failed", "quote_id", quote.ID,
					"payment_id", p.ID, "error", err)
				return nil, err
			}
			execution.Refunds = append(execution.Refunds, *result)
			if err := s.paymentRepo.UpdateStatus(p.ID, constants.PaymentStatusRefunded,
				map[string]interface{}{"refunded_at": now}); err != nil {
				return nil, err
			}
			remaining = remaining.Sub(amount)
		}
	}

	for _, item := range quote.Items {
		if _, err := s.allocator.ClawbackItemEscrow(item.ID, now); err != nil {
			logger.Errorw("refund_escrow_clawback_failed", "quote_item_id", item.ID, "error", err)
		}
	}

	if calc.ShouldClawbackCommission {
		clawbacks, err := s.commissions.ClawbackForRefund(quote.ID, calc.RefundPercentage)
		if err != nil {
			return nil, err
		}
		execution.Clawbacks = clawbacks
	}

	status := constants.QuoteStatusCancelled
	if calc.RefundAmount.IsPositive() {
		status = constants.QuoteStatusRefunded
	}
	if err := s.quoteRepo.UpdateStatus(quote.ID, status,
		map[string]interface{}{"cancelled_at": now}); err != nil {
		return nil, err
	}
	execution.QuoteStatus = status
	logger.Infow("quote_refunded", "quote_id", quote.ID, "status", status,
		"refund_percentage", calc.RefundPercentage,
		"client_receives", calc.ClientReceives.String())
	return execution, nil
}

// GetQuote 查询报价单详情
func (s *QuoteService) GetQuote(quoteID uint) (*models.Quote, error) {
	return s.getQuote(quoteID)
}

// GetQuoteByNo 按编号查询报价单详情
func (s *QuoteService) GetQuoteByNo(quoteNo string) (*models.Quote, error) {
	quote, err := s.quoteRepo.GetByQuoteNo(quoteNo)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, ErrQuoteNotFound
	}
	return quote, nil
}

// ListQuotes 分页查询报价单
func (s *QuoteService) ListQuotes(filter repository.QuoteListFilter) ([]models.Quote, int64, error) {
	return s.quoteRepo.List(filter)
}

func (s *QuoteService) getQuote(quoteID uint) (*models.Quote, error) {
	quote, err := s.quoteRepo.GetByID(quoteID)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, ErrQuoteNotFound
	}
	return quote, nil
}

func (s *QuoteService) findPaymentByProviderRef(quoteID uint, providerRef string) (*models.Payment, error) {
	payments, err := s.paymentRepo.ListByQuote(quoteID)
	if err != nil {
		return nil, err
	}
	for i := range payments {
		if payments[i].ProviderRef == providerRef {
			return &payments[i], nil
		}
	}
	return nil, nil
}

func (s *QuoteService) totalPaid(quoteID uint) (models.Money, error) {
	payments, err := s.paymentRepo.ListByQuote(quoteID)
	if err != nil {
		return models.Money{}, err
	}
	total := decimal.Zero
	for _, p := range payments {
		if p.Status == constants.PaymentStatusSucceeded {
			total = total.Add(p.Amount.Decimal)
		}
	}
	return models.NewMoneyFromDecimal(total), nil
}
