package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/voyago-next/internal/constants"
	"github.com/voyago-next/internal/models"
	"github.com/voyago-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCommissionTest(t *testing.T, holdDays int) (*CommissionService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:commission_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Commission{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewCommissionService(repository.NewCommissionRepository(db), holdDays)
	return svc, db
}

func createCommissionTestRow(t *testing.T, db *gorm.DB, quoteID uint, amount float64, status string) models.Commission {
	t.Helper()

	row := models.Commission{
		AgentID:          1,
		QuoteID:          quoteID,
		BookingAmount:    models.NewMoneyFromFloat(1000),
		CommissionRate:   models.NewMoneyFromFloat(11.2),
		CommissionAmount: models.NewMoneyFromFloat(amount),
		Status:           status,
		EarnedDate:       time.Now(),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create commission failed: %v", err)
	}
	return row
}

func TestCreateFromAllocationSumsItemCommissions(t *testing.T) {
	svc, _ := setupCommissionTest(t, 7)

	quote := &models.Quote{ID: 3, AgentID: 9}
	allocation := &models.FundAllocation{
		ID:        5,
		TotalPaid: models.NewMoneyFromFloat(1000),
		Items: []models.FundAllocationItem{
			{AgentCommission: models.NewMoneyFromFloat(72)},
			{AgentCommission: models.NewMoneyFromFloat(40)},
		},
	}

	commission, err := svc.CreateFromAllocation(quote, allocation)
	if err != nil {
		t.Fatalf("create from allocation failed: %v", err)
	}
	if commission.CommissionAmount.String() != "112.00" {
		t.Fatalf("expected commission 112.00, got %s", commission.CommissionAmount)
	}
	if commission.CommissionRate.String() != "11.20" {
		t.Fatalf("expected rate 11.20, got %s", commission.CommissionRate)
	}
	if commission.Status != constants.CommissionStatusPending {
		t.Fatalf("expected pending status, got %s", commission.Status)
	}
	if commission.AvailableAt == nil {
		t.Fatalf("expected hold period availability set")
	}
	wantAvailable := time.Now().AddDate(0, 0, 7)
	if commission.AvailableAt.Before(wantAvailable.Add(-time.Minute)) ||
		commission.AvailableAt.After(wantAvailable.Add(time.Minute)) {
		t.Fatalf("expected available around %s, got %s", wantAvailable, commission.AvailableAt)
	}
}

func TestCommissionLifecycleTransitions(t *testing.T) {
	svc, db := setupCommissionTest(t, 0)

	row := createCommissionTestRow(t, db, 1, 112, constants.CommissionStatusPending)

	approved, err := svc.Approve(row.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != constants.CommissionStatusApproved || approved.ApprovedAt == nil {
		t.Fatalf("expected approved with timestamp, got %+v", approved)
	}

	paid, err := svc.Pay(row.ID)
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if paid.Status != constants.CommissionStatusPaid || paid.PaidAt == nil {
		t.Fatalf("expected paid with timestamp, got %+v", paid)
	}
}

func TestCommissionInvalidTransitionsRejected(t *testing.T) {
	svc, db := setupCommissionTest(t, 0)

	pending := createCommissionTestRow(t, db, 1, 50, constants.CommissionStatusPending)
	if _, err := svc.Pay(pending.ID); !errors.Is(err, ErrCommissionState) {
		t.Fatalf("expected pending->paid rejected, got %v", err)
	}

	paidRow := createCommissionTestRow(t, db, 1, 60, constants.CommissionStatusPaid)
	if _, err := svc.Approve(paidRow.ID); !errors.Is(err, ErrCommissionState) {
		t.Fatalf("expected paid->approved rejected, got %v", err)
	}
	if _, err := svc.Dispute(paidRow.ID, "late complaint"); !errors.Is(err, ErrCommissionState) {
		t.Fatalf("expected paid->disputed rejected, got %v", err)
	}

	if _, err := svc.Approve(99999); !errors.Is(err, ErrCommissionNotFound) {
		t.Fatalf("expected ErrCommissionNotFound, got %v", err)
	}
}

func TestDisputeRecordsReason(t *testing.T) {
	svc, db := setupCommissionTest(t, 0)

	row := createCommissionTestRow(t, db, 1, 50, constants.CommissionStatusApproved)
	disputed, err := svc.Dispute(row.ID, "客户投诉核查")
	if err != nil {
		t.Fatalf("dispute failed: %v", err)
	}
	if disputed.Status != constants.CommissionStatusDisputed || disputed.DisputedAt == nil {
		t.Fatalf("expected disputed with timestamp, got %+v", disputed)
	}
	if disputed.Reason != "客户投诉核查" {
		t.Fatalf("expected reason persisted, got %q", disputed.Reason)
	}
}

func TestClawbackForRefundPaidCommission(t *testing.T) {
	svc, db := setupCommissionTest(t, 0)

	paidRow := createCommissionTestRow(t, db, 7, 112, constants.CommissionStatusPaid)

	clawbacks, err := svc.ClawbackForRefund(7, 50)
	if err != nil {
		t.Fatalf("clawback failed: %v", err)
	}
	if len(clawbacks) != 1 {
		t.Fatalf("expected one clawback row, got %d", len(clawbacks))
	}
	clawback := clawbacks[0]
	if clawback.CommissionAmount.String() != "-56.00" {
		t.Fatalf("expected clawback -56.00 (50%% of 112), got %s", clawback.CommissionAmount)
	}
	if clawback.OriginalID == nil || *clawback.OriginalID != paidRow.ID {
		t.Fatalf("expected clawback linked to original %d, got %+v", paidRow.ID, clawback.OriginalID)
	}
	if clawback.Status != constants.CommissionStatusPending {
		t.Fatalf("expected clawback pending, got %s", clawback.Status)
	}
	if clawback.Reason != "退款追回" {
		t.Fatalf("unexpected clawback reason %q", clawback.Reason)
	}

	// 原已支付记录不可改写
	var original models.Commission
	if err := db.First(&original, paidRow.ID).Error; err != nil {
		t.Fatalf("load original failed: %v", err)
	}
	if original.Status != constants.CommissionStatusPaid {
		t.Fatalf("paid commission must stay paid, got %s", original.Status)
	}
	if original.CommissionAmount.String() != "112.00" {
		t.Fatalf("paid commission amount must stay 112.00, got %s", original.CommissionAmount)
	}
}

func TestClawbackForRefundDisputesUnpaidCommissions(t *testing.T) {
	svc, db := setupCommissionTest(t, 0)

	pending := createCommissionTestRow(t, db, 8, 40, constants.CommissionStatusPending)
	approved := createCommissionTestRow(t, db, 8, 60, constants.CommissionStatusApproved)

	clawbacks, err := svc.ClawbackForRefund(8, 100)
	if err != nil {
		t.Fatalf("clawback failed: %v", err)
	}
	if len(clawbacks) != 0 {
		t.Fatalf("unpaid commissions must not produce negative rows, got %d", len(clawbacks))
	}

	for _, id := range []uint{pending.ID, approved.ID} {
		var row models.Commission
		if err := db.First(&row, id).Error; err != nil {
			t.Fatalf("load commission failed: %v", err)
		}
		if row.Status != constants.CommissionStatusDisputed {
			t.Fatalf("expected commission %d disputed, got %s", id, row.Status)
		}
	}
}

func TestClawbackForRefundSkipsExistingClawbackRows(t *testing.T) {
	svc, db := setupCommissionTest(t, 0)

	paidRow := createCommissionTestRow(t, db, 9, 100, constants.CommissionStatusPaid)
	if _, err := svc.ClawbackForRefund(9, 100); err != nil {
		t.Fatalf("first clawback failed: %v", err)
	}
	// 再次追回：既有负额记录既非正额也带 original_id，应跳过
	clawbacks, err := svc.ClawbackForRefund(9, 100)
	if err != nil {
		t.Fatalf("second clawback failed: %v", err)
	}
	if len(clawbacks) != 1 {
		t.Fatalf("expected only the paid row clawed back again, got %d", len(clawbacks))
	}
	if clawbacks[0].OriginalID == nil || *clawbacks[0].OriginalID != paidRow.ID {
		t.Fatalf("expected clawback of original row, got %+v", clawbacks[0].OriginalID)
	}
}

func TestClawbackForRefundZeroPercentSkipsPaid(t *testing.T) {
	svc, db := setupCommissionTest(t, 0)

	createCommissionTestRow(t, db, 10, 100, constants.CommissionStatusPaid)
	clawbacks, err := svc.ClawbackForRefund(10, 0)
	if err != nil {
		t.Fatalf("clawback failed: %v", err)
	}
	if len(clawbacks) != 0 {
		t.Fatalf("expected no clawback at 0%%, got %d", len(clawbacks))
	}
}

func TestApproveDueCommissions(t *testing.T) {
	svc, db := setupCommissionTest(t, 0)

	due := time.Now().Add(-time.Hour)
	notDue := time.Now().Add(24 * time.Hour)

	dueRow := createCommissionTestRow(t, db, 11, 50, constants.CommissionStatusPending)
	if err := db.Model(&models.Commission{}).Where("id = ?", dueRow.ID).Update("available_at", due).Error; err != nil {
		t.Fatalf("set available_at failed: %v", err)
	}
	heldRow := createCommissionTestRow(t, db, 11, 60, constants.CommissionStatusPending)
	if err := db.Model(&models.Commission{}).Where("id = ?", heldRow.ID).Update("available_at", notDue).Error; err != nil {
		t.Fatalf("set available_at failed: %v", err)
	}

	if err := svc.ApproveDueCommissions(time.Now()); err != nil {
		t.Fatalf("approve due failed: %v", err)
	}

	var row models.Commission
	if err := db.First(&row, dueRow.ID).Error; err != nil {
		t.Fatalf("load due row failed: %v", err)
	}
	if row.Status != constants.CommissionStatusApproved {
		t.Fatalf("expected due commission approved, got %s", row.Status)
	}
	row = models.Commission{}
	if err := db.First(&row, heldRow.ID).Error; err != nil {
		t.Fatalf("load held row failed: %v", err)
	}
	if row.Status != constants.CommissionStatusPending {
		t.Fatalf("expected held commission still pending, got %s", row.Status)
	}
}
