package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/voyago-next/internal/constants"
	"github.com/voyago-next/internal/inventory"
	"github.com/voyago-next/internal/models"
	"github.com/voyago-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type recordingTaskReminder struct {
	taskIDs []uint
	delays  []time.Duration
}

func (r *recordingTaskReminder) EnqueueBookingTaskRemind(taskID uint, delay time.Duration) error {
	r.taskIDs = append(r.taskIDs, taskID)
	r.delays = append(r.delays, delay)
	return nil
}

func setupBookingDispatcherTest(t *testing.T, registry *inventory.Registry, reminder TaskReminder) (*BookingDispatcher, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:booking_dispatcher_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Quote{}, &models.QuoteItem{}, &models.BookingTask{},
		&models.FundAllocation{}, &models.FundAllocationItem{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	dispatcher := NewBookingDispatcher(
		registry,
		repository.NewBookingTaskRepository(db),
		repository.NewFundAllocationRepository(db),
		repository.NewQuoteRepository(db),
		reminder,
		time.Second, 1, 2,
	)
	return dispatcher, db
}

// createDispatcherTestQuote 一个实时供应商项加一个线下项，托管均为 held
func createDispatcherTestQuote(t *testing.T, db *gorm.DB) *models.Quote {
	t.Helper()

	quote := models.Quote{
		QuoteNo:    fmt.Sprintf("qn-dispatch-%d", time.Now().UnixNano()),
		AgentID:    1,
		ClientName: "client",
		Status:     constants.QuoteStatusConfirmed,
		Currency:   "USD",
	}
	if err := db.Create(&quote).Error; err != nil {
		t.Fatalf("create quote failed: %v", err)
	}

	start := time.Now().AddDate(0, 1, 0)
	items := []models.QuoteItem{
		{
			QuoteID:         quote.ID,
			Kind:            constants.ItemKindActivity,
			Name:            "Half-Day Snorkeling",
			SupplierSource:  constants.SupplierSourceProviderA,
			ProviderItemRef: "act-001",
			ClientPrice:     models.NewMoneyFromFloat(400),
			StartDate:       start,
			EndDate:         start,
		},
		{
			QuoteID:        quote.ID,
			Kind:           constants.ItemKindHotel,
			Name:           "Bayview Garden Hotel",
			SupplierSource: constants.SupplierSourceOfflinePlatform,
			ClientPrice:    models.NewMoneyFromFloat(600),
			StartDate:      start,
			EndDate:        start.AddDate(0, 0, 3),
		},
	}
	if err := db.Create(&items).Error; err != nil {
		t.Fatalf("create quote items failed: %v", err)
	}
	quote.Items = items

	allocation := models.FundAllocation{
		AllocationNo: fmt.Sprintf("an-%d", time.Now().UnixNano()),
		PaymentID:    quote.ID,
		QuoteID:      quote.ID,
		TotalPaid:    models.NewMoneyFromFloat(1000),
	}
	if err := db.Create(&allocation).Error; err != nil {
		t.Fatalf("create allocation failed: %v", err)
	}
	for _, item := range items {
		row := models.FundAllocationItem{
			FundAllocationID: allocation.ID,
			QuoteItemID:      item.ID,
			ClientPaid:       item.ClientPrice,
			SupplierCost:     models.NewMoneyFromFloat(100),
			PlatformFee:      models.NewMoneyFromFloat(10),
			AgentCommission:  models.NewMoneyFromFloat(20),
			EscrowStatus:     constants.EscrowStatusHeld,
		}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("create allocation item failed: %v", err)
		}
	}
	return &quote
}

func TestDispatchProviderSuccessReleasesEscrow(t *testing.T) {
	registry := inventory.NewRegistry()
	registry.Register(constants.SupplierSourceProviderA, &stubInventoryProvider{})
	dispatcher, db := setupBookingDispatcherTest(t, registry, nil)

	quote := createDispatcherTestQuote(t, db)
	result, err := dispatcher.Dispatch(context.Background(), quote, inventory.HolderInfo{Name: "traveler"})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if len(result.ProviderResults) != 1 || !result.ProviderResults[0].Success {
		t.Fatalf("expected provider booking success, got %+v", result.ProviderResults)
	}

	providerItem := quote.Items[0]
	var stored models.QuoteItem
	if err := db.First(&stored, providerItem.ID).Error; err != nil {
		t.Fatalf("load item failed: %v", err)
	}
	if stored.ConfirmationNumber != "CNF-TEST" {
		t.Fatalf("expected confirmation number written, got %q", stored.ConfirmationNumber)
	}
	if stored.SupplierCost == nil || stored.SupplierCost.String() != "100.00" {
		t.Fatalf("expected supplier cost backfilled from confirmation, got %+v", stored.SupplierCost)
	}

	var escrow models.FundAllocationItem
	if err := db.Where("quote_item_id = ?", providerItem.ID).First(&escrow).Error; err != nil {
		t.Fatalf("load escrow row failed: %v", err)
	}
	if escrow.EscrowStatus != constants.EscrowStatusReleased || escrow.ReleasedAt == nil {
		t.Fatalf("expected escrow released, got %s", escrow.EscrowStatus)
	}
	if escrow.SupplierDueAt == nil {
		t.Fatalf("expected supplier due marked")
	}

	// 线下项生成预订与确认件两个人工任务
	var tasks []models.BookingTask
	if err := db.Where("quote_item_id = ?", quote.Items[1].ID).Order("due_date ASC").Find(&tasks).Error; err != nil {
		t.Fatalf("load tasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 manual tasks for offline item, got %d", len(tasks))
	}
	if tasks[0].Kind != constants.BookingTaskKindBook || tasks[1].Kind != constants.BookingTaskKindUploadConfirmation {
		t.Fatalf("unexpected task kinds: %s / %s", tasks[0].Kind, tasks[1].Kind)
	}
	gap := tasks[1].DueDate.Sub(*tasks[0].DueDate)
	if gap < 23*time.Hour || gap > 25*time.Hour {
		t.Fatalf("expected confirmation task due one day after book task, got %s", gap)
	}
	if result.AllBooked() {
		t.Fatalf("manual tasks must keep quote from counting as fully booked")
	}
}

func TestDispatchProviderFailureFallsBackToManual(t *testing.T) {
	registry := inventory.NewRegistry()
	registry.Register(constants.SupplierSourceProviderA, &stubInventoryProvider{
		bookErr: inventory.ErrBookingRejected,
	})
	dispatcher, db := setupBookingDispatcherTest(t, registry, nil)

	quote := createDispatcherTestQuote(t, db)
	result, err := dispatcher.Dispatch(context.Background(), quote, inventory.HolderInfo{})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if len(result.ProviderResults) != 1 || result.ProviderResults[0].Success {
		t.Fatalf("expected provider booking failure, got %+v", result.ProviderResults)
	}
	if result.ProviderResults[0].Error == "" {
		t.Fatalf("expected failure reason carried in result")
	}

	// 失败项降级为人工任务，托管保持 held
	var tasks []models.BookingTask
	if err := db.Where("quote_item_id = ?", quote.Items[0].ID).Find(&tasks).Error; err != nil {
		t.Fatalf("load tasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected failed provider item degraded to manual tasks, got %d", len(tasks))
	}
	var escrow models.FundAllocationItem
	if err := db.Where("quote_item_id = ?", quote.Items[0].ID).First(&escrow).Error; err != nil {
		t.Fatalf("load escrow row failed: %v", err)
	}
	if escrow.EscrowStatus != constants.EscrowStatusHeld {
		t.Fatalf("failed booking must not release escrow, got %s", escrow.EscrowStatus)
	}
}

func TestDispatchProviderNotBoundFallsBackToManual(t *testing.T) {
	dispatcher, db := setupBookingDispatcherTest(t, inventory.NewRegistry(), nil)

	quote := createDispatcherTestQuote(t, db)
	result, err := dispatcher.Dispatch(context.Background(), quote, inventory.HolderInfo{})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if len(result.ProviderResults) != 1 || result.ProviderResults[0].Success {
		t.Fatalf("expected unbound provider to fail, got %+v", result.ProviderResults)
	}
	// 两个行程项各两个任务
	if len(result.ManualTaskIDs) != 4 {
		t.Fatalf("expected 4 manual tasks, got %d", len(result.ManualTaskIDs))
	}
}

func TestDispatchIsIdempotentOnRerun(t *testing.T) {
	registry := inventory.NewRegistry()
	registry.Register(constants.SupplierSourceProviderA, &stubInventoryProvider{})
	dispatcher, db := setupBookingDispatcherTest(t, registry, nil)

	quote := createDispatcherTestQuote(t, db)
	first, err := dispatcher.Dispatch(context.Background(), quote, inventory.HolderInfo{})
	if err != nil {
		t.Fatalf("first dispatch failed: %v", err)
	}
	second, err := dispatcher.Dispatch(context.Background(), quote, inventory.HolderInfo{})
	if err != nil {
		t.Fatalf("second dispatch failed: %v", err)
	}

	var taskCount int64
	if err := db.Model(&models.BookingTask{}).Where("quote_id = ?", quote.ID).Count(&taskCount).Error; err != nil {
		t.Fatalf("count tasks failed: %v", err)
	}
	if taskCount != 2 {
		t.Fatalf("expected rerun to not duplicate tasks, got %d", taskCount)
	}
	if len(first.ManualTaskIDs) != 2 || len(second.ManualTaskIDs) != 2 {
		t.Fatalf("expected both runs to report the same manual tasks, got %d / %d",
			len(first.ManualTaskIDs), len(second.ManualTaskIDs))
	}
}

func TestDispatchEnqueuesRemindersForNewManualTasks(t *testing.T) {
	registry := inventory.NewRegistry()
	registry.Register(constants.SupplierSourceProviderA, &stubInventoryProvider{})
	reminder := &recordingTaskReminder{}
	dispatcher, db := setupBookingDispatcherTest(t, registry, reminder)

	quote := createDispatcherTestQuote(t, db)
	result, err := dispatcher.Dispatch(context.Background(), quote, inventory.HolderInfo{})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if len(result.ManualTaskIDs) != 2 {
		t.Fatalf("expected 2 manual tasks for the offline item, got %d", len(result.ManualTaskIDs))
	}
	if len(reminder.taskIDs) != 2 {
		t.Fatalf("expected a reminder per new manual task, got %d", len(reminder.taskIDs))
	}
	// 延迟指向各自截止时间：预订一天、确认件两天
	if reminder.delays[0] < 23*time.Hour || reminder.delays[0] > 25*time.Hour {
		t.Fatalf("unexpected book task reminder delay: %s", reminder.delays[0])
	}
	if reminder.delays[1] < 47*time.Hour || reminder.delays[1] > 49*time.Hour {
		t.Fatalf("unexpected confirmation task reminder delay: %s", reminder.delays[1])
	}

	// 重派不重复投递提醒
	if _, err := dispatcher.Dispatch(context.Background(), quote, inventory.HolderInfo{}); err != nil {
		t.Fatalf("second dispatch failed: %v", err)
	}
	if len(reminder.taskIDs) != 2 {
		t.Fatalf("expected rerun to not enqueue new reminders, got %d", len(reminder.taskIDs))
	}
}

func TestDispatchAllProviderItemsBooked(t *testing.T) {
	registry := inventory.NewRegistry()
	registry.Register(constants.SupplierSourceProviderA, &stubInventoryProvider{})
	dispatcher, db := setupBookingDispatcherTest(t, registry, nil)

	quote := createDispatcherTestQuote(t, db)
	quote.Items = quote.Items[:1] // 只保留实时供应商项

	result, err := dispatcher.Dispatch(context.Background(), quote, inventory.HolderInfo{})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !result.AllBooked() {
		t.Fatalf("expected all provider items booked, got %+v", result)
	}
}
