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

func setupBookingTaskTest(t *testing.T) (*BookingTaskService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:booking_task_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Quote{}, &models.QuoteItem{}, &models.BookingTask{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewBookingTaskService(repository.NewBookingTaskRepository(db), repository.NewQuoteRepository(db))
	return svc, db
}

func createBookingTaskTestRow(t *testing.T, db *gorm.DB, kind, status string) (models.BookingTask, models.QuoteItem) {
	t.Helper()

	start := time.Now().AddDate(0, 1, 0)
	item := models.QuoteItem{
		QuoteID:        1,
		Kind:           constants.ItemKindHotel,
		Name:           "Bayview Garden Hotel",
		SupplierSource: constants.SupplierSourceOfflinePlatform,
		ClientPrice:    models.NewMoneyFromFloat(600),
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, 2),
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create quote item failed: %v", err)
	}
	task := models.BookingTask{
		QuoteID:     1,
		QuoteItemID: item.ID,
		Kind:        kind,
		Status:      status,
		Title:       "测试任务",
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("create task failed: %v", err)
	}
	return task, item
}

func TestStartBookingTask(t *testing.T) {
	svc, db := setupBookingTaskTest(t)

	task, _ := createBookingTaskTestRow(t, db, constants.BookingTaskKindBook, constants.BookingTaskStatusPending)
	started, err := svc.Start(task.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if started.Status != constants.BookingTaskStatusInProgress {
		t.Fatalf("expected in_progress, got %s", started.Status)
	}

	if _, err := svc.Start(task.ID); !errors.Is(err, ErrTaskStateInvalid) {
		t.Fatalf("expected restart rejected, got %v", err)
	}
}

func TestCompleteUploadConfirmationWritesBackToItem(t *testing.T) {
	svc, db := setupBookingTaskTest(t)

	task, item := createBookingTaskTestRow(t, db, constants.BookingTaskKindUploadConfirmation, constants.BookingTaskStatusInProgress)

	if _, err := svc.Complete(task.ID, ""); !errors.Is(err, ErrTaskConfirmationMissing) {
		t.Fatalf("expected confirmation number required, got %v", err)
	}

	completed, err := svc.Complete(task.ID, "SUP-88421")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != constants.BookingTaskStatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("expected completed with timestamp, got %+v", completed)
	}

	var stored models.QuoteItem
	if err := db.First(&stored, item.ID).Error; err != nil {
		t.Fatalf("load item failed: %v", err)
	}
	if stored.ConfirmationNumber != "SUP-88421" {
		t.Fatalf("expected confirmation number on item, got %q", stored.ConfirmationNumber)
	}
}

func TestCompleteBookTaskNeedsNoConfirmation(t *testing.T) {
	svc, db := setupBookingTaskTest(t)

	task, _ := createBookingTaskTestRow(t, db, constants.BookingTaskKindBook, constants.BookingTaskStatusPending)
	completed, err := svc.Complete(task.ID, "")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != constants.BookingTaskStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}

	if _, err := svc.Complete(task.ID, ""); !errors.Is(err, ErrTaskStateInvalid) {
		t.Fatalf("expected re-complete rejected, got %v", err)
	}
}

func TestCancelBookingTask(t *testing.T) {
	svc, db := setupBookingTaskTest(t)

	task, _ := createBookingTaskTestRow(t, db, constants.BookingTaskKindBook, constants.BookingTaskStatusInProgress)
	cancelled, err := svc.Cancel(task.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.BookingTaskStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	done, _ := createBookingTaskTestRow(t, db, constants.BookingTaskKindBook, constants.BookingTaskStatusCompleted)
	if _, err := svc.Cancel(done.ID); !errors.Is(err, ErrTaskStateInvalid) {
		t.Fatalf("expected completed task not cancellable, got %v", err)
	}

	if _, err := svc.Cancel(99999); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}
