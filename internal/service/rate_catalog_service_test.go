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

func setupRateCatalogTest(t *testing.T) (*RateCatalogService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:rate_catalog_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.RateRecord{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewRateCatalogService(repository.NewRateRecordRepository(db))
	return svc, db
}

func hotelUploadInput(property, room string, rate float64) UploadRateInput {
	return UploadRateInput{
		Kind:         constants.ItemKindHotel,
		PropertyName: property,
		RoomType:     room,
		ValidFrom:    time.Now().AddDate(0, -1, 0),
		ValidTo:      time.Now().AddDate(0, 6, 0),
		BaseRate:     models.NewMoneyFromFloat(rate),
		Source:       constants.RateSourceOffline,
		SourceRef:    "rates_2026q3.xlsx",
	}
}

func TestUploadSupersedesPreviousRecord(t *testing.T) {
	svc, db := setupRateCatalogTest(t)

	first, err := svc.Upload(hotelUploadInput("Bayview Garden Hotel", "Deluxe", 150))
	if err != nil {
		t.Fatalf("first upload failed: %v", err)
	}
	second, err := svc.Upload(hotelUploadInput("Bayview Garden Hotel", "Deluxe", 165))
	if err != nil {
		t.Fatalf("second upload failed: %v", err)
	}

	var old models.RateRecord
	if err := db.First(&old, first.ID).Error; err != nil {
		t.Fatalf("load first record failed: %v", err)
	}
	if old.SupersededAt == nil {
		t.Fatalf("expected first record superseded")
	}
	// 旧记录不可变：费率字段保持原值
	if old.BaseRate.String() != "150.00" {
		t.Fatalf("expected superseded record untouched, got %s", old.BaseRate)
	}

	var current models.RateRecord
	if err := db.First(&current, second.ID).Error; err != nil {
		t.Fatalf("load second record failed: %v", err)
	}
	if current.SupersededAt != nil {
		t.Fatalf("expected new record active")
	}
}

func TestUploadDoesNotSupersedeDifferentIdentity(t *testing.T) {
	svc, db := setupRateCatalogTest(t)

	first, err := svc.Upload(hotelUploadInput("Bayview Garden Hotel", "Deluxe", 150))
	if err != nil {
		t.Fatalf("first upload failed: %v", err)
	}
	if _, err := svc.Upload(hotelUploadInput("Bayview Garden Hotel", "Standard", 120)); err != nil {
		t.Fatalf("second upload failed: %v", err)
	}

	var old models.RateRecord
	if err := db.First(&old, first.ID).Error; err != nil {
		t.Fatalf("load first record failed: %v", err)
	}
	if old.SupersededAt != nil {
		t.Fatalf("different room type must not supersede, got %+v", old.SupersededAt)
	}
}

func TestUploadValidation(t *testing.T) {
	svc, _ := setupRateCatalogTest(t)

	missingName := hotelUploadInput("", "Deluxe", 150)
	if _, err := svc.Upload(missingName); !errors.Is(err, ErrRateRecordInvalid) {
		t.Fatalf("expected missing property name rejected, got %v", err)
	}

	badWindow := hotelUploadInput("Bayview Garden Hotel", "Deluxe", 150)
	badWindow.ValidFrom, badWindow.ValidTo = badWindow.ValidTo, badWindow.ValidFrom
	if _, err := svc.Upload(badWindow); !errors.Is(err, ErrRateRecordInvalid) {
		t.Fatalf("expected inverted validity rejected, got %v", err)
	}

	zeroRate := hotelUploadInput("Bayview Garden Hotel", "Deluxe", 0)
	if _, err := svc.Upload(zeroRate); !errors.Is(err, ErrRateRecordInvalid) {
		t.Fatalf("expected zero rate rejected, got %v", err)
	}

	badSource := hotelUploadInput("Bayview Garden Hotel", "Deluxe", 150)
	badSource.Source = "fax"
	if _, err := svc.Upload(badSource); !errors.Is(err, ErrRateRecordInvalid) {
		t.Fatalf("expected unknown source rejected, got %v", err)
	}

	badKind := hotelUploadInput("Bayview Garden Hotel", "Deluxe", 150)
	badKind.Kind = constants.ItemKindFlight
	if _, err := svc.Upload(badKind); !errors.Is(err, ErrRateRecordInvalid) {
		t.Fatalf("expected unsupported kind rejected, got %v", err)
	}
}

func TestListExcludesSupersededByDefault(t *testing.T) {
	svc, _ := setupRateCatalogTest(t)

	if _, err := svc.Upload(hotelUploadInput("Bayview Garden Hotel", "Deluxe", 150)); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if _, err := svc.Upload(hotelUploadInput("Bayview Garden Hotel", "Deluxe", 165)); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	records, total, err := svc.List(repository.RateRecordListFilter{Kind: constants.ItemKindHotel})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(records) != 1 {
		t.Fatalf("expected only active record listed, got %d", total)
	}
	if records[0].BaseRate.String() != "165.00" {
		t.Fatalf("expected latest rate 165.00, got %s", records[0].BaseRate)
	}

	_, total, err = svc.List(repository.RateRecordListFilter{Kind: constants.ItemKindHotel, IncludeSuperseded: true})
	if err != nil {
		t.Fatalf("list with superseded failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected both records with include_superseded, got %d", total)
	}
}
