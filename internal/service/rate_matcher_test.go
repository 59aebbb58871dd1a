package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/voyago-next/internal/constants"
	"github.com/voyago-next/internal/models"
	"github.com/voyago-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRateMatcherTest(t *testing.T) (*RateMatcherService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:rate_matcher_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.RateRecord{}, &models.Quote{}, &models.QuoteItem{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewRateMatcherService(repository.NewRateRecordRepository(db), repository.NewQuoteRepository(db))
	return svc, db
}

func createMatcherTestRate(t *testing.T, db *gorm.DB, record models.RateRecord) models.RateRecord {
	t.Helper()

	if record.ValidFrom.IsZero() {
		record.ValidFrom = time.Now().AddDate(0, -1, 0)
	}
	if record.ValidTo.IsZero() {
		record.ValidTo = time.Now().AddDate(0, 6, 0)
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("create rate record failed: %v", err)
	}
	return record
}

func TestMatchHotelOccupancyTierTimesNights(t *testing.T) {
	svc, db := setupRateMatcherTest(t)

	single := models.NewMoneyFromFloat(180)
	double := models.NewMoneyFromFloat(150)
	createMatcherTestRate(t, db, models.RateRecord{
		Kind:          constants.ItemKindHotel,
		PropertyName:  "Bayview Garden Hotel",
		RoomType:      "Deluxe",
		BaseRate:      models.NewMoneyFromFloat(200),
		RatePerPerson: true,
		SingleRate:    &single,
		DoubleRate:    &double,
		Source:        constants.RateSourceOffline,
	})

	start := time.Now().AddDate(0, 1, 0)
	result, err := svc.Match(models.QuoteItem{
		Kind:      constants.ItemKindHotel,
		Name:      "Bayview Garden Hotel",
		Occupancy: 2,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 3),
	})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if !result.Matched {
		t.Fatalf("expected match, got reason %q", result.Reason)
	}
	// 双人档 150 x 3 晚
	if result.SupplierCost.String() != "450.00" {
		t.Fatalf("expected supplier cost 450.00, got %s", result.SupplierCost)
	}
	if result.Confidence != MatchConfidenceHigh {
		t.Fatalf("expected high confidence for exact name, got %s", result.Confidence)
	}
}

func TestMatchHotelFallsBackToBaseRateWithoutTier(t *testing.T) {
	svc, db := setupRateMatcherTest(t)

	createMatcherTestRate(t, db, models.RateRecord{
		Kind:         constants.ItemKindHotel,
		PropertyName: "Harbor Inn",
		BaseRate:     models.NewMoneyFromFloat(90),
		Source:       constants.RateSourceOffline,
	})

	start := time.Now().AddDate(0, 1, 0)
	result, err := svc.Match(models.QuoteItem{
		Kind:      constants.ItemKindHotel,
		Name:      "Harbor Inn",
		Occupancy: 2,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 2),
	})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if result.SupplierCost.String() != "180.00" {
		t.Fatalf("expected base rate 90 x 2 nights = 180.00, got %s", result.SupplierCost)
	}
}

func TestMatchActivityMultipliesParticipants(t *testing.T) {
	svc, db := setupRateMatcherTest(t)

	createMatcherTestRate(t, db, models.RateRecord{
		Kind:         constants.ItemKindActivity,
		ActivityName: "Half-Day Snorkeling",
		Location:     "North Reef",
		BaseRate:     models.NewMoneyFromFloat(85),
		Source:       constants.RateSourceProvider,
	})

	start := time.Now().AddDate(0, 1, 0)
	result, err := svc.Match(models.QuoteItem{
		Kind:         constants.ItemKindActivity,
		Name:         "Half-Day Snorkeling",
		Participants: 4,
		StartDate:    start,
		EndDate:      start,
	})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if result.SupplierCost.String() != "340.00" {
		t.Fatalf("expected supplier cost 340.00, got %s", result.SupplierCost)
	}
}

func TestMatchTransferUsesBaseRate(t *testing.T) {
	svc, db := setupRateMatcherTest(t)

	createMatcherTestRate(t, db, models.RateRecord{
		Kind:      constants.ItemKindTransfer,
		RouteName: "Airport to Hotel",
		BaseRate:  models.NewMoneyFromFloat(45),
		Source:    constants.RateSourceOffline,
	})

	start := time.Now().AddDate(0, 1, 0)
	result, err := svc.Match(models.QuoteItem{
		Kind:      constants.ItemKindTransfer,
		Name:      "Airport to Hotel",
		StartDate: start,
		EndDate:   start,
	})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if result.SupplierCost.String() != "45.00" {
		t.Fatalf("expected supplier cost 45.00, got %s", result.SupplierCost)
	}
}

func TestMatchNoCandidateIsNotAnError(t *testing.T) {
	svc, _ := setupRateMatcherTest(t)

	start := time.Now().AddDate(0, 1, 0)
	result, err := svc.Match(models.QuoteItem{
		Kind:      constants.ItemKindHotel,
		Name:      "Nonexistent Resort",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 1),
	})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if result.Matched {
		t.Fatalf("expected no match, got record %d", result.RateRecordID)
	}
	if result.Confidence != MatchConfidenceLow {
		t.Fatalf("expected low confidence, got %s", result.Confidence)
	}
}

func TestMatchSkipsRecordsOutsideValidity(t *testing.T) {
	svc, db := setupRateMatcherTest(t)

	createMatcherTestRate(t, db, models.RateRecord{
		Kind:         constants.ItemKindHotel,
		PropertyName: "Seasonal Lodge",
		BaseRate:     models.NewMoneyFromFloat(120),
		Source:       constants.RateSourceOffline,
		ValidFrom:    time.Now().AddDate(-1, 0, 0),
		ValidTo:      time.Now().AddDate(0, 0, -1),
	})

	start := time.Now().AddDate(0, 1, 0)
	result, err := svc.Match(models.QuoteItem{
		Kind:      constants.ItemKindHotel,
		Name:      "Seasonal Lodge",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 1),
	})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if result.Matched {
		t.Fatalf("expected expired record excluded, got record %d", result.RateRecordID)
	}
}

func TestMatchPrefersExactNameThenProviderSource(t *testing.T) {
	svc, db := setupRateMatcherTest(t)

	// 模糊命中但非精确名
	createMatcherTestRate(t, db, models.RateRecord{
		Kind:         constants.ItemKindHotel,
		PropertyName: "Grand Palm Resort Annex",
		BaseRate:     models.NewMoneyFromFloat(100),
		Source:       constants.RateSourceProvider,
	})
	exact := createMatcherTestRate(t, db, models.RateRecord{
		Kind:         constants.ItemKindHotel,
		PropertyName: "Grand Palm Resort",
		BaseRate:     models.NewMoneyFromFloat(110),
		Source:       constants.RateSourceOffline,
	})

	start := time.Now().AddDate(0, 1, 0)
	result, err := svc.Match(models.QuoteItem{
		Kind:      constants.ItemKindHotel,
		Name:      "Grand Palm Resort",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 1),
	})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if result.RateRecordID != exact.ID {
		t.Fatalf("expected exact-name record %d, got %d", exact.ID, result.RateRecordID)
	}

	// 同为精确名时供应商来源优先
	provider := createMatcherTestRate(t, db, models.RateRecord{
		Kind:         constants.ItemKindHotel,
		PropertyName: "Grand Palm Resort",
		BaseRate:     models.NewMoneyFromFloat(105),
		Source:       constants.RateSourceProvider,
	})
	result, err = svc.Match(models.QuoteItem{
		Kind:      constants.ItemKindHotel,
		Name:      "Grand Palm Resort",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 1),
	})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if result.RateRecordID != provider.ID {
		t.Fatalf("expected provider-sourced record %d, got %d", provider.ID, result.RateRecordID)
	}
}

func TestMatchTieBreaksOnNewestRecord(t *testing.T) {
	svc, db := setupRateMatcherTest(t)

	older := createMatcherTestRate(t, db, models.RateRecord{
		Kind:         constants.ItemKindHotel,
		PropertyName: "Coral Bay Suites",
		BaseRate:     models.NewMoneyFromFloat(100),
		Source:       constants.RateSourceOffline,
		CreatedAt:    time.Now().Add(-48 * time.Hour),
	})
	newer := createMatcherTestRate(t, db, models.RateRecord{
		Kind:         constants.ItemKindHotel,
		PropertyName: "Coral Bay Suites",
		BaseRate:     models.NewMoneyFromFloat(95),
		Source:       constants.RateSourceOffline,
		CreatedAt:    time.Now().Add(-1 * time.Hour),
	})

	start := time.Now().AddDate(0, 1, 0)
	result, err := svc.Match(models.QuoteItem{
		Kind:      constants.ItemKindHotel,
		Name:      "Coral Bay Suites",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 1),
	})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if result.RateRecordID == older.ID {
		t.Fatalf("expected newest record %d to win tie, got %d", newer.ID, result.RateRecordID)
	}
}

func TestMatchAndApplyWritesSupplierCost(t *testing.T) {
	svc, db := setupRateMatcherTest(t)

	createMatcherTestRate(t, db, models.RateRecord{
		Kind:      constants.ItemKindTransfer,
		RouteName: "Harbor Shuttle",
		BaseRate:  models.NewMoneyFromFloat(30),
		Source:    constants.RateSourceOffline,
	})

	start := time.Now().AddDate(0, 1, 0)
	quote := models.Quote{QuoteNo: "qn-match-apply", AgentID: 1, ClientName: "c", Status: constants.QuoteStatusDraft, Currency: "USD"}
	if err := db.Create(&quote).Error; err != nil {
		t.Fatalf("create quote failed: %v", err)
	}
	item := models.QuoteItem{
		QuoteID:        quote.ID,
		Kind:           constants.ItemKindTransfer,
		Name:           "Harbor Shuttle",
		SupplierSource: constants.SupplierSourceOfflineAgent,
		StartDate:      start,
		EndDate:        start,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create quote item failed: %v", err)
	}
	quote.Items = []models.QuoteItem{item}

	results, err := svc.MatchAndApply(&quote)
	if err != nil {
		t.Fatalf("match and apply failed: %v", err)
	}
	if !results[item.ID].Matched {
		t.Fatalf("expected item matched")
	}

	var stored models.QuoteItem
	if err := db.First(&stored, item.ID).Error; err != nil {
		t.Fatalf("load item failed: %v", err)
	}
	if stored.SupplierCost == nil || stored.SupplierCost.String() != "30.00" {
		t.Fatalf("expected supplier cost 30.00 persisted, got %+v", stored.SupplierCost)
	}
}
