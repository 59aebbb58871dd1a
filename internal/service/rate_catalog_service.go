package service

import (
	"strings"
	"time"

	"github.com/voyago-next/internal/constants"
	"github.com/voyago-next/internal/models"
	"github.com/voyago-next/internal/repository"
)

// RateCatalogService 费率目录服务
type RateCatalogService struct {
	rateRepo repository.RateRecordRepository
}

// NewRateCatalogService 创建费率目录服务
func NewRateCatalogService(rateRepo repository.RateRecordRepository) *RateCatalogService {
	return &RateCatalogService{rateRepo: rateRepo}
}

// UploadRateInput 费率上传输入
type UploadRateInput struct {
	Kind              string
	PropertyName      string
	RoomType          string
	ActivityName      string
	RouteName         string
	VehicleType       string
	Location          string
	ValidFrom         time.Time
	ValidTo           time.Time
	BaseRate          models.Money
	RatePerPerson     bool
	SingleRate        *models.Money
	DoubleRate        *models.Money
	TripleRate        *models.Money
	QuadRate          *models.Money
	CommissionPercent models.Money
	Source            string
	SourceRef         string
}

// Upload 上传费率记录。同识别字符串的旧记录被作废而非改写。
func (s *RateCatalogService) Upload(input UploadRateInput) (*models.RateRecord, error) {
	record := models.RateRecord{
		Kind:              strings.TrimSpace(input.Kind),
		PropertyName:      strings.TrimSpace(input.PropertyName),
		RoomType:          strings.TrimSpace(input.RoomType),
		ActivityName:      strings.TrimSpace(input.ActivityName),
		RouteName:         strings.TrimSpace(input.RouteName),
		VehicleType:       strings.TrimSpace(input.VehicleType),
		Location:          strings.TrimSpace(input.Location),
		ValidFrom:         input.ValidFrom,
		ValidTo:           input.ValidTo,
		BaseRate:          input.BaseRate,
		RatePerPerson:     input.RatePerPerson,
		SingleRate:        input.SingleRate,
		DoubleRate:        input.DoubleRate,
		TripleRate:        input.TripleRate,
		QuadRate:          input.QuadRate,
		CommissionPercent: input.CommissionPercent,
		Source:            strings.TrimSpace(input.Source),
		SourceRef:         strings.TrimSpace(input.SourceRef),
	}
	if err := validateRateRecord(record); err != nil {
		return nil, err
	}
	if err := s.rateRepo.SupersedeAndCreate(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

// List 查询费率记录列表
func (s *RateCatalogService) List(filter repository.RateRecordListFilter) ([]models.RateRecord, int64, error) {
	return s.rateRepo.List(filter)
}

func validateRateRecord(record models.RateRecord) error {
	switch record.Kind {
	case constants.ItemKindHotel:
		if record.PropertyName == "" {
			return ErrRateRecordInvalid
		}
	case constants.ItemKindActivity:
		if record.ActivityName == "" {
			return ErrRateRecordInvalid
		}
	case constants.ItemKindTransfer:
		if record.RouteName == "" {
			return ErrRateRecordInvalid
		}
	default:
		return ErrRateRecordInvalid
	}
	if record.ValidFrom.IsZero() || record.ValidTo.IsZero() || record.ValidTo.Before(record.ValidFrom) {
		return ErrRateRecordInvalid
	}
	if record.BaseRate.IsNegative() || record.BaseRate.IsZero() {
		return ErrRateRecordInvalid
	}
	if record.Source != constants.RateSourceProvider && record.Source != constants.RateSourceOffline {
		return ErrRateRecordInvalid
	}
	return nil
}
