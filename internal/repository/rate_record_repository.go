package repository

import (
	"strings"
	"time"

	"github.com/voyago-next/internal/models"

	"gorm.io/gorm"
)

// RateRecordRepository 费率记录数据访问接口
type RateRecordRepository interface {
	Create(record *models.RateRecord) error
	SupersedeAndCreate(record *models.RateRecord) error
	ListActiveByKind(kind string) ([]models.RateRecord, error)
	List(filter RateRecordListFilter) ([]models.RateRecord, int64, error)
	WithTx(tx *gorm.DB) *GormRateRecordRepository
}

// GormRateRecordRepository GORM 实现
type GormRateRecordRepository struct {
	db *gorm.DB
}

// NewRateRecordRepository 创建费率记录仓库
func NewRateRecordRepository(db *gorm.DB) *GormRateRecordRepository {
	return &GormRateRecordRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRateRecordRepository) WithTx(tx *gorm.DB) *GormRateRecordRepository {
	if tx == nil {
		return r
	}
	return &GormRateRecordRepository{db: tx}
}

// Create 创建费率记录
func (r *GormRateRecordRepository) Create(record *models.RateRecord) error {
	return r.db.Create(record).Error
}

// SupersedeAndCreate 作废同识别字符串的旧记录并插入新记录（记录不可变，重传替代）
func (r *GormRateRecordRepository) SupersedeAndCreate(record *models.RateRecord) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		query := tx.Model(&models.RateRecord{}).
			Where("kind = ?", record.Kind).
			Where("superseded_at IS NULL")
		switch record.Kind {
		case "hotel":
			query = query.Where("property_name = ? AND room_type = ?", record.PropertyName, record.RoomType)
		case "activity":
			query = query.Where("activity_name = ? AND location = ?", record.ActivityName, record.Location)
		case "transfer":
			query = query.Where("route_name = ? AND vehicle_type = ?", record.RouteName, record.VehicleType)
		}
		if err := query.Update("superseded_at", now).Error; err != nil {
			return err
		}
		return tx.Create(record).Error
	})
}

// ListActiveByKind 按类型查询未作废的费率记录（匹配器候选集）
func (r *GormRateRecordRepository) ListActiveByKind(kind string) ([]models.RateRecord, error) {
	var records []models.RateRecord
	err := r.db.
		Where("kind = ?", kind).
		Where("superseded_at IS NULL").
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// List 查询费率记录列表
func (r *GormRateRecordRepository) List(filter RateRecordListFilter) ([]models.RateRecord, int64, error) {
	query := r.db.Model(&models.RateRecord{})
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if !filter.IncludeSuperseded {
		query = query.Where("superseded_at IS NULL")
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"property_name LIKE ? OR activity_name LIKE ? OR route_name LIKE ? OR location LIKE ?",
			like, like, like, like,
		)
	}
	if filter.ValidOn != nil {
		query = query.Where("valid_from <= ? AND valid_to >= ?", filter.ValidOn, filter.ValidOn)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.RateRecord
	query = applyPagination(query.Order("created_at DESC"), filter.Page, filter.PageSize)
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
