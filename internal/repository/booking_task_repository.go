package repository

import (
	"errors"

	"github.com/voyago-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingTaskRepository 预订任务数据访问接口
type BookingTaskRepository interface {
	CreateIfAbsent(task *models.BookingTask) (bool, error)
	GetByID(id uint) (*models.BookingTask, error)
	GetByItemAndKind(quoteItemID uint, kind string) (*models.BookingTask, error)
	ListByQuote(quoteID uint) ([]models.BookingTask, error)
	List(filter BookingTaskListFilter) ([]models.BookingTask, int64, error)
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormBookingTaskRepository
}

// GormBookingTaskRepository GORM 实现
type GormBookingTaskRepository struct {
	db *gorm.DB
}

// NewBookingTaskRepository 创建预订任务仓库
func NewBookingTaskRepository(db *gorm.DB) *GormBookingTaskRepository {
	return &GormBookingTaskRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBookingTaskRepository) WithTx(tx *gorm.DB) *GormBookingTaskRepository {
	if tx == nil {
		return r
	}
	return &GormBookingTaskRepository{db: tx}
}

// CreateIfAbsent 幂等创建任务（quote_item_id + kind 冲突时不重复插入），返回是否新建
func (r *GormBookingTaskRepository) CreateIfAbsent(task *models.BookingTask) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "quote_item_id"}, {Name: "kind"}},
		DoNothing: true,
	}).Create(task)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetByID 按主键查询任务
func (r *GormBookingTaskRepository) GetByID(id uint) (*models.BookingTask, error) {
	var task models.BookingTask
	err := r.db.First(&task, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// GetByItemAndKind 查询行程项下指定类型的任务
func (r *GormBookingTaskRepository) GetByItemAndKind(quoteItemID uint, kind string) (*models.BookingTask, error) {
	var task models.BookingTask
	err := r.db.Where("quote_item_id = ? AND kind = ?", quoteItemID, kind).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// ListByQuote 查询报价单下的任务
func (r *GormBookingTaskRepository) ListByQuote(quoteID uint) ([]models.BookingTask, error) {
	var tasks []models.BookingTask
	err := r.db.Where("quote_id = ?", quoteID).Order("created_at ASC").Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// List 查询任务列表
func (r *GormBookingTaskRepository) List(filter BookingTaskListFilter) ([]models.BookingTask, int64, error) {
	query := r.db.Model(&models.BookingTask{})
	if filter.QuoteID > 0 {
		query = query.Where("quote_id = ?", filter.QuoteID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", filter.DueTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.BookingTask
	query = applyPagination(query.Order("due_date ASC"), filter.Page, filter.PageSize)
	if err := query.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// UpdateStatus 更新任务状态及附加字段
func (r *GormBookingTaskRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	values := map[string]interface{}{"status": status}
	for k, v := range updates {
		values[k] = v
	}
	return r.db.Model(&models.BookingTask{}).Where("id = ?", id).Updates(values).Error
}
