package repository

import (
	"errors"
	"time"

	"github.com/voyago-next/internal/models"

	"gorm.io/gorm"
)

// CommissionRepository 佣金数据访问接口（只追加，历史记录不改金额）
type CommissionRepository interface {
	Create(commission *models.Commission) error
	GetByID(id uint) (*models.Commission, error)
	ListByQuote(quoteID uint) ([]models.Commission, error)
	List(filter CommissionListFilter) ([]models.Commission, int64, error)
	ListDueForApproval(now time.Time) ([]models.Commission, error)
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormCommissionRepository
}

// GormCommissionRepository GORM 实现
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository 创建佣金仓库
func NewCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionRepository) WithTx(tx *gorm.DB) *GormCommissionRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionRepository{db: tx}
}

// Create 创建佣金记录
func (r *GormCommissionRepository) Create(commission *models.Commission) error {
	return r.db.Create(commission).Error
}

// GetByID 根据 ID 获取佣金记录
func (r *GormCommissionRepository) GetByID(id uint) (*models.Commission, error) {
	var commission models.Commission
	if err := r.db.First(&commission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commission, nil
}

// ListByQuote 查询报价单下的全部佣金记录（含追回记录）
func (r *GormCommissionRepository) ListByQuote(quoteID uint) ([]models.Commission, error) {
	var commissions []models.Commission
	err := r.db.Where("quote_id = ?", quoteID).Order("created_at ASC").Find(&commissions).Error
	if err != nil {
		return nil, err
	}
	return commissions, nil
}

// List 查询佣金列表
func (r *GormCommissionRepository) List(filter CommissionListFilter) ([]models.Commission, int64, error) {
	query := r.db.Model(&models.Commission{})
	if filter.AgentID > 0 {
		query = query.Where("agent_id = ?", filter.AgentID)
	}
	if filter.QuoteID > 0 {
		query = query.Where("quote_id = ?", filter.QuoteID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var commissions []models.Commission
	query = applyPagination(query.Order("created_at DESC"), filter.Page, filter.PageSize)
	if err := query.Find(&commissions).Error; err != nil {
		return nil, 0, err
	}
	return commissions, total, nil
}

// ListDueForApproval 查询留存期已到、可自动审批的佣金
func (r *GormCommissionRepository) ListDueForApproval(now time.Time) ([]models.Commission, error) {
	var commissions []models.Commission
	err := r.db.
		Where("status = ?", "pending").
		Where("available_at IS NOT NULL AND available_at <= ?", now).
		Where("commission_amount > 0").
		Find(&commissions).Error
	if err != nil {
		return nil, err
	}
	return commissions, nil
}

// UpdateStatus 更新佣金状态及附加字段（金额不可更新）
func (r *GormCommissionRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	values := map[string]interface{}{"status": status}
	for k, v := range updates {
		values[k] = v
	}
	return r.db.Model(&models.Commission{}).Where("id = ?", id).Updates(values).Error
}
