package repository

import (
	"errors"
	"time"

	"github.com/voyago-next/internal/models"

	"gorm.io/gorm"
)

// FundAllocationRepository 资金分账数据访问接口
type FundAllocationRepository interface {
	CreateWithItems(allocation *models.FundAllocation, items []models.FundAllocationItem) error
	GetByID(id uint) (*models.FundAllocation, error)
	GetByPaymentID(paymentID uint) (*models.FundAllocation, error)
	GetByQuoteID(quoteID uint) ([]models.FundAllocation, error)
	UpdateItemEscrow(quoteItemID uint, fromStatus, toStatus string, at time.Time) (int64, error)
	MarkSupplierDue(quoteItemID uint, at time.Time) error
	DeleteWithItems(allocationID uint) error
	WithTx(tx *gorm.DB) *GormFundAllocationRepository
}

// GormFundAllocationRepository GORM 实现
type GormFundAllocationRepository struct {
	db *gorm.DB
}

// NewFundAllocationRepository 创建资金分账仓库
func NewFundAllocationRepository(db *gorm.DB) *GormFundAllocationRepository {
	return &GormFundAllocationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormFundAllocationRepository) WithTx(tx *gorm.DB) *GormFundAllocationRepository {
	if tx == nil {
		return r
	}
	return &GormFundAllocationRepository{db: tx}
}

// CreateWithItems 在单事务内创建分账主记录与明细
func (r *GormFundAllocationRepository) CreateWithItems(allocation *models.FundAllocation, items []models.FundAllocationItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(allocation).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].FundAllocationID = allocation.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID 根据 ID 获取分账记录
func (r *GormFundAllocationRepository) GetByID(id uint) (*models.FundAllocation, error) {
	var allocation models.FundAllocation
	if err := r.db.Preload("Items").First(&allocation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &allocation, nil
}

// GetByPaymentID 根据收款 ID 获取分账记录
func (r *GormFundAllocationRepository) GetByPaymentID(paymentID uint) (*models.FundAllocation, error) {
	var allocation models.FundAllocation
	err := r.db.Preload("Items").Where("payment_id = ?", paymentID).First(&allocation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &allocation, nil
}

// GetByQuoteID 查询报价单下的分账记录
func (r *GormFundAllocationRepository) GetByQuoteID(quoteID uint) ([]models.FundAllocation, error) {
	var allocations []models.FundAllocation
	err := r.db.Preload("Items").Where("quote_id = ?", quoteID).Order("created_at ASC").Find(&allocations).Error
	if err != nil {
		return nil, err
	}
	return allocations, nil
}

// UpdateItemEscrow 按行程项迁移托管状态（from 条件防止并发覆写），返回受影响行数
func (r *GormFundAllocationRepository) UpdateItemEscrow(quoteItemID uint, fromStatus, toStatus string, at time.Time) (int64, error) {
	updates := map[string]interface{}{"escrow_status": toStatus}
	switch toStatus {
	case "released":
		updates["released_at"] = at
	case "clawed_back":
		updates["clawed_back_at"] = at
	}
	result := r.db.Model(&models.FundAllocationItem{}).
		Where("quote_item_id = ? AND escrow_status = ?", quoteItemID, fromStatus).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// MarkSupplierDue 记录供应商付款义务产生时间
func (r *GormFundAllocationRepository) MarkSupplierDue(quoteItemID uint, at time.Time) error {
	return r.db.Model(&models.FundAllocationItem{}).
		Where("quote_item_id = ? AND supplier_due_at IS NULL", quoteItemID).
		Update("supplier_due_at", at).Error
}

// DeleteWithItems 删除分账记录与明细（佣金生成失败的补偿动作）
func (r *GormFundAllocationRepository) DeleteWithItems(allocationID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("fund_allocation_id = ?", allocationID).Delete(&models.FundAllocationItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.FundAllocation{}, allocationID).Error
	})
}
