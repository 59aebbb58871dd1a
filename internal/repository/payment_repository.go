package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/voyago-next/internal/models"

	"gorm.io/gorm"
)

// ErrPaymentTransitionInvalid 收款状态迁移非法
var ErrPaymentTransitionInvalid = errors.New("收款状态迁移非法")

// PaymentRepository 收款数据访问接口
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByPaymentNo(paymentNo string) (*models.Payment, error)
	ListByQuote(quoteID uint) ([]models.Payment, error)
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormPaymentRepository
}

// GormPaymentRepository GORM 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建收款仓库
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Create 创建收款记录
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// GetByID 根据 ID 获取收款记录
func (r *GormPaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetByPaymentNo 根据收款编号获取收款记录
func (r *GormPaymentRepository) GetByPaymentNo(paymentNo string) (*models.Payment, error) {
	paymentNo = strings.TrimSpace(paymentNo)
	if paymentNo == "" {
		return nil, nil
	}
	var payment models.Payment
	err := r.db.Where("payment_no = ?", paymentNo).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// ListByQuote 查询报价单下的收款记录
func (r *GormPaymentRepository) ListByQuote(quoteID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("quote_id = ?", quoteID).Order("created_at ASC").Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// UpdateStatus 更新收款状态及附加字段。迁移必须满足收款状态迁移表，
// 非法迁移（如 succeeded 回退 pending）拒绝写入。
func (r *GormPaymentRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	payment, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if payment == nil {
		return gorm.ErrRecordNotFound
	}
	if !payment.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", ErrPaymentTransitionInvalid, payment.Status, status)
	}

	values := map[string]interface{}{"status": status}
	for k, v := range updates {
		values[k] = v
	}
	// 带原状态条件写入，并发迁移只有一方生效
	result := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, payment.Status).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s -> %s", ErrPaymentTransitionInvalid, payment.Status, status)
	}
	return nil
}
