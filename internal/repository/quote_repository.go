package repository

import (
	"errors"
	"strings"

	"github.com/voyago-next/internal/models"

	"gorm.io/gorm"
)

// QuoteRepository 报价单数据访问接口
type QuoteRepository interface {
	Create(quote *models.Quote, items []models.QuoteItem) error
	GetByID(id uint) (*models.Quote, error)
	GetByQuoteNo(quoteNo string) (*models.Quote, error)
	List(filter QuoteListFilter) ([]models.Quote, int64, error)
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	UpdateItem(itemID uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormQuoteRepository
}

// GormQuoteRepository GORM 实现
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewQuoteRepository 创建报价单仓库
func NewQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// WithTx 绑定事务
func (r *GormQuoteRepository) WithTx(tx *gorm.DB) *GormQuoteRepository {
	if tx == nil {
		return r
	}
	return &GormQuoteRepository{db: tx}
}

// Create 创建报价单与行程项
func (r *GormQuoteRepository) Create(quote *models.Quote, items []models.QuoteItem) error {
	if err := r.db.Create(quote).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].QuoteID = quote.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取报价单
func (r *GormQuoteRepository) GetByID(id uint) (*models.Quote, error) {
	var quote models.Quote
	if err := r.db.Preload("Items").Preload("Agent").First(&quote, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &quote, nil
}

// GetByQuoteNo 根据报价单编号获取报价单
func (r *GormQuoteRepository) GetByQuoteNo(quoteNo string) (*models.Quote, error) {
	quoteNo = strings.TrimSpace(quoteNo)
	if quoteNo == "" {
		return nil, nil
	}
	var quote models.Quote
	err := r.db.Preload("Items").Preload("Agent").Where("quote_no = ?", quoteNo).First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &quote, nil
}

// List 查询报价单列表
func (r *GormQuoteRepository) List(filter QuoteListFilter) ([]models.Quote, int64, error) {
	query := r.db.Model(&models.Quote{})
	if filter.AgentID > 0 {
		query = query.Where("agent_id = ?", filter.AgentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if strings.TrimSpace(filter.QuoteNo) != "" {
		query = query.Where("quote_no = ?", strings.TrimSpace(filter.QuoteNo))
	}
	if strings.TrimSpace(filter.ClientEmail) != "" {
		query = query.Where("client_email = ?", strings.TrimSpace(filter.ClientEmail))
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var quotes []models.Quote
	query = applyPagination(query.Preload("Items").Order("created_at DESC"), filter.Page, filter.PageSize)
	if err := query.Find(&quotes).Error; err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

// UpdateStatus 更新报价单状态及附加字段
func (r *GormQuoteRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	values := map[string]interface{}{"status": status}
	for k, v := range updates {
		values[k] = v
	}
	return r.db.Model(&models.Quote{}).Where("id = ?", id).Updates(values).Error
}

// UpdateItem 更新行程项字段（供应商成本/确认号仅由匹配与派发流程写入）
func (r *GormQuoteRepository) UpdateItem(itemID uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.QuoteItem{}).Where("id = ?", itemID).Updates(updates).Error
}
