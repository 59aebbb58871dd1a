package repository

import (
	"errors"

	"github.com/voyago-next/internal/models"

	"gorm.io/gorm"
)

// AgentRepository 销售顾问数据访问接口
type AgentRepository interface {
	Create(agent *models.Agent) error
	GetByID(id uint) (*models.Agent, error)
	WithTx(tx *gorm.DB) *GormAgentRepository
}

// GormAgentRepository GORM 实现
type GormAgentRepository struct {
	db *gorm.DB
}

// NewAgentRepository 创建顾问仓库
func NewAgentRepository(db *gorm.DB) *GormAgentRepository {
	return &GormAgentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAgentRepository) WithTx(tx *gorm.DB) *GormAgentRepository {
	if tx == nil {
		return r
	}
	return &GormAgentRepository{db: tx}
}

// Create 创建顾问
func (r *GormAgentRepository) Create(agent *models.Agent) error {
	return r.db.Create(agent).Error
}

// GetByID 根据 ID 获取顾问
func (r *GormAgentRepository) GetByID(id uint) (*models.Agent, error) {
	var agent models.Agent
	if err := r.db.First(&agent, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &agent, nil
}
