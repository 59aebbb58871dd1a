package models

import (
	"time"

	"gorm.io/gorm"
)

// Agent 销售顾问
type Agent struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                            // 主键
	Name              string         `gorm:"type:varchar(200);not null" json:"name"`                          // 顾问姓名
	Email             string         `gorm:"uniqueIndex;not null" json:"email"`                               // 邮箱
	CommissionPercent Money          `gorm:"type:decimal(10,2);not null;default:0" json:"commission_percent"` // 默认佣金比例（百分比）
	MarkupPercent     *Money         `gorm:"type:decimal(10,2)" json:"markup_percent,omitempty"`              // 顾问专属加价比例（为空走全局默认）
	Active            bool           `gorm:"not null;index" json:"active"`                                    // 是否在职（创建方显式赋值，不走列默认）
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间
}

// TableName 指定表名
func (Agent) TableName() string {
	return "agents"
}
