package models

import (
	"time"

	"gorm.io/gorm"
)

// Quote 报价单表
type Quote struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                       // 主键
	QuoteNo     string         `gorm:"uniqueIndex;not null" json:"quote_no"`                       // 报价单编号（UUID）
	AgentID     uint           `gorm:"index;not null" json:"agent_id"`                             // 销售顾问ID
	ClientName  string         `gorm:"type:varchar(200);not null" json:"client_name"`              // 客户姓名
	ClientEmail string         `gorm:"index" json:"client_email"`                                  // 客户邮箱
	Status      string         `gorm:"index;not null" json:"status"`                               // 报价单状态
	Currency    string         `gorm:"not null" json:"currency"`                                   // 币种
	TotalAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`  // 客户应付总额
	TravelStart *time.Time     `gorm:"index" json:"travel_start,omitempty"`                        // 行程开始日期
	TravelEnd   *time.Time     `gorm:"index" json:"travel_end,omitempty"`                          // 行程结束日期
	AcceptedAt  *time.Time     `gorm:"index" json:"accepted_at,omitempty"`                         // 客户接受时间
	ConfirmedAt *time.Time     `gorm:"index" json:"confirmed_at,omitempty"`                        // 收款确认时间
	CancelledAt *time.Time     `gorm:"index" json:"cancelled_at,omitempty"`                        // 取消时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间

	Items []QuoteItem `gorm:"foreignKey:QuoteID" json:"items,omitempty"` // 行程项
	Agent *Agent      `gorm:"foreignKey:AgentID" json:"agent,omitempty"` // 销售顾问
}

// TableName 指定表名
func (Quote) TableName() string {
	return "quotes"
}
