package models

import (
	"time"

	"gorm.io/gorm"
)

// Commission 顾问佣金记录表（只追加，追回以负额新记录表达，历史记录不改写）
type Commission struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                            // 主键
	AgentID          uint           `gorm:"index;not null" json:"agent_id"`                                  // 顾问ID
	QuoteID          uint           `gorm:"index;not null" json:"quote_id"`                                  // 报价单ID
	FundAllocationID *uint          `gorm:"index" json:"fund_allocation_id,omitempty"`                       // 关联分账ID
	OriginalID       *uint          `gorm:"index" json:"original_id,omitempty"`                              // 被追回的原佣金ID（仅追回记录）
	BookingAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"booking_amount"`     // 佣金基数金额
	CommissionRate   Money          `gorm:"type:decimal(10,2);not null;default:0" json:"commission_rate"`    // 佣金比例（百分比）
	CommissionAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"commission_amount"`  // 佣金金额（带符号，负数为追回）
	Status           string         `gorm:"type:varchar(32);not null;index" json:"status"`                   // 佣金状态
	EarnedDate       time.Time      `gorm:"index;not null" json:"earned_date"`                               // 产生日期
	AvailableAt      *time.Time     `gorm:"index" json:"available_at,omitempty"`                             // 留存期到期时间（到期可审批）
	ApprovedAt       *time.Time     `gorm:"index" json:"approved_at,omitempty"`                              // 审批时间
	PaidAt           *time.Time     `gorm:"index" json:"paid_at,omitempty"`                                  // 支付时间
	DisputedAt       *time.Time     `gorm:"index" json:"disputed_at,omitempty"`                              // 争议时间
	Reason           string         `gorm:"type:varchar(255)" json:"reason,omitempty"`                       // 备注（追回/争议原因）
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间
}

// TableName 指定表名
func (Commission) TableName() string {
	return "commissions"
}

// IsClawback 判断是否为追回记录
func (c Commission) IsClawback() bool {
	return c.OriginalID != nil && c.CommissionAmount.IsNegative()
}
