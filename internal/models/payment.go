package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment 收款记录表
type Payment struct {
	ID          uint           `gorm:"primarykey" json:"id"`                      // 主键
	PaymentNo   string         `gorm:"uniqueIndex;not null" json:"payment_no"`    // 收款编号（UUID）
	QuoteID     uint           `gorm:"index;not null" json:"quote_id"`            // 报价单ID
	Kind        string         `gorm:"not null" json:"kind"`                      // 收款类型（full/deposit）
	Amount      Money          `gorm:"type:decimal(20,2);not null" json:"amount"` // 收款金额
	Currency    string         `gorm:"not null" json:"currency"`                  // 币种
	Status      string         `gorm:"index;not null" json:"status"`              // 收款状态
	ProviderRef string         `gorm:"index" json:"provider_ref"`                 // 支付网关流水号
	CapturedAt  *time.Time     `gorm:"index" json:"captured_at,omitempty"`        // 到账时间
	RefundedAt  *time.Time     `gorm:"index" json:"refunded_at,omitempty"`        // 退款时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                   // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}

// 收款状态迁移表。succeeded 之后只能退款（refunded）或
// 补偿回退（failed，分账/计佣失败时落款作废），永不回到 pending；
// failed 与 refunded 为终态，失败后重新收款走新记录。
var paymentStatusNext = map[string]map[string]bool{
	"pending":   {"succeeded": true, "failed": true},
	"succeeded": {"refunded": true, "failed": true},
	"failed":    {},
	"refunded":  {},
}

// CanTransitionTo 判断收款状态迁移是否合法
func (p Payment) CanTransitionTo(next string) bool {
	allowed, ok := paymentStatusNext[p.Status]
	if !ok {
		return false
	}
	return allowed[next]
}
