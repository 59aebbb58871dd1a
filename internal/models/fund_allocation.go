package models

import (
	"time"

	"gorm.io/gorm"
)

// FundAllocation 资金分账主表（与收款一一对应，创建后仅托管状态可变）
type FundAllocation struct {
	ID           uint           `gorm:"primarykey" json:"id"`                            // 主键
	AllocationNo string         `gorm:"uniqueIndex;not null" json:"allocation_no"`       // 分账编号（UUID）
	PaymentID    uint           `gorm:"uniqueIndex;not null" json:"payment_id"`          // 收款ID（每笔收款至多一条分账）
	QuoteID      uint           `gorm:"index;not null" json:"quote_id"`                  // 报价单ID
	TotalPaid    Money          `gorm:"type:decimal(20,2);not null" json:"total_paid"`   // 客户实付总额
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                         // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                  // 软删除时间

	Items []FundAllocationItem `gorm:"foreignKey:FundAllocationID" json:"items,omitempty"` // 分账明细
}

// TableName 指定表名
func (FundAllocation) TableName() string {
	return "fund_allocations"
}

// FundAllocationItem 资金分账明细表
type FundAllocationItem struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                                                     // 主键
	FundAllocationID uint           `gorm:"not null;index;index:idx_fund_allocation_item_unique,unique" json:"fund_allocation_id"`   // 分账ID
	QuoteItemID      uint           `gorm:"not null;index;index:idx_fund_allocation_item_unique,unique" json:"quote_item_id"`        // 行程项ID
	ClientPaid       Money          `gorm:"type:decimal(20,2);not null" json:"client_paid"`                                           // 客户支付额
	SupplierCost     Money          `gorm:"type:decimal(20,2);not null" json:"supplier_cost"`                                         // 供应商成本
	PlatformFee      Money          `gorm:"type:decimal(20,2);not null" json:"platform_fee"`                                          // 平台费
	AgentCommission  Money          `gorm:"type:decimal(20,2);not null" json:"agent_commission"`                                      // 顾问佣金（可为负，上游定价错误信号）
	EscrowStatus     string         `gorm:"index;not null" json:"escrow_status"`                                                      // 托管状态（held/released/clawed_back）
	SupplierDueAt    *time.Time     `gorm:"index" json:"supplier_due_at,omitempty"`                                                   // 供应商付款义务产生时间
	ReleasedAt       *time.Time     `gorm:"index" json:"released_at,omitempty"`                                                       // 释放时间
	ClawedBackAt     *time.Time     `gorm:"index" json:"clawed_back_at,omitempty"`                                                    // 追回时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                                                  // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                                                  // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                                                           // 软删除时间
}

// TableName 指定表名
func (FundAllocationItem) TableName() string {
	return "fund_allocation_items"
}
