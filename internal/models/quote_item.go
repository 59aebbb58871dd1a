package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// RefundRule 单条退款规则（提前 N 天可退 X%）
type RefundRule struct {
	DaysBeforeTravel int     `json:"days_before_travel"`
	RefundPercentage float64 `json:"refund_percentage"`
}

// CancellationPolicy 行程项取消政策
type CancellationPolicy struct {
	NonRefundable         bool         `json:"non_refundable"`
	FreeCancellationUntil *time.Time   `json:"free_cancellation_until,omitempty"`
	RefundRules           []RefundRule `json:"refund_rules,omitempty"`
}

// Value 实现 driver.Valuer 接口
func (p CancellationPolicy) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan 实现 sql.Scanner 接口
func (p *CancellationPolicy) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, p)
}

// QuoteItem 报价单行程项表
type QuoteItem struct {
	ID                 uint                `gorm:"primarykey" json:"id"`                                            // 主键
	QuoteID            uint                `gorm:"index;not null" json:"quote_id"`                                  // 报价单ID
	Kind               string              `gorm:"index;not null" json:"kind"`                                      // 行程项类型（hotel/flight/activity/transfer）
	Name               string              `gorm:"type:varchar(300);not null" json:"name"`                          // 名称（酒店/活动/路线）
	Location           string              `gorm:"type:varchar(200);index" json:"location"`                         // 地点
	SupplierSource     string              `gorm:"index;not null" json:"supplier_source"`                           // 供应来源
	ProviderItemRef    string              `gorm:"type:varchar(200)" json:"provider_item_ref,omitempty"`            // 供应商侧项目标识
	ClientPrice        Money               `gorm:"type:decimal(20,2);not null;default:0" json:"client_price"`       // 客户价
	SupplierCost       *Money              `gorm:"type:decimal(20,2)" json:"supplier_cost,omitempty"`               // 供应商成本（匹配/预订前为空）
	CommissionPercent  Money               `gorm:"type:decimal(10,2);not null;default:0" json:"commission_percent"` // 佣金比例（百分比）
	Occupancy          int                 `gorm:"not null;default:0" json:"occupancy"`                             // 入住人数（酒店）
	Participants       int                 `gorm:"not null;default:0" json:"participants"`                          // 参加人数（活动）
	RatePerPerson      bool                `gorm:"not null;default:false" json:"rate_per_person"`                   // 费率是否按人计
	StartDate          time.Time           `gorm:"index;not null" json:"start_date"`                                // 开始日期
	EndDate            time.Time           `gorm:"index;not null" json:"end_date"`                                  // 结束日期
	CancellationPolicy *CancellationPolicy `gorm:"type:json" json:"cancellation_policy,omitempty"`                  // 取消政策（为空使用默认阶梯）
	ConfirmationNumber string              `gorm:"type:varchar(100)" json:"confirmation_number,omitempty"`          // 供应商确认号
	CreatedAt          time.Time           `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt          time.Time           `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt          gorm.DeletedAt      `gorm:"index" json:"-"`                                                  // 软删除时间
}

// TableName 指定表名
func (QuoteItem) TableName() string {
	return "quote_items"
}

// Nights 计算住宿晚数（按天数差向上取整，至少 1 晚）
func (i QuoteItem) Nights() int {
	hours := i.EndDate.Sub(i.StartDate).Hours()
	if hours <= 0 {
		return 1
	}
	nights := int(hours / 24)
	if hours > float64(nights)*24 {
		nights++
	}
	if nights < 1 {
		nights = 1
	}
	return nights
}
