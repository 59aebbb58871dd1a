package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// RateRecord 供应商费率记录表（创建后不可变，重传生成新记录并作废旧记录）
type RateRecord struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                            // 主键
	Kind              string         `gorm:"index;not null" json:"kind"`                                      // 类型（hotel/activity/transfer）
	PropertyName      string         `gorm:"type:varchar(300);index" json:"property_name,omitempty"`          // 酒店名称
	RoomType          string         `gorm:"type:varchar(200)" json:"room_type,omitempty"`                    // 房型
	ActivityName      string         `gorm:"type:varchar(300);index" json:"activity_name,omitempty"`          // 活动名称
	RouteName         string         `gorm:"type:varchar(300);index" json:"route_name,omitempty"`             // 接送路线
	VehicleType       string         `gorm:"type:varchar(100)" json:"vehicle_type,omitempty"`                 // 车型
	Location          string         `gorm:"type:varchar(200);index" json:"location,omitempty"`               // 地点
	ValidFrom         time.Time      `gorm:"index;not null" json:"valid_from"`                                // 有效期开始
	ValidTo           time.Time      `gorm:"index;not null" json:"valid_to"`                                  // 有效期结束
	BaseRate          Money          `gorm:"type:decimal(20,2);not null" json:"base_rate"`                    // 基础费率
	RatePerPerson     bool           `gorm:"not null;default:false" json:"rate_per_person"`                   // 是否按人计价
	SingleRate        *Money         `gorm:"type:decimal(20,2)" json:"single_rate,omitempty"`                 // 单人价
	DoubleRate        *Money         `gorm:"type:decimal(20,2)" json:"double_rate,omitempty"`                 // 双人价
	TripleRate        *Money         `gorm:"type:decimal(20,2)" json:"triple_rate,omitempty"`                 // 三人价
	QuadRate          *Money         `gorm:"type:decimal(20,2)" json:"quad_rate,omitempty"`                   // 四人及以上价
	CommissionPercent Money          `gorm:"type:decimal(10,2);not null;default:0" json:"commission_percent"` // 佣金比例（百分比）
	Source            string         `gorm:"index;not null" json:"source"`                                    // 来源（provider/offline）
	SourceRef         string         `gorm:"type:varchar(200)" json:"source_ref,omitempty"`                   // 来源凭据（文件名/接口标识）
	SupersededAt      *time.Time     `gorm:"index" json:"superseded_at,omitempty"`                            // 作废时间（被新记录替代）
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间
}

// TableName 指定表名
func (RateRecord) TableName() string {
	return "rate_records"
}

// IdentityString 返回按类型区分的识别字符串
func (r RateRecord) IdentityString() string {
	switch r.Kind {
	case "hotel":
		return strings.TrimSpace(strings.TrimSpace(r.PropertyName) + " " + strings.TrimSpace(r.RoomType))
	case "activity":
		return strings.TrimSpace(strings.TrimSpace(r.ActivityName) + " " + strings.TrimSpace(r.Location))
	case "transfer":
		return strings.TrimSpace(strings.TrimSpace(r.RouteName) + " " + strings.TrimSpace(r.VehicleType))
	}
	return ""
}

// PrimaryName 返回类型主名称（与行程项名称做模糊匹配）
func (r RateRecord) PrimaryName() string {
	switch r.Kind {
	case "hotel":
		return strings.TrimSpace(r.PropertyName)
	case "activity":
		return strings.TrimSpace(r.ActivityName)
	case "transfer":
		return strings.TrimSpace(r.RouteName)
	}
	return ""
}

// Overlaps 判断有效期是否与日期区间重叠
func (r RateRecord) Overlaps(start, end time.Time) bool {
	return !r.ValidTo.Before(start) && !r.ValidFrom.After(end)
}
