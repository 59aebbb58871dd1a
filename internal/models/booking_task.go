package models

import (
	"time"

	"gorm.io/gorm"
)

// BookingTask 人工预订任务表（quote_item_id + kind 唯一，重复派发不产生重复任务）
type BookingTask struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                                          // 主键
	QuoteID     uint           `gorm:"index;not null" json:"quote_id"`                                                // 报价单ID
	QuoteItemID uint           `gorm:"not null;index;index:idx_booking_task_unique,unique" json:"quote_item_id"`      // 行程项ID
	Kind        string         `gorm:"type:varchar(40);not null;index:idx_booking_task_unique,unique" json:"kind"`    // 任务类型（book/upload_confirmation）
	Status      string         `gorm:"index;not null" json:"status"`                                                  // 任务状态
	Title       string         `gorm:"type:varchar(300);not null" json:"title"`                                       // 任务标题
	DueDate     *time.Time     `gorm:"index" json:"due_date,omitempty"`                                               // 截止日期
	CompletedAt *time.Time     `gorm:"index" json:"completed_at,omitempty"`                                           // 完成时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                                       // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                                       // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                                                // 软删除时间
}

// TableName 指定表名
func (BookingTask) TableName() string {
	return "booking_tasks"
}
