package queue

import (
	"encoding/json"

	"github.com/voyago-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskBookingDispatch 预订派发任务
	TaskBookingDispatch = constants.TaskBookingDispatch
	// TaskCommissionSettle 到期佣金结算任务
	TaskCommissionSettle = constants.TaskCommissionSettle
	// TaskBookingTaskRemind 人工预订任务到期提醒
	TaskBookingTaskRemind = constants.TaskBookingTaskRemind
)

// BookingDispatchPayload 预订派发任务载荷
type BookingDispatchPayload struct {
	QuoteID   uint `json:"quote_id"`
	PaymentID uint `json:"payment_id"`
}

// CommissionSettlePayload 到期佣金结算任务载荷
type CommissionSettlePayload struct {
	Deadline int64 `json:"deadline"` // Unix 秒，审批截止时间点
}

// BookingTaskRemindPayload 人工任务提醒载荷
type BookingTaskRemindPayload struct {
	BookingTaskID uint `json:"booking_task_id"`
}

// NewBookingDispatchTask 创建预订派发任务
func NewBookingDispatchTask(payload BookingDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBookingDispatch, body), nil
}

// NewCommissionSettleTask 创建到期佣金结算任务
func NewCommissionSettleTask(payload CommissionSettlePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCommissionSettle, body), nil
}

// NewBookingTaskRemindTask 创建人工任务提醒任务
func NewBookingTaskRemindTask(payload BookingTaskRemindPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBookingTaskRemind, body), nil
}
