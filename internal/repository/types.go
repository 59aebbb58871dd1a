package repository

import "time"

// QuoteListFilter 查询报价单列表的过滤条件
type QuoteListFilter struct {
	Page        int
	PageSize    int
	AgentID     uint
	Status      string
	QuoteNo     string
	ClientEmail string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// RateRecordListFilter 查询费率记录列表的过滤条件
type RateRecordListFilter struct {
	Page              int
	PageSize          int
	Kind              string
	Source            string
	Search            string
	OnlyActive        bool
	ValidOn           *time.Time
	IncludeSuperseded bool
}

// CommissionListFilter 查询佣金列表的过滤条件
type CommissionListFilter struct {
	Page     int
	PageSize int
	AgentID  uint
	QuoteID  uint
	Status   string
}

// BookingTaskListFilter 查询预订任务列表的过滤条件
type BookingTaskListFilter struct {
	Page     int
	PageSize int
	QuoteID  uint
	Status   string
	Kind     string
	DueFrom  *time.Time
	DueTo    *time.Time
}
