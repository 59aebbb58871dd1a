package constants

// 报价单状态常量
const (
	QuoteStatusDraft           = "draft"
	QuoteStatusAccepted        = "accepted"
	QuoteStatusConfirmed       = "confirmed"
	QuoteStatusPartiallyBooked = "partially_booked"
	QuoteStatusBooked          = "booked"
	QuoteStatusCancelled       = "cancelled"
	QuoteStatusRefunded        = "refunded"
)

// 行程项类型常量
const (
	ItemKindHotel    = "hotel"
	ItemKindFlight   = "flight"
	ItemKindActivity = "activity"
	ItemKindTransfer = "transfer"
)

// 供应来源常量
const (
	SupplierSourceProviderA       = "provider_a"
	SupplierSourceProviderB       = "provider_b"
	SupplierSourceProviderC       = "provider_c"
	SupplierSourceOfflinePlatform = "offline_platform"
	SupplierSourceOfflineAgent    = "offline_agent"
)

// IsProviderBacked 判断供应来源是否为实时接口供应商
func IsProviderBacked(source string) bool {
	switch source {
	case SupplierSourceProviderA, SupplierSourceProviderB, SupplierSourceProviderC:
		return true
	}
	return false
}

// IsSupplierSource 判断是否为合法供应来源
func IsSupplierSource(source string) bool {
	switch source {
	case SupplierSourceProviderA, SupplierSourceProviderB, SupplierSourceProviderC,
		SupplierSourceOfflinePlatform, SupplierSourceOfflineAgent:
		return true
	}
	return false
}

// 支付状态常量（succeeded 后不可回退）
const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// 支付类型常量
const (
	PaymentKindFull    = "full"
	PaymentKindDeposit = "deposit"
)

// 资金托管状态常量
const (
	EscrowStatusHeld       = "held"
	EscrowStatusReleased   = "released"
	EscrowStatusClawedBack = "clawed_back"
)

// 佣金状态常量
const (
	CommissionStatusPending  = "pending"
	CommissionStatusApproved = "approved"
	CommissionStatusPaid     = "paid"
	CommissionStatusDisputed = "disputed"
)

// 费率记录来源常量
const (
	RateSourceProvider = "provider"
	RateSourceOffline  = "offline"
)

// 预订任务类型常量
const (
	BookingTaskKindBook               = "book"
	BookingTaskKindUploadConfirmation = "upload_confirmation"
)

// 预订任务状态常量
const (
	BookingTaskStatusPending    = "pending"
	BookingTaskStatusInProgress = "in_progress"
	BookingTaskStatusCompleted  = "completed"
	BookingTaskStatusBlocked    = "blocked"
	BookingTaskStatusCancelled  = "cancelled"
)

// 队列与任务名称常量
const (
	QueueDefault          = "default"
	TaskBookingDispatch   = "booking:dispatch"
	TaskCommissionSettle  = "commission:settle"
	TaskBookingTaskRemind = "booking:task_remind"
)
