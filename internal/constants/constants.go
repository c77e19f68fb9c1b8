package constants

// 订单状态常量
const (
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCanceled   = "canceled"
)

// 采购单状态常量
const (
	PurchaseOrderStatusPending   = "pending"
	PurchaseOrderStatusReceived  = "received"
	PurchaseOrderStatusCancelled = "cancelled"
)

// 优惠码类型常量
const (
	PromoTypePercentage   = "percentage"
	PromoTypeFixed        = "fixed"
	PromoTypeFreeShipping = "free_shipping"
)

// 优惠码拒绝原因
const (
	PromoRejectNotFound     = "not_found"
	PromoRejectInactive     = "inactive"
	PromoRejectExpired      = "expired"
	PromoRejectMinPurchase  = "min_purchase"
	PromoRejectExhausted    = "exhausted"
	PromoRejectPerUserLimit = "per_user_limit"
)

// 库存预占状态常量
const (
	ReservationStatusHeld     = "held"
	ReservationStatusConsumed = "consumed"
	ReservationStatusReleased = "released"
)

// 收货方式
const (
	ReceiptModeFull    = "full"
	ReceiptModePartial = "partial"
)

// 队列名称
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskReservationExpire     = "reservation:expire"
	TaskPaymentRefund         = "payment:refund"
	TaskOrderCommitted        = "order:committed"
	TaskPurchaseOrderReceived = "purchase_order:received"
)

// Outbox 事件主题
const (
	TopicOrderCommitted        = "bookstore.order.committed"
	TopicOrderCanceled         = "bookstore.order.canceled"
	TopicPurchaseOrderReceived = "bookstore.purchase_order.received"
)

// 默认币种
const DefaultCurrency = "USD"
