package constants

// 订单状态常量
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 登录日志状态与失败原因
const (
	LoginLogStatusSuccess          = "success"
	LoginLogStatusFailed           = "failed"
	LoginFailReasonInvalidPassword = "invalid_credentials"
	LoginFailReasonUserDisabled    = "user_disabled"
	LoginFailReasonInternal        = "internal_error"
)

// 地址类型常量
const (
	AddressTypeBilling  = "billing"
	AddressTypeShipping = "shipping"
)

// 商品排序常量
const (
	ProductSortNewest    = "newest"
	ProductSortPriceAsc  = "price_asc"
	ProductSortPriceDesc = "price_desc"
)

// 商品详情页：推荐与评价
const (
	ProductRecommendLimit  = 3
	ReviewRatingMin        = 1
	ReviewRatingMax        = 5
	ReviewCommentMaxLength = 2000
	ReviewDefaultPageSize  = 10
)

// Stripe 事件类型
const (
	StripeEventCheckoutCompleted           = "checkout.session.completed"
	StripeEventCheckoutAsyncPaymentSucceed = "checkout.session.async_payment_succeeded"
	StripeEventCheckoutAsyncPaymentFailed  = "checkout.session.async_payment_failed"
	StripeEventPaymentIntentSucceeded      = "payment_intent.succeeded"
	StripeEventPaymentIntentFailed         = "payment_intent.payment_failed"
)

// Stripe checkout metadata 键
const (
	CheckoutMetaCartID      = "cart_id"
	CheckoutMetaUserID      = "user_id"
	CheckoutMetaGuestID     = "guest_id"
	CheckoutMetaTotalAmount = "total_amount"
)

// 队列名称
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskOrderConfirmationEmail = "order:confirmation_email"
	TaskOrderStatusEmail       = "order:status_email"
	TaskGuestPurgeExpired      = "guest:purge_expired"
)

// 缓存键前缀
const (
	CacheKeyProductDetail = "product:detail"
	CacheKeyRateLimit     = "ratelimit"
)

// DeliveryFeeLabel 结算页配送费展示名称
const DeliveryFeeLabel = "Delivery Fee"
