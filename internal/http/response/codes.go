package response

const (
	CodeOK              = 0
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeTooManyRequests = 429
	CodeInternal        = 500

	// 业务码
	CodePaymentNotCompleted        = 4001
	CodeCartMissingOrEmpty         = 4002
	CodeOrderNotCancellable        = 4003
	CodeOrderAlreadyProcessed      = 4004
	CodePaymentProviderUnavailable = 5001
	CodeGuestSessionUnavailable    = 5002
)
