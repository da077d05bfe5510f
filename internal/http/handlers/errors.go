package handlers

// Stable machine-readable error codes returned in the error envelope. These
// form part of the public API contract; clients branch on them, so renaming
// one is a breaking change.
const (
	CodeBadRequest           = "bad_request"
	CodeNotFound             = "not_found"
	CodeConflict             = "conflict"
	CodeInvalidSignature     = "invalid_signature"
	CodePaymentProviderError = "payment_provider_error"
	CodeInternalError        = "internal_error"
	CodeTooManyRequests      = "too_many_requests"
	CodeMethodNotAllowed     = "method_not_allowed"
)
