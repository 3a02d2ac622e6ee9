package apierrors

type ErrorCode = string

const (
	// ErrorCodeUnknown should not be used directly, it only indicates a failure in the error handling system in such a way that an error code was not assigned properly.
	ErrorCodeUnknown ErrorCode = "unknown"

	// ErrorCodeUnexpectedFailure signals an unexpected failure such as a 500 Internal Server Error.
	ErrorCodeUnexpectedFailure ErrorCode = "unexpected_failure"

	ErrorCodeValidationFailed      ErrorCode = "validation_failed"
	ErrorCodeBadJSON               ErrorCode = "bad_json"
	ErrorCodeNotFound              ErrorCode = "not_found"
	ErrorCodeOverRequestRateLimit  ErrorCode = "over_request_rate_limit"
	ErrorCodeRequestTimeout        ErrorCode = "request_timeout"
	ErrorCodeInvalidCredentials    ErrorCode = "invalid_credentials"
	ErrorCodeInvalidDomain         ErrorCode = "invalid_domain"
	ErrorCodeInvalidURI            ErrorCode = "invalid_uri"
	ErrorCodeInvalidMessageVersion ErrorCode = "invalid_message_version"
	ErrorCodeInvalidNonce          ErrorCode = "invalid_nonce"
	ErrorCodeInvalidTimeFormat     ErrorCode = "invalid_time_format"
	ErrorCodeMalformedMessage      ErrorCode = "malformed_message"
	ErrorCodeDomainMismatch        ErrorCode = "domain_mismatch"
	ErrorCodeNonceMismatch         ErrorCode = "nonce_mismatch"
	ErrorCodeExpiredMessage        ErrorCode = "expired_message"
	ErrorCodeInvalidSignature      ErrorCode = "invalid_signature"
)
