package reliability

// IsRetryableHTTPStatus classifies transient provider HTTP status codes.
// The chat path never retries within a turn; the flag feeds error reporting
// and metrics so operators can tell throttling from hard failures.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
