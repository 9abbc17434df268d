package chat

import "errors"

// Rate-limit errors map to HTTP 429.
var (
	ErrIPRateLimited      = errors.New("too many requests from your IP, please wait")
	ErrSessionRateLimited = errors.New("rate limit exceeded, please wait before asking more questions")
	ErrSessionMessageCap  = errors.New("message limit reached for this session")
)

// ValidationError covers everything that rejects the input itself; maps to
// HTTP 400. Not retryable without changing the input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// AsValidationError returns the *ValidationError in err's chain, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
