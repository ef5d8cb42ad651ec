package codec

import "fmt"

// EncodingError reports a failure to encode or decode a key or value.
type EncodingError struct {
	Reason string
	Cause  error
}

func (e *EncodingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("codec: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("codec: %s", e.Reason)
}

func (e *EncodingError) Unwrap() error {
	return e.Cause
}

func encErr(reason string, cause error) error {
	return &EncodingError{Reason: reason, Cause: cause}
}
