package detections

import (
	"errors"
	"fmt"
)

// Kind classifies query failures.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindQueryFailed
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindQueryFailed:
		return "query_failed"
	default:
		return "internal"
	}
}

// Error is a classified query failure. Message is safe to show to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the classification of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func invalidInput(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func videoNotFound(videoID int64) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("Video with ID %d not found", videoID)}
}

func queryFailed(err error) *Error {
	return &Error{Kind: KindQueryFailed, Message: err.Error(), Err: err}
}
