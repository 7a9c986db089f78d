package oracle

import (
	"errors"
	"fmt"
)

// Kind classifies why a call to the quote service failed.
type Kind string

const (
	KindNotFound    Kind = "not found"
	KindRateLimited Kind = "rate limited"
	KindUnavailable Kind = "unavailable"
	KindMalformed   Kind = "malformed"
)

type Error struct {
	Kind   Kind
	Op     string
	Ticker string
	Err    error
}

func (e *Error) Error() string {
	if e.Ticker != "" {
		return fmt.Sprintf("oracle %s %q: %s: %v", e.Op, e.Ticker, e.Kind, e.Err)
	}
	return fmt.Sprintf("oracle %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of an oracle error, or "" when err does not come from this package.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}
