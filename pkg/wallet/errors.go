package wallet

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable means no wallet provider capability is present.
	ErrProviderUnavailable = errors.New("wallet provider unavailable")
	// ErrProviderError matches every *ProviderError via errors.Is.
	ErrProviderError = errors.New("wallet provider error")
	// ErrUserRejected means the user declined the account request.
	ErrUserRejected = errors.New("user rejected the request")
)

// ProviderError reports a failed account or identity request.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, ErrProviderError)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderError
}

func providerErr(op string, err error) error {
	return &ProviderError{Op: op, Err: err}
}
