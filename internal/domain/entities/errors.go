package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstream indicates a network failure, non-2xx response, RPC error or timeout
	ErrUpstream = errors.New("upstream error")

	// ErrRateLimited indicates the upstream throttled our requests
	ErrRateLimited = errors.New("rate limited")

	// ErrDecode indicates a response that could not be parsed into the expected shape
	ErrDecode = errors.New("decode error")

	// ErrNotFound indicates an empty result; callers treat it as a successful empty page
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedChain indicates an unknown chain id
	ErrUnsupportedChain = errors.New("unsupported chain")
)

// InvalidAddressError is returned for input that does not match a chain's address grammar
type InvalidAddressError struct {
	Input  string
	Kind   ChainKind
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid %s address %q: %s", e.Kind, e.Input, e.Reason)
}

// IsUpstream reports whether err should be handled as an upstream failure.
// Persistent rate limiting escalates to upstream handling.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream) || errors.Is(err, ErrRateLimited)
}

// IsInvalidAddress reports whether err is an InvalidAddressError
func IsInvalidAddress(err error) bool {
	var target *InvalidAddressError
	return errors.As(err, &target)
}
