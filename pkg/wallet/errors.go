package wallet

import (
	"errors"
	"fmt"
)

var (
	ErrConnectPending  = errors.New("a wallet connection is already pending")
	ErrUnknownProvider = errors.New("unknown wallet provider")
)

// NotDetectedError is returned when connecting to a provider that is not
// available in the host environment.
type NotDetectedError struct {
	Provider string
	Hint     string
}

func (e *NotDetectedError) Error() string {
	return fmt.Sprintf("%s is not installed. %s", e.Provider, e.Hint)
}

// ConnectError is returned when a detected provider fails or the user rejects
// the request.
type ConnectError struct {
	Provider string
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("Failed to connect to %s: %v", e.Provider, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
