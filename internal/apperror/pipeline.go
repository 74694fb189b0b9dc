package apperror

import (
	"errors"
	"fmt"
)

// FetchError is a per-game failure talking to the discount feed.
// The game is skipped for the current cycle and retried on the next one.
type FetchError struct {
	GameID    string
	Op        string
	Err       error
	Retryable bool
}

func (e *FetchError) Error() string {
	if e.GameID == "" {
		return fmt.Sprintf("feed %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("feed %s [game %s]: %v", e.Op, e.GameID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a FetchError
func NewFetchError(gameID, op string, err error, retryable bool) *FetchError {
	return &FetchError{GameID: gameID, Op: op, Err: err, Retryable: retryable}
}

// IsRetryable reports whether err is a FetchError worth another attempt.
func IsRetryable(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return false
}

// StoreError is a persistence malfunction on read or write.
// Callers must never treat it as "no previous data".
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a StoreError
func NewStoreError(op, key string, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Err: err}
}

// DeliveryError is a failed delivery to a single user.
type DeliveryError struct {
	UserID  int64
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver via %s to user %d: %v", e.Channel, e.UserID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// NewDeliveryError creates a DeliveryError
func NewDeliveryError(channel string, userID int64, err error) *DeliveryError {
	return &DeliveryError{UserID: userID, Channel: channel, Err: err}
}

// ConfigError is fatal at startup.
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Message)
}

// NewConfigError creates a ConfigError
func NewConfigError(key, message string) *ConfigError {
	return &ConfigError{Key: key, Message: message}
}
