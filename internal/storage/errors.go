package storage

import (
	"errors"
	"fmt"

	"trade-store-go/internal/models"
)

// Sentinel errors returned (wrapped in a PersistenceError) by every TradeStore.
var (
	ErrInvalidTrade   = errors.New("invalid trade")
	ErrTradeNotFound  = errors.New("trade not found")
	ErrDuplicateTrade = errors.New("duplicate trade")
)

// PersistenceError reports a failed storage read or write.
type PersistenceError struct {
	Op  string
	Key models.TradeKey
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Key == (models.TradeKey{}) {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Wrap returns err as a PersistenceError for op and key.
// A nil err stays nil and an existing PersistenceError is returned unchanged.
func Wrap(op string, key models.TradeKey, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Key: key, Err: err}
}
