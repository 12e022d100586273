package storage

import (
	"context"
	"fmt"

	"trade-store-go/internal/models"
)

// TradeStore persists trade legs keyed by (client id, uid).
type TradeStore interface {
	// AddTrades inserts or merges every trade in one all-or-nothing batch.
	AddTrades(ctx context.Context, trades []*models.Trade) error

	// InsertTrade stores a new trade and fails with ErrDuplicateTrade if the key exists.
	InsertTrade(ctx context.Context, trade *models.Trade) error

	// MergeTrade overwrites the descriptive fields of an existing trade.
	MergeTrade(ctx context.Context, trade *models.Trade) error

	// GetTrade returns a fresh instance owned by the caller.
	GetTrade(ctx context.Context, key models.TradeKey) (*models.Trade, error)

	// ListTrades returns every trade of a client ordered by uid.
	ListTrades(ctx context.Context, clientID string) ([]*models.Trade, error)

	DeleteTrade(ctx context.Context, key models.TradeKey) error
}

// Validate checks that a trade can be persisted.
func Validate(trade *models.Trade) error {
	if trade == nil {
		return fmt.Errorf("%w: nil trade", ErrInvalidTrade)
	}
	switch {
	case trade.ClientID() == "":
		return fmt.Errorf("%w: missing client id", ErrInvalidTrade)
	case trade.UID() == "":
		return fmt.Errorf("%w: missing uid", ErrInvalidTrade)
	case trade.AssetID() == "":
		return fmt.Errorf("%w: missing asset id", ErrInvalidTrade)
	case trade.DateTime().IsZero():
		return fmt.Errorf("%w: missing date time", ErrInvalidTrade)
	case !trade.HasVolume():
		return fmt.Errorf("%w: missing volume", ErrInvalidTrade)
	}
	return nil
}

// ValidateBatch validates every trade and rejects batches that repeat a key.
// It returns the key of the first offending trade.
func ValidateBatch(trades []*models.Trade) (models.TradeKey, error) {
	seen := make(map[models.TradeKey]struct{}, len(trades))
	for _, trade := range trades {
		if err := Validate(trade); err != nil {
			if trade == nil {
				return models.TradeKey{}, err
			}
			return trade.Key(), err
		}
		key := trade.Key()
		if _, ok := seen[key]; ok {
			return key, fmt.Errorf("%w: key repeated in batch", ErrInvalidTrade)
		}
		seen[key] = struct{}{}
	}
	return models.TradeKey{}, nil
}
