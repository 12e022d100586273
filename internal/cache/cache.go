package cache

import (
	"context"
	"fmt"
	"time"

	"trade-store-go/internal/models"
	"trade-store-go/internal/storage"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

// Store is a read-through cache in front of another TradeStore.
// Reads by key are served from memory for up to ttl; every write
// invalidates the keys it touches.
type Store struct {
	next   storage.TradeStore
	c      *ristretto.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// ensure Store implements the interface
var _ storage.TradeStore = (*Store)(nil)

// New wraps next with a cache holding at most maxCost trades.
func New(next storage.TradeStore, maxCost int64, ttl time.Duration, logger *zap.Logger) (*Store, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
		// cost counts trades, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create trade cache: %w", err)
	}
	return &Store{next: next, c: c, ttl: ttl, logger: logger.Named("trade-cache")}, nil
}

func cacheKey(key models.TradeKey) string {
	return key.ClientID + "\x00" + key.UID
}

func (s *Store) AddTrades(ctx context.Context, trades []*models.Trade) error {
	defer func() {
		for _, t := range trades {
			if t != nil {
				s.c.Del(cacheKey(t.Key()))
			}
		}
	}()
	return s.next.AddTrades(ctx, trades)
}

func (s *Store) InsertTrade(ctx context.Context, trade *models.Trade) error {
	if trade != nil {
		defer s.c.Del(cacheKey(trade.Key()))
	}
	return s.next.InsertTrade(ctx, trade)
}

func (s *Store) MergeTrade(ctx context.Context, trade *models.Trade) error {
	if trade != nil {
		defer s.c.Del(cacheKey(trade.Key()))
	}
	return s.next.MergeTrade(ctx, trade)
}

func (s *Store) GetTrade(ctx context.Context, key models.TradeKey) (*models.Trade, error) {
	if v, ok := s.c.Get(cacheKey(key)); ok {
		s.logger.Debug("Cache hit", zap.Stringer("key", key))
		return v.(*models.Trade).Clone(), nil
	}

	trade, err := s.next.GetTrade(ctx, key)
	if err != nil {
		return nil, err
	}
	s.c.SetWithTTL(cacheKey(key), trade.Clone(), 1, s.ttl)
	return trade, nil
}

// ListTrades is not cached.
func (s *Store) ListTrades(ctx context.Context, clientID string) ([]*models.Trade, error) {
	return s.next.ListTrades(ctx, clientID)
}

func (s *Store) DeleteTrade(ctx context.Context, key models.TradeKey) error {
	defer s.c.Del(cacheKey(key))
	return s.next.DeleteTrade(ctx, key)
}

// Wait blocks until pending cache writes are applied.
func (s *Store) Wait() { s.c.Wait() }

// Close stops the cache's background goroutines.
func (s *Store) Close() { s.c.Close() }
