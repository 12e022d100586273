package memstore

import (
	"context"
	"sync"

	"trade-store-go/internal/models"
	"trade-store-go/internal/storage"

	"github.com/google/btree"
	"go.uber.org/zap"
)

type entry struct {
	key   models.TradeKey
	trade *models.Trade
}

func lessEntry(a, b entry) bool {
	if a.key.ClientID != b.key.ClientID {
		return a.key.ClientID < b.key.ClientID
	}
	return a.key.UID < b.key.UID
}

// Store is a thread-safe in-memory trade store ordered by (client id, uid).
// Stored trades are copies; callers never share instances with the store.
type Store struct {
	mu     sync.RWMutex
	tree   *btree.BTreeG[entry]
	logger *zap.Logger
}

// ensure Store implements the interface
var _ storage.TradeStore = (*Store)(nil)

// New creates an empty Store.
func New(logger *zap.Logger) *Store {
	return &Store{
		tree:   btree.NewG(32, lessEntry),
		logger: logger.Named("memstore"),
	}
}

func (s *Store) AddTrades(_ context.Context, trades []*models.Trade) error {
	if key, err := storage.ValidateBatch(trades); err != nil {
		return storage.Wrap("add trades", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range trades {
		s.tree.ReplaceOrInsert(entry{key: t.Key(), trade: t.Clone()})
	}
	s.logger.Debug("Stored trade batch", zap.Int("count", len(trades)))
	return nil
}

func (s *Store) InsertTrade(_ context.Context, trade *models.Trade) error {
	const op = "insert trade"
	if err := storage.Validate(trade); err != nil {
		return storage.Wrap(op, keyOf(trade), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tree.Has(entry{key: trade.Key()}) {
		return storage.Wrap(op, trade.Key(), storage.ErrDuplicateTrade)
	}
	s.tree.ReplaceOrInsert(entry{key: trade.Key(), trade: trade.Clone()})
	return nil
}

func (s *Store) MergeTrade(_ context.Context, trade *models.Trade) error {
	const op = "merge trade"
	if err := storage.Validate(trade); err != nil {
		return storage.Wrap(op, keyOf(trade), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tree.Has(entry{key: trade.Key()}) {
		return storage.Wrap(op, trade.Key(), storage.ErrTradeNotFound)
	}
	s.tree.ReplaceOrInsert(entry{key: trade.Key(), trade: trade.Clone()})
	return nil
}

func (s *Store) GetTrade(_ context.Context, key models.TradeKey) (*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.tree.Get(entry{key: key})
	if !ok {
		return nil, storage.Wrap("get trade", key, storage.ErrTradeNotFound)
	}
	return e.trade.Clone(), nil
}

func (s *Store) ListTrades(_ context.Context, clientID string) ([]*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := []*models.Trade{}
	s.tree.AscendGreaterOrEqual(entry{key: models.TradeKey{ClientID: clientID}}, func(e entry) bool {
		if e.key.ClientID != clientID {
			return false
		}
		trades = append(trades, e.trade.Clone())
		return true
	})
	return trades, nil
}

func (s *Store) DeleteTrade(_ context.Context, key models.TradeKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tree.Delete(entry{key: key}); !ok {
		return storage.Wrap("delete trade", key, storage.ErrTradeNotFound)
	}
	return nil
}

// Len returns the number of stored trades.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}

func keyOf(trade *models.Trade) models.TradeKey {
	if trade == nil {
		return models.TradeKey{}
	}
	return trade.Key()
}
