package database

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"trade-store-go/internal/config"
	"trade-store-go/internal/models"
	"trade-store-go/internal/storage"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TradeRepository stores trades in SQLite through GORM.
// It implements storage.TradeStore.
type TradeRepository struct {
	db          *gorm.DB
	logger      *zap.Logger
	limiter     *rate.Limiter
	batchSize   int
	maxRetries  int
	baseBackoff time.Duration
}

// ensure TradeRepository implements the interface
var _ storage.TradeStore = (*TradeRepository)(nil)

const (
	defaultBatchSize  = 100
	defaultMaxRetries = 3
)

// NewTradeRepository creates a repository on top of an opened database.
// Non-positive limits in cfg fall back to defaults: no write throttling,
// a single-token burst, defaultBatchSize and defaultMaxRetries.
func NewTradeRepository(db *gorm.DB, cfg config.Storage, logger *zap.Logger) *TradeRepository {
	limit := rate.Limit(cfg.WriteRateLimit)
	if cfg.WriteRateLimit <= 0 {
		limit = rate.Inf
	}
	burst := max(cfg.WriteRateBurst, 1)

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &TradeRepository{
		db:          db,
		logger:      logger.Named("trade-repository"),
		limiter:     rate.NewLimiter(limit, burst),
		batchSize:   batchSize,
		maxRetries:  maxRetries,
		baseBackoff: 100 * time.Millisecond,
	}
}

// AddTrades inserts or merges all trades in a single transaction.
func (r *TradeRepository) AddTrades(ctx context.Context, trades []*models.Trade) error {
	const op = "add trades"
	if len(trades) == 0 {
		return nil
	}
	if key, err := storage.ValidateBatch(trades); err != nil {
		return storage.Wrap(op, key, err)
	}

	rows := make([]tradeRow, len(trades))
	for i, t := range trades {
		rows[i] = toRow(t)
	}

	err := r.write(ctx, op, func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			for start := 0; start < len(rows); start += r.batchSize {
				end := min(start+r.batchSize, len(rows))
				chunk := rows[start:end]
				err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "client_id"}, {Name: "uid"}},
					DoUpdates: clause.AssignmentColumns(mergeColumns),
				}).Create(&chunk).Error
				if err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return storage.Wrap(op, models.TradeKey{}, err)
	}

	r.logger.Info("Stored trade batch", zap.Int("count", len(rows)))
	return nil
}

// InsertTrade stores a new trade. An existing key fails with storage.ErrDuplicateTrade.
func (r *TradeRepository) InsertTrade(ctx context.Context, trade *models.Trade) error {
	const op = "insert trade"
	if err := storage.Validate(trade); err != nil {
		return storage.Wrap(op, keyOf(trade), err)
	}

	row := toRow(trade)
	err := r.write(ctx, op, func(db *gorm.DB) error {
		return db.Create(&row).Error
	})
	if isDuplicate(err) {
		return storage.Wrap(op, row.key(), fmt.Errorf("%w: %v", storage.ErrDuplicateTrade, err))
	}
	if err != nil {
		return storage.Wrap(op, row.key(), err)
	}

	r.logger.Debug("Inserted trade", zap.Stringer("key", row.key()))
	return nil
}

// MergeTrade overwrites the descriptive columns of an existing trade.
func (r *TradeRepository) MergeTrade(ctx context.Context, trade *models.Trade) error {
	const op = "merge trade"
	if err := storage.Validate(trade); err != nil {
		return storage.Wrap(op, keyOf(trade), err)
	}

	row := toRow(trade)
	var affected int64
	err := r.write(ctx, op, func(db *gorm.DB) error {
		res := db.Model(&tradeRow{}).
			Where("client_id = ? AND uid = ?", row.ClientID, row.UID).
			Updates(map[string]any{
				"asset_id":        row.AssetID,
				"date_time":       row.DateTime,
				"limit_order_id":  row.LimitOrderID,
				"market_order_id": row.MarketOrderID,
				"volume":          row.Volume,
				"updated_at":      time.Now(),
			})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return storage.Wrap(op, row.key(), err)
	}
	if affected == 0 {
		return storage.Wrap(op, row.key(), storage.ErrTradeNotFound)
	}

	r.logger.Debug("Merged trade", zap.Stringer("key", row.key()))
	return nil
}

// GetTrade loads a single trade by key.
func (r *TradeRepository) GetTrade(ctx context.Context, key models.TradeKey) (*models.Trade, error) {
	const op = "get trade"
	var row tradeRow
	err := r.read(ctx, op, func(db *gorm.DB) error {
		return db.Where("client_id = ? AND uid = ?", key.ClientID, key.UID).First(&row).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.Wrap(op, key, storage.ErrTradeNotFound)
	}
	if err != nil {
		return nil, storage.Wrap(op, key, err)
	}
	return row.toModel(), nil
}

// ListTrades returns all trades of a client ordered by uid.
func (r *TradeRepository) ListTrades(ctx context.Context, clientID string) ([]*models.Trade, error) {
	const op = "list trades"
	var rows []tradeRow
	err := r.read(ctx, op, func(db *gorm.DB) error {
		return db.Where("client_id = ?", clientID).Order("uid asc").Find(&rows).Error
	})
	if err != nil {
		return nil, storage.Wrap(op, models.TradeKey{ClientID: clientID}, err)
	}

	trades := make([]*models.Trade, len(rows))
	for i, row := range rows {
		trades[i] = row.toModel()
	}
	return trades, nil
}

// DeleteTrade removes a trade by key.
func (r *TradeRepository) DeleteTrade(ctx context.Context, key models.TradeKey) error {
	const op = "delete trade"
	var affected int64
	err := r.write(ctx, op, func(db *gorm.DB) error {
		res := db.Where("client_id = ? AND uid = ?", key.ClientID, key.UID).Delete(&tradeRow{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return storage.Wrap(op, key, err)
	}
	if affected == 0 {
		return storage.Wrap(op, key, storage.ErrTradeNotFound)
	}

	r.logger.Debug("Deleted trade", zap.Stringer("key", key))
	return nil
}

// write runs fn after waiting for the write limiter, retrying while the database is busy.
func (r *TradeRepository) write(ctx context.Context, op string, fn func(db *gorm.DB) error) error {
	return r.retry(ctx, op, true, fn)
}

func (r *TradeRepository) read(ctx context.Context, op string, fn func(db *gorm.DB) error) error {
	return r.retry(ctx, op, false, fn)
}

func (r *TradeRepository) retry(ctx context.Context, op string, throttle bool, fn func(db *gorm.DB) error) error {
	attempts := max(r.maxRetries, 1)
	var err error
	for i := 0; i < attempts; i++ {
		if throttle {
			if err := r.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter wait failed: %w", err)
			}
		}

		err = fn(r.db.WithContext(ctx))
		if err == nil || !isBusy(err) {
			return err
		}

		if i == attempts-1 {
			break
		}

		// Exponential backoff: base, 2*base, 4*base...
		backoff := time.Duration(math.Pow(2, float64(i))) * r.baseBackoff
		r.logger.Warn("Database busy, retrying...",
			zap.String("op", op),
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", backoff),
			zap.Error(err),
		)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, err)
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func keyOf(trade *models.Trade) models.TradeKey {
	if trade == nil {
		return models.TradeKey{}
	}
	return trade.Key()
}
