package database

import (
	"time"

	"trade-store-go/internal/models"

	"github.com/shopspring/decimal"
)

// tradeRow is the persisted shape of a trade leg.
// client_id is the partition key and uid the row key.
type tradeRow struct {
	ClientID      string          `gorm:"primaryKey;column:client_id"`
	UID           string          `gorm:"primaryKey;column:uid"`
	AssetID       string          `gorm:"column:asset_id;not null;index"`
	DateTime      time.Time       `gorm:"column:date_time;not null"`
	LimitOrderID  string          `gorm:"column:limit_order_id"`
	MarketOrderID string          `gorm:"column:market_order_id"`
	Volume        decimal.Decimal `gorm:"column:volume;type:text;not null"` // text keeps the exact digits
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (tradeRow) TableName() string {
	return "trades"
}

// mergeColumns are overwritten when an existing key is written again.
var mergeColumns = []string{"asset_id", "date_time", "limit_order_id", "market_order_id", "volume", "updated_at"}

func toRow(t *models.Trade) tradeRow {
	return tradeRow{
		ClientID:      t.ClientID(),
		UID:           t.UID(),
		AssetID:       t.AssetID(),
		DateTime:      t.DateTime(),
		LimitOrderID:  t.LimitOrderID(),
		MarketOrderID: t.MarketOrderID(),
		Volume:        t.Volume(),
	}
}

func (r tradeRow) toModel() *models.Trade {
	t := models.NewTradeWithKey(r.ClientID, r.UID)
	t.SetAssetID(r.AssetID)
	t.SetDateTime(r.DateTime)
	t.SetLimitOrderID(r.LimitOrderID)
	t.SetMarketOrderID(r.MarketOrderID)
	t.SetVolume(r.Volume)
	return t
}

func (r tradeRow) key() models.TradeKey {
	return models.TradeKey{ClientID: r.ClientID, UID: r.UID}
}
