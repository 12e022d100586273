package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeKey identifies a trade leg in storage.
// ClientID is the partition key and UID the row key.
type TradeKey struct {
	ClientID string
	UID      string
}

// String renders the key as "clientID/uid".
func (k TradeKey) String() string {
	return k.ClientID + "/" + k.UID
}

// Trade represents one executed trade leg as it is persisted.
// The key pair is fixed at construction; the descriptive fields can be
// changed through setters so that storage backends can populate them.
//
// A Trade is not safe for concurrent mutation.
type Trade struct {
	clientID string
	uid      string

	assetID       string
	dateTime      time.Time
	limitOrderID  string
	marketOrderID string
	volume        decimal.NullDecimal
}

// NewBlankTrade returns a trade with no identity and no descriptive fields,
// except for the execution time which defaults to now.
// It is not persistable until populated.
func NewBlankTrade() *Trade {
	return &Trade{dateTime: time.Now()}
}

// NewTradeWithKey returns a blank trade bound to a storage key.
// Storage backends use it when reading rows and fill the rest through setters.
func NewTradeWithKey(clientID, uid string) *Trade {
	return &Trade{clientID: clientID, uid: uid, dateTime: time.Now()}
}

// NewTrade returns a fully populated trade leg.
func NewTrade(clientID, uid, assetID string, dateTime time.Time, limitOrderID, marketOrderID string, volume decimal.Decimal) *Trade {
	return &Trade{
		clientID:      clientID,
		uid:           uid,
		assetID:       assetID,
		dateTime:      dateTime,
		limitOrderID:  limitOrderID,
		marketOrderID: marketOrderID,
		volume:        decimal.NewNullDecimal(volume),
	}
}

// Key returns the storage key. It depends only on the client id and uid.
func (t *Trade) Key() TradeKey {
	return TradeKey{ClientID: t.clientID, UID: t.uid}
}

// ClientID returns the owning client, used as the partition key.
func (t *Trade) ClientID() string { return t.clientID }

// UID returns the trade leg id, used as the row key.
func (t *Trade) UID() string { return t.uid }

func (t *Trade) AssetID() string { return t.assetID }

func (t *Trade) SetAssetID(assetID string) { t.assetID = assetID }

func (t *Trade) DateTime() time.Time { return t.dateTime }

func (t *Trade) SetDateTime(dateTime time.Time) { t.dateTime = dateTime }

// LimitOrderID returns the resting order that was matched. May be empty.
func (t *Trade) LimitOrderID() string { return t.limitOrderID }

func (t *Trade) SetLimitOrderID(id string) { t.limitOrderID = id }

// MarketOrderID returns the aggressing order that was matched. May be empty.
func (t *Trade) MarketOrderID() string { return t.marketOrderID }

func (t *Trade) SetMarketOrderID(id string) { t.marketOrderID = id }

// Volume returns the traded quantity, or zero if it was never set.
// Use HasVolume to tell the two apart.
func (t *Trade) Volume() decimal.Decimal { return t.volume.Decimal }

// HasVolume reports whether a volume has been assigned.
func (t *Trade) HasVolume() bool { return t.volume.Valid }

func (t *Trade) SetVolume(volume decimal.Decimal) {
	t.volume = decimal.NewNullDecimal(volume)
}

// Clone returns an independent copy of the trade.
func (t *Trade) Clone() *Trade {
	c := *t
	return &c
}

// String renders every field for diagnostics. It is not a wire format.
func (t *Trade) String() string {
	volume := "<nil>"
	if t.volume.Valid {
		volume = t.volume.Decimal.String()
	}
	return fmt.Sprintf("Trade(clientId='%s', uid='%s', assetId='%s', dateTime=%s, limitOrderId='%s', marketOrderId='%s', volume=%s)",
		t.clientID, t.uid, t.assetID, t.dateTime.Format(time.RFC3339Nano), t.limitOrderID, t.marketOrderID, volume)
}
