package models

import (
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

func drawTrade(t *rapid.T) (*Trade, []any) {
	clientID := rapid.StringMatching(`[a-z0-9-]{1,16}`).Draw(t, "clientID")
	uid := rapid.StringMatching(`[A-Z0-9]{1,26}`).Draw(t, "uid")
	assetID := rapid.StringMatching(`[A-Z]{3,8}`).Draw(t, "assetID")
	dateTime := time.Unix(rapid.Int64Range(0, 4_102_444_800).Draw(t, "unix"), rapid.Int64Range(0, 999_999_999).Draw(t, "nanos")).UTC()
	limitOrderID := rapid.StringMatching(`[a-z0-9-]{0,12}`).Draw(t, "limitOrderID")
	marketOrderID := rapid.StringMatching(`[a-z0-9-]{0,12}`).Draw(t, "marketOrderID")
	volume := decimal.New(rapid.Int64Range(-1_000_000_000, 1_000_000_000).Draw(t, "units"), -int32(rapid.IntRange(0, 8).Draw(t, "scale")))

	trade := NewTrade(clientID, uid, assetID, dateTime, limitOrderID, marketOrderID, volume)
	return trade, []any{clientID, uid, assetID, dateTime, limitOrderID, marketOrderID, volume}
}

func TestProperty_ConstructorRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		trade, in := drawTrade(t)

		if trade.ClientID() != in[0].(string) || trade.UID() != in[1].(string) {
			t.Fatalf("key mismatch: %s", trade)
		}
		if trade.AssetID() != in[2].(string) {
			t.Fatalf("assetID = %q, want %q", trade.AssetID(), in[2])
		}
		if !trade.DateTime().Equal(in[3].(time.Time)) {
			t.Fatalf("dateTime = %v, want %v", trade.DateTime(), in[3])
		}
		if trade.LimitOrderID() != in[4].(string) || trade.MarketOrderID() != in[5].(string) {
			t.Fatalf("order ids mismatch: %s", trade)
		}
		if !trade.Volume().Equal(in[6].(decimal.Decimal)) {
			t.Fatalf("volume = %s, want %s", trade.Volume(), in[6])
		}
	})
}

func TestProperty_SettersTouchOneField(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		trade, _ := drawTrade(t)
		before := trade.Clone()

		field := rapid.SampledFrom([]string{"assetID", "dateTime", "limitOrderID", "marketOrderID", "volume"}).Draw(t, "field")
		switch field {
		case "assetID":
			trade.SetAssetID("NEW" + trade.AssetID())
		case "dateTime":
			trade.SetDateTime(trade.DateTime().Add(time.Minute))
		case "limitOrderID":
			trade.SetLimitOrderID(trade.LimitOrderID() + "x")
		case "marketOrderID":
			trade.SetMarketOrderID(trade.MarketOrderID() + "x")
		case "volume":
			trade.SetVolume(trade.Volume().Add(decimal.NewFromInt(1)))
		}

		if trade.Key() != before.Key() {
			t.Fatalf("key changed after setting %s", field)
		}
		if (field == "assetID") == (trade.AssetID() == before.AssetID()) {
			t.Fatalf("assetID changed=%v after setting %s", trade.AssetID() != before.AssetID(), field)
		}
		if (field == "dateTime") == trade.DateTime().Equal(before.DateTime()) {
			t.Fatalf("dateTime changed=%v after setting %s", !trade.DateTime().Equal(before.DateTime()), field)
		}
		if (field == "limitOrderID") == (trade.LimitOrderID() == before.LimitOrderID()) {
			t.Fatalf("limitOrderID changed=%v after setting %s", trade.LimitOrderID() != before.LimitOrderID(), field)
		}
		if (field == "marketOrderID") == (trade.MarketOrderID() == before.MarketOrderID()) {
			t.Fatalf("marketOrderID changed=%v after setting %s", trade.MarketOrderID() != before.MarketOrderID(), field)
		}
		if (field == "volume") == trade.Volume().Equal(before.Volume()) {
			t.Fatalf("volume changed=%v after setting %s", !trade.Volume().Equal(before.Volume()), field)
		}
	})
}

func TestProperty_KeyIgnoresDescriptiveFields(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a, _ := drawTrade(t)
		b, _ := drawTrade(t)
		same := NewTrade(a.ClientID(), a.UID(), b.AssetID(), b.DateTime(), b.LimitOrderID(), b.MarketOrderID(), b.Volume())

		if a.Key() != same.Key() {
			t.Fatalf("keys differ: %v vs %v", a.Key(), same.Key())
		}
	})
}

func TestProperty_NewUIDAtNeverPanics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// Spans well before the epoch and past the largest ULID time.
		at := time.UnixMilli(rapid.Int64Range(-400_000_000_000_000, 400_000_000_000_000).Draw(t, "millis"))

		uid, err := NewUIDAt(at)
		inRange := at.UnixMilli() >= 0 && uint64(at.UnixMilli()) <= ulid.MaxTime()
		if inRange && (err != nil || len(uid) != 26) {
			t.Fatalf("NewUIDAt(%v) = %q, %v", at, uid, err)
		}
		if !inRange && !errors.Is(err, ErrUIDTime) {
			t.Fatalf("NewUIDAt(%v) err = %v, want ErrUIDTime", at, err)
		}
	})
}
