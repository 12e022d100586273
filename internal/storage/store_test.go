package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"trade-store-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	now := time.Now()
	blankWithKey := models.NewTrade("c", "u", "BTCUSD", now, "", "", decimal.Zero)

	testCases := []struct {
		name    string
		trade   *models.Trade
		wantErr string
	}{
		{name: "valid", trade: blankWithKey},
		{name: "nil", trade: nil, wantErr: "nil trade"},
		{name: "blank", trade: models.NewBlankTrade(), wantErr: "missing client id"},
		{name: "missing uid", trade: models.NewTrade("c", "", "BTCUSD", now, "", "", decimal.Zero), wantErr: "missing uid"},
		{name: "missing asset", trade: models.NewTrade("c", "u", "", now, "", "", decimal.Zero), wantErr: "missing asset id"},
		{name: "zero time", trade: models.NewTrade("c", "u", "BTCUSD", time.Time{}, "", "", decimal.Zero), wantErr: "missing date time"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.trade)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidTrade)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidate_MissingVolume(t *testing.T) {
	trade := models.NewTradeWithKey("c", "u")
	trade.SetAssetID("BTCUSD")

	err := Validate(trade)
	assert.ErrorIs(t, err, ErrInvalidTrade)
	assert.Contains(t, err.Error(), "missing volume")

	trade.SetVolume(decimal.Zero)
	assert.NoError(t, Validate(trade))
}

func TestValidateBatch(t *testing.T) {
	now := time.Now()
	a := models.NewTrade("c", "u1", "BTCUSD", now, "", "", decimal.NewFromInt(1))
	b := models.NewTrade("c", "u2", "BTCUSD", now, "", "", decimal.NewFromInt(1))
	dup := models.NewTrade("c", "u1", "ETHUSD", now, "", "", decimal.NewFromInt(2))
	bad := models.NewTrade("c", "u3", "", now, "", "", decimal.NewFromInt(2))

	_, err := ValidateBatch([]*models.Trade{a, b})
	assert.NoError(t, err)

	key, err := ValidateBatch([]*models.Trade{a, b, dup})
	assert.ErrorIs(t, err, ErrInvalidTrade)
	assert.Equal(t, a.Key(), key)

	key, err = ValidateBatch([]*models.Trade{a, bad})
	assert.ErrorIs(t, err, ErrInvalidTrade)
	assert.Equal(t, bad.Key(), key)
}

func TestPersistenceError(t *testing.T) {
	key := models.TradeKey{ClientID: "client-42", UID: "trade-0001"}
	err := Wrap("get trade", key, ErrTradeNotFound)

	var pe *PersistenceError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, key, pe.Key)
	assert.ErrorIs(t, err, ErrTradeNotFound)
	assert.Equal(t, "get trade client-42/trade-0001: trade not found", err.Error())

	// Wrapping twice keeps the innermost operation.
	again := Wrap("outer", models.TradeKey{}, fmt.Errorf("context: %w", err))
	assert.True(t, errors.As(again, &pe))
	assert.Equal(t, "get trade", pe.Op)

	assert.NoError(t, Wrap("noop", key, nil))
	assert.Equal(t, "list trades: boom", Wrap("list trades", models.TradeKey{}, errors.New("boom")).Error())
}
