package main

import (
	"fmt"
	"io"
	"time"

	"trade-store-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the trades table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the store already migrated the schema.
			a.log.Info("Schema is up to date")
			return nil
		},
	}
}

func newRecordCmd(a *app) *cobra.Command {
	var (
		clientID, uid, assetID      string
		limitOrderID, marketOrderID string
		at, volume                  string
		merge                       bool
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Store a trade leg",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dateTime := time.Now()
			if at != "" {
				var err error
				if dateTime, err = time.Parse(time.RFC3339Nano, at); err != nil {
					return fmt.Errorf("invalid --time: %w", err)
				}
			}
			vol, err := decimal.NewFromString(volume)
			if err != nil {
				return fmt.Errorf("invalid --volume: %w", err)
			}
			if uid == "" {
				if uid, err = models.NewUIDAt(dateTime); err != nil {
					return fmt.Errorf("invalid --time: %w", err)
				}
			}

			trade := models.NewTrade(clientID, uid, assetID, dateTime, limitOrderID, marketOrderID, vol)
			if merge {
				err = a.store.AddTrades(cmd.Context(), []*models.Trade{trade})
			} else {
				err = a.store.InsertTrade(cmd.Context(), trade)
			}
			if err != nil {
				return err
			}

			a.log.Info("Recorded trade", zap.Stringer("key", trade.Key()))
			return printTrades(cmd.OutOrStdout(), "text", trade)
		},
	}

	cmd.Flags().StringVar(&clientID, "client", "", "owning client id (partition key)")
	cmd.Flags().StringVar(&uid, "uid", "", "trade leg id (row key); generated when empty")
	cmd.Flags().StringVar(&assetID, "asset", "", "traded asset id")
	cmd.Flags().StringVar(&at, "time", "", "execution time in RFC 3339 (default now)")
	cmd.Flags().StringVar(&limitOrderID, "limit-order", "", "matched limit order id")
	cmd.Flags().StringVar(&marketOrderID, "market-order", "", "matched market order id")
	cmd.Flags().StringVar(&volume, "volume", "", "traded volume")
	cmd.Flags().BoolVar(&merge, "merge", false, "overwrite an existing trade with the same key")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("asset")
	_ = cmd.MarkFlagRequired("volume")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <client-id> <uid>",
		Short: "Show a single trade leg",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			trade, err := a.store.GetTrade(cmd.Context(), models.TradeKey{ClientID: args[0], UID: args[1]})
			if err != nil {
				return err
			}
			return printTrades(cmd.OutOrStdout(), output, trade)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or yaml")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list <client-id>",
		Short: "List the trade legs of a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trades, err := a.store.ListTrades(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printTrades(cmd.OutOrStdout(), output, trades...)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or yaml")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <client-id> <uid>",
		Short: "Delete a trade leg",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := models.TradeKey{ClientID: args[0], UID: args[1]}
			if err := a.store.DeleteTrade(cmd.Context(), key); err != nil {
				return err
			}
			a.log.Info("Deleted trade", zap.Stringer("key", key))
			return nil
		},
	}
}

// tradeView is the yaml rendering of a trade.
type tradeView struct {
	ClientID      string `yaml:"client_id"`
	UID           string `yaml:"uid"`
	AssetID       string `yaml:"asset_id"`
	DateTime      string `yaml:"date_time"`
	LimitOrderID  string `yaml:"limit_order_id,omitempty"`
	MarketOrderID string `yaml:"market_order_id,omitempty"`
	Volume        string `yaml:"volume"`
}

func printTrades(w io.Writer, format string, trades ...*models.Trade) error {
	switch format {
	case "text":
		for _, t := range trades {
			if _, err := fmt.Fprintln(w, t); err != nil {
				return err
			}
		}
		return nil
	case "yaml":
		views := make([]tradeView, len(trades))
		for i, t := range trades {
			views[i] = tradeView{
				ClientID:      t.ClientID(),
				UID:           t.UID(),
				AssetID:       t.AssetID(),
				DateTime:      t.DateTime().Format(time.RFC3339Nano),
				LimitOrderID:  t.LimitOrderID(),
				MarketOrderID: t.MarketOrderID(),
				Volume:        t.Volume().String(),
			}
		}
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(views)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
