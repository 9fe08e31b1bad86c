// Command stock-publisher is a development tool that plays the role of the
// inventory owner: it sets stock counters and announces changes on the stock
// feed so a locally running cart service reacts to them.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gts-commerce/cart-service/internal/config"
	"github.com/gts-commerce/cart-service/internal/realtime"
	"github.com/gts-commerce/cart-service/internal/store/redisstore"
)

func main() {
	root := &cobra.Command{
		Use:   "stock-publisher",
		Short: "Publish stock levels for local development",
	}
	root.AddCommand(setCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <productId> <stock>",
		Short: "Set a product's stock counter and announce the change",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID := args[0]
			stock, err := strconv.Atoi(args[1])
			if err != nil || stock < 0 {
				return fmt.Errorf("stock must be a non-negative integer, got %q", args[1])
			}

			cfg, err := config.New()
			if err != nil {
				return err
			}

			ctx := context.Background()
			client, err := redisstore.Open(ctx, cfg.InventoryRedisURL)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			key := fmt.Sprintf("product:stock:%s", productID)
			if err := client.Set(ctx, key, stock, 0).Err(); err != nil {
				return err
			}

			payload, err := json.Marshal(realtime.StockChange{ProductID: productID, Stock: stock})
			if err != nil {
				return err
			}
			if err := client.Publish(ctx, cfg.StockFeedChannel, payload).Err(); err != nil {
				return err
			}

			fmt.Printf("stock[%s] = %d (announced on %s)\n", productID, stock, cfg.StockFeedChannel)
			return nil
		},
	}
}
