package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gts-commerce/cart-service/internal/api"
	"github.com/gts-commerce/cart-service/internal/config"
	"github.com/gts-commerce/cart-service/internal/inventory"
	"github.com/gts-commerce/cart-service/internal/platform/logger"
	"github.com/gts-commerce/cart-service/internal/realtime"
	"github.com/gts-commerce/cart-service/internal/services"
	"github.com/gts-commerce/cart-service/internal/store/redisstore"
)

func main() {
	root := &cobra.Command{
		Use:   "cart-service",
		Short: "Ephemeral cart service with live stock reconciliation",
	}
	root.AddCommand(serveCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var httpPort int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the cart HTTP service and stock feed subscriber",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New("cart-service")

			cfg, err := config.New()
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to load configuration")
			}
			if httpPort != 0 {
				cfg.HTTPPort = httpPort
			}
			logger.SetLevel(cfg.LogLevel)

			log.Info().Int("http_port", cfg.HTTPPort).Msg("Cart service starting…")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// -------- Redis clients -----------------
			cartClient, err := redisstore.Open(ctx, cfg.CartRedisURL)
			if err != nil {
				log.Fatal().Err(err).Msg("Cart Redis unavailable")
			}
			defer func() { _ = cartClient.Close() }()

			inventoryClient, err := redisstore.Open(ctx, cfg.InventoryRedisURL)
			if err != nil {
				log.Fatal().Err(err).Msg("Inventory Redis unavailable")
			}
			defer func() { _ = inventoryClient.Close() }()

			pubsubClient, err := redisstore.Open(ctx, cfg.PubSubRedisURL)
			if err != nil {
				log.Fatal().Err(err).Msg("Pub/sub Redis unavailable")
			}
			defer func() { _ = pubsubClient.Close() }()

			log.Info().Msg("Connected to Redis for cart storage")

			// -------- Wiring ------------------------
			cartStore := redisstore.New(cartClient)
			reader := inventory.NewRedisReader(inventoryClient, log)
			transport := realtime.NewRedisTransport(pubsubClient)
			svc := services.NewCartService(cartStore, reader, transport, services.Options{
				LowStockThreshold: cfg.LowStockThreshold,
				OutageMode:        services.OutageMode(cfg.InventoryOutageMode),
			}, log)

			// -------- Stock feed --------------------
			watcher := services.NewStockWatcher(transport, log)
			feed := realtime.NewStockFeed(pubsubClient, cfg.StockFeedChannel, log)
			go func() {
				if err := feed.Run(ctx, watcher.HandleChange); err != nil && ctx.Err() == nil {
					log.Error().Err(err).Msg("stock feed stopped")
				}
			}()

			// -------- Router & Server ---------------
			router := api.NewRouter(svc, cartStore, log)
			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			go func() {
				log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("HTTP server failed")
				}
			}()

			<-ctx.Done()

			log.Info().Msg("Shutting down server…")
			ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctxShutdown); err != nil {
				log.Fatal().Err(err).Msg("Server forced to shutdown")
			}
			log.Info().Msg("Server exited")
			return nil
		},
	}
	cmd.Flags().IntVar(&httpPort, "http-port", 0, "Override CART_HTTP_PORT")
	return cmd
}
