package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/isaac-anthony/mano/internal/catalog"
	"github.com/isaac-anthony/mano/internal/config"
	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/messaging"
	"github.com/isaac-anthony/mano/internal/server"
	"github.com/isaac-anthony/mano/internal/services/menu"
	"github.com/isaac-anthony/mano/internal/services/order"
	"github.com/isaac-anthony/mano/internal/services/webhook"
	"github.com/isaac-anthony/mano/internal/square"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Vapi webhook and the menu and order endpoints",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP port")
	serveCmd.Flags().Bool("rabbitmq", false, "publish placed orders to RabbitMQ")
	mustBind("server.port", serveCmd.Flags().Lookup("port"))
	mustBind("rabbitmq.enabled", serveCmd.Flags().Lookup("rabbitmq"))
}

// pipeline is everything an order-taking mode needs.
type pipeline struct {
	client  *square.Client
	catalog *catalog.Cache
	service *order.Service
}

// newPipeline wires the catalog cache and the order service. A catalog that
// cannot be warmed is only a warning; the first order loads it again.
func newPipeline(ctx context.Context, cfg *config.Config, publisher order.Publisher, log *logger.Logger) *pipeline {
	requestID := logger.GenerateRequestID()
	client := square.New(cfg, log)

	cache := catalog.NewCache(client, cfg.Catalog.TTL, cfg.Square.Timeout, log)
	if err := cache.Warm(ctx); err != nil {
		log.Warn("catalog_warm_failed", "Catalog not loaded at startup", requestID, map[string]interface{}{
			"error": err.Error(),
		})
	}

	resolver := order.NewResolver(cache, cfg.Catalog.MaxItemQuantity, cfg.Catalog.ResolveConcurrency, log)
	submitter := order.NewSubmitter(client, order.SubmitterConfig{
		LocationID: cfg.Square.LocationID,
		State:      cfg.Square.OrderState,
		Timeout:    cfg.Square.Timeout,
		Backoff:    cfg.Submit.RetryBackoff,
	}, log)

	return &pipeline{
		client:  client,
		catalog: cache,
		service: order.NewService(resolver, submitter, publisher, log),
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger("mano", cfg, os.Stdout)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	requestID := logger.GenerateRequestID()
	log.Info("service_started", "Starting order bridge", requestID, map[string]interface{}{
		"port":        cfg.Server.Port,
		"location_id": cfg.Square.LocationID,
		"order_state": cfg.Square.OrderState,
		"base_url":    cfg.Square.Endpoint(),
		"rabbitmq":    cfg.RabbitMQ.Enabled,
	})
	if cfg.Vapi.WebhookSecret == "" {
		log.Warn("webhook_unauthenticated", "No webhook secret configured, accepting unsigned webhooks", requestID, nil)
	}

	// A nil *messaging.Publisher would be a non-nil order.Publisher.
	var publisher order.Publisher
	if cfg.RabbitMQ.Enabled {
		conn, err := messaging.New(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		defer conn.Close()

		log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)
		pub := messaging.NewPublisher(conn, log)
		defer pub.Close()
		publisher = pub
	}

	p := newPipeline(ctx, cfg, publisher, log)
	defer p.catalog.Wait()

	router := server.NewRouter(server.Handlers{
		Webhook: webhook.NewHandler(p.service, cfg.Vapi.WebhookSecret, cfg.Server.RequestTimeout, log),
		Menu:    menu.NewHandler(p.catalog, cfg.Server.RequestTimeout, log),
		Order:   order.NewHandler(p.service, p.client, cfg.Square.LocationID, cfg.Server.RequestTimeout, log),
		Health:  p.service,
	}, cfg.Server.MaxBodyBytes, log)

	if err := server.Run(ctx, cfg, router, log); err != nil {
		log.Error("service_failed", "HTTP server failed", requestID, err, nil)
		return err
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
	return nil
}
