package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/messaging"
	"github.com/isaac-anthony/mano/internal/services/kitchen"
)

var kitchenFeedCmd = &cobra.Command{
	Use:   "kitchen-feed",
	Short: "Print a ticket for every order placed by phone",
	RunE: func(cmd *cobra.Command, args []string) error {
		prefetch, _ := cmd.Flags().GetInt("prefetch")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger("kitchen-feed", cfg, os.Stderr)
		if err != nil {
			return err
		}

		conn, err := messaging.New(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		defer conn.Close()
		log.Info("rabbitmq_connected", "Connected to RabbitMQ", logger.GenerateRequestID(), nil)

		consumer := messaging.NewConsumer(conn, log, messaging.KitchenFeedQueue, "kitchen-feed", prefetch)
		defer consumer.Close()

		return kitchen.NewFeed(consumer, os.Stdout, log).Start(cmd.Context())
	},
}

func init() {
	kitchenFeedCmd.Flags().Int("prefetch", 1, "RabbitMQ prefetch count")
}
