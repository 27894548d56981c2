package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/isaac-anthony/mano/internal/catalog"
	"github.com/isaac-anthony/mano/internal/square"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Print the current Square catalog as the assistant sees it",
	RunE: func(cmd *cobra.Command, args []string) error {
		full, _ := cmd.Flags().GetBool("full")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger("mano", cfg, os.Stderr)
		if err != nil {
			return err
		}
		if cfg.Square.AccessToken == "" {
			return fmt.Errorf("square.access_token is required (SQUARE_ACCESS_TOKEN)")
		}

		items, err := square.New(cfg, log).ListCatalogItems(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list catalog: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if full {
			return enc.Encode(catalog.FlattenVariations(items))
		}
		return enc.Encode(catalog.Flatten(items))
	},
}

func init() {
	menuCmd.Flags().Bool("full", false, "include variation ids, prices and modifiers")
}
