package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/services/mcptools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve place_order and get_menu as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger("mano-mcp", cfg, os.Stderr)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		p := newPipeline(cmd.Context(), cfg, nil, log)
		defer p.catalog.Wait()

		log.Info("service_started", "MCP server listening on stdio", logger.GenerateRequestID(), map[string]interface{}{
			"location_id": cfg.Square.LocationID,
		})
		tools := mcptools.New(p.service, p.catalog, cfg.Server.RequestTimeout, log)
		return tools.ServeStdio(version)
	},
}
