package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"florify/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP matching API",
	Long: `Serve starts the blueprint matching HTTP API. The corpus is loaded on the
first request; pass --preload to load it at startup instead.

Endpoints:
  POST /api/v1/match   {"gardenId": "...", "embedding": [...], "threshold": 0.7}
  GET  /api/v1/stats`,
	RunE: runServe,
}

var servePreload bool

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&servePreload, "preload", false, "load the corpus before accepting requests")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	svc := newMatchService(cfg)

	if servePreload {
		if err := svc.Load(); err != nil {
			return fmt.Errorf("failed to load corpus: %w", err)
		}
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.New(svc, logger)
	return srv.Run(addr)
}
