package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"options-copilot/internal/cli"
	"options-copilot/internal/config"
	"options-copilot/internal/logging"
)

func main() {
	// A local .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger()

	ctx := logging.WithLogger(context.Background(), logger)

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
