// Package cmd holds the storefront command line.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/config"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/logger"
)

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "O2 Herbal storefront backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger every command shares.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	lg, err := logger.New(cfg.Env)
	if err != nil {
		return nil, nil, err
	}
	return cfg, lg, nil
}
