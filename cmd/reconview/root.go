package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"reconview/cmd/reconview/scan"
	"reconview/cmd/reconview/server"
	"reconview/internal/config"
	"reconview/pkg/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func Execute() error {
	var (
		verbose    bool
		configFile string
	)

	rootCmd := &cobra.Command{
		Use:   "reconview",
		Short: "Dashboard and CLI for reconnaissance scans",
		Long:  `Reconview submits reconnaissance scans to a scan backend, follows their progress and browses the aggregated results`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(logrus.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default: reconview.yaml in ., ./config or $HOME/.reconview)")

	load := func() (*config.Config, *logger.Logger, error) {
		level := logrus.InfoLevel
		if verbose {
			level = logrus.DebugLevel
		}
		log := logger.NewLogger(level)

		opts := config.DefaultOptions()
		opts.ConfigFile = configFile
		cfg, err := config.Load(opts)
		if err != nil {
			return nil, nil, err
		}
		return cfg, log, nil
	}

	rootCmd.AddCommand(server.NewServerCommand(load))
	rootCmd.AddCommand(scan.NewScanCommand(load))
	rootCmd.AddCommand(scan.NewResultsCommand(load))
	rootCmd.AddCommand(scan.NewToolsCommand(load))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
