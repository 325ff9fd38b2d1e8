package server

import (
	"fmt"

	"reconview/internal/config"
	"reconview/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type ServerOpts struct {
	Port int
	Ip   string
}

func NewServerCommand(load func() (*config.Config, *logger.Logger, error)) *cobra.Command {
	serverConfig := &ServerOpts{}

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Start the dashboard server",
		Long:  `Start the web dashboard that submits scans, follows their progress and browses their results`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, log, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = serverConfig.Port
			}
			if cmd.Flags().Changed("ip") {
				cfg.Server.IP = serverConfig.Ip
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if log.GetLevel() < logrus.DebugLevel {
				gin.SetMode(gin.ReleaseMode)
			}

			app, err := NewApp(cmd.Context(), cfg, log)
			if err != nil {
				return fmt.Errorf("failed to initialize dashboard: %w", err)
			}
			defer func() {
				if closeErr := app.Close(); closeErr != nil {
					log.WithError(closeErr).Error("Error closing dashboard")
				}
			}()

			return app.Run(cmd.Context())
		},
	}

	serverCmd.Flags().IntVarP(&serverConfig.Port, "port", "p", 3000, "Port to run the server on")
	serverCmd.Flags().StringVarP(&serverConfig.Ip, "ip", "i", "127.0.0.1", "IP address to bind the server to")

	return serverCmd
}
