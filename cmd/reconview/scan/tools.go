package scan

import (
	"fmt"

	"reconview/internal/catalog"
	"reconview/internal/ui"

	"github.com/spf13/cobra"
)

func NewToolsCommand(load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools a scan can run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, log, err := load()
			if err != nil {
				return err
			}
			cat, err := catalog.Load(cfg.Catalog.Path, log)
			if err != nil {
				return fmt.Errorf("failed to load tool catalog: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Tools(cat.Tools()))
			return nil
		},
	}
}
