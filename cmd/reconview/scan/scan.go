package scan

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"reconview/internal/catalog"
	"reconview/internal/config"
	"reconview/internal/services"
	"reconview/internal/ui"
	"reconview/pkg/backend"
	"reconview/pkg/lifecycle"
	"reconview/pkg/logger"
	"reconview/pkg/results"

	"github.com/spf13/cobra"
)

type Loader func() (*config.Config, *logger.Logger, error)

// Options holds the scan command flags
type Options struct {
	Target      string
	Tools       []string
	ShowResults bool
	Timeout     time.Duration
}

func newClient(cfg *config.Config, log *logger.Logger) backend.Client {
	return backend.NewClient(backend.Options{
		BaseURL:   cfg.Backend.URL,
		Timeout:   cfg.Backend.Timeout,
		UserAgent: "reconview-cli",
		Logger:    log,
	})
}

// Run submits a scan, follows it until it finishes and prints its results.
func Run(ctx context.Context, out io.Writer, client backend.Client, cfg *config.Config, log *logger.Logger, opts Options) error {
	done := make(chan lifecycle.Snapshot, 1)
	controller := lifecycle.NewController(client,
		lifecycle.WithInterval(cfg.Poll.Interval),
		lifecycle.WithLogger(log),
		lifecycle.WithBaseContext(ctx),
		lifecycle.WithHook(func(_ context.Context, from lifecycle.State, snap lifecycle.Snapshot) {
			if from == lifecycle.StateRunning && snap.State.Terminal() {
				done <- snap
			}
		}),
	)
	defer controller.Close()

	if _, err := controller.Submit(ctx, opts.Target, opts.Tools); err != nil {
		fmt.Fprintln(out, ui.Snapshot(controller.Snapshot()))
		return err
	}
	fmt.Fprintln(out, ui.Snapshot(controller.Snapshot()))

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	ticker := time.NewTicker(cfg.Poll.Interval)
	defer ticker.Stop()

	var final lifecycle.Snapshot
	last := -1
wait:
	for {
		select {
		case final = <-done:
			break wait
		case <-ticker.C:
			snap := controller.Snapshot()
			if snap.Job != nil && snap.Job.Progress != last {
				last = snap.Job.Progress
				fmt.Fprintln(out, ui.ProgressBar(last, ui.DefaultBarWidth))
			}
		case <-ctx.Done():
			return fmt.Errorf("stopped waiting for scan: %w", ctx.Err())
		}
	}

	fmt.Fprintln(out, ui.Snapshot(final))
	if !opts.ShowResults {
		return nil
	}

	id, err := controller.ResultsID()
	if err != nil {
		return err
	}
	return PrintResults(ctx, out, client, id, "", results.NewState())
}

// PrintResults fetches the results of scanID and prints category, or every
// category when it is empty, under st.
func PrintResults(ctx context.Context, out io.Writer, client backend.Client, scanID string, category results.Category, st results.State) error {
	var v results.Views
	records, err := client.GetResults(ctx, scanID)
	if err != nil {
		v = results.EmptyViews(scanID, services.LoadErrorMessage(err), st)
	} else {
		v = results.Render(results.NewResultSet(scanID, records), st)
	}

	categories := []results.Category{category}
	if category == "" {
		categories = []results.Category{
			results.CategorySubdomains, results.CategoryPorts, results.CategoryURLs,
			results.CategoryOther, results.CategoryErrors,
		}
	}
	fmt.Fprintln(out, ui.TitleStyle.Render("Results for scan "+scanID))
	for _, c := range categories {
		fmt.Fprintln(out, ui.Category(v, c))
	}
	return err
}

// NewScanCommand creates the scan command
func NewScanCommand(load Loader) *cobra.Command {
	opts := &Options{}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Submit a scan and follow it in the terminal",
		Long:  `Submit a scan to the backend, poll its progress until it finishes and print the aggregated results`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, log, err := load()
			if err != nil {
				return err
			}
			if len(opts.Tools) == 0 {
				cat, err := catalog.Load(cfg.Catalog.Path, log)
				if err != nil {
					return fmt.Errorf("failed to load tool catalog: %w", err)
				}
				opts.Tools = cat.Defaults()
			}
			return Run(cmd.Context(), os.Stdout, newClient(cfg, log), cfg, log, *opts)
		},
	}

	scanCmd.Flags().StringVarP(&opts.Target, "target", "t", "", "Target domain or IP (required)")
	scanCmd.Flags().StringSliceVar(&opts.Tools, "tools", nil, "Tools to run (default: the catalog defaults)")
	scanCmd.Flags().BoolVar(&opts.ShowResults, "results", true, "Print the results once the scan finishes")
	scanCmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Stop waiting after this long (0 waits forever)")
	scanCmd.MarkFlagRequired("target")

	return scanCmd
}
