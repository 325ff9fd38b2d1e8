package scan

import (
	"fmt"
	"os"

	"reconview/pkg/results"

	"github.com/spf13/cobra"
)

type ResultsOptions struct {
	Category string
	Search   string
	Page     int
}

// State turns the flags into a view state. Search and page only apply to
// searchable categories.
func (o ResultsOptions) State() (results.Category, results.State, error) {
	st := results.NewState()
	if o.Category == "" {
		return "", st, nil
	}
	c, err := results.ParseCategory(o.Category)
	if err != nil {
		return "", st, fmt.Errorf("%w: %s", err, o.Category)
	}
	if !c.Searchable() {
		return c, st, nil
	}
	if st, err = results.Search(st, c, o.Search); err != nil {
		return "", st, err
	}
	st, err = results.GoTo(st, c, o.Page)
	return c, st, err
}

func NewResultsCommand(load Loader) *cobra.Command {
	opts := &ResultsOptions{}

	resultsCmd := &cobra.Command{
		Use:   "results <scan-id>",
		Short: "Print the results of a scan",
		Long:  `Fetch the results of a scan and print one category, or all of them, with optional search and paging`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			category, st, err := opts.State()
			if err != nil {
				return err
			}
			cfg, log, err := load()
			if err != nil {
				return err
			}
			return PrintResults(cmd.Context(), os.Stdout, newClient(cfg, log), args[0], category, st)
		},
	}

	resultsCmd.Flags().StringVar(&opts.Category, "category", "", "Category to print: subdomains, ports, urls, other or errors")
	resultsCmd.Flags().StringVarP(&opts.Search, "search", "s", "", "Search term for the category")
	resultsCmd.Flags().IntVarP(&opts.Page, "page", "p", 1, "Page of the category")

	return resultsCmd
}
