package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/HerbHall/llmexperts/internal/ledger"
)

func newRunsCmd(a *app) *cobra.Command {
	var (
		filter ledger.Filter
		totals bool
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recorded summarize runs from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			l, err := a.openLedger(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			if totals {
				rows, err := l.Totals(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "MODEL\tRUNS\tREUSED\tPROMPT TOKENS\tCOMPLETION TOKENS")
				for _, t := range rows {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", t.Model, t.Runs, t.Reused, t.PromptTokens, t.CompletionTokens)
				}
				return tw.Flush()
			}

			runs, err := l.List(ctx, filter)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "CREATED\tARTIFACT\tREUSED\tRESPONSES\tPROMPT TOKENS")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%d\t%d\n",
					r.CreatedAt.Local().Format(time.DateTime), r.Artifact, r.Reused, r.Responses, r.PromptTokens)
			}
			return tw.Flush()
		},
	}

	f := cmd.Flags()
	f.StringVar(&filter.Model, "model-filter", "", "only show runs of this model")
	f.StringVar(&filter.Source, "source", "", "only show runs of this source stem")
	f.IntVar(&filter.Limit, "limit", 50, "maximum number of runs")
	f.BoolVar(&totals, "totals", false, "show per-model totals instead of runs")
	return cmd
}
