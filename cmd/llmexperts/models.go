package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/HerbHall/llmexperts/internal/llm"
)

func newModelsCmd(a *app) *cobra.Command {
	var (
		check   bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List supported models and their per-minute token budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			header := "MODEL\tFAMILY\tTOKENS/MIN\tPROBABILITIES"
			if check {
				header += "\tHEALTH"
			}
			fmt.Fprintln(tw, header)

			for _, spec := range llm.DefaultRegistry().Specs() {
				line := fmt.Sprintf("%s\t%s\t%d\t%t", spec.Name, spec.Family, spec.TokenLimit(), spec.Family.SupportsProbabilities())
				if check {
					line += "\t" + a.health(cmd.Context(), spec.Name, timeout)
				}
				fmt.Fprintln(tw, line)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check that each model's provider is reachable")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "per-model health check timeout")
	return cmd
}

func (a *app) health(ctx context.Context, model string, timeout time.Duration) string {
	opts := a.settings.ClientOptions()
	opts.Logger = a.logger
	opts.Metrics = a.metrics
	client, err := llm.New(model, opts)
	if err != nil {
		return "error: " + err.Error()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
