package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/HerbHall/llmexperts/internal/analyze"
	"github.com/HerbHall/llmexperts/internal/prompt"
)

// scoreRow is one line of score output.
type scoreRow struct {
	Source        string `json:"source"`
	Issue         string `json:"issue"`
	Persona       int    `json:"persona"`
	Encouragement int    `json:"encouragement"`
	Score         *int   `json:"score"`
	Response      string `json:"response"`
}

func newScoreCmd(a *app) *cobra.Command {
	var (
		issues         []string
		personas       []int
		encouragements []int
		dryRun         bool
		format         string
	)

	cmd := &cobra.Command{
		Use:   "score SUMMARY...",
		Short: "Score stored summaries with every persona and encouragement variant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("invalid format %q: must be \"text\" or \"json\"", format)
			}
			s := a.settings

			tmpl, err := prompt.LoadScaleTemplate(s.Templates.Analyze)
			if err != nil {
				return err
			}

			clientOpts := s.ClientOptions()
			clientOpts.Metrics = a.metrics
			analyzer := analyze.New(tmpl, analyze.Config{Client: clientOpts, Logger: a.logger})

			opts := analyze.Options{
				Model:         s.Model,
				UseExamples:   s.Analyze.UseExamples,
				MaxTokens:     s.Analyze.MaxTokens,
				Probabilities: s.Analyze.Probabilities,
				DryRun:        dryRun,
			}
			// Unset selectors pick every persona and encouragement.
			if cmd.Flags().Changed("personas") {
				opts.Personas = prompt.Select(personas...)
			}
			if cmd.Flags().Changed("encouragements") {
				opts.Encouragements = prompt.Select(encouragements...)
			}

			var rows []scoreRow
			for _, path := range args {
				results, err := analyzer.ScoreFile(cmd.Context(), path, issues, opts)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				for _, r := range results {
					row := scoreRow{
						Source:        path,
						Issue:         r.Issue,
						Persona:       r.Variant.PersonaIndex,
						Encouragement: r.Variant.EncouragementIndex,
						Response:      r.Response.Content,
					}
					if n, err := analyze.ParseScore(r.Response.Content); err == nil {
						row.Score = &n
					}
					rows = append(rows, row)
				}
			}

			if format == "json" {
				return writeScoresJSON(cmd.OutOrStdout(), rows)
			}
			return writeScoresText(cmd.OutOrStdout(), rows)
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&issues, "issues", "i", nil, "issue areas to score (required)")
	f.IntSliceVar(&personas, "personas", nil, "persona indices to use (default: all)")
	f.IntSliceVar(&encouragements, "encouragements", nil, "encouragement indices to use (default: all)")
	f.BoolVar(&dryRun, "dry-run", false, "return mock responses without calling the model")
	f.StringVar(&format, "format", "text", "output format: text or json")
	f.String("template", "", "scale prompt template file (.yaml or .json)")
	f.Bool("examples", false, "include the template's scored examples as prior turns")
	f.Int("max-tokens", 0, "maximum tokens per reply")
	f.Bool("probabilities", false, "request token log-probabilities where the model supports them")
	_ = cmd.MarkFlagRequired("issues")

	a.bind(f, "template", "templates.analyze")
	a.bind(f, "examples", "analyze.use_examples")
	a.bind(f, "max-tokens", "analyze.max_tokens")
	a.bind(f, "probabilities", "analyze.probabilities")
	return cmd
}

func writeScoresJSON(w io.Writer, rows []scoreRow) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

func writeScoresText(w io.Writer, rows []scoreRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tISSUE\tPERSONA\tENCOURAGEMENT\tSCORE\tRESPONSE")
	for _, r := range rows {
		score := "-"
		if r.Score != nil {
			score = fmt.Sprint(*r.Score)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			r.Source, r.Issue, r.Persona, r.Encouragement, score, firstLine(r.Response, 60))
	}
	return tw.Flush()
}

// firstLine returns the first line of s cut to max runes.
func firstLine(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if r := []rune(s); len(r) > max {
		return string(r[:max-3]) + "..."
	}
	return s
}
