package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HerbHall/llmexperts/internal/prompt"
	"github.com/HerbHall/llmexperts/internal/summarize"
)

func newSummarizeCmd(a *app) *cobra.Command {
	var (
		issues   []string
		dryRun   bool
		debug    bool
		noLedger bool
	)

	cmd := &cobra.Command{
		Use:   "summarize FILE...",
		Short: "Summarize text files for one or more issue areas",
		Long: `Summarize each FILE with the configured model and write the summary to the
output directory. An existing summary with the same tier, model, issue and
source is reused unless --if-exists is set to anything other than "reuse".
The path of every summary is printed on its own line.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := a.settings

			tmpl, err := prompt.LoadSummarizeTemplate(s.Templates.Summarize)
			if err != nil {
				return err
			}

			var recorder summarize.Recorder
			if !noLedger {
				l, err := a.openLedger(ctx)
				if err != nil {
					return err
				}
				recorder = l
			}

			summarizer := summarize.New(tmpl, summarize.Config{
				Client:   s.ClientOptions(),
				Recorder: recorder,
				Logger:   a.logger,
				Metrics:  a.metrics,
			})
			opts := summarize.FileOptions{
				TextOptions: summarize.TextOptions{
					Model:           s.Model,
					ChunkSize:       s.Summarize.ChunkSize,
					Overlap:         s.Summarize.Overlap,
					MinSize:         s.Summarize.MinSize,
					MaxSize:         s.Summarize.MaxSize,
					MaxTokensFactor: s.Summarize.MaxTokensFactor,
					DryRun:          dryRun,
					Debug:           debug,
				},
				OutputDir:   s.Summarize.OutputDir,
				LogDir:      s.Summarize.LogDir,
				IfExists:    s.Summarize.IfExists,
				TryNoChunk:  s.Summarize.TryNoChunk,
				SaveSummary: true,
				SaveLog:     s.Summarize.SaveLog,
			}

			if opts.MaxSize <= 0 {
				opts.MaxSize = summarize.DefaultMaxSize
			}
			for _, path := range args {
				if _, err := summarizer.SummarizeFile(ctx, path, issues, opts); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				id, err := summarize.NewArtifactID(opts.MaxSize, opts.Model, issues, path)
				if err != nil {
					return err
				}
				summaryPath, _ := opts.Paths(id)
				a.logger.Debug("summary ready", zap.String("source", path), zap.String("summary", summaryPath))
				fmt.Fprintln(cmd.OutOrStdout(), summaryPath)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&issues, "issues", "i", nil, "issue areas to summarize for (required)")
	f.BoolVar(&dryRun, "dry-run", false, "return mock summaries without calling the model")
	f.BoolVar(&debug, "debug", false, "log every rendered prompt")
	f.BoolVar(&noLedger, "no-ledger", false, "do not record runs in the ledger database")
	f.String("template", "", "summarize prompt template file (.yaml or .json)")
	f.StringP("output-dir", "o", "", "directory receiving summaries")
	f.String("log-dir", "", "directory receiving response logs (default: output directory)")
	f.String("if-exists", "", `"reuse" keeps existing summaries; anything else regenerates them`)
	f.Float64("chunk-size", 0, "chunk size in characters, or a fraction of the text below 1; 0 disables chunking")
	f.Int("overlap", 0, "characters shared by adjacent chunks")
	f.Int("min-size", 0, "minimum summary length in words")
	f.Int("max-size", 0, "maximum summary length in words")
	f.Bool("try-no-chunk", false, "summarize the whole text first and chunk only if that fails")
	f.Bool("save-log", false, "append every response to a JSON log next to the summary")
	_ = cmd.MarkFlagRequired("issues")

	a.bind(f, "template", "templates.summarize")
	a.bind(f, "output-dir", "summarize.output_dir")
	a.bind(f, "log-dir", "summarize.log_dir")
	a.bind(f, "if-exists", "summarize.if_exists")
	a.bind(f, "chunk-size", "summarize.chunk_size")
	a.bind(f, "overlap", "summarize.overlap")
	a.bind(f, "min-size", "summarize.min_size")
	a.bind(f, "max-size", "summarize.max_size")
	a.bind(f, "try-no-chunk", "summarize.try_no_chunk")
	a.bind(f, "save-log", "summarize.save_log")
	return cmd
}
