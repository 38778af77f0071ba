package summarize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/HerbHall/llmexperts/internal/metrics"
	pkgllm "github.com/HerbHall/llmexperts/pkg/llm"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Existing-summary policies.
const (
	IfExistsReuse     = "reuse"
	IfExistsOverwrite = "overwrite"
)

// FileOptions controls SummarizeFile.
type FileOptions struct {
	TextOptions

	OutputDir string
	// LogDir receives log files; empty means OutputDir.
	LogDir string
	// IfExists is IfExistsReuse to return an existing summary unchanged.
	// Any other value regenerates it.
	IfExists    string
	TryNoChunk  bool
	SaveSummary bool
	SaveLog     bool
}

// DefaultFileOptions returns the defaults for model writing to outputDir.
func DefaultFileOptions(model, outputDir string) FileOptions {
	return FileOptions{
		TextOptions: DefaultTextOptions(model),
		OutputDir:   outputDir,
		IfExists:    IfExistsReuse,
		SaveSummary: true,
	}
}

// Record describes one SummarizeFile outcome.
type Record struct {
	RunID     string
	Artifact  ArtifactID
	Reused    bool
	Responses int
	Usage     pkgllm.Usage
	CreatedAt time.Time
}

// Recorder receives a Record for every SummarizeFile call.
type Recorder interface {
	RecordSummary(ctx context.Context, r Record) error
}

// Paths returns where the summary and log of id are written.
func (o FileOptions) Paths(id ArtifactID) (summaryPath, logPath string) {
	logDir := o.LogDir
	if logDir == "" {
		logDir = o.OutputDir
	}
	return filepath.Join(o.OutputDir, id.SummaryFile()), filepath.Join(logDir, id.LogFile())
}

// SummarizeFile summarizes the file at path and returns the final summary.
// With IfExistsReuse an existing summary of the same identity is returned
// without calling the model, dry runs included.
func (s *Summarizer) SummarizeFile(ctx context.Context, path string, issues []string, opts FileOptions) (string, error) {
	opts.TextOptions = withDefaults(opts.TextOptions)
	if opts.OutputDir == "" {
		return "", fmt.Errorf("summarize %s: output directory is required", path)
	}

	id, err := NewArtifactID(opts.MaxSize, opts.Model, issues, path)
	if err != nil {
		return "", fmt.Errorf("summarize %s: %w", path, err)
	}
	summaryPath, logPath := opts.Paths(id)

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if opts.SaveLog {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return "", fmt.Errorf("create log directory: %w", err)
		}
	}

	if opts.IfExists == IfExistsReuse {
		existing, err := os.ReadFile(summaryPath)
		switch {
		case err == nil:
			s.logger.Info(fmt.Sprintf("Summary file %s already exists. Reusing the existing summary.", id.SummaryFile()),
				zap.String("artifact", id.Name()),
			)
			s.metrics.ObserveSummary(metrics.CacheReused)
			s.record(ctx, Record{RunID: uuid.NewString(), Artifact: id, Reused: true})
			return string(existing), nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("read existing summary: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	text := string(data)

	var summary *Summary
	if opts.TryNoChunk {
		summary, err = s.SummarizeWithFallback(ctx, text, issues, opts.TextOptions)
	} else {
		summary, err = s.SummarizeText(ctx, text, issues, opts.TextOptions)
	}
	if err != nil {
		return "", fmt.Errorf("summarize %s: %w", path, err)
	}
	summary.RunID = uuid.NewString()

	if opts.SaveLog {
		if err := s.SaveLog(logPath, summary); err != nil {
			return "", err
		}
	}
	if opts.SaveSummary {
		if err := s.SaveSummary(summaryPath, summary); err != nil {
			return "", err
		}
	}

	s.metrics.ObserveSummary(metrics.CacheGenerated)
	s.record(ctx, Record{
		RunID:     summary.RunID,
		Artifact:  id,
		Responses: len(summary.Responses),
		Usage:     summary.Usage(),
	})
	return summary.FinalSummary, nil
}

// SaveSummary atomically writes the final summary to path.
func (s *Summarizer) SaveSummary(path string, summary *Summary) error {
	s.logger.Info("saving summary", zap.String("path", path))
	if err := writeFileAtomic(path, []byte(summary.FinalSummary)); err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

// SaveLog appends the summary's log record to path.
func (s *Summarizer) SaveLog(path string, summary *Summary) error {
	data, err := summary.Dump()
	if err != nil {
		return err
	}
	if err := appendLine(path, data); err != nil {
		return fmt.Errorf("save summary log: %w", err)
	}
	return nil
}

func (s *Summarizer) record(ctx context.Context, r Record) {
	if s.recorder == nil {
		return
	}
	r.CreatedAt = time.Now().UTC()
	if err := s.recorder.RecordSummary(ctx, r); err != nil {
		s.logger.Warn("failed to record summary run",
			zap.String("artifact", r.Artifact.Name()),
			zap.Error(err),
		)
	}
}
