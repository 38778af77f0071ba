// Package ledger keeps a SQLite record of every summarize run, generated or
// reused, with its token totals.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/HerbHall/llmexperts/internal/store"
	"github.com/HerbHall/llmexperts/internal/summarize"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ summarize.Recorder = (*Ledger)(nil)

// Run is one recorded summarize call.
type Run struct {
	ID               int64     `json:"id"`
	RunID            string    `json:"run_id"`
	Artifact         string    `json:"artifact"`
	Model            string    `json:"model"`
	Tier             string    `json:"tier"`
	Issue            string    `json:"issue"`
	Source           string    `json:"source"`
	Reused           bool      `json:"reused"`
	Responses        int       `json:"responses"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	CreatedAt        time.Time `json:"created_at"`
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Model  string
	Source string
	Limit  int // Defaults to 50.
}

// ModelTotals aggregates runs of one model.
type ModelTotals struct {
	Model            string `json:"model"`
	Runs             int    `json:"runs"`
	Reused           int    `json:"reused"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// Ledger records runs in the summary_runs table.
type Ledger struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open migrates the ledger schema in s and returns a Ledger on it.
func Open(ctx context.Context, s *store.SQLiteStore, logger *zap.Logger) (*Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := s.Migrate(ctx, Component, migrations()); err != nil {
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return &Ledger{db: s.DB(), logger: logger.Named("ledger")}, nil
}

// RecordSummary implements summarize.Recorder.
func (l *Ledger) RecordSummary(ctx context.Context, r summarize.Record) error {
	run := Run{
		RunID:            r.RunID,
		Artifact:         r.Artifact.Name(),
		Model:            r.Artifact.Model,
		Tier:             string(r.Artifact.Tier),
		Issue:            r.Artifact.Issue,
		Source:           r.Artifact.Source,
		Reused:           r.Reused,
		Responses:        r.Responses,
		PromptTokens:     r.Usage.PromptTokens,
		CompletionTokens: r.Usage.CompletionTokens,
		CreatedAt:        r.CreatedAt,
	}
	return l.Insert(ctx, &run)
}

// Insert stores run, filling RunID and CreatedAt when empty and ID after
// the insert.
func (l *Ledger) Insert(ctx context.Context, run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	res, err := l.db.ExecContext(ctx, `
		INSERT INTO summary_runs (run_id, artifact, model, tier, issue, source, reused,
			responses, prompt_tokens, completion_tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Artifact, run.Model, run.Tier, run.Issue, run.Source, run.Reused,
		run.Responses, run.PromptTokens, run.CompletionTokens,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert summary run: %w", err)
	}
	if run.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("summary run id: %w", err)
	}
	l.logger.Debug("summary run recorded",
		zap.String("run_id", run.RunID),
		zap.String("artifact", run.Artifact),
		zap.Bool("reused", run.Reused),
	)
	return nil
}

// List returns the most recent runs first.
func (l *Ledger) List(ctx context.Context, f Filter) ([]Run, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	var (
		where []string
		args  []any
	)
	if f.Model != "" {
		where = append(where, "model = ?")
		args = append(args, f.Model)
	}
	if f.Source != "" {
		where = append(where, "source = ?")
		args = append(args, f.Source)
	}
	query := `SELECT id, run_id, artifact, model, tier, issue, source, reused,
		responses, prompt_tokens, completion_tokens, created_at FROM summary_runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, f.Limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list summary runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			r         Run
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.Artifact, &r.Model, &r.Tier, &r.Issue, &r.Source,
			&r.Reused, &r.Responses, &r.PromptTokens, &r.CompletionTokens, &createdAt); err != nil {
			return nil, fmt.Errorf("scan summary run: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Totals aggregates runs per model, ordered by model name.
func (l *Ledger) Totals(ctx context.Context) ([]ModelTotals, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT model, COUNT(*), SUM(reused), SUM(prompt_tokens), SUM(completion_tokens)
		FROM summary_runs GROUP BY model ORDER BY model`)
	if err != nil {
		return nil, fmt.Errorf("summary run totals: %w", err)
	}
	defer rows.Close()

	totals := make([]ModelTotals, 0)
	for rows.Next() {
		var t ModelTotals
		if err := rows.Scan(&t.Model, &t.Runs, &t.Reused, &t.PromptTokens, &t.CompletionTokens); err != nil {
			return nil, fmt.Errorf("scan totals: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
