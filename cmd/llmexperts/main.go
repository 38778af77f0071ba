package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/llmexperts/internal/config"
	"github.com/HerbHall/llmexperts/internal/ledger"
	"github.com/HerbHall/llmexperts/internal/metrics"
	"github.com/HerbHall/llmexperts/internal/store"
	"github.com/HerbHall/llmexperts/internal/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	cancel()
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "llmexperts: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every subcommand shares. It is populated by setup before
// RunE; the caller of Execute releases it with close.
type app struct {
	configPath string
	bindings   map[*pflag.Flag]string

	v        *viper.Viper
	settings config.Settings
	logger   *zap.Logger
	metrics  *metrics.Collector

	metricsSrv *http.Server
	db         *store.SQLiteStore
}

// bind ties a flag to a configuration key so a changed flag overrides the
// file and environment.
func (a *app) bind(fs *pflag.FlagSet, name, key string) {
	if a.bindings == nil {
		a.bindings = make(map[*pflag.Flag]string)
	}
	a.bindings[fs.Lookup(name)] = key
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "llmexperts",
		Short:         "Summarize political texts and score them with persona prompts",
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "path to configuration file")
	pf.String("model", "", "model name")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	pf.String("db", "", "run ledger database path")
	a.bind(pf, "model", "model")
	a.bind(pf, "log-level", "logging.level")
	a.bind(pf, "metrics-addr", "metrics.addr")
	a.bind(pf, "db", "database.path")

	root.AddCommand(
		newSummarizeCmd(a),
		newScoreCmd(a),
		newModelsCmd(a),
		newRunsCmd(a),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	v, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := a.bindings[f]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return fmt.Errorf("bind flags: %w", bindErr)
	}

	settings, err := config.Decode(v)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(v)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.v, a.settings, a.logger = v, settings, logger

	if f := v.ConfigFileUsed(); f != "" {
		logger.Debug("configuration loaded", zap.String("component", "config"), zap.String("source", f))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(reg)
	if addr := settings.Metrics.Addr; addr != "" {
		a.serveMetrics(addr, reg)
	}
	return nil
}

func (a *app) serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	a.metricsSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := a.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	a.logger.Info("serving metrics", zap.String("addr", addr))
}

// openLedger opens the run ledger database, creating it when missing.
func (a *app) openLedger(ctx context.Context) (*ledger.Ledger, error) {
	path := a.settings.Database.Path
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}
	if err := db.CheckVersion(ctx, version.Short()); err != nil {
		db.Close()
		return nil, err
	}
	l, err := ledger.Open(ctx, db, a.logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	a.db = db
	a.logger.Debug("ledger opened", zap.String("component", "database"), zap.String("path", path))
	return l, nil
}

func (a *app) close() error {
	var errs []error
	if a.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, a.metricsSrv.Shutdown(ctx))
		cancel()
		a.metricsSrv = nil
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}
