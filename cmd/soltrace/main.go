package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/soltrace/soltrace/internal/chain"
	"github.com/soltrace/soltrace/internal/config"
	"github.com/soltrace/soltrace/internal/debugger"
	"github.com/soltrace/soltrace/internal/events"
	"github.com/soltrace/soltrace/internal/render"
	"github.com/soltrace/soltrace/internal/schema"
	"github.com/soltrace/soltrace/internal/tracestore"
	"github.com/soltrace/soltrace/pkg/common/logger"
)

const version = "0.3.0"

var (
	flagConfig     string
	flagDebug      bool
	flagNetwork    string
	flagNoFallback bool
	flagJSON       bool
	flagRefresh    bool
	flagDraftFile  string
	flagListen     string
)

// app holds everything a command needs, built once per invocation.
type app struct {
	cfg      *config.Config
	registry *schema.Registry
	dbg      *debugger.Debugger
	closers  []func()
}

func (a *app) close() {
	for _, fn := range a.closers {
		fn()
	}
}

func setup() (*app, error) {
	level := slog.LevelInfo
	if flagDebug {
		level = slog.LevelDebug
	}
	logger.Init(&logger.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})

	var cfg *config.Config
	if _, err := os.Stat(flagConfig); err == nil {
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	} else {
		logger.Debug("no config file, using defaults", "path", flagConfig)
		cfg = config.Default()
	}

	registry := schema.NewRegistry()
	if err := schema.LoadDir(registry, cfg.Schema.Dir); err != nil {
		return nil, fmt.Errorf("load schemas: %w", err)
	}
	if cfg.Schema.LabelsFile != "" {
		if err := schema.LoadLabels(registry, cfg.Schema.LabelsFile); err != nil {
			return nil, fmt.Errorf("load labels: %w", err)
		}
	}

	a := &app{cfg: cfg, registry: registry}

	opts := debugger.Options{
		FetchConcurrency: cfg.Client.AccountFetchConcurrency,
	}
	if cfg.Cache.Enabled {
		store, err := tracestore.Open(cfg.Cache.Directory)
		if err != nil {
			return nil, fmt.Errorf("open trace cache: %w", err)
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		opts.Store = store
	}
	if cfg.NATS.Enabled {
		emitter, err := events.Connect(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return nil, fmt.Errorf("connect NATS: %w", err)
		}
		a.closers = append(a.closers, emitter.Close)
		opts.Emitter = emitter
	}

	dbg, err := debugger.New(chain.FromConfig(cfg), registry, opts)
	if err != nil {
		return nil, err
	}
	a.dbg = dbg
	return a, nil
}

func output(trace *debugger.DebugTransaction) error {
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(trace)
	}
	fmt.Println(render.Trace(trace))
	return nil
}

func runDebug(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	trace, err := a.dbg.DebugSignature(cmd.Context(), args[0], debugger.DebugOptions{
		Network:         flagNetwork,
		DisableFallback: flagNoFallback,
		SkipCache:       flagRefresh,
	})
	if err != nil {
		return err
	}
	return output(trace)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	data, err := os.ReadFile(flagDraftFile)
	if err != nil {
		return fmt.Errorf("read draft: %w", err)
	}
	var draft debugger.Draft
	if err := yaml.Unmarshal(data, &draft); err != nil {
		return fmt.Errorf("parse draft %s: %w", flagDraftFile, err)
	}

	trace, err := a.dbg.DebugDraft(cmd.Context(), &draft, debugger.DebugOptions{
		Network:         flagNetwork,
		DisableFallback: flagNoFallback,
	})
	if err != nil {
		return err
	}
	return output(trace)
}

func runSchemas(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	programs := a.registry.Programs()
	sort.Slice(programs, func(i, j int) bool {
		return programs[i].String() < programs[j].String()
	})
	if len(programs) == 0 {
		fmt.Println("no schemas loaded")
		return nil
	}
	for _, p := range programs {
		fmt.Printf("%s (%s)\n", a.registry.Label(p), p)
		schemas := a.registry.Instructions(p)
		sort.Slice(schemas, func(i, j int) bool { return schemas[i].Name < schemas[j].Name })
		for _, s := range schemas {
			fmt.Printf("  %s  disc=%x  args=%d  accounts=%d\n",
				s.Name, s.Discriminator, len(s.Fields), len(s.Accounts))
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	handler := NewHTTPHandler(version, a.dbg)
	srv := &http.Server{
		Addr:         flagListen,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", flagListen)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
		logger.Info("shutting down")
		return srv.Close()
	}
}

func main() {
	root := &cobra.Command{
		Use:           "soltrace",
		Short:         "Trace and debug Solana transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "configs/config.yaml", "path to config file")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logs")
	root.PersistentFlags().StringVar(&flagNetwork, "network", "", "probe this network first")
	root.PersistentFlags().BoolVar(&flagNoFallback, "no-fallback", false, "do not try other networks")
	root.PersistentFlags().BoolVar(&flagJSON, "json", false, "print the trace as JSON")

	debugCmd := &cobra.Command{
		Use:   "debug <signature>",
		Short: "Locate a transaction, re-simulate it and show the trace",
		Args:  cobra.ExactArgs(1),
		RunE:  runDebug,
	}
	debugCmd.Flags().BoolVar(&flagRefresh, "refresh", false, "bypass the trace cache")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate a draft transaction from a YAML file",
		RunE:  runSimulate,
	}
	simulateCmd.Flags().StringVarP(&flagDraftFile, "file", "f", "draft.yaml", "draft transaction file")

	schemasCmd := &cobra.Command{
		Use:   "schemas",
		Short: "List the loaded instruction schemas",
		RunE:  runSchemas,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve traces over HTTP",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&flagListen, "listen", ":8080", "listen address")

	root.AddCommand(debugCmd, simulateCmd, schemasCmd, serveCmd)

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
