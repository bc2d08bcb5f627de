package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vitalis/internal/catalog"
	"vitalis/internal/config"
	appLog "vitalis/internal/log"
	"vitalis/internal/model"
	"vitalis/internal/session"
	"vitalis/internal/store"
)

const version = "0.3.0"

// globalFlags are the persistent flags shared by every command. Non-empty
// values override the config file.
type globalFlags struct {
	configPath string
	catalog    string
	storePath  string
	listen     string
	logLevel   string
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "vitalis",
		Short:         "Plan a seminar schedule: browse, filter, select and share",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "./vitalis.yaml", "Path to config file")
	pf.StringVar(&flags.catalog, "catalog", "", "Seminar catalog file or URL (overrides config)")
	pf.StringVar(&flags.storePath, "store", "", "SQLite store path (overrides config)")
	pf.StringVar(&flags.listen, "listen", "", "HTTP listen address (overrides config)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		serveCmd(&flags),
		daysCmd(&flags),
		slotsCmd(&flags),
		selectCmd(&flags),
		filterCmd(&flags),
		searchCmd(&flags),
		viewCmd(&flags),
		dayCmd(&flags),
		clearCmd(&flags),
		scheduleCmd(&flags),
		shareCmd(&flags),
		openCmd(&flags),
		exportCmd(&flags),
		importCmd(&flags),
		snapshotCmd(&flags),
	)
	return root
}

// loadConfig reads the config file and applies flag overrides and the log
// level.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", flags.configPath, err)
	}

	if flags.catalog != "" {
		cfg.Catalog = flags.catalog
	}
	if flags.storePath != "" {
		cfg.StorePath = flags.storePath
	}
	if flags.listen != "" {
		// A derived base URL follows the listen address.
		if cfg.BaseURL == "http://"+cfg.Listen {
			cfg.BaseURL = "http://" + flags.listen
		}
		cfg.Listen = flags.listen
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.KV, error) {
	if cfg.StorePath == "" {
		appLog.Warn("no store_path configured; state will not outlive this process")
		return store.NewMemory(), nil
	}
	return store.OpenSQLite(ctx, cfg.StorePath)
}

// env is what a one-shot command works on: the catalog, the store and the
// user's session restored from it.
type env struct {
	cfg     *config.Config
	catalog *model.Catalog
	kv      store.KV
	sess    *session.Session
}

func (e *env) Close() {
	if err := e.kv.Close(); err != nil {
		appLog.Error("failed to close store", err)
	}
}

func openEnv(ctx context.Context, flags *globalFlags) (*env, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.NewLoader(cfg.Catalog, cfg.CacheDir).Load(ctx)
	if err != nil {
		return nil, err
	}
	kv, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:     cfg,
		catalog: cat,
		kv:      kv,
		sess:    session.Load(ctx, kv, cat),
	}, nil
}
