package main

import (
	"github.com/spf13/cobra"

	"vitalis/internal/catalog"
	appLog "vitalis/internal/log"
	"vitalis/internal/web"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var noRefresh bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planner UI and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			appLog.Info("effective config",
				"listen", cfg.Listen,
				"catalog", cfg.Catalog,
				"store_path", cfg.StorePath,
				"refresh", cfg.RefreshCron,
				"base_url", cfg.BaseURL,
				"basic_auth", cfg.BasicAuth != nil,
			)

			loader := catalog.NewLoader(cfg.Catalog, cfg.CacheDir)
			cat, err := loader.Load(ctx)
			if err != nil {
				return err
			}
			holder := catalog.NewHolder(cat)

			if !noRefresh && catalog.IsRemote(cfg.Catalog) {
				refresher, err := catalog.NewRefresher(loader, holder, cfg.RefreshCron)
				if err != nil {
					return err
				}
				go refresher.Run(ctx)
			}

			kv, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := kv.Close(); err != nil {
					appLog.Error("failed to close store", err)
				}
			}()

			srv := web.NewServer(cfg, holder, kv)
			if err := srv.Run(ctx); err != nil {
				return err
			}
			appLog.Info("vitalis exiting")
			return nil
		},
	}
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "Do not reload a remote catalog on the refresh schedule")
	return cmd
}
