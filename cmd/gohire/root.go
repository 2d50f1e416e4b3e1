package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/RezaEskandarii/gohire/app"
	"github.com/RezaEskandarii/gohire/jobmanager"
	"github.com/RezaEskandarii/gohire/types/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	var cfgFile string
	v := viper.New()

	root := &cobra.Command{
		Use:           "gohire",
		Short:         "Bulk recruitment operations and interview scheduling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadConfigFile(v, cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./gohire.yaml if present)")
	root.PersistentFlags().String("storage", "", "storage driver: postgres or memory")
	root.PersistentFlags().String("postgres-url", "", "PostgreSQL connection URL")
	root.PersistentFlags().String("lock", "", "lock driver: postgres, redis or local")
	root.PersistentFlags().Uint("port", 0, "API port")
	root.PersistentFlags().String("log-level", "", "log level")

	_ = v.BindPFlag("storage", root.PersistentFlags().Lookup("storage"))
	_ = v.BindPFlag("postgres.url", root.PersistentFlags().Lookup("postgres-url"))
	_ = v.BindPFlag("lock", root.PersistentFlags().Lookup("lock"))
	_ = v.BindPFlag("api.port", root.PersistentFlags().Lookup("port"))
	_ = v.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newServeCmd(v), newMigrateCmd(v), newVersionCmd())
	return root
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server, the operation executor and the recovery sweep",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(v)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := jobmanager.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			return jobmanager.Run(ctx, c)
		},
	}
}

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(v)
			if err != nil {
				return err
			}
			if cfg.StorageDriver != config.Postgres {
				return errors.New("migrate requires the postgres storage driver")
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			c, err := app.NewContainer(ctx, cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Migrate(ctx); err != nil {
				return err
			}
			c.Log.Info("migrations applied")
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "gohire", version)
		},
	}
}
