package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/catalogsync/internal/bootstrap"
	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/erp/catalogsync/internal/infrastructure/config"
	"github.com/erp/catalogsync/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	envFiles   []string
	appOpts    []bootstrap.Option
}

func newRootCmd(appOpts ...bootstrap.Option) *cobra.Command {
	opts := &rootOptions{appOpts: appOpts}

	root := &cobra.Command{
		Use:           "syncctl",
		Short:         "Catalog sync control",
		Long:          "syncctl runs one catalog sync pass for a tenant and prints the report as JSON.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			for _, f := range opts.envFiles {
				// missing files are fine
				_ = godotenv.Load(f)
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: config.toml in ., ./configs or /app)")
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "env files loaded before the config")

	root.AddCommand(newRunCmd(opts), newTablesCmd())
	return root
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var tenant, table string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one sync pass",
		Long: `Run one sync pass for a tenant's table and print the report as JSON.

Exit codes: 0 completed, 1 completed with row errors, 2 aborted or not run.`,
		Example: "  syncctl run --tenant 6f1c2a7e-8d3b-4f7a-9c1e-2b5d8e0a4f13 --table articles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := uuid.Parse(tenant)
			if err != nil {
				return fmt.Errorf("invalid --tenant: %w", err)
			}
			if _, err := syncrun.ParseTable(table); err != nil {
				return err
			}

			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			// one-shot: no scheduler, and stdout is reserved for the report
			cfg.Scheduler.Enabled = false
			if cfg.Log.Output == "stdout" {
				cfg.Log.Output = "stderr"
			}

			ctx := cmd.Context()
			appOpts := append([]bootstrap.Option{bootstrap.WithVersion(version)}, opts.appOpts...)
			app, err := bootstrap.New(ctx, cfg, appOpts...)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = app.Shutdown(shutdownCtx)
			}()

			report, err := app.Service.Sync(ctx, tenantID, table, syncrun.TriggerCLI)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(dto.NewSyncReportResponse(report)); err != nil {
				return err
			}
			return statusError(report)
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id (UUID)")
	cmd.Flags().StringVar(&table, "table", "", "logical table: articles, clients or providers")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the logical tables",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, t := range syncrun.Tables() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
		},
	}
}

func statusError(r syncrun.Report) error {
	switch r.Status {
	case syncrun.StatusCompleted:
		return nil
	case syncrun.StatusCompletedWithErrors:
		return &exitError{code: exitCompletedWithErrors, status: string(r.Status)}
	default:
		return &exitError{code: exitAborted, status: string(r.Status)}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
