// Package cli implements the mailtemplates command.
package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	envFile string
	verbose bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "mailtemplates",
		Short:         "Manage and send templated email",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newSendCmd(opts),
		newPurgeLogsCmd(opts),
		newImportTemplatesCmd(opts),
		newListTemplatesCmd(opts),
		newWorkerCmd(opts),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		root.PrintErrln("Error:", err)
		return 1
	}
	return 0
}

// withDeps loads configuration, connects, runs fn and releases everything.
func withDeps(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, d *deps) error) error {
	cfg, err := loadConfig(opts.envFile)
	if err != nil {
		return err
	}
	log := newLogger(cfg, opts.verbose).With(slog.String("command", cmd.Name()))

	ctx := cmd.Context()
	d, err := connect(ctx, cfg, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		if err := d.close(shutdownCtx); err != nil {
			log.Warn("release resources", slog.String("error", err.Error()))
		}
	}()
	if err != nil {
		return err
	}
	return fn(ctx, d)
}
