package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mailtemplates/pkg/job"
	"github.com/dmitrymomot/mailtemplates/pkg/retention"
)

type purgeOptions struct {
	retentionDays int
	force         bool
	enqueue       bool
	delay         time.Duration
}

func newPurgeLogsCmd(root *rootOptions) *cobra.Command {
	opts := &purgeOptions{}

	cmd := &cobra.Command{
		Use:   "purge-logs",
		Short: "Delete send logs older than the retention window",
		Long: `Delete send logs older than the retention window.

The window defaults to MAILTEMPLATES_LOG_RETENTION_DAYS. Failure entries are kept
when MAILTEMPLATES_PURGE_FAILED_MESSAGES is false unless --force is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runOpts := retention.Options{Force: opts.force}
			if cmd.Flags().Changed("retention-days") {
				runOpts.RetentionDays = retention.Days(opts.retentionDays)
			}

			return withDeps(cmd, root, func(ctx context.Context, d *deps) error {
				if opts.enqueue {
					return enqueuePurge(ctx, cmd, d, runOpts, opts.delay)
				}

				res, err := d.purger().Purge(ctx, runOpts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d log entries prior to %s\n",
					res.Deleted, res.Before.Format(time.RFC3339))
				if res.KeepFailures {
					fmt.Fprintln(cmd.OutOrStdout(), "Failed message logs were retained.")
				}
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.retentionDays, "retention-days", 0, "days of logs to keep (default from MAILTEMPLATES_LOG_RETENTION_DAYS)")
	f.BoolVar(&opts.force, "force", false, "purge failure entries regardless of MAILTEMPLATES_PURGE_FAILED_MESSAGES")
	f.BoolVar(&opts.enqueue, "enqueue", false, "hand the purge to a running worker instead of running it here")
	f.DurationVar(&opts.delay, "delay", 0, "with --enqueue, run the purge after this delay")
	return cmd
}

func enqueuePurge(ctx context.Context, cmd *cobra.Command, d *deps, opts retention.Options, delay time.Duration) error {
	m, err := job.NewManager(d.pool,
		job.WithTask[retention.Options](retention.NewTask(d.purger())),
		job.WithLogger(d.logger),
	)
	if err != nil {
		return err
	}
	if err := m.Enqueue(ctx, retention.TaskName, opts,
		job.ScheduledIn(delay),
		job.UniqueFor(time.Hour),
		job.MaxAttempts(1),
	); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Purge enqueued.")
	return nil
}
