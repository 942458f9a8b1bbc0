package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/asngen/internal/store"
)

// RunsOptions holds flags for the runs and show commands.
type RunsOptions struct {
	*RootOptions
	Database string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded generation runs",
		Long: `List the generation runs recorded in a database, oldest first.

Example:
  asngen runs --db ./asngen.db
  asngen runs --db ./asngen.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListRuns(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the associations of a recorded run",
		Long: `Show a recorded run: its summary, associations and orphans.

Example:
  asngen show --db ./asngen.db 01936f6e-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runListRuns(ctx context.Context, opts *RunsOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return formatter.Success(runs)
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		writeRunSummary(w, r)
	}
	return nil
}

func runShow(ctx context.Context, opts *RunsOptions, runID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	rec, err := st.ReadRun(ctx, runID)
	if errors.Is(err, store.ErrRunNotFound) {
		return formatter.Fail(ExitFailure, "E_RUN_NOT_FOUND", fmt.Sprintf("run %s not found", runID), err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	if opts.Format == "json" {
		return formatter.Success(GenerateResult{
			RunID:        rec.Run.ID,
			Associations: rec.Associations,
			Orphans:      rec.Orphans,
			Steps:        rec.Run.Steps,
		})
	}

	w := cmd.OutOrStdout()
	writeRunSummary(w, rec.Run)
	fmt.Fprintln(w)
	writeAssociationsText(w, rec.Associations)
	if len(rec.Orphans) > 0 {
		fmt.Fprintln(w, "Orphans:")
		for _, o := range rec.Orphans {
			fmt.Fprintf(w, "    - %s\n", o.Text())
		}
	}
	return nil
}

func writeRunSummary(w io.Writer, r store.Run) {
	fmt.Fprintf(w, "#%d %s  pool=%s rules=[%s] items=%d associations=%d orphans=%d steps=%d\n",
		r.Seq, r.ID, r.PoolSource, strings.Join(r.Rules, ","), r.Items, r.Associations, r.Orphans, r.Steps)
}
