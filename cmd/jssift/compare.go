package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/jssift/internal/config"
	"github.com/nao1215/jssift/internal/database"
	"github.com/nao1215/jssift/internal/model"
	"github.com/nao1215/jssift/internal/report"
	"github.com/spf13/cobra"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [url]",
		Short: "Compare a run with an earlier run of the same page",
		Long: `Compare shows how the strings found on a page changed between two runs
recorded in the history database:
- scripts that appeared or disappeared
- scripts whose outcome changed (for example from ok to a parse failure)
- strings added to or removed from each script

By default the latest run is compared with the one before it.

Examples:
  # Compare the latest two runs of a page
  jssift compare https://example.com/

  # List the recorded runs of a page
  jssift compare --list https://example.com/

  # Compare the latest run with run 5
  jssift compare --with-run-id 5 https://example.com/

  # Compare with the first run since a date
  jssift compare --since 2025-01-01 https://example.com/

  # Output the comparison as JSON
  jssift compare --json https://example.com/

  # List every page in the database
  jssift compare --list-targets`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list", "l", false, "List the runs of the specified page")
	cmd.Flags().BoolP("list-targets", "L", false, "List every page in the database")

	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare with a specific run by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first run on or after this date (format: YYYY-MM-DD)")

	cmd.Flags().BoolP("json", "j", false, "Output the comparison in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output the comparison in Markdown format")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")

	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	cmd.MarkFlagsMutuallyExclusive("with-run-id", "since")

	return cmd
}

// compareOptions are the parsed compare flags.
type compareOptions struct {
	target      string
	list        bool
	listTargets bool
	withRunID   int64
	since       string
	json        bool
	markdown    bool
	dbDir       string
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseCompareFlags(cmd)
	if err != nil {
		return err
	}

	// Validate before opening the database.
	if !opts.listTargets {
		if len(args) == 0 {
			return errors.New("page URL is required (use --list-targets to see recorded pages)")
		}
		target, err := model.NewCrawlTarget(args[0])
		if err != nil {
			return fmt.Errorf("invalid page URL: %w", err)
		}
		opts.target = target.String()
	}

	db, err := database.Open(opts.dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case opts.listTargets:
		return listTargets(ctx, out, db)
	case opts.list:
		return listRuns(ctx, out, db, opts.target)
	default:
		return runComparison(ctx, out, db, opts)
	}
}

func parseCompareFlags(cmd *cobra.Command) (*compareOptions, error) {
	flags := cmd.Flags()
	opts := &compareOptions{}

	var err error
	if opts.list, err = flags.GetBool("list"); err != nil {
		return nil, err
	}
	if opts.listTargets, err = flags.GetBool("list-targets"); err != nil {
		return nil, err
	}
	if opts.withRunID, err = flags.GetInt64("with-run-id"); err != nil {
		return nil, err
	}
	if opts.since, err = flags.GetString("since"); err != nil {
		return nil, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	return opts, nil
}

func listTargets(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list targets: %w", err)
	}

	if len(targets) == 0 {
		fmt.Fprintln(out, "No runs found in the database.")
		fmt.Fprintln(out, "\nUse 'jssift sift -u <url>' to sift a page.")
		return nil
	}

	fmt.Fprintf(out, "Recorded pages (%d):\n\n", len(targets))
	for _, target := range targets {
		fmt.Fprintf(out, "  • %s\n", target)
	}
	fmt.Fprintln(out, "\nUse 'jssift compare --list <url>' to see the runs of a page.")

	return nil
}

func listRuns(ctx context.Context, out io.Writer, db *database.HistoryDB, target string) error {
	runs, err := db.ListRuns(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No runs found for %s\n", target)
		fmt.Fprintln(out, "\nUse 'jssift sift -u <url>' to sift this page.")
		return nil
	}

	fmt.Fprintf(out, "Runs of %s (%d):\n\n", target, len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-9s  %-8s  %-7s  %s\n", "ID", "Date", "Mode", "Scripts", "Failed", "Strings")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 68))
	for _, run := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-9s  %-8d  %-7d  %d\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Mode,
			run.ScriptCount,
			run.FailedCount,
			run.StringCount,
		)
	}

	fmt.Fprintln(out, "\nUse 'jssift compare <url>' to compare the latest two runs.")
	fmt.Fprintln(out, "Use 'jssift compare --with-run-id <id> <url>' to compare with a specific run.")

	return nil
}

func runComparison(ctx context.Context, out io.Writer, db *database.HistoryDB, opts *compareOptions) error {
	runs, err := db.ListRuns(ctx, opts.target)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		return fmt.Errorf("no runs found for %s", opts.target)
	}
	if len(runs) < 2 && opts.withRunID == 0 {
		return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
	}

	newerID := runs[0].ID
	olderID, err := selectOlderRun(runs, opts)
	if err != nil {
		return err
	}
	if olderID == newerID {
		return fmt.Errorf("run %d is the latest run; choose an earlier run to compare with", olderID)
	}

	older, err := db.GetRun(ctx, olderID)
	if err != nil {
		return fmt.Errorf("failed to load run %d: %w", olderID, err)
	}
	if older.Target != opts.target {
		return fmt.Errorf("run %d belongs to %s, not %s", olderID, older.Target, opts.target)
	}
	newer, err := db.GetRun(ctx, newerID)
	if err != nil {
		return fmt.Errorf("failed to load run %d: %w", newerID, err)
	}

	var w report.Writer
	switch {
	case opts.json:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case opts.markdown:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out)
	}
	_, err = w.WriteDiff(database.CompareRuns(older, newer))
	return err
}

// selectOlderRun picks the baseline of a comparison. runs is ordered newest
// first.
func selectOlderRun(runs []database.RunMetadata, opts *compareOptions) (int64, error) {
	switch {
	case opts.withRunID > 0:
		return opts.withRunID, nil
	case opts.since != "":
		since, err := time.ParseInLocation("2006-01-02", opts.since, time.Local)
		if err != nil {
			return 0, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
		for i := len(runs) - 1; i >= 0; i-- {
			if !runs[i].StartedAt.Before(since) {
				return runs[i].ID, nil
			}
		}
		return 0, fmt.Errorf("no runs found since %s", opts.since)
	default:
		return runs[1].ID, nil
	}
}
