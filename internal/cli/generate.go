package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/asngen/internal/compiler"
	"github.com/roach88/asngen/internal/engine"
	"github.com/roach88/asngen/internal/ir"
	"github.com/roach88/asngen/internal/metrics"
	"github.com/roach88/asngen/internal/pool"
	"github.com/roach88/asngen/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	RulesDir    string
	Database    string
	MaxSteps    int
	Rules       []string
	Output      string
	MetricsFile string
	ValidOnly   bool

	// IDs allows overriding the association ID generator (for testing).
	// If nil, defaults to engine.UUIDv7Generator.
	IDs engine.IDGenerator
}

// GenerateResult is the JSON payload of a generate command.
type GenerateResult struct {
	RunID        string            `json:"run_id,omitempty"`
	Associations []*ir.Association `json:"associations"`
	Orphans      []ir.Item         `json:"orphans"`
	Steps        int               `json:"steps"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	return newGenerateCommand(&GenerateOptions{RootOptions: rootOpts})
}

func newGenerateCommand(opts *GenerateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <pool>",
		Short: "Generate associations from a pool",
		Long: `Generate associations from a pool of items.

The pool is a YAML list of mappings (.yaml, .yml) or a pipe-delimited
table with a header row (.csv, .txt, .dat). Rules are loaded from every
CUE file in --rules.

Associations failing their rule's validity checks are reported as
invalid; --valid-only drops them instead.

With --db the run is recorded in a SQLite database for later inspection
with "asngen runs" and "asngen show".

Example:
  asngen generate pool.csv --rules ./rules
  asngen generate pool.yaml --rules ./rules --db ./asngen.db --rule Asn_Image
  asngen generate pool.csv --rules ./rules --format json -o asns.json
  asngen generate pool.csv --rules ./rules --valid-only`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RulesDir, "rules", "", "directory of CUE rule files (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "maximum item offers before aborting (0 disables)")
	cmd.Flags().StringSliceVar(&opts.Rules, "rule", nil, "only generate from these rules (repeatable)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write output to file instead of stdout")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file")
	cmd.Flags().BoolVar(&opts.ValidOnly, "valid-only", false, "drop associations that fail their rule's validity checks")
	_ = cmd.MarkFlagRequired("rules")

	return cmd
}

func runGenerate(opts *GenerateOptions, poolPath string, cmd *cobra.Command) error {
	logger := configureLogging(opts.RootOptions)

	// Cancel generation on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("loading rules", "dir", opts.RulesDir)
	loaded, errs := compiler.LoadRules(opts.RulesDir, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return WrapExitError(ExitCommandError, "failed to load rules", errors.Join(errs...))
	}
	logger.Info("rules loaded", "rules", len(loaded.Rules), "files", loaded.FileCount)

	items, err := pool.LoadFile(poolPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load pool", err)
	}
	logger.Info("pool loaded", "path", poolPath, "items", len(items))

	reg := prometheus.NewRegistry()
	engOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMaxSteps(opts.MaxSteps),
		engine.WithRuleFilter(opts.Rules...),
		engine.WithMetrics(metrics.NewMetrics(reg)),
	}
	if opts.ValidOnly {
		engOpts = append(engOpts, engine.WithValidOnly())
	}
	eng := engine.New(loaded.Rules, opts.IDs, engOpts...)

	res, err := eng.Generate(ctx, items)
	if opts.MetricsFile != "" {
		if werr := prometheus.WriteToTextfile(opts.MetricsFile, reg); werr != nil {
			logger.Warn("failed to write metrics", "path", opts.MetricsFile, "error", werr)
		}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return WrapExitError(ExitCommandError, "generation cancelled", err)
		}
		return WrapExitError(ExitFailure, "generation failed", err)
	}

	out := GenerateResult{
		Associations: res.Associations,
		Orphans:      res.Orphans,
		Steps:        res.Steps,
	}

	if opts.Database != "" {
		runID, err := recordRun(ctx, opts, poolPath, activeRuleNames(opts, loaded), items, res)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		out.RunID = runID
		logger.Info("run recorded", "db", opts.Database, "run_id", runID)
	}

	w := cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output file", err)
		}
		defer f.Close()
		w = f
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	formatter.Writer = w
	if opts.Format == "json" {
		return formatter.Success(out)
	}
	writeGenerateText(w, out, res.ByRule())
	return nil
}

// activeRuleNames returns the rule names a run used, in declaration order.
func activeRuleNames(opts *GenerateOptions, loaded *compiler.LoadResult) []string {
	if len(opts.Rules) == 0 {
		return loaded.RuleNames()
	}
	wanted := make(map[string]bool, len(opts.Rules))
	for _, r := range opts.Rules {
		wanted[r] = true
	}
	var names []string
	for _, name := range loaded.RuleNames() {
		if wanted[name] {
			names = append(names, name)
		}
	}
	return names
}

func recordRun(ctx context.Context, opts *GenerateOptions, poolPath string, rules []string, items []ir.Item, res *engine.Result) (string, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return "", err
	}
	defer st.Close()

	rec := &store.RunRecord{
		Run: store.Run{
			PoolSource: poolPath,
			Rules:      rules,
			MaxSteps:   opts.MaxSteps,
			Steps:      res.Steps,
		},
		Pool:         items,
		Associations: res.Associations,
		Orphans:      res.Orphans,
	}
	if err := st.WriteRun(ctx, rec); err != nil {
		return "", err
	}
	return rec.Run.ID, nil
}

func writeGenerateText(w io.Writer, out GenerateResult, byRule map[string]int) {
	fmt.Fprintf(w, "Generated %d association(s), %d orphan(s) in %d step(s)\n",
		len(out.Associations), len(out.Orphans), out.Steps)
	if out.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", out.RunID)
	}
	fmt.Fprintln(w)
	writeAssociationsText(w, out.Associations)

	if len(byRule) > 0 {
		fmt.Fprintln(w, "By rule:")
		for _, rule := range sortedKeys(byRule) {
			fmt.Fprintf(w, "  %-30s %d\n", rule, byRule[rule])
		}
	}
}
