package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cazylab/ceclust/internal/annotation"
	"github.com/cazylab/ceclust/internal/cluster"
	"github.com/cazylab/ceclust/internal/config"
	"github.com/cazylab/ceclust/internal/errors"
	"github.com/cazylab/ceclust/internal/logger"
	"github.com/cazylab/ceclust/internal/metrics"
	"github.com/cazylab/ceclust/internal/reconcile"
	"github.com/cazylab/ceclust/internal/store"
	"github.com/cazylab/ceclust/internal/table"
)

var runCmd = &cobra.Command{
	Use:   "run [family...]",
	Short: "Reconcile cluster files with the annotation database",
	Long: `For each target family, read the MMseqs2 cluster TSV, decide for every
cluster and every protein whether an experimentally resolved structure exists,
collect the CAZy families involved, and write two CSV tables:

  summary   one row per cluster
  proteins  one row per (cluster, protein)

With no arguments every target in ceclust.yaml is run. --family runs a single
ad-hoc target whose files default to data/<family>_clusters*.`,
	RunE: runRun,
}

// runOptions carries the flags that are not part of config.Config.
type runOptions struct {
	indexFile   string
	metricsFile string
	noProgress  bool
	lockTimeout time.Duration
}

var (
	flagRunDB          string
	flagRunPrefix      string
	flagRunFamily      string
	flagRunClusterFile string
	flagRunSummaryOut  string
	flagRunProteinsOut string
	flagRunOpts        runOptions
)

func init() {
	f := runCmd.Flags()
	f.StringVar(&flagRunDB, "db", "", "Annotation database (SQLite path or postgres:// DSN)")
	f.StringVar(&flagRunPrefix, "prefix", "", "Family prefix for the structured index (default CE)")
	f.StringVar(&flagRunFamily, "family", "", "Run a single target for this family")
	f.StringVar(&flagRunClusterFile, "cluster-file", "", "Cluster TSV (single target only)")
	f.StringVar(&flagRunSummaryOut, "summary-out", "", "Cluster summary CSV (single target only)")
	f.StringVar(&flagRunProteinsOut, "proteins-out", "", "Protein detail CSV (single target only)")
	f.StringVar(&flagRunOpts.indexFile, "index-file", "", "Load the structured index from this CSV instead of querying")
	f.StringVar(&flagRunOpts.metricsFile, "metrics-file", "", "Write run metrics in Prometheus textfile format")
	f.BoolVar(&flagRunOpts.noProgress, "no-progress", false, "Disable progress bars")
	f.DurationVar(&flagRunOpts.lockTimeout, "lock-timeout", defaultLockTimeout, "How long to wait for another run on the same database")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if flagRunDB != "" {
		cfg.Database = flagRunDB
	}
	if flagRunPrefix != "" {
		cfg.FamilyPrefix = flagRunPrefix
	}

	targets, err := selectRunTargets(cfg, args)
	if err != nil {
		return err
	}
	cfg.Targets = targets
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := flagRunOpts
	if flagJSONLogs {
		opts.noProgress = true
	}
	return executeRun(cmd.Context(), cfg, opts)
}

// selectRunTargets resolves positional families and --family into targets and
// applies the per-target file flags.
func selectRunTargets(cfg *config.Config, args []string) ([]config.Target, error) {
	var targets []config.Target
	if flagRunFamily != "" {
		if len(args) > 0 {
			return nil, errors.New("--family cannot be combined with positional families")
		}
		t, ok := cfg.Target(flagRunFamily)
		if !ok {
			t = config.DefaultTarget(flagRunFamily)
		}
		targets = []config.Target{t}
	} else {
		var err error
		if targets, err = cfg.SelectTargets(args); err != nil {
			return nil, err
		}
	}

	if flagRunClusterFile == "" && flagRunSummaryOut == "" && flagRunProteinsOut == "" {
		return targets, nil
	}
	if len(targets) != 1 {
		return nil, errors.WithHint(
			errors.New("--cluster-file, --summary-out and --proteins-out need exactly one target"),
			"pass --family or a single family argument")
	}
	t := targets[0]
	if flagRunClusterFile != "" {
		t.ClusterFile = flagRunClusterFile
	}
	if flagRunSummaryOut != "" {
		t.SummaryOut = flagRunSummaryOut
	}
	if flagRunProteinsOut != "" {
		t.ProteinsOut = flagRunProteinsOut
	}
	return []config.Target{t}, nil
}

// executeRun holds the store lock, builds the structured index once and
// reconciles every target in cfg against it.
func executeRun(ctx context.Context, cfg *config.Config, opts runOptions) error {
	log := logger.Logger.With("run_id", uuid.NewString())

	lockPath, err := lockPathFor(cfg)
	if err != nil {
		return err
	}
	_, unlock, err := acquireStoreLock(lockPath, opts.lockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	idx, err := loadIndex(ctx, st, cfg, opts, log)
	if err != nil {
		return err
	}
	rec := metrics.New()
	rec.ObserveIndex(idx.Len())
	printOK("", fmt.Sprintf("%s structured proteins indexed (prefix %s)", count(idx.Len()), cfg.FamilyPrefix))

	for _, t := range cfg.Targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		printSection(t.Family)
		res, err := runTarget(ctx, idx, st, t, opts, log)
		if err != nil {
			return errors.Wrapf(err, "target %s", t.Family)
		}
		rec.ObserveRun(t.Family, res)
	}

	if opts.metricsFile != "" {
		if err := rec.WriteFile(opts.metricsFile); err != nil {
			return err
		}
		printInfo("", fmt.Sprintf("Metrics written: %s", opts.metricsFile))
	}
	return nil
}

func loadIndex(ctx context.Context, st *store.Store, cfg *config.Config, opts runOptions, log *zap.SugaredLogger) (annotation.StructuredIndex, error) {
	if opts.indexFile != "" {
		idx, err := annotation.LoadFile(opts.indexFile)
		if err != nil {
			return nil, errors.WithHint(err, "rebuild it with 'ceclust index'")
		}
		log.Infow("Loaded structured index", "path", opts.indexFile, "proteins", idx.Len())
		return idx, nil
	}

	var spinner *pterm.SpinnerPrinter
	if !opts.noProgress {
		spinner, _ = pterm.DefaultSpinner.WithWriter(os.Stderr).Start("Querying structured proteins...")
	}
	start := time.Now()
	idx, err := annotation.Build(ctx, st, cfg.FamilyPrefix)
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		return nil, err
	}
	log.Infow("Built structured index", "prefix", cfg.FamilyPrefix, "proteins", idx.Len(), "elapsed", time.Since(start))
	return idx, nil
}

func runTarget(ctx context.Context, idx annotation.StructuredIndex, lookup reconcile.FamilyLookup, t config.Target, opts runOptions, log *zap.SugaredLogger) (*reconcile.Result, error) {
	clusters, err := cluster.ParseFile(t.ClusterFile)
	if err != nil {
		return nil, err
	}
	log.Infow("Parsed cluster file", "family", t.Family, "path", t.ClusterFile,
		"clusters", len(clusters), "proteins", clusters.MemberCount())
	if len(clusters) == 0 {
		printWarn(t.Family, fmt.Sprintf("No clusters in %s", t.ClusterFile))
	}

	var rOpts reconcile.Options
	var bar *pterm.ProgressbarPrinter
	if !opts.noProgress && len(clusters) > 0 {
		bar, _ = pterm.DefaultProgressbar.
			WithTotal(len(clusters)).
			WithTitle(t.Family).
			WithWriter(os.Stderr).
			WithRemoveWhenDone(true).
			Start()
	}
	if bar != nil {
		rOpts.Progress = func(_, _ int) { bar.Increment() }
	}
	res, err := reconcile.Reconcile(ctx, idx, clusters, lookup, rOpts)
	if bar != nil {
		_, _ = bar.Stop()
	}
	if err != nil {
		return nil, err
	}
	log.Infow("Reconciled clusters", "family", t.Family,
		"resolved", res.ResolvedClusters(), "live_lookups", res.LiveLookups)

	tables := reconcile.BuildTables(res)
	if err := table.WriteFiles(
		table.File{Path: t.SummaryOut, Table: tables.SummaryTable()},
		table.File{Path: t.ProteinsOut, Table: tables.ProteinTable()},
	); err != nil {
		return nil, err
	}

	printOK(t.Family, fmt.Sprintf("%s of %s clusters resolved, %s proteins, %s live lookups",
		count(res.ResolvedClusters()), count(len(res.Clusters)), count(len(res.Members)), count(res.LiveLookups)))
	printInfo(t.Family, fmt.Sprintf("Summary:  %s", t.SummaryOut))
	printInfo(t.Family, fmt.Sprintf("Proteins: %s", t.ProteinsOut))
	return res, nil
}
