package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/trailofbits/muton/internal/catalog"
	"github.com/trailofbits/muton/internal/lang"
	"github.com/trailofbits/muton/internal/logging"
	"github.com/trailofbits/muton/internal/report"
	"github.com/trailofbits/muton/internal/runner"
	"github.com/trailofbits/muton/internal/store"
	"github.com/trailofbits/muton/internal/target"
)

func runCmd() *cobra.Command {
	var (
		testCmd       string
		timeoutSecs   int
		mutationsCSV  string
		comprehensive bool
		verbose       bool
	)

	cmd := &cobra.Command{
		Use:   "run [target]",
		Short: "Generate (if needed) and test mutants for one target or every known target",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setupApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			targets, err := a.resolveRunTargets(args)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				return fmt.Errorf("no targets to run; load one with \"mutate\" first or pass a path")
			}

			for i, t := range targets {
				if _, _, err := a.ensureMutants(t); err != nil {
					return fmt.Errorf("%s: %w", t.Path, err)
				}
				targets[i] = t
			}

			var slugAllow map[string]bool
			if mutationsCSV != "" {
				slugAllow = toSet(splitCSV(mutationsCSV))
			} else if len(a.cfg.SlugAllowList) > 0 {
				slugAllow = toSet(a.cfg.SlugAllowList)
			}

			groups := groupTargets(a, targets, testCmd, timeoutSecs)

			rn := runner.New(a.store, a.registry)
			stop := installCancelOnInterrupt(rn.Cancelled)
			defer stop()

			totalMutants, err := a.countMutants(targets)
			if err != nil {
				return err
			}
			bar := logging.NewBar(os.Stderr, totalMutants, "starting campaign")
			bar.Start()
			defer bar.Finish()

			runID := uuid.New().String()
			runLog := log.With().Str("run_id", runID).Logger()

			opts := runner.Options{
				Comprehensive: comprehensive,
				SlugAllowList: slugAllow,
				OnMutantDone: func(t target.Target, m target.Mutant, status store.Status) {
					bar.Inc(fmt.Sprintf("%s [%s %d] %s", t.Path, m.Slug, m.ID, status))
				},
			}

			for _, g := range groups {
				if rn.Cancelled.Load() {
					break
				}
				runLog.Info().Str("command", g.Command).Int("targets", len(g.Targets)).Msg("running campaign group")
				if err := rn.RunGroup(context.Background(), g, opts); err != nil {
					return err
				}
			}

			return a.printCampaignSummary(targets, verbose, runID)
		},
	}

	cmd.Flags().StringVar(&testCmd, "test-cmd", "", "test command to run against each mutant (overrides config)")
	cmd.Flags().IntVar(&timeoutSecs, "timeout", 0, "per-mutant timeout in seconds (0 derives it from the baseline run)")
	cmd.Flags().StringVar(&mutationsCSV, "mutations", "", "comma-separated mutation slugs to restrict the campaign to")
	cmd.Flags().BoolVar(&comprehensive, "comprehensive", false, "disable severity-based pruning of lower-severity mutants")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print a per-mutant line in addition to the summary")
	return cmd
}

// resolveRunTargets loads the single path argument, or falls back to every
// target already known to the store.
func (a *app) resolveRunTargets(args []string) ([]target.Target, error) {
	if len(args) == 1 {
		path, err := a.validatePath(args[0])
		if err != nil {
			return nil, err
		}
		loader := target.NewLoader(a.store, a.cfg.IgnoreTargets)
		return loader.Load(path)
	}
	return a.store.GetAllTargets()
}

// groupTargets partitions targets into Groups sharing a resolved
// (command, timeout) pair, so each distinct pair gets exactly one
// baseline run.
func groupTargets(a *app, targets []target.Target, cliCmd string, cliTimeoutSecs int) []runner.Group {
	type key struct {
		cmd     string
		timeout time.Duration
	}
	byKey := map[key]*runner.Group{}
	var order []key

	for _, t := range targets {
		cmd, timeout := a.cfg.ResolveCommand(t.Path, matchGlob)
		if cliCmd != "" {
			cmd = cliCmd
		}
		if cliTimeoutSecs > 0 {
			timeout = time.Duration(cliTimeoutSecs) * time.Second
		}
		k := key{cmd: cmd, timeout: timeout}
		g, ok := byKey[k]
		if !ok {
			g = &runner.Group{Command: cmd, UserTimeout: timeout}
			byKey[k] = g
			order = append(order, k)
		}
		g.Targets = append(g.Targets, t)
	}

	groups := make([]runner.Group, 0, len(order))
	for _, k := range order {
		groups = append(groups, *byKey[k])
	}
	return groups
}

// countMutants sums the mutant count across every target, for sizing the
// progress bar before the campaign starts.
func (a *app) countMutants(targets []target.Target) (int, error) {
	total := 0
	for _, t := range targets {
		mutants, err := a.store.GetMutants(t.ID)
		if err != nil {
			return 0, err
		}
		total += len(mutants)
	}
	return total, nil
}

func toSet(vals []string) map[string]bool {
	out := make(map[string]bool, len(vals))
	for _, v := range vals {
		out[v] = true
	}
	return out
}

// printCampaignSummary renders the severity-bucketed caught percentages for
// every target just run, plus (if verbose) a per-mutant diff line. runID
// tags the header so the summary can be correlated with the campaign's log
// lines.
func (a *app) printCampaignSummary(targets []target.Target, verbose bool, runID string) error {
	w, colorEnabled := report.Stdout()
	ctx := context.Background()

	fmt.Fprintf(w, "campaign %s\n", runID)

	for _, t := range targets {
		engine, ok := a.registry.Get(t.Language)
		if !ok {
			continue
		}
		severityOf := func(slug string) (catalog.Severity, bool) { return lang.SeverityBySlug(engine, slug) }
		mutants, err := a.store.GetMutants(t.ID)
		if err != nil {
			return err
		}
		outcomes, err := a.store.GetOutcomes(t.ID)
		if err != nil {
			return err
		}
		outcomeByMutant := make(map[int64]store.Outcome, len(outcomes))
		for _, o := range outcomes {
			outcomeByMutant[o.MutantID] = o
		}

		fmt.Fprintf(w, "%s (%s)\n", t.Path, t.Language)
		for _, b := range report.CampaignSummary(mutants, outcomeByMutant, severityOf) {
			pct, ok := b.CaughtPercent()
			if !ok {
				fmt.Fprintf(w, "  %s: no scored mutants\n", b.Severity)
				continue
			}
			fmt.Fprintf(w, "  %s: %.1f%% caught (%d/%d), %d skipped\n", b.Severity, pct, b.Caught, b.Caught+b.Uncaught, b.Skipped)
		}

		if verbose {
			for _, m := range mutants {
				o, found := outcomeByMutant[m.ID]
				status := "untested"
				if found {
					status = report.StatusColor(o.Status, colorEnabled)
				}
				fmt.Fprintf(w, "  %s -> %s\n", report.FormatMutantLine(ctx, m), status)
			}
		}
	}
	return nil
}
