// Package runner implements the mutation-testing campaign scheduler (C6):
// baseline timing, per-target mutant iteration with severity pruning, the
// mutate/run/restore cycle, and cancellation.
package runner

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trailofbits/muton/internal/catalog"
	"github.com/trailofbits/muton/internal/lang"
	"github.com/trailofbits/muton/internal/muerr"
	"github.com/trailofbits/muton/internal/store"
	"github.com/trailofbits/muton/internal/target"
)

// Group is a set of targets sharing a resolved (command, timeout) pair,
// the unit the scheduler runs one baseline against.
type Group struct {
	Command     string
	UserTimeout time.Duration // zero means "not specified"
	Targets     []target.Target
}

// Options controls a campaign run.
type Options struct {
	// Comprehensive disables severity-based pruning: every mutant is run
	// regardless of higher-severity uncaught mutants on the same lines.
	Comprehensive bool
	// SlugAllowList, if non-nil, restricts testing to mutants whose slug
	// is a key of the map.
	SlugAllowList map[string]bool
	// OnMutantDone, if non-nil, is called after every mutant that actually
	// ran (not skipped by severity pruning) gets its outcome recorded —
	// callers use this to drive a progress indicator.
	OnMutantDone func(t target.Target, m target.Mutant, status store.Status)
}

// Runner executes campaigns against a store. Cancelled is shared with the
// process's SIGINT handler; setting it mid-run stops the scheduler at the
// next checkpoint.
type Runner struct {
	Store     *store.Store
	Registry  *lang.Registry
	Cancelled *atomic.Bool
}

func New(s *store.Store, registry *lang.Registry) *Runner {
	return &Runner{Store: s, Registry: registry, Cancelled: &atomic.Bool{}}
}

// RunGroup runs one baseline and then iterates every target in the group,
// testing their untested/retestable mutants against it.
func (r *Runner) RunGroup(ctx context.Context, g Group, opts Options) error {
	timeout, err := r.baseline(ctx, g.Command, g.UserTimeout)
	if err != nil {
		return err
	}

	for _, t := range g.Targets {
		if r.Cancelled.Load() {
			return nil
		}
		if err := r.runTarget(t, g.Command, timeout, opts); err != nil {
			return err
		}
	}
	return nil
}

// baseline runs the unmodified command with no timeout and resolves the
// mutation timeout per spec.md's d_base/t_user acceptance rules.
func (r *Runner) baseline(ctx context.Context, command string, userTimeout time.Duration) (time.Duration, error) {
	code, output, duration := runBaseline(ctx, command)
	if code != 0 {
		return 0, muerr.New(muerr.KindBaselineFailed, fmt.Errorf("baseline command %q exited %d:\n%s", command, code, output))
	}

	dBase := (duration + time.Second - 1).Truncate(time.Second) // round up to whole seconds
	if dBase == 0 {
		dBase = time.Second
	}

	if userTimeout == 0 {
		return 2 * dBase, nil
	}
	if userTimeout < dBase {
		return 0, muerr.New(muerr.KindInvalidInput, fmt.Errorf("timeout too short: %s < baseline duration %s", userTimeout, dBase))
	}
	if userTimeout < 2*dBase {
		log.Warn().
			Dur("user_timeout", userTimeout).
			Dur("baseline", dBase).
			Msg("timeout is close to the baseline duration; mutants may spuriously time out")
	}
	return userTimeout, nil
}

// ResolveTimeout derives the effective per-mutant timeout for command by
// running one baseline execution and applying the same acceptance rules
// RunGroup uses. Exposed for callers, like the "test" subcommand, that
// exercise specific mutant IDs directly instead of a full campaign.
func (r *Runner) ResolveTimeout(ctx context.Context, command string, userTimeout time.Duration) (time.Duration, error) {
	return r.baseline(ctx, command, userTimeout)
}

// TestMutant applies m against t's on-disk source, runs command, restores
// the source, and persists the resulting outcome. Unlike runTarget it
// performs no severity pruning: callers resolve the timeout themselves via
// ResolveTimeout. Returns muerr.KindCancelled if Cancelled is already set
// or becomes set mid-run.
func (r *Runner) TestMutant(t target.Target, m target.Mutant, command string, timeout time.Duration) (store.Status, error) {
	if r.Cancelled.Load() {
		return "", muerr.New(muerr.KindCancelled, fmt.Errorf("cancelled before mutant %d", m.ID))
	}

	status, output, durationMS, cancelled, err := r.runMutant(t, m, command, timeout)
	if err != nil {
		return "", err
	}
	if cancelled {
		return "", muerr.New(muerr.KindCancelled, fmt.Errorf("cancelled during mutant %d", m.ID))
	}

	if err := r.Store.AddOutcome(store.Outcome{
		MutantID:   m.ID,
		Status:     status,
		Output:     output,
		RecordedAt: time.Now(),
		DurationMS: durationMS,
	}); err != nil {
		return "", err
	}
	return status, nil
}

// lineSet tracks which source lines have an uncaught mutation recorded at
// a given severity tier, for the severity-pruning policy.
type lineSet map[int]bool

func (s lineSet) addRange(start, end int) {
	for l := start; l <= end; l++ {
		s[l] = true
	}
}

func (s lineSet) intersects(start, end int) bool {
	for l := start; l <= end; l++ {
		if s[l] {
			return true
		}
	}
	return false
}

const skippedPruneMessage = "Skipped due to uncaught higher severity mutation on the same line"

func (r *Runner) runTarget(t target.Target, command string, timeout time.Duration, opts Options) error {
	engine := r.Registry.MustGet(t.Language)
	severityOf := func(slug string) (catalog.Severity, bool) { return lang.SeverityBySlug(engine, slug) }

	mutants, err := r.Store.GetMutantsSortedBySeverity(t.ID, severityOf)
	if err != nil {
		return err
	}

	uncaughtHigh := lineSet{}
	uncaughtMed := lineSet{}

	for _, m := range mutants {
		if r.Cancelled.Load() {
			return nil
		}

		if outcome, found, err := r.Store.GetOutcome(m.ID); err != nil {
			return err
		} else if found && outcome.Status != store.Timeout {
			continue
		}

		severity, _ := severityOf(m.Slug)
		start, end := m.Lines()

		if !opts.Comprehensive {
			switch severity {
			case catalog.Medium:
				if uncaughtHigh.intersects(start, end) {
					if err := r.Store.AddOutcome(store.Outcome{MutantID: m.ID, Status: store.Skipped, Output: skippedPruneMessage, RecordedAt: time.Now(), DurationMS: 0}); err != nil {
						return err
					}
					continue
				}
			case catalog.Low:
				if uncaughtHigh.intersects(start, end) || uncaughtMed.intersects(start, end) {
					if err := r.Store.AddOutcome(store.Outcome{MutantID: m.ID, Status: store.Skipped, Output: skippedPruneMessage, RecordedAt: time.Now(), DurationMS: 0}); err != nil {
						return err
					}
					continue
				}
			}
		}

		if opts.SlugAllowList != nil && !opts.SlugAllowList[m.Slug] {
			continue
		}

		status, output, durationMS, cancelled, err := r.runMutant(t, m, command, timeout)
		if err != nil {
			return err
		}
		if cancelled {
			return nil
		}

		if err := r.Store.AddOutcome(store.Outcome{
			MutantID:   m.ID,
			Status:     status,
			Output:     output,
			RecordedAt: time.Now(),
			DurationMS: durationMS,
		}); err != nil {
			return err
		}
		if opts.OnMutantDone != nil {
			opts.OnMutantDone(t, m, status)
		}

		if status == store.Uncaught && (severity == catalog.High || severity == catalog.Medium) {
			set := uncaughtMed
			if severity == catalog.High {
				set = uncaughtHigh
			}
			set.addRange(start, end)
		}
	}
	return nil
}

// runMutant applies m to t's file on disk, runs command against it, and
// restores the original file on every exit path before returning.
func (r *Runner) runMutant(t target.Target, m target.Mutant, command string, timeout time.Duration) (status store.Status, output string, durationMS int64, cancelled bool, err error) {
	mutated, err := t.Mutate(m)
	if err != nil {
		return "", "", 0, false, muerr.New(muerr.KindInvalidInput, err)
	}

	info, err := os.Stat(t.Path)
	perm := os.FileMode(0o644)
	if err == nil {
		perm = info.Mode()
	}

	if err := os.WriteFile(t.Path, []byte(mutated), perm); err != nil {
		return "", "", 0, false, muerr.New(muerr.KindIO, fmt.Errorf("write mutated %s: %w", t.Path, err))
	}
	defer func() {
		if restoreErr := os.WriteFile(t.Path, []byte(t.Text), perm); restoreErr != nil {
			log.Error().Err(restoreErr).Str("path", t.Path).Msg("failed to restore original source after mutation; manual recovery required")
		}
	}()

	code, result := runOnce(command, timeout, r.Cancelled)
	switch result.status {
	case procCancelled:
		return "", "", 0, true, nil
	case procTimeout:
		return store.Timeout, result.output, result.durationMS, false, nil
	default:
		if code == 0 {
			return store.Uncaught, result.output, result.durationMS, false, nil
		}
		return store.TestFail, result.output, result.durationMS, false, nil
	}
}
