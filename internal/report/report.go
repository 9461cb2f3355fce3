// Package report implements muton's reporter (C7): per-mutant word diffs
// and severity-bucketed campaign summaries.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/trailofbits/muton/internal/catalog"
	"github.com/trailofbits/muton/internal/store"
	"github.com/trailofbits/muton/internal/target"
)

// diffTimeout bounds the word diff (diffmatchpatch's Myers-based DiffMain), mirroring the
// upstream tool's 100ms diff budget so a pathological line can never stall
// reporting.
const diffTimeout = 100 * time.Millisecond

// Stdout returns a writer that renders ANSI color on every platform
// (translating escapes on legacy Windows consoles) only when the
// destination is actually a terminal.
func Stdout() (w io.Writer, colorEnabled bool) {
	out := colorable.NewColorableStdout()
	return out, isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

const (
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

func colorize(s, code string, enabled bool) string {
	if !enabled {
		return s
	}
	return code + s + ansiReset
}

// StatusColor returns the ANSI-wrapped status label used in single-line
// mutant summaries: green for caught, red for a surviving mutation,
// yellow for anything else (Skipped, Timeout, BuildFail).
func StatusColor(s store.Status, colorEnabled bool) string {
	switch s {
	case store.TestFail:
		return colorize(string(s), ansiGreen, colorEnabled)
	case store.Uncaught:
		return colorize(string(s), ansiRed, colorEnabled)
	default:
		return colorize(string(s), ansiYellow, colorEnabled)
	}
}

// wordDiff tokenizes old and new on word boundaries (runs of non-whitespace
// separated by whitespace), encodes each distinct token as a private-use
// rune, and runs diffmatchpatch's character-level (Myers) diff over the
// encoded strings — the standard technique for getting word granularity out
// of a char-diff library, the same one diffmatchpatch itself uses
// internally for line diffs (DiffLinesToChars).
func wordDiff(ctx context.Context, oldText, newText string) []diffmatchpatch.Diff {
	ctx, cancel := context.WithTimeout(ctx, diffTimeout)
	defer cancel()

	oldWords := strings.Fields(oldText)
	newWords := strings.Fields(newText)

	codes := map[string]rune{}
	next := rune(0xE000) // start of the Unicode Private Use Area
	encode := func(words []string) string {
		var sb strings.Builder
		for _, w := range words {
			r, ok := codes[w]
			if !ok {
				r = next
				codes[w] = r
				next++
			}
			sb.WriteRune(r)
		}
		return sb.String()
	}
	encOld := encode(oldWords)
	encNew := encode(newWords)

	decode := map[rune]string{}
	for w, r := range codes {
		decode[r] = w
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = diffTimeout

	done := make(chan []diffmatchpatch.Diff, 1)
	go func() { done <- dmp.DiffMain(encOld, encNew, false) }()

	var encodedDiffs []diffmatchpatch.Diff
	select {
	case encodedDiffs = <-done:
	case <-ctx.Done():
		// Timed out: fall back to a single wholesale replacement.
		return []diffmatchpatch.Diff{
			{Type: diffmatchpatch.DiffDelete, Text: oldText},
			{Type: diffmatchpatch.DiffInsert, Text: newText},
		}
	}

	diffs := make([]diffmatchpatch.Diff, 0, len(encodedDiffs))
	for _, d := range encodedDiffs {
		var sb strings.Builder
		for i, r := range d.Text {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(decode[r])
		}
		diffs = append(diffs, diffmatchpatch.Diff{Type: d.Type, Text: sb.String()})
	}
	return diffs
}

// Summary describes the word-level change a mutant made, as two flat
// strings suitable for the "'<old>' -> '<new>'" rendering.
type Summary struct {
	Old string
	New string
}

// DiffSummary reconstructs the old and new text of a mutant's edit from
// wordDiff: unchanged words go into both Old and New, deleted words only
// into Old, inserted words only into New.
func DiffSummary(ctx context.Context, m target.Mutant) Summary {
	diffs := wordDiff(ctx, m.OldText, m.NewText)
	var old, new_ strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			old.WriteString(d.Text)
		case diffmatchpatch.DiffInsert:
			new_.WriteString(d.Text)
		case diffmatchpatch.DiffEqual:
			old.WriteString(d.Text)
			new_.WriteString(d.Text)
		}
	}
	return Summary{Old: strings.TrimSpace(old.String()), New: strings.TrimSpace(new_.String())}
}

// FormatMutantLine renders the single-line mutant summary:
// "[<slug> <id>] Line N: '<old>' -> '<new>'".
func FormatMutantLine(ctx context.Context, m target.Mutant) string {
	start, _ := m.Lines()
	s := DiffSummary(ctx, m)
	return fmt.Sprintf("[%s %d] Line %d: '%s' -> '%s'", m.Slug, m.ID, start, s.Old, s.New)
}

// SeverityBucket accumulates caught/uncaught counts for one severity tier.
type SeverityBucket struct {
	Severity catalog.Severity
	Caught   int // TestFail
	Uncaught int
	Skipped  int
	Other    int // BuildFail, Timeout, or unrecorded
}

// CaughtPercent is TestFail / (TestFail + Uncaught), per spec.md's
// exclusion of Skipped and BuildFail from both numerator and denominator.
// Returns (0, false) when the denominator is zero.
func (b SeverityBucket) CaughtPercent() (float64, bool) {
	denom := b.Caught + b.Uncaught
	if denom == 0 {
		return 0, false
	}
	return float64(b.Caught) / float64(denom) * 100, true
}

// CampaignSummary buckets every (mutant, outcome) pair by the mutant's
// catalog severity.
func CampaignSummary(mutants []target.Mutant, outcomes map[int64]store.Outcome, severityOf func(slug string) (catalog.Severity, bool)) []SeverityBucket {
	buckets := map[catalog.Severity]*SeverityBucket{
		catalog.High:   {Severity: catalog.High},
		catalog.Medium: {Severity: catalog.Medium},
		catalog.Low:    {Severity: catalog.Low},
	}

	for _, m := range mutants {
		sev, ok := severityOf(m.Slug)
		if !ok {
			continue
		}
		b := buckets[sev]
		o, found := outcomes[m.ID]
		if !found {
			b.Other++
			continue
		}
		switch o.Status {
		case store.TestFail:
			b.Caught++
		case store.Uncaught:
			b.Uncaught++
		case store.Skipped:
			b.Skipped++
		default:
			b.Other++
		}
	}

	return []SeverityBucket{*buckets[catalog.High], *buckets[catalog.Medium], *buckets[catalog.Low]}
}
