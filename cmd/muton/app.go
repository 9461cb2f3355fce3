package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/trailofbits/muton/internal/config"
	"github.com/trailofbits/muton/internal/lang"
	"github.com/trailofbits/muton/internal/logging"
	funclang "github.com/trailofbits/muton/internal/lang/func"
	"github.com/trailofbits/muton/internal/lang/tact"
	"github.com/trailofbits/muton/internal/lang/tolk"
	"github.com/trailofbits/muton/internal/store"
	"github.com/trailofbits/muton/internal/target"
)

// globalFlags holds the persistent, root-level flag values shared by every
// subcommand, per spec.md §6's CLI surface.
type globalFlags struct {
	cwd      string
	db       string
	logLevel string
	logColor string
	ignore   string
}

var flags globalFlags

func registerGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&flags.cwd, "cwd", ".", "working directory to resolve targets and config from")
	root.PersistentFlags().StringVar(&flags.db, "db", "", "path to the mutant/outcome sqlite database (overrides config)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides config)")
	root.PersistentFlags().StringVar(&flags.logColor, "log-color", "", "force log color on/off (overrides config)")
	root.PersistentFlags().StringVar(&flags.ignore, "ignore", "", "comma-separated glob/substring patterns of targets to ignore, in addition to config")
}

// app bundles the wiring every subcommand needs: resolved configuration,
// the persistence store, and the dialect engine registry.
type app struct {
	cwd      string
	cfg      config.Config
	store    *store.Store
	registry *lang.Registry
}

// newRegistry builds the dialect registry with all three engines bound, the
// one wiring point shared by every subcommand that needs to mutate or
// classify a target.
func newRegistry() *lang.Registry {
	r := lang.NewRegistry()
	r.Register(target.FunC, funclang.New())
	r.Register(target.Tact, tact.New())
	r.Register(target.Tolk, tolk.New())
	return r
}

// setupApp resolves configuration (defaults, file discovered by walking up
// from --cwd, environment, then the global CLI flags) and opens the store.
// openStoreFn is false for subcommands, like init, that must not require an
// existing database.
func setupApp(openStoreFn bool) (*app, error) {
	cwd, err := filepath.Abs(flags.cwd)
	if err != nil {
		return nil, fmt.Errorf("resolve --cwd %q: %w", flags.cwd, err)
	}

	cfgPath := config.FindConfigFile(cwd)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	if flags.db != "" {
		cfg.DB = flags.db
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	switch flags.logColor {
	case "on":
		cfg.LogColor = true
	case "off":
		cfg.LogColor = false
	case "":
	default:
		return nil, fmt.Errorf("--log-color must be \"on\" or \"off\", got %q", flags.logColor)
	}
	if flags.ignore != "" {
		cfg.IgnoreTargets = append(cfg.IgnoreTargets, splitCSV(flags.ignore)...)
	}

	configureLogging(cfg)

	a := &app{cwd: cwd, cfg: cfg, registry: newRegistry()}

	if openStoreFn {
		dbPath := cfg.DB
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(cwd, dbPath)
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open database %s: %w", dbPath, err)
		}
		a.store = s
	}

	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

func configureLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: logging.NewBarAwareWriter(os.Stderr), NoColor: !cfg.LogColor})
}

// matchGlob is the glob.Compile-backed matcher injected into
// config.Config.ResolveCommand, mirroring target.IsExcluded's own
// plain-substring-as-glob convenience.
func matchGlob(pattern, path string) bool {
	p := pattern
	if !strings.ContainsAny(p, "*?[{") {
		p = "*" + p + "*"
	}
	g, err := glob.Compile(p)
	if err != nil {
		return false
	}
	return g.Match(path)
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// validatePath cleans and absolutizes path relative to the app's cwd and
// confirms it exists, the same Clean->Abs->Stat discipline the CLI uses
// everywhere a user-supplied path is accepted.
func (a *app) validatePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("path cannot be empty")
	}
	clean := filepath.Clean(path)
	abs := clean
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(a.cwd, abs)
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path does not exist: %s", abs)
		}
		return "", fmt.Errorf("cannot access path: %w", err)
	}
	return abs, nil
}

// ensureMutants generates and stores every mutant ApplyAll produces for t,
// deduplicating against mutants already recorded for it. Returns the
// number newly inserted and the total number ApplyAll produced.
func (a *app) ensureMutants(t target.Target) (inserted int, total int, err error) {
	engine, ok := a.registry.Get(t.Language)
	if !ok {
		return 0, 0, fmt.Errorf("no engine registered for language %q", t.Language)
	}
	mutants := engine.ApplyAll(t)
	for _, m := range mutants {
		m.TargetID = t.ID
		_, added, err := a.store.AddMutant(m)
		if err != nil {
			return inserted, len(mutants), fmt.Errorf("add_mutant: %w", err)
		}
		if added {
			inserted++
		}
	}
	return inserted, len(mutants), nil
}
