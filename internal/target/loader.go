package target

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"

	"github.com/trailofbits/muton/internal/muerr"
)

// Store is the subset of the persistence store the loader needs: an
// idempotent, hash-keyed upsert. The full store interface lives in
// internal/store; this narrow view avoids an import cycle.
type Store interface {
	AddTarget(t Target) (int64, error)
}

// IsExcluded reports whether path matches any of the ignore patterns. Each
// pattern is a glob (github.com/gobwas/glob); a pattern with no glob
// metacharacters is treated as a substring match by wrapping it in `*...*`,
// matching the CLI's documented "any path containing any of these is
// ignored" behavior while still allowing true globs in the config file.
func IsExcluded(path string, patterns []string) bool {
	for _, p := range patterns {
		pat := p
		if !strings.ContainsAny(pat, "*?[{") {
			pat = "*" + pat + "*"
		}
		g, err := glob.Compile(pat)
		if err != nil {
			continue
		}
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Loader walks a file or directory, classifies each file by extension,
// hashes its content, enriches it with the enclosing git commit (best
// effort), and registers it with the store (C4).
type Loader struct {
	Store          Store
	IgnorePatterns []string
}

func NewLoader(store Store, ignorePatterns []string) *Loader {
	return &Loader{Store: store, IgnorePatterns: ignorePatterns}
}

// Load walks root (a file or directory) and registers every accepted file
// as a Target, returning the full set of loaded targets in walk order.
func (l *Loader) Load(root string) ([]Target, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, muerr.New(muerr.KindIO, fmt.Errorf("stat %s: %w", root, err))
	}

	var targets []Target
	if !info.IsDir() {
		t, ok, err := l.loadFile(root)
		if err != nil {
			return nil, err
		}
		if ok {
			targets = append(targets, t)
		}
		return targets, nil
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if IsExcluded(path, l.IgnorePatterns) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		t, ok, loadErr := l.loadFile(path)
		if loadErr != nil {
			log.Warn().Err(loadErr).Str("path", path).Msg("failed to load target, skipping")
			return nil
		}
		if ok {
			targets = append(targets, t)
		}
		return nil
	})
	if err != nil {
		return nil, muerr.New(muerr.KindIO, fmt.Errorf("walk %s: %w", root, err))
	}
	return targets, nil
}

func (l *Loader) loadFile(path string) (Target, bool, error) {
	lang, ok := LanguageFromExtension(path)
	if !ok {
		log.Info().Str("path", path).Msg("unrecognized extension, skipping")
		return Target{}, false, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Target{}, false, muerr.New(muerr.KindIO, fmt.Errorf("read %s: %w", path, err))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	t := Target{
		Path:      abs,
		FileHash:  Digest(content),
		Text:      string(content),
		Language:  lang,
		GitCommit: commitForPath(abs),
	}

	id, err := l.Store.AddTarget(t)
	if err != nil {
		return Target{}, false, muerr.New(muerr.KindStore, fmt.Errorf("add_target %s: %w", path, err))
	}
	t.ID = id
	return t, true, nil
}

// commitForPath returns the short commit SHA of the git repository
// enclosing path, or "" if path is not inside a git work tree. This is
// best-effort, ambient metadata: absence of a repository is never an
// error.
func commitForPath(path string) string {
	dir := filepath.Dir(path)
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	hash := head.Hash().String()
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return hash
}
