// Package lang defines the per-dialect Engine capability set (C3) and a
// registry that selects an engine by Language tag (the tag the target
// loader derives from the file extension). Concrete engines live
// in the func, tact, and tolk subpackages.
package lang

import (
	"fmt"

	"github.com/trailofbits/muton/internal/catalog"
	"github.com/trailofbits/muton/internal/target"
)

// Engine is the capability set a dialect exposes: its name, the file
// extensions it claims, its merged mutation catalog, and the function that
// turns a parsed Target into the full set of Mutants the dialect's CST
// supports.
type Engine interface {
	Name() string
	Extensions() []string
	Mutations() []catalog.Mutation
	ApplyAll(t target.Target) []target.Mutant
}

// Registry maps a Language tag to its Engine. New dialects are added by
// registering a new engine; the set of variants is open.
type Registry struct {
	engines map[target.Language]Engine
}

func NewRegistry() *Registry {
	return &Registry{engines: make(map[target.Language]Engine)}
}

func (r *Registry) Register(lang target.Language, e Engine) {
	r.engines[lang] = e
}

func (r *Registry) Get(lang target.Language) (Engine, bool) {
	e, ok := r.engines[lang]
	return e, ok
}

// MustGet panics if lang has no registered engine; callers should only use
// this after Target loading has already validated the language.
func (r *Registry) MustGet(lang target.Language) Engine {
	e, ok := r.engines[lang]
	if !ok {
		panic(fmt.Sprintf("lang: no engine registered for %q", lang))
	}
	return e
}

// SeverityBySlug looks up a mutation's severity within a dialect's catalog.
func SeverityBySlug(e Engine, slug string) (catalog.Severity, bool) {
	m, ok := catalog.BySlug(e.Mutations(), slug)
	if !ok {
		return 0, false
	}
	return m.Severity, true
}
