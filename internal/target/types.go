// Package target implements the data model for registered source files
// (Target) and the mutants generated against them (C4's Target loader
// lives here too, in loader.go).
package target

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

// Language is a dialect tag. Three concrete dialects are supported: FunC,
// Tact, and Tolk.
type Language string

const (
	FunC Language = "FunC"
	Tact Language = "Tact"
	Tolk Language = "Tolk"
)

// Languages lists every registered dialect, in a stable order used for
// "print mutations" grouping and other dialect-enumerating output.
func Languages() []Language { return []Language{FunC, Tact, Tolk} }

// LanguageFromExtension classifies a file by its extension. The second
// return value is false for unrecognized extensions, which the loader
// treats as a skip-with-notice rather than an error.
func LanguageFromExtension(path string) (Language, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "fc":
		return FunC, true
	case "tact":
		return Tact, true
	case "tolk":
		return Tolk, true
	default:
		return "", false
	}
}

// ParseLanguage accepts case-insensitive dialect names and the common
// "func"/"fc" alias used by the CLI's --language flag.
func ParseLanguage(s string) (Language, bool) {
	switch strings.ToLower(s) {
	case "func", "fc":
		return FunC, true
	case "tact":
		return Tact, true
	case "tolk":
		return Tolk, true
	default:
		return "", false
	}
}

// Hash is a SHA-256 content hash, hex-encoded, 64 characters.
type Hash string

// Digest computes the content hash of the given bytes.
func Digest(content []byte) Hash {
	sum := sha256.Sum256(content)
	return Hash(hex.EncodeToString(sum[:]))
}

func (h Hash) String() string { return string(h) }

// Target is a source file registered for mutation testing. Identity is by
// content hash: re-registering the same bytes under a new path updates the
// path and preserves the id (handles file moves).
type Target struct {
	ID       int64
	Path     string
	FileHash Hash
	Text     string
	Language Language

	// GitCommit is the short commit SHA of the target's enclosing git work
	// tree, if any, best-effort populated by the loader. Empty when the
	// target does not live inside a git repository.
	GitCommit string
}

// Display renders the target path relative to cwd for logs, falling back
// to the absolute path if it cannot be made relative.
func (t Target) Display(cwd string) string {
	if cwd == "" {
		return t.Path
	}
	rel, err := filepath.Rel(cwd, t.Path)
	if err != nil {
		return t.Path
	}
	return rel
}

// Mutate returns the source text with this mutant's edit applied, computed
// by exact byte-range replacement: text[:offset] + new_text + text[offset+len(old_text):].
// Returns an error if m.TargetID is nonzero and does not match t.ID, or
// if the recorded old_text no longer matches the live byte range (the
// invariant from spec.md §3/§8 property 2).
func (t Target) Mutate(m Mutant) (string, error) {
	if m.TargetID != 0 && m.TargetID != t.ID {
		return "", fmt.Errorf("mutant %d belongs to target %d, not %d", m.ID, m.TargetID, t.ID)
	}
	offset := int(m.ByteOffset)
	end := offset + len(m.OldText)
	if offset < 0 || end > len(t.Text) {
		return "", fmt.Errorf("mutant %d byte range [%d,%d) out of bounds for target %d (len %d)", m.ID, offset, end, t.ID, len(t.Text))
	}
	if t.Text[offset:end] != m.OldText {
		return "", fmt.Errorf("mutant %d old_text does not match target %d text at offset %d", m.ID, t.ID, offset)
	}
	return t.Text[:offset] + m.NewText + t.Text[end:], nil
}

// Mutant is a proposed, byte-precise edit to exactly one Target.
type Mutant struct {
	ID         int64
	TargetID   int64
	ByteOffset uint32
	LineOffset uint32
	OldText    string
	NewText    string
	Slug       string
}

// Lines returns the 1-based (start, end) line range the mutant's old_text
// spans, derived from LineOffset and the newline count within OldText.
func (m Mutant) Lines() (start, end int) {
	start = int(m.LineOffset) + 1
	end = start + strings.Count(m.OldText, "\n")
	return start, end
}

// IdentityKey is the dedup identity tuple from spec.md §3:
// (target_id, byte_offset, old_text, new_text, slug).
func (m Mutant) IdentityKey() string {
	return fmt.Sprintf("%d|%d|%s|%s|%s", m.TargetID, m.ByteOffset, m.OldText, m.NewText, m.Slug)
}
