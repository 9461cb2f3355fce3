// Package store is muton's persistence layer (C5): an opaque, transactional
// store of Targets, Mutants, and Outcomes backed by a single sqlite file.
// Every scheduler decision can be reconstructed from it, so its operations
// are idempotent wherever the spec calls for upsert semantics.
package store

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/trailofbits/muton/internal/catalog"
	"github.com/trailofbits/muton/internal/muerr"
	"github.com/trailofbits/muton/internal/target"
)

const schema = `
CREATE TABLE IF NOT EXISTS targets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL,
	file_hash TEXT NOT NULL UNIQUE,
	text TEXT NOT NULL,
	language TEXT NOT NULL,
	git_commit TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS mutants (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	target_id INTEGER NOT NULL REFERENCES targets(id) ON DELETE CASCADE,
	byte_offset INTEGER NOT NULL,
	line_offset INTEGER NOT NULL,
	old_text TEXT NOT NULL,
	new_text TEXT NOT NULL,
	slug TEXT NOT NULL,
	UNIQUE(target_id, byte_offset, old_text, new_text, slug)
);

CREATE TABLE IF NOT EXISTS outcomes (
	mutant_id INTEGER PRIMARY KEY REFERENCES mutants(id) ON DELETE CASCADE,
	status TEXT NOT NULL,
	output TEXT NOT NULL,
	recorded_at TEXT NOT NULL,
	duration_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_mutants_target_id ON mutants(target_id);
`

// Store wraps a sqlite connection. Construct with Open, which also applies
// the schema.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at path and ensures
// the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, muerr.New(muerr.KindStore, fmt.Errorf("open %s: %w", path, err))
	}
	db.SetMaxOpenConns(1) // sqlite: one writer, avoids SQLITE_BUSY under the scheduler's single-threaded access pattern
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, muerr.New(muerr.KindStore, fmt.Errorf("apply schema: %w", err))
	}
	log.Info().Str("path", path).Msg("opened store")
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// AddTarget upserts by content hash: if the hash already exists, its id is
// returned and the path is updated when it differs; otherwise a new row is
// inserted.
func (s *Store) AddTarget(t target.Target) (int64, error) {
	var id int64
	var existingPath string
	err := s.db.QueryRow(`SELECT id, path FROM targets WHERE file_hash = ?`, string(t.FileHash)).Scan(&id, &existingPath)
	switch {
	case err == sql.ErrNoRows:
		res, insErr := s.db.Exec(
			`INSERT INTO targets (path, file_hash, text, language, git_commit) VALUES (?, ?, ?, ?, ?)`,
			t.Path, string(t.FileHash), t.Text, string(t.Language), t.GitCommit,
		)
		if insErr != nil {
			return 0, muerr.New(muerr.KindStore, fmt.Errorf("insert target: %w", insErr))
		}
		return res.LastInsertId()
	case err != nil:
		return 0, muerr.New(muerr.KindStore, fmt.Errorf("lookup target by hash: %w", err))
	}

	if existingPath != t.Path {
		if _, err := s.db.Exec(`UPDATE targets SET path = ? WHERE id = ?`, t.Path, id); err != nil {
			return 0, muerr.New(muerr.KindStore, fmt.Errorf("update target path: %w", err))
		}
	}
	return id, nil
}

// GetTarget returns the target with the given id, or ErrTargetNotFound.
func (s *Store) GetTarget(id int64) (target.Target, error) {
	row := s.db.QueryRow(`SELECT id, path, file_hash, text, language, git_commit FROM targets WHERE id = ?`, id)
	return scanTarget(row)
}

// GetAllTargets returns every registered target, ordered by id.
func (s *Store) GetAllTargets() ([]target.Target, error) {
	rows, err := s.db.Query(`SELECT id, path, file_hash, text, language, git_commit FROM targets ORDER BY id`)
	if err != nil {
		return nil, muerr.New(muerr.KindStore, fmt.Errorf("list targets: %w", err))
	}
	defer rows.Close()

	var out []target.Target
	for rows.Next() {
		t, err := scanTargetRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RemoveTarget deletes the target and, via ON DELETE CASCADE, its mutants
// and their outcomes.
func (s *Store) RemoveTarget(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM targets WHERE id = ?`, id); err != nil {
		return muerr.New(muerr.KindStore, fmt.Errorf("remove target %d: %w", id, err))
	}
	return nil
}

// AddMutant inserts the mutant if its identity tuple is new, returning its
// id and true. If a mutant with the same (target_id, byte_offset, old_text,
// new_text, slug) already exists, it returns (0, false, nil).
func (s *Store) AddMutant(m target.Mutant) (int64, bool, error) {
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO mutants (target_id, byte_offset, line_offset, old_text, new_text, slug) VALUES (?, ?, ?, ?, ?, ?)`,
		m.TargetID, m.ByteOffset, m.LineOffset, m.OldText, m.NewText, m.Slug,
	)
	if err != nil {
		return 0, false, muerr.New(muerr.KindStore, fmt.Errorf("insert mutant: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, muerr.New(muerr.KindStore, fmt.Errorf("rows affected: %w", err))
	}
	if n == 0 {
		return 0, false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, muerr.New(muerr.KindStore, fmt.Errorf("last insert id: %w", err))
	}
	return id, true, nil
}

// GetMutant returns the mutant with the given id.
func (s *Store) GetMutant(id int64) (target.Mutant, error) {
	row := s.db.QueryRow(`SELECT id, target_id, byte_offset, line_offset, old_text, new_text, slug FROM mutants WHERE id = ?`, id)
	return scanMutant(row)
}

// GetMutants returns every mutant registered against targetID, in insertion
// (id) order.
func (s *Store) GetMutants(targetID int64) ([]target.Mutant, error) {
	rows, err := s.db.Query(
		`SELECT id, target_id, byte_offset, line_offset, old_text, new_text, slug FROM mutants WHERE target_id = ? ORDER BY id`,
		targetID,
	)
	if err != nil {
		return nil, muerr.New(muerr.KindStore, fmt.Errorf("list mutants for target %d: %w", targetID, err))
	}
	defer rows.Close()

	var out []target.Mutant
	for rows.Next() {
		m, err := scanMutantRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMutantsSortedBySeverity returns the target's mutants ordered by
// severity (High, Medium, Low) and, within a severity tier, by original
// insertion order — the iteration order the scheduler (C6) requires.
func (s *Store) GetMutantsSortedBySeverity(targetID int64, severityOf func(slug string) (catalog.Severity, bool)) ([]target.Mutant, error) {
	mutants, err := s.GetMutants(targetID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(mutants, func(i, j int) bool {
		si, _ := severityOf(mutants[i].Slug)
		sj, _ := severityOf(mutants[j].Slug)
		return si < sj
	})
	return mutants, nil
}

// AddOutcome inserts or replaces the Outcome for its mutant id.
func (s *Store) AddOutcome(o Outcome) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO outcomes (mutant_id, status, output, recorded_at, duration_ms) VALUES (?, ?, ?, ?, ?)`,
		o.MutantID, string(o.Status), o.Output, o.RecordedAt.UTC().Format(time.RFC3339Nano), o.DurationMS,
	)
	if err != nil {
		return muerr.New(muerr.KindStore, fmt.Errorf("add outcome for mutant %d: %w", o.MutantID, err))
	}
	return nil
}

// GetOutcome returns the Outcome for mutantID, or (Outcome{}, false, nil)
// if none has been recorded.
func (s *Store) GetOutcome(mutantID int64) (Outcome, bool, error) {
	row := s.db.QueryRow(`SELECT mutant_id, status, output, recorded_at, duration_ms FROM outcomes WHERE mutant_id = ?`, mutantID)
	o, err := scanOutcome(row)
	if err == sql.ErrNoRows {
		return Outcome{}, false, nil
	}
	if err != nil {
		return Outcome{}, false, muerr.New(muerr.KindStore, fmt.Errorf("get outcome for mutant %d: %w", mutantID, err))
	}
	return o, true, nil
}

// GetOutcomes returns every Outcome recorded for mutants of targetID.
func (s *Store) GetOutcomes(targetID int64) ([]Outcome, error) {
	rows, err := s.db.Query(`
		SELECT o.mutant_id, o.status, o.output, o.recorded_at, o.duration_ms
		FROM outcomes o JOIN mutants m ON m.id = o.mutant_id
		WHERE m.target_id = ?
		ORDER BY o.mutant_id`, targetID)
	if err != nil {
		return nil, muerr.New(muerr.KindStore, fmt.Errorf("list outcomes for target %d: %w", targetID, err))
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		o, err := scanOutcomeRows(rows)
		if err != nil {
			return nil, muerr.New(muerr.KindStore, fmt.Errorf("scan outcome: %w", err))
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetMutantsWithoutOutcomes returns every mutant of targetID that has never
// been tested.
func (s *Store) GetMutantsWithoutOutcomes(targetID int64) ([]target.Mutant, error) {
	rows, err := s.db.Query(`
		SELECT m.id, m.target_id, m.byte_offset, m.line_offset, m.old_text, m.new_text, m.slug
		FROM mutants m LEFT JOIN outcomes o ON o.mutant_id = m.id
		WHERE m.target_id = ? AND o.mutant_id IS NULL
		ORDER BY m.id`, targetID)
	if err != nil {
		return nil, muerr.New(muerr.KindStore, fmt.Errorf("list untested mutants for target %d: %w", targetID, err))
	}
	defer rows.Close()

	var out []target.Mutant
	for rows.Next() {
		m, err := scanMutantRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMutantsToTest returns the union of never-tested mutants and mutants
// whose most recent outcome was Timeout, plus the counts of each, for
// targetID.
func (s *Store) GetMutantsToTest(targetID int64) (mutants []target.Mutant, untestedCount, timeoutRetryCount int, err error) {
	untested, err := s.GetMutantsWithoutOutcomes(targetID)
	if err != nil {
		return nil, 0, 0, err
	}
	untestedCount = len(untested)

	rows, err := s.db.Query(`
		SELECT m.id, m.target_id, m.byte_offset, m.line_offset, m.old_text, m.new_text, m.slug
		FROM mutants m JOIN outcomes o ON o.mutant_id = m.id
		WHERE m.target_id = ? AND o.status = ?
		ORDER BY m.id`, targetID, string(Timeout))
	if err != nil {
		return nil, 0, 0, muerr.New(muerr.KindStore, fmt.Errorf("list timeout mutants for target %d: %w", targetID, err))
	}
	defer rows.Close()

	var timeouts []target.Mutant
	for rows.Next() {
		m, err := scanMutantRows(rows)
		if err != nil {
			return nil, 0, 0, err
		}
		timeouts = append(timeouts, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, muerr.New(muerr.KindStore, fmt.Errorf("iterate timeout mutants: %w", err))
	}
	timeoutRetryCount = len(timeouts)

	mutants = append(mutants, untested...)
	mutants = append(mutants, timeouts...)
	return mutants, untestedCount, timeoutRetryCount, nil
}

// GetMutantTestCounts returns (untested, to_retest) for targetID. It loads
// the rows via GetMutantsToTest and returns only their counts.
func (s *Store) GetMutantTestCounts(targetID int64) (untested, toRetest int, err error) {
	_, untested, toRetest, err = s.GetMutantsToTest(targetID)
	return untested, toRetest, err
}

func scanTarget(row *sql.Row) (target.Target, error) {
	var t target.Target
	var lang string
	err := row.Scan(&t.ID, &t.Path, (*string)(&t.FileHash), &t.Text, &lang, &t.GitCommit)
	if err == sql.ErrNoRows {
		return target.Target{}, muerr.New(muerr.KindTargetNotFound, muerr.ErrTargetNotFound)
	}
	if err != nil {
		return target.Target{}, muerr.New(muerr.KindStore, fmt.Errorf("scan target: %w", err))
	}
	t.Language = target.Language(lang)
	return t, nil
}

func scanTargetRows(rows *sql.Rows) (target.Target, error) {
	var t target.Target
	var lang string
	if err := rows.Scan(&t.ID, &t.Path, (*string)(&t.FileHash), &t.Text, &lang, &t.GitCommit); err != nil {
		return target.Target{}, muerr.New(muerr.KindStore, fmt.Errorf("scan target: %w", err))
	}
	t.Language = target.Language(lang)
	return t, nil
}

func scanMutant(row *sql.Row) (target.Mutant, error) {
	var m target.Mutant
	err := row.Scan(&m.ID, &m.TargetID, &m.ByteOffset, &m.LineOffset, &m.OldText, &m.NewText, &m.Slug)
	if err == sql.ErrNoRows {
		return target.Mutant{}, muerr.New(muerr.KindInvalidInput, fmt.Errorf("mutant not found"))
	}
	if err != nil {
		return target.Mutant{}, muerr.New(muerr.KindStore, fmt.Errorf("scan mutant: %w", err))
	}
	return m, nil
}

func scanMutantRows(rows *sql.Rows) (target.Mutant, error) {
	var m target.Mutant
	if err := rows.Scan(&m.ID, &m.TargetID, &m.ByteOffset, &m.LineOffset, &m.OldText, &m.NewText, &m.Slug); err != nil {
		return target.Mutant{}, muerr.New(muerr.KindStore, fmt.Errorf("scan mutant: %w", err))
	}
	return m, nil
}

func scanOutcome(row *sql.Row) (Outcome, error) {
	var o Outcome
	var status, recordedAt string
	if err := row.Scan(&o.MutantID, &status, &o.Output, &recordedAt, &o.DurationMS); err != nil {
		return Outcome{}, err
	}
	o.Status = Status(status)
	t, err := time.Parse(time.RFC3339Nano, recordedAt)
	if err != nil {
		return Outcome{}, fmt.Errorf("parse recorded_at: %w", err)
	}
	o.RecordedAt = t
	return o, nil
}

func scanOutcomeRows(rows *sql.Rows) (Outcome, error) {
	var o Outcome
	var status, recordedAt string
	if err := rows.Scan(&o.MutantID, &status, &o.Output, &recordedAt, &o.DurationMS); err != nil {
		return Outcome{}, err
	}
	o.Status = Status(status)
	t, err := time.Parse(time.RFC3339Nano, recordedAt)
	if err != nil {
		return Outcome{}, fmt.Errorf("parse recorded_at: %w", err)
	}
	o.RecordedAt = t
	return o, nil
}
