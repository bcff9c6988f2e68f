package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/slayout/internal/layout"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

const runColumns = `id, seq, source, graph_hash, status, passes, constraints, error, analyzer_version, graph_version`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r      Run
		status string
	)
	err := row.Scan(&r.ID, &r.Seq, &r.Source, &r.GraphHash, &status,
		&r.Passes, &r.Constraints, &r.Error, &r.AnalyzerVersion, &r.GraphVersion)
	r.Status = Status(status)
	return r, err
}

// ReadRun returns the run with the given ID, including its layout.
// Returns ErrNotFound if no such run exists.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}

	r.Layout, err = s.readLayout(ctx, id)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return r, nil
}

func (s *Store) readLayout(ctx context.Context, runID string) (*layout.StorageLayout, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT slot_index, bit_offset, typ
		FROM slots
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	l, err := layout.New()
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			index  string
			offset int
			typ    string
			slot   layout.StorageSlot
		)
		if err := rows.Scan(&index, &offset, &typ); err != nil {
			return nil, err
		}
		if err := slot.Index.SetFromHex(index); err != nil {
			return nil, fmt.Errorf("slot index %q: %w", index, err)
		}
		slot.Offset = uint16(offset)
		if slot.Typ, err = unmarshalType(typ); err != nil {
			return nil, err
		}
		if err := l.Append(slot); err != nil {
			return nil, err
		}
	}
	return l, rows.Err()
}

// ListRuns returns every run without layouts, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	return s.queryRuns(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq ASC`)
}

// RunsForGraph returns the runs of one graph without layouts, oldest first.
func (s *Store) RunsForGraph(ctx context.Context, graphHash string) ([]Run, error) {
	return s.queryRuns(ctx, `SELECT `+runColumns+` FROM runs WHERE graph_hash = ? ORDER BY seq ASC`, graphHash)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
