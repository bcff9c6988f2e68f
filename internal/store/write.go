package store

import (
	"context"
	"fmt"
)

// WriteRun records r and its layout in one transaction and returns the
// assigned seq. Writing an ID twice is an error.
func (s *Store) WriteRun(ctx context.Context, r Run) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("write run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, source, graph_hash, status, passes, constraints, error, analyzer_version, graph_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		seq,
		r.Source,
		r.GraphHash,
		string(r.Status),
		r.Passes,
		r.Constraints,
		r.Error,
		r.AnalyzerVersion,
		r.GraphVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("write run %s: %w", r.ID, err)
	}

	if r.Layout != nil {
		for i, slot := range r.Layout.Slots() {
			typ, err := marshalType(slot.Typ)
			if err != nil {
				return 0, fmt.Errorf("write run %s: %w", r.ID, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO slots (run_id, position, slot_index, bit_offset, typ)
				VALUES (?, ?, ?, ?, ?)
			`, r.ID, i, slot.Index.Hex(), int(slot.Offset), typ)
			if err != nil {
				return 0, fmt.Errorf("write run %s: slot %d: %w", r.ID, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write run %s: commit: %w", r.ID, err)
	}
	return seq, nil
}
