package store

import (
	"context"

	"github.com/agentstation/nodeatlas/pkg/casing"
	"github.com/agentstation/nodeatlas/pkg/errors"
)

// casingTables are the tables whose node_type column is kept in
// canonical casing. Registry package names are npm identifiers, not
// node types, and are excluded.
var casingTables = []string{
	"node_types_api",
	"node_types_github",
	"node_operations",
	"node_parameters",
	"node_credentials",
}

// Mismatch is one stored identifier whose casing differs from the
// canonical form.
type Mismatch struct {
	Table   string `json:"table"`
	Current string `json:"current"`
	Want    string `json:"want"`
	Rows    int    `json:"rows"`
}

// CheckCasing reports stored identifiers that deviate from the
// correction table without modifying anything.
func (s *Store) CheckCasing(ctx context.Context, table *casing.Table) ([]Mismatch, error) {
	var out []Mismatch
	for _, corr := range table.Corrections() {
		for _, dbTable := range casingTables {
			rows, err := s.db.QueryContext(ctx,
				"SELECT node_type, COUNT(*) FROM "+dbTable+
					" WHERE LOWER(node_type) = LOWER(?) AND node_type != ? GROUP BY node_type",
				corr.To, corr.To)
			if err != nil {
				return nil, errors.WrapResource("check", "casing", dbTable, err)
			}
			for rows.Next() {
				var m Mismatch
				if err := rows.Scan(&m.Current, &m.Rows); err != nil {
					rows.Close()
					return nil, errors.WrapResource("check", "casing", dbTable, err)
				}
				m.Table = dbTable
				m.Want = corr.To
				out = append(out, m)
			}
			if err := rows.Err(); err != nil {
				rows.Close()
				return nil, errors.WrapResource("check", "casing", dbTable, err)
			}
			if err := rows.Close(); err != nil {
				return nil, errors.WrapResource("check", "casing", dbTable, err)
			}
		}
	}
	return out, nil
}

// ApplyCasing rewrites stored identifiers to their canonical casing
// and returns the number of rows updated. The update matches
// case-insensitively and skips rows that are already canonical, so
// applying twice is a no-op.
func (s *Store) ApplyCasing(ctx context.Context, table *casing.Table) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.WrapIO("apply casing", s.path, err)
	}
	defer tx.Rollback()

	total := 0
	for _, corr := range table.Corrections() {
		for _, dbTable := range casingTables {
			// OR REPLACE: if a row with canonical casing already
			// exists, the stale row folds into it instead of
			// tripping the unique constraint.
			res, err := tx.ExecContext(ctx,
				"UPDATE OR REPLACE "+dbTable+
					" SET node_type = ? WHERE LOWER(node_type) = LOWER(?) AND node_type != ?",
				corr.To, corr.To, corr.To)
			if err != nil {
				return 0, errors.WrapResource("apply casing", "table", dbTable, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return 0, errors.WrapResource("apply casing", "table", dbTable, err)
			}
			total += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.WrapIO("apply casing", s.path, err)
	}
	return total, nil
}
