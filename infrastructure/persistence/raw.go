package persistence

import (
	"context"
	"database/sql"

	"video-publisher/infrastructure/logger"
)

// Raw is the escape hatch for hand-written SQL that has no repository method.
type Raw struct{ db DBTX }

func NewRaw(db DBTX) *Raw { return &Raw{db: db} }

func (r *Raw) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("raw exec failed")
		return 0, mapError("raw exec", err)
	}
	return res.RowsAffected()
}

// Query returns every row as a column-name keyed map.
func (r *Raw) Query(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("raw query", err)
	}
	defer rows.Close()
	return scanMaps(rows)
}

func scanMaps(rows *sql.Rows) ([]map[string]interface{}, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
