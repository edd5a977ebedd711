package repository

import (
	"context"
	"database/sql"

	"classifieds-service/internal/database"
)

// insertID runs an INSERT and reports the generated primary key, using
// RETURNING where the dialect supports it and LastInsertId elsewhere.
func insertID(ctx context.Context, q database.Querier, query string, args ...any) (int64, error) {
	if q.Dialect().Returning {
		var id int64
		err := q.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id)
		if err != nil {
			return 0, database.Classify(err)
		}
		return id, nil
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// affectedOne turns a zero-row UPDATE or DELETE into database.ErrNotFound.
func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}

func nullableInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
