package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/georgysavva/scany/sqlscan"
)

type sqlizer interface {
	ToSql() (string, []interface{}, error)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// withTx runs fn in a transaction, rolling back when fn fails.
func (r *Resolver) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error().Err(rbErr).Msg("rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *Resolver) selectFn(ctx context.Context, q sqlscan.Querier, dst interface{}, qb sqlizer) error {
	query, args, err := qb.ToSql()
	if err != nil {
		return err
	}
	r.logger.Debug().Str("sql", query).Msg("select")
	return sqlscan.Select(ctx, q, dst, query, args...)
}

func (r *Resolver) execFn(ctx context.Context, e execer, qb sqlizer) (int64, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return 0, err
	}
	r.logger.Debug().Str("sql", query).Msg("exec")
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
