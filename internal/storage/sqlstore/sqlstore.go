// Package sqlstore implements provider.Resolver on a SQL database.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"github.com/sonroyaalmerol/device-calendar/pkg/provider"
)

var tables = map[provider.URI]string{
	provider.AccountsURI:  "accounts",
	provider.CalendarsURI: "calendars",
	provider.EventsURI:    "events",
	provider.RemindersURI: "reminders",
}

// Resolver answers content URIs from the tables created by the sqlite and
// postgres migrations.
type Resolver struct {
	db     *sql.DB
	format sq.PlaceholderFormat
	logger zerolog.Logger
}

var _ provider.Resolver = (*Resolver)(nil)

// New wraps db. format is sq.Question for sqlite and sq.Dollar for postgres.
func New(db *sql.DB, format sq.PlaceholderFormat, logger zerolog.Logger) *Resolver {
	return &Resolver{db: db, format: format, logger: logger}
}

func (r *Resolver) DB() *sql.DB { return r.db }

func (r *Resolver) Close() {
	_ = r.db.Close()
}

func table(uri provider.URI) (string, error) {
	t, ok := tables[uri]
	if !ok {
		return "", fmt.Errorf("unknown uri %s", uri)
	}
	return t, nil
}

func (r *Resolver) Query(ctx context.Context, uri provider.URI, projection []string, selection string, args []any, sortOrder string) ([]provider.Values, error) {
	t, err := table(uri)
	if err != nil {
		return nil, err
	}
	if len(projection) == 0 {
		projection = []string{"*"}
	}
	qb := sq.Select(projection...).From(t).PlaceholderFormat(r.format)
	if selection != "" {
		qb = qb.Where(selection, args...)
	}
	if sortOrder != "" {
		qb = qb.OrderBy(sortOrder)
	}

	var rows []map[string]interface{}
	if err := r.selectFn(ctx, r.db, &rows, qb); err != nil {
		return nil, fmt.Errorf("query %s: %w", t, err)
	}
	out := make([]provider.Values, len(rows))
	for i, row := range rows {
		out[i] = provider.Values(row)
	}
	return out, nil
}

func (r *Resolver) Insert(ctx context.Context, uri provider.URI, values provider.Values) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = r.insert(ctx, tx, uri, values)
		return err
	})
	return id, err
}

func (r *Resolver) Update(ctx context.Context, uri provider.URI, values provider.Values, selection string, args []any) (int64, error) {
	var n int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		n, err = r.update(ctx, tx, uri, values, selection, args)
		return err
	})
	return n, err
}

func (r *Resolver) Delete(ctx context.Context, uri provider.URI, selection string, args []any) (int64, error) {
	var n int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		n, err = r.delete(ctx, tx, uri, selection, args)
		return err
	})
	return n, err
}

func (r *Resolver) ApplyBatch(ctx context.Context, ops []provider.Operation) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for i, op := range ops {
			var err error
			switch op.Kind {
			case provider.OpInsert:
				_, err = r.insert(ctx, tx, op.URI, op.Values)
			case provider.OpUpdate:
				_, err = r.update(ctx, tx, op.URI, op.Values, op.Selection, op.Args)
			case provider.OpDelete:
				_, err = r.delete(ctx, tx, op.URI, op.Selection, op.Args)
			default:
				err = fmt.Errorf("unknown operation kind %d", op.Kind)
			}
			if err != nil {
				return fmt.Errorf("batch operation %d: %w", i, err)
			}
		}
		return nil
	})
}

func (r *Resolver) insert(ctx context.Context, tx *sql.Tx, uri provider.URI, values provider.Values) (int64, error) {
	t, err := table(uri)
	if err != nil {
		return 0, err
	}
	qb := sq.Insert(t).
		SetMap(map[string]interface{}(values)).
		Suffix("RETURNING " + provider.ColID).
		PlaceholderFormat(r.format)
	query, args, err := qb.ToSql()
	if err != nil {
		return 0, err
	}
	r.logger.Debug().Str("sql", query).Msg("insert")
	var id int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert into %s: %w", t, err)
	}
	return id, nil
}

func (r *Resolver) update(ctx context.Context, tx *sql.Tx, uri provider.URI, values provider.Values, selection string, args []any) (int64, error) {
	t, err := table(uri)
	if err != nil {
		return 0, err
	}
	qb := sq.Update(t).SetMap(map[string]interface{}(values)).PlaceholderFormat(r.format)
	if selection != "" {
		qb = qb.Where(selection, args...)
	}
	return r.execFn(ctx, tx, qb)
}

func (r *Resolver) delete(ctx context.Context, tx *sql.Tx, uri provider.URI, selection string, args []any) (int64, error) {
	t, err := table(uri)
	if err != nil {
		return 0, err
	}
	qb := sq.Delete(t).PlaceholderFormat(r.format)
	if selection != "" {
		qb = qb.Where(selection, args...)
	}
	return r.execFn(ctx, tx, qb)
}
