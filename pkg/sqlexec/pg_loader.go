package sqlexec

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/sqlbuilder"
	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
	"github.com/ajitpratap0/tabula/pkg/value"
)

// pgRunner is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgRunner interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type pgQueryer struct {
	run pgRunner
}

func (q pgQueryer) Execute(ctx context.Context, stmt string) (sqlbuilder.ExecutionResult, error) {
	tag, err := q.run.Exec(ctx, stmt)
	if err != nil {
		return sqlbuilder.ExecutionResult{}, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeQuery, "statement failed").
			WithDetail("statement", stmt)
	}
	return sqlbuilder.ExecutionResult{RowsAffected: uint64(tag.RowsAffected())}, nil
}

func (q pgQueryer) FetchOptional(ctx context.Context, query string) ([]value.Value, bool, error) {
	rows, err := q.fetch(ctx, query, 1)
	if err != nil || len(rows) == 0 {
		return nil, false, err
	}
	return rows[0], true, nil
}

func (q pgQueryer) FetchAll(ctx context.Context, query string) ([][]value.Value, error) {
	return q.fetch(ctx, query, -1)
}

func (q pgQueryer) fetch(ctx context.Context, query string, limit int) ([][]value.Value, error) {
	rows, err := q.run.Query(ctx, query)
	if err != nil {
		return nil, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeQuery, "query failed").
			WithDetail("query", query)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out [][]value.Value
	for rows.Next() {
		if limit >= 0 && len(out) == limit {
			break
		}
		raw, err := rows.Values()
		if err != nil {
			return nil, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeQuery, "failed to decode row")
		}
		row := make([]value.Value, len(raw))
		for i, c := range raw {
			row[i] = decodePG(c, fields[i].DataTypeOID)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeQuery, "row iteration failed")
	}
	return out, nil
}

// pgLoader serves Postgres through a pgx connection pool.
type pgLoader struct {
	pgQueryer
	typedFetcher
	pool *pgxpool.Pool
}

func openPG(ctx context.Context, conn string, opts options, logger *zap.Logger) (*pgLoader, error) {
	config, err := pgxpool.ParseConfig(conn)
	if err != nil {
		return nil, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeConfig, "failed to parse PostgreSQL connection string")
	}
	if opts.maxOpenConns > 0 {
		config.MaxConns = int32(opts.maxOpenConns)
	}
	if opts.connectTimeout > 0 {
		config.ConnConfig.ConnectTimeout = opts.connectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeConnection, "failed to create PostgreSQL connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeConnection, "failed to connect").
			WithDetail("dialect", sqlbuilder.Postgres.String())
	}

	logger.Debug("PostgreSQL connection pool created",
		zap.Int32("max_connections", config.MaxConns),
		zap.Int32("min_connections", config.MinConns),
		zap.Duration("max_lifetime", config.MaxConnLifetime))

	l := &pgLoader{pgQueryer: pgQueryer{run: pool}, pool: pool}
	l.typedFetcher = typedFetcher{q: l.pgQueryer}
	return l, nil
}

func (l *pgLoader) Dialect() sqlbuilder.Dialect { return sqlbuilder.Postgres }

func (l *pgLoader) Disconnect(_ context.Context) error {
	l.pool.Close()
	return nil
}

func (l *pgLoader) ExecuteMany(ctx context.Context, stmts []string) (sqlbuilder.ExecutionResult, error) {
	return executeInTx(ctx, l.Begin, stmts)
}

func (l *pgLoader) Begin(ctx context.Context) (Tx, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeQuery, "failed to begin transaction")
	}
	return &pgTx{pgQueryer: pgQueryer{run: tx}, tx: tx}, nil
}

type pgTx struct {
	pgQueryer
	tx pgx.Tx
}

func (t *pgTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeQuery, "commit failed")
	}
	return nil
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil {
		return tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeQuery, "rollback failed")
	}
	return nil
}
