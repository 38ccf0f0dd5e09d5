package sqlexec

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/sqlbuilder"
	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
	"github.com/ajitpratap0/tabula/pkg/value"
)

// sqlRunner is satisfied by both *sql.DB and *sql.Tx.
type sqlRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type sqlQueryer struct {
	run     sqlRunner
	dialect sqlbuilder.Dialect
}

func (q sqlQueryer) Execute(ctx context.Context, stmt string) (sqlbuilder.ExecutionResult, error) {
	res, err := q.run.ExecContext(ctx, stmt)
	if err != nil {
		return sqlbuilder.ExecutionResult{}, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeQuery, "statement failed").
			WithDetail("statement", stmt)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return sqlbuilder.ExecutionResult{}, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeQuery, "rows affected unavailable")
	}
	// sqlite3_changes is only reset by INSERT, UPDATE and DELETE, so DDL
	// reports whatever the previous data statement changed.
	if q.dialect == sqlbuilder.SQLite && !modifiesRows(stmt) {
		n = 0
	}
	return sqlbuilder.ExecutionResult{RowsAffected: uint64(n)}, nil
}

func modifiesRows(stmt string) bool {
	verb, _, _ := strings.Cut(strings.TrimSpace(stmt), " ")
	switch strings.ToUpper(verb) {
	case "INSERT", "UPDATE", "DELETE", "REPLACE":
		return true
	}
	return false
}

func (q sqlQueryer) FetchOptional(ctx context.Context, query string) ([]value.Value, bool, error) {
	rows, err := q.fetch(ctx, query, 1)
	if err != nil || len(rows) == 0 {
		return nil, false, err
	}
	return rows[0], true, nil
}

func (q sqlQueryer) FetchAll(ctx context.Context, query string) ([][]value.Value, error) {
	return q.fetch(ctx, query, -1)
}

// fetch reads at most limit rows; a negative limit reads everything.
func (q sqlQueryer) fetch(ctx context.Context, query string, limit int) ([][]value.Value, error) {
	rows, err := q.run.QueryContext(ctx, query)
	if err != nil {
		return nil, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeQuery, "query failed").
			WithDetail("query", query)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeQuery, "failed to read column types")
	}
	cells := make([]any, len(types))
	ptrs := make([]any, len(types))
	for i := range cells {
		ptrs[i] = &cells[i]
	}

	var out [][]value.Value
	for rows.Next() {
		if limit >= 0 && len(out) == limit {
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeQuery, "failed to scan row")
		}
		row := make([]value.Value, len(cells))
		for i, c := range cells {
			row[i] = decodeSQL(q.dialect, c, types[i].DatabaseTypeName())
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeQuery, "row iteration failed")
	}
	return out, nil
}

// sqlLoader serves MySQL and SQLite through database/sql.
type sqlLoader struct {
	sqlQueryer
	typedFetcher
	db *sql.DB
}

// openSQL opens and pings a database/sql pool for MySQL or SQLite.
func openSQL(ctx context.Context, d sqlbuilder.Dialect, rest string, opts options, logger *zap.Logger) (*sqlLoader, error) {
	var (
		db  *sql.DB
		err error
	)
	switch d {
	case sqlbuilder.MySQL:
		cfg, cfgErr := mysqlConfig("mysql://" + rest)
		if cfgErr != nil {
			return nil, cfgErr
		}
		if opts.connectTimeout > 0 {
			cfg.Timeout = opts.connectTimeout
		}
		connector, cErr := mysql.NewConnector(cfg)
		if cErr != nil {
			return nil, tabulaerrors.Wrap(cErr, tabulaerrors.ErrorTypeConfig, "invalid mysql configuration")
		}
		db = sql.OpenDB(connector)
		if opts.maxOpenConns > 0 {
			db.SetMaxOpenConns(opts.maxOpenConns)
		}
	default:
		db, err = sql.Open("sqlite3", sqliteDSN(rest))
		if err != nil {
			return nil, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeConnection, "failed to open sqlite database")
		}
		// One connection: transactions and the probes issued inside them
		// must see the same database, and :memory: lives per connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	pingCtx := ctx
	if opts.connectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.connectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeConnection, "failed to connect").
			WithDetail("dialect", d.String())
	}

	logger.Debug("database/sql pool opened",
		zap.String("dialect", d.String()),
		zap.Int("max_open_conns", db.Stats().MaxOpenConnections))

	l := &sqlLoader{
		sqlQueryer: sqlQueryer{run: db, dialect: d},
		db:         db,
	}
	l.typedFetcher = typedFetcher{q: l.sqlQueryer}
	return l, nil
}

func (l *sqlLoader) Dialect() sqlbuilder.Dialect { return l.dialect }

func (l *sqlLoader) Disconnect(_ context.Context) error {
	if err := l.db.Close(); err != nil {
		return tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeConnection, "failed to close database")
	}
	return nil
}

func (l *sqlLoader) ExecuteMany(ctx context.Context, stmts []string) (sqlbuilder.ExecutionResult, error) {
	return executeInTx(ctx, l.Begin, stmts)
}

func (l *sqlLoader) Begin(ctx context.Context) (Tx, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeQuery, "failed to begin transaction")
	}
	return &sqlTx{sqlQueryer: sqlQueryer{run: tx, dialect: l.dialect}, tx: tx}, nil
}

type sqlTx struct {
	sqlQueryer
	tx *sql.Tx
}

func (t *sqlTx) Commit(_ context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeQuery, "commit failed")
	}
	return nil
}

func (t *sqlTx) Rollback(_ context.Context) error {
	if err := t.tx.Rollback(); err != nil {
		return tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeQuery, "rollback failed")
	}
	return nil
}
