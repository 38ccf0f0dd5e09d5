package sqlexec

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/logger"
	"github.com/ajitpratap0/tabula/pkg/metrics"
	"github.com/ajitpratap0/tabula/pkg/sqlbuilder"
	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
	"github.com/ajitpratap0/tabula/pkg/value"
)

type options struct {
	logger         *zap.Logger
	collector      *metrics.Collector
	tracerProvider trace.TracerProvider
	maxOpenConns   int
	connectTimeout time.Duration
}

// Option configures an Executor.
type Option func(*options)

// WithLogger replaces the global logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCollector replaces the default metrics collector for the dialect.
func WithCollector(c *metrics.Collector) Option {
	return func(o *options) { o.collector = c }
}

// WithTracerProvider replaces the global OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMaxOpenConns caps the MySQL and Postgres pools. SQLite always uses
// a single connection.
func WithMaxOpenConns(n int) Option {
	return func(o *options) { o.maxOpenConns = n }
}

// WithConnectTimeout bounds Connect.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) { o.connectTimeout = d }
}

// Executor persists and retrieves tables against one database. It holds at
// most one live Loader and is not safe for concurrent use; callers
// serialise calls or use one Executor per logical transaction.
type Executor struct {
	dialect sqlbuilder.Dialect
	conn    string
	rest    string
	loader  Loader
	opts    options
	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer
}

// NewExecutor creates a disconnected executor for conn.
func NewExecutor(conn string, opts ...Option) *Executor {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	dialect, rest := ParseConnString(conn)
	if o.logger == nil {
		o.logger = logger.Get()
	}
	if o.collector == nil {
		o.collector = metrics.NewCollector(dialect.String())
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}
	return &Executor{
		dialect: dialect,
		conn:    conn,
		rest:    rest,
		opts:    o,
		logger:  o.logger.With(zap.String("component", "executor")),
		metrics: o.collector,
		tracer:  o.tracerProvider.Tracer(tracerName),
	}
}

// NewExecutorFromString creates a disconnected executor with default options.
func NewExecutorFromString(conn string) *Executor {
	return NewExecutor(conn)
}

// Dialect is the backend selected by the connection string.
func (e *Executor) Dialect() sqlbuilder.Dialect { return e.dialect }

// IsConnected reports whether Connect has succeeded and Disconnect has not
// been called since.
func (e *Executor) IsConnected() bool { return e.loader != nil }

// Connect opens the connection provider.
func (e *Executor) Connect(ctx context.Context) error {
	if e.loader != nil {
		return tabulaerrors.New(tabulaerrors.ErrorTypeConnectionExists, "executor is already connected").
			WithDetail("dialect", e.dialect.String())
	}

	ctx = e.scope(ctx, "")
	var (
		l   Loader
		err error
	)
	switch e.dialect {
	case sqlbuilder.Postgres:
		l, err = openPG(ctx, e.conn, e.opts, e.log(ctx))
	default:
		l, err = openSQL(ctx, e.dialect, e.rest, e.opts, e.log(ctx))
	}
	if err != nil {
		return err
	}

	e.loader = l
	e.metrics.ConnectionOpened()
	e.log(ctx).Info("connected", zap.String("connection", redact(e.conn)))
	return nil
}

// Disconnect closes the connection provider.
func (e *Executor) Disconnect(ctx context.Context) error {
	if e.loader == nil {
		return tabulaerrors.New(tabulaerrors.ErrorTypeNoConnection, "executor is not connected")
	}
	err := e.loader.Disconnect(ctx)
	e.loader = nil
	e.metrics.ConnectionClosed()
	e.log(e.scope(ctx, "")).Info("disconnected")
	return err
}

func (e *Executor) guard() error {
	if e.loader == nil {
		return tabulaerrors.New(tabulaerrors.ErrorTypeNoConnection, "executor is not connected").
			WithDetail("dialect", e.dialect.String())
	}
	return nil
}

// execute runs one statement on q and records it.
func (e *Executor) execute(ctx context.Context, q Queryer, kind, stmt string) (sqlbuilder.ExecutionResult, error) {
	obs := e.observe(ctx, kind, stmt)
	res, err := q.Execute(obs.ctx, stmt)
	obs.end(res.RowsAffected, 1, err)
	return res, err
}

// inTx runs fn in a transaction. Any error from fn rolls back before it is
// returned.
func (e *Executor) inTx(ctx context.Context, table string, fn func(Tx) (uint64, error)) (sqlbuilder.ExecutionResult, error) {
	tx, err := e.loader.Begin(ctx)
	if err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	n, err := fn(tx)
	if err != nil {
		log := e.log(e.scope(ctx, table))
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Warn("rollback failed", zap.Error(rbErr))
		} else {
			log.Warn("transaction rolled back", zap.Error(err))
		}
		return sqlbuilder.ExecutionResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	return sqlbuilder.ExecutionResult{RowsAffected: n}, nil
}

// Insert writes every row of data, index first.
func (e *Executor) Insert(ctx context.Context, table string, data *columnar.Table) (sqlbuilder.ExecutionResult, error) {
	if err := e.guard(); err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	return e.insert(e.scope(ctx, table), e.loader, table, data, false)
}

func (e *Executor) insert(ctx context.Context, q Queryer, table string, data *columnar.Table, ignorePK bool) (sqlbuilder.ExecutionResult, error) {
	stmt, err := e.dialect.Insert(table, data, ignorePK)
	if err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	return e.execute(ctx, q, "insert", stmt)
}

// Update rewrites every row of data matched by its identity. The statements
// run one per row, in order, inside a single transaction.
func (e *Executor) Update(ctx context.Context, table string, data *columnar.Table) (sqlbuilder.ExecutionResult, error) {
	if err := e.guard(); err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	opt, err := sqlbuilder.IndexOptionFromField(data.IndexField())
	if err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	stmts, err := e.dialect.Update(table, data, opt)
	if err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	obs := e.observe(e.scope(ctx, table), "update", stmts[0])
	res, err := e.loader.ExecuteMany(obs.ctx, stmts)
	obs.end(res.RowsAffected, len(stmts), err)
	return res, err
}

// Save writes data to table according to strategy.
func (e *Executor) Save(ctx context.Context, table string, data *columnar.Table, strategy sqlbuilder.SaveStrategy) (sqlbuilder.ExecutionResult, error) {
	if err := e.guard(); err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	ctx = logger.ContextWithStrategy(e.scope(ctx, table), strategy.String())
	e.log(ctx).Debug("saving table", zap.Int("rows", data.Height()))

	switch strategy {
	case sqlbuilder.FailIfExists:
		return e.saveFailIfExists(ctx, table, data)
	case sqlbuilder.Replace:
		return e.saveReplace(ctx, table, data)
	case sqlbuilder.Append:
		return e.insert(ctx, e.loader, table, data, true)
	case sqlbuilder.Upsert:
		return e.saveUpsert(ctx, table, data)
	}
	return sqlbuilder.ExecutionResult{}, tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "unknown save strategy %d", strategy)
}

func (e *Executor) createStatement(table string, data *columnar.Table) (string, error) {
	opt, err := sqlbuilder.IndexOptionFromField(data.IndexField())
	if err != nil {
		return "", err
	}
	return e.dialect.CreateTable(table, data.Fields(), &opt), nil
}

func (e *Executor) saveFailIfExists(ctx context.Context, table string, data *columnar.Table) (sqlbuilder.ExecutionResult, error) {
	exists, err := e.TableExists(ctx, table)
	if err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	if exists {
		return sqlbuilder.ExecutionResult{}, tabulaerrors.Newf(tabulaerrors.ErrorTypeTableExists, "table %q already exists", table).
			WithDetail("table", table)
	}
	create, err := e.createStatement(table, data)
	if err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	return e.inTx(ctx, table, func(tx Tx) (uint64, error) {
		return e.createAndInsert(ctx, tx, table, create, data)
	})
}

func (e *Executor) saveReplace(ctx context.Context, table string, data *columnar.Table) (sqlbuilder.ExecutionResult, error) {
	create, err := e.createStatement(table, data)
	if err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	return e.inTx(ctx, table, func(tx Tx) (uint64, error) {
		exists, err := e.tableExists(ctx, tx, table)
		if err != nil {
			return 0, err
		}
		if exists {
			if _, err := e.execute(ctx, tx, "drop", e.dialect.DeleteTable(table)); err != nil {
				return 0, err
			}
		}
		return e.createAndInsert(ctx, tx, table, create, data)
	})
}

// createAndInsert reports the rows affected by both statements.
func (e *Executor) createAndInsert(ctx context.Context, tx Tx, table, create string, data *columnar.Table) (uint64, error) {
	created, err := e.execute(ctx, tx, "create", create)
	if err != nil {
		return 0, err
	}
	inserted, err := e.insert(ctx, tx, table, data, false)
	return created.RowsAffected + inserted.RowsAffected, err
}

// saveUpsert partitions data against the identities already stored, inserts
// the new rows and updates the rest. data itself is not modified.
func (e *Executor) saveUpsert(ctx context.Context, table string, data *columnar.Table) (sqlbuilder.ExecutionResult, error) {
	if data.Height() == 0 {
		return sqlbuilder.ExecutionResult{}, tabulaerrors.EmptyInput()
	}
	existing, err := e.GetExistingIDs(ctx, table, data.Index())
	if err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}

	fresh := data.Slice(0, data.Height())
	updates, err := fresh.PopupRows(existing)
	if err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	e.log(ctx).Debug("upsert partitioned",
		zap.Int("insert", fresh.Height()),
		zap.Int("update", updates.Height()))

	var total sqlbuilder.ExecutionResult
	if fresh.Height() > 0 {
		res, err := e.insert(ctx, e.loader, table, fresh, false)
		if err != nil {
			return sqlbuilder.ExecutionResult{}, err
		}
		total.RowsAffected += res.RowsAffected
	}
	// A table holding only identities has nothing to rewrite in matched rows.
	if updates.Height() > 0 && updates.Width() > 0 {
		res, err := e.Update(ctx, table, updates)
		if err != nil {
			return sqlbuilder.ExecutionResult{}, err
		}
		total.RowsAffected += res.RowsAffected
	}
	return total, nil
}

// Delete removes the rows matched by the statement's filter.
func (e *Executor) Delete(ctx context.Context, del sqlbuilder.Delete) (sqlbuilder.ExecutionResult, error) {
	if err := e.guard(); err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	stmt, err := e.dialect.Delete(del)
	if err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	return e.execute(e.scope(ctx, del.Table), e.loader, "delete", stmt)
}

// Select reads a table. When the target has a primary key its values become
// the result's index; when discovery fails for any reason the result gets
// the default index instead. An empty column list selects every column of
// the table except the primary key. Result columns carry the alias names.
func (e *Executor) Select(ctx context.Context, s *sqlbuilder.Select) (*columnar.Table, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	q := s.Clone()
	ctx = e.scope(ctx, q.Table)

	pk := ""
	if q.IncludePrimaryKey == nil || *q.IncludePrimaryKey {
		name, err := e.GetPrimaryKey(ctx, q.Table)
		if err != nil {
			e.log(ctx).Debug("primary key discovery failed, using default index", zap.Error(err))
		} else {
			pk = name
		}
	}

	if len(q.Columns) == 0 {
		schema, err := e.GetTableSchema(ctx, q.Table)
		if err != nil {
			return nil, err
		}
		for _, col := range schema {
			if col.Name != pk {
				q.Columns = append(q.Columns, sqlbuilder.Col(col.Name))
			}
		}
	}
	names := q.ColumnNames(true)

	render := q
	if pk != "" {
		render = q.Clone()
		render.Columns = append([]sqlbuilder.ColumnAlias{sqlbuilder.Col(pk)}, q.Columns...)
	}
	query, err := e.dialect.Select(render)
	if err != nil {
		return nil, err
	}

	var (
		result *columnar.Table
		height int
	)
	obs := e.observe(ctx, "select", query)
	if pk == "" {
		var rows []columnar.Row
		rows, err = e.loader.FetchAllToRows(obs.ctx, query)
		height = len(rows)
		if err == nil && len(rows) > 0 {
			result, err = columnar.FromRows(rows)
		}
	} else {
		var rows [][]value.Value
		rows, err = e.loader.FetchAll(obs.ctx, query)
		height = len(rows)
		if err == nil && len(rows) > 0 {
			first := 0
			result, err = columnar.FromRowValues(rows, &first)
		}
	}
	obs.end(uint64(height), 1, err)
	if err != nil {
		return nil, err
	}

	if result == nil {
		result = columnar.Empty(names)
	}
	if pk != "" {
		result.Index().Rename(pk)
	}
	if err := result.SetColumnNames(names); err != nil {
		return nil, err
	}
	return result, nil
}

// GetPrimaryKey returns the name of the table's primary key column.
func (e *Executor) GetPrimaryKey(ctx context.Context, table string) (string, error) {
	if err := e.guard(); err != nil {
		return "", err
	}
	query := e.dialect.GetPrimaryKey(table)
	obs := e.observe(e.scope(ctx, table), "introspect", query)
	row, ok, err := e.loader.FetchOptionalWithSchema(obs.ctx, query, []value.Kind{value.KindString})
	obs.end(0, 1, err)
	if err != nil {
		return "", err
	}
	if !ok || value.IsNull(row[0]) {
		return "", tabulaerrors.Newf(tabulaerrors.ErrorTypeIndexNotFound, "table %q has no primary key", table).
			WithDetail("table", table)
	}
	return textCell(row[0]), nil
}

// GetTableSchema lists the table's columns in order.
func (e *Executor) GetTableSchema(ctx context.Context, table string) ([]sqlbuilder.TableSchema, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	query := e.dialect.CheckTableSchema(table)
	obs := e.observe(e.scope(ctx, table), "introspect", query)
	rows, err := e.loader.FetchAllWithSchema(obs.ctx, query,
		[]value.Kind{value.KindString, value.KindString, value.KindString})
	obs.end(0, 1, err)
	if err != nil {
		return nil, err
	}

	schema := make([]sqlbuilder.TableSchema, 0, len(rows))
	for _, r := range rows {
		name, typ, nullable := textCell(r[0]), textCell(r[1]), textCell(r[2])
		schema = append(schema, sqlbuilder.TableSchema{
			Name:       name,
			Dtype:      e.dialect.KindFromSQLType(typ),
			IsNullable: nullable == "YES",
		})
	}
	return schema, nil
}

// GetExistingIDs returns those values of index that are already stored as
// identities in table, converted to the index's kind.
func (e *Executor) GetExistingIDs(ctx context.Context, table string, index *columnar.Series) ([]value.Value, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	query, err := e.dialect.SelectExistingIDs(table, index)
	if err != nil {
		return nil, err
	}
	obs := e.observe(e.scope(ctx, table), "select", query)
	rows, err := e.loader.FetchAllWithSchema(obs.ctx, query, []value.Kind{index.Kind()})
	obs.end(uint64(len(rows)), 1, err)
	if err != nil {
		return nil, err
	}
	ids := make([]value.Value, len(rows))
	for i, r := range rows {
		ids[i] = r[0]
	}
	return ids, nil
}

// GetTableConstraints lists named constraints. SQLite only reports its
// primary key.
func (e *Executor) GetTableConstraints(ctx context.Context, table string) ([]sqlbuilder.TableConstraint, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	query := e.dialect.ListConstraints(table)
	obs := e.observe(e.scope(ctx, table), "introspect", query)
	rows, err := e.loader.FetchAllWithSchema(obs.ctx, query, []value.Kind{value.KindString, value.KindString})
	obs.end(0, 1, err)
	if err != nil {
		return nil, err
	}
	out := make([]sqlbuilder.TableConstraint, 0, len(rows))
	for _, r := range rows {
		typ, err := sqlbuilder.ParseConstraintType(textCell(r[1]))
		if err != nil {
			return nil, err
		}
		out = append(out, sqlbuilder.TableConstraint{Name: textCell(r[0]), Type: typ})
	}
	return out, nil
}

// AlterTable applies a column level schema change.
func (e *Executor) AlterTable(ctx context.Context, a sqlbuilder.AlterTable) (sqlbuilder.ExecutionResult, error) {
	if err := e.guard(); err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	stmt, err := e.dialect.AlterTable(a)
	if err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	return e.execute(e.scope(ctx, a.Table), e.loader, "alter", stmt)
}

// DropTable drops table.
func (e *Executor) DropTable(ctx context.Context, table string) (sqlbuilder.ExecutionResult, error) {
	if err := e.guard(); err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	return e.execute(e.scope(ctx, table), e.loader, "drop", e.dialect.DeleteTable(table))
}

// TableExists reports whether table exists.
func (e *Executor) TableExists(ctx context.Context, table string) (bool, error) {
	if err := e.guard(); err != nil {
		return false, err
	}
	return e.tableExists(e.scope(ctx, table), e.loader, table)
}

func (e *Executor) tableExists(ctx context.Context, q Queryer, table string) (bool, error) {
	query := e.dialect.CheckTableExists(table)
	obs := e.observe(ctx, "introspect", query)
	_, ok, err := q.FetchOptional(obs.ctx, query)
	obs.end(0, 1, err)
	return ok, err
}

// textCell reads a cell already conformed to KindString; Null reads as "".
func textCell(v value.Value) string {
	if s, ok := v.(value.String); ok {
		return string(s)
	}
	return ""
}
