package sqlexec

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/logger"
	"github.com/ajitpratap0/tabula/pkg/metrics"
)

const tracerName = "github.com/ajitpratap0/tabula/pkg/sqlexec"

// Span attribute keys.
const (
	attrDialect  = attribute.Key("db.system")
	attrKind     = attribute.Key("db.operation")
	attrTable    = attribute.Key("db.sql.table")
	attrStrategy = attribute.Key("tabula.save.strategy")
	attrRows     = attribute.Key("db.rows_affected")
	attrStmts    = attribute.Key("tabula.statements")
)

// scope tags ctx with the executor's dialect and, when given, the table, so
// the statement logs and spans below it carry both.
func (e *Executor) scope(ctx context.Context, table string) context.Context {
	ctx = logger.ContextWithDialect(ctx, e.dialect.String())
	if table != "" {
		ctx = logger.ContextWithTable(ctx, table)
	}
	return ctx
}

func (e *Executor) log(ctx context.Context) *zap.Logger {
	return logger.WithContext(ctx, e.logger)
}

// observation covers one statement or batch: a client span, a latency timer
// and a debug log line when it ends.
type observation struct {
	e     *Executor
	ctx   context.Context
	span  trace.Span
	timer *metrics.Timer
	kind  string
	stmt  string
}

func (e *Executor) observe(ctx context.Context, kind, stmt string) *observation {
	attrs := []attribute.KeyValue{
		attrDialect.String(e.dialect.String()),
		attrKind.String(kind),
	}
	if table, ok := ctx.Value(logger.TableKey).(string); ok {
		attrs = append(attrs, attrTable.String(table))
	}
	if strategy, ok := ctx.Value(logger.StrategyKey).(string); ok {
		attrs = append(attrs, attrStrategy.String(strategy))
	}
	ctx, span := e.tracer.Start(ctx, "sqlexec."+kind,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
	return &observation{e: e, ctx: ctx, span: span, timer: metrics.NewTimer(kind), kind: kind, stmt: stmt}
}

// end records the outcome. stmts is the number of statements the
// observation covered.
func (o *observation) end(rows uint64, stmts int, err error) {
	o.e.metrics.ObserveStatement(o.kind, o.timer.Stop(), rows, err)

	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	} else {
		o.span.SetAttributes(attrRows.Int64(int64(rows)), attrStmts.Int(stmts))
	}
	o.span.End()

	o.e.log(o.ctx).Debug("statement executed",
		zap.String("kind", o.kind),
		zap.String("statement", o.stmt),
		zap.Int("statements", stmts),
		zap.Uint64("rows_affected", rows),
		zap.Error(err))
}
