package sqlexec

import (
	"context"

	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/sqlbuilder"
	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
	"github.com/ajitpratap0/tabula/pkg/value"
)

// Queryer runs rendered statements. Rows come back as decoded values in
// select-list order.
type Queryer interface {
	Execute(ctx context.Context, stmt string) (sqlbuilder.ExecutionResult, error)
	// FetchOptional returns the first row, if any.
	FetchOptional(ctx context.Context, query string) ([]value.Value, bool, error)
	FetchAll(ctx context.Context, query string) ([][]value.Value, error)
}

// Tx is an open transaction. Exactly one of Commit or Rollback must be
// called.
type Tx interface {
	Queryer
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Loader is a live connection provider for one dialect.
type Loader interface {
	Queryer
	Dialect() sqlbuilder.Dialect
	Disconnect(ctx context.Context) error
	// ExecuteMany runs stmts in order inside one transaction and sums the
	// affected rows. Any failure rolls the whole batch back.
	ExecuteMany(ctx context.Context, stmts []string) (sqlbuilder.ExecutionResult, error)
	FetchAllWithSchema(ctx context.Context, query string, kinds []value.Kind) ([][]value.Value, error)
	FetchOptionalWithSchema(ctx context.Context, query string, kinds []value.Kind) ([]value.Value, bool, error)
	// FetchAllToRows returns rows without identity.
	FetchAllToRows(ctx context.Context, query string) ([]columnar.Row, error)
	Begin(ctx context.Context) (Tx, error)
}

// typedFetcher implements the schema-checked fetch variants on top of any
// Queryer. Loaders embed it.
type typedFetcher struct {
	q Queryer
}

func (f typedFetcher) FetchAllWithSchema(ctx context.Context, query string, kinds []value.Kind) ([][]value.Value, error) {
	rows, err := f.q.FetchAll(ctx, query)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := conform(row, kinds); err != nil {
			return nil, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeTypeMismatch, "unexpected result schema").
				WithDetail("row", i)
		}
	}
	return rows, nil
}

func (f typedFetcher) FetchOptionalWithSchema(ctx context.Context, query string, kinds []value.Kind) ([]value.Value, bool, error) {
	row, ok, err := f.q.FetchOptional(ctx, query)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := conform(row, kinds); err != nil {
		return nil, false, err
	}
	return row, true, nil
}

func (f typedFetcher) FetchAllToRows(ctx context.Context, query string) ([]columnar.Row, error) {
	raw, err := f.q.FetchAll(ctx, query)
	if err != nil {
		return nil, err
	}
	rows := make([]columnar.Row, len(raw))
	for i, r := range raw {
		rows[i] = columnar.RowFromValues(r...)
	}
	return rows, nil
}

// conform converts every cell of row to the expected kind in place. Drivers
// report numbers at their storage width, so any conversion value.Convert
// accepts is taken; anything else is a type mismatch. Null cells pass.
func conform(row []value.Value, kinds []value.Kind) error {
	if len(row) != len(kinds) {
		return tabulaerrors.Newf(tabulaerrors.ErrorTypeTypeMismatch,
			"expected %d columns, got %d", len(kinds), len(row))
	}
	for i, cell := range row {
		if value.IsNull(cell) || cell.Kind() == kinds[i] {
			continue
		}
		converted, err := value.Convert(cell, kinds[i])
		if err != nil {
			return tabulaerrors.TypeMismatch(kinds[i], cell.Kind()).WithDetail("column", i)
		}
		row[i] = converted
	}
	return nil
}

// executeInTx is the shared ExecuteMany.
func executeInTx(ctx context.Context, begin func(context.Context) (Tx, error), stmts []string) (sqlbuilder.ExecutionResult, error) {
	var res sqlbuilder.ExecutionResult
	tx, err := begin(ctx)
	if err != nil {
		return res, err
	}
	for _, stmt := range stmts {
		r, err := tx.Execute(ctx, stmt)
		if err != nil {
			_ = tx.Rollback(ctx)
			return sqlbuilder.ExecutionResult{}, err
		}
		res.RowsAffected += r.RowsAffected
	}
	if err := tx.Commit(ctx); err != nil {
		return sqlbuilder.ExecutionResult{}, err
	}
	return res, nil
}
