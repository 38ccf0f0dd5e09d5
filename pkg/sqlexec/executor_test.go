package sqlexec

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/metrics"
	"github.com/ajitpratap0/tabula/pkg/sqlbuilder"
	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
	"github.com/ajitpratap0/tabula/pkg/testutil"
	"github.com/ajitpratap0/tabula/pkg/value"
)

func newSQLiteExecutor(t *testing.T) (*Executor, context.Context) {
	t.Helper()
	ctx := testutil.TestContext(t)
	e := NewExecutor(testutil.SQLiteConnString(t),
		WithLogger(testutil.TestLogger(t)),
		WithCollector(metrics.NewCollector("sqlite_test")))
	require.NoError(t, e.Connect(ctx))
	t.Cleanup(func() {
		if e.IsConnected() {
			_ = e.Disconnect(context.Background())
		}
	})
	return e, ctx
}

// people builds a table indexed by id with a name and a score column.
func people(t *testing.T, ids []int64, names []string) *columnar.Table {
	t.Helper()
	rows := make([]columnar.Row, len(ids))
	for i, id := range ids {
		rows[i] = columnar.NewRow(value.I64(id), value.String(names[i]), value.F64(float64(id)/2))
	}
	tbl, err := columnar.FromRows(rows)
	require.NoError(t, err)
	require.NoError(t, tbl.SetColumnNames([]string{"name", "score"}))
	tbl.Index().Rename("id")
	return tbl
}

func selectAll(t *testing.T, e *Executor, ctx context.Context, table string) *columnar.Table {
	t.Helper()
	out, err := e.Select(ctx, sqlbuilder.NewSelect(table).OrderBy(sqlbuilder.Asc("id")))
	require.NoError(t, err)
	return out
}

func names(t *testing.T, tbl *columnar.Table) []string {
	t.Helper()
	col, ok := tbl.Column("name")
	require.True(t, ok)
	out := make([]string, col.Len())
	for i, v := range col.Values() {
		out[i] = v.String()
	}
	return out
}

func TestConnectionGuards(t *testing.T) {
	ctx := testutil.TestContext(t)
	e := NewExecutor("sqlite::memory:", WithLogger(testutil.TestLogger(t)))

	_, err := e.Insert(ctx, "t", people(t, []int64{1}, []string{"a"}))
	testutil.RequireErrorType(t, err, tabulaerrors.ErrorTypeNoConnection)
	_, err = e.Select(ctx, sqlbuilder.NewSelect("t"))
	testutil.RequireErrorType(t, err, tabulaerrors.ErrorTypeNoConnection)
	testutil.RequireErrorType(t, e.Disconnect(ctx), tabulaerrors.ErrorTypeNoConnection)

	require.NoError(t, e.Connect(ctx))
	testutil.RequireErrorType(t, e.Connect(ctx), tabulaerrors.ErrorTypeConnectionExists)
	require.NoError(t, e.Disconnect(ctx))
	testutil.RequireErrorType(t, e.Disconnect(ctx), tabulaerrors.ErrorTypeNoConnection)
}

func TestSaveFailIfExists(t *testing.T) {
	e, ctx := newSQLiteExecutor(t)

	res, err := e.Save(ctx, "people", people(t, []int64{10, 11, 12}, []string{"a", "b", "c"}), sqlbuilder.FailIfExists)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.RowsAffected)

	_, err = e.Save(ctx, "people", people(t, []int64{1}, []string{"z"}), sqlbuilder.FailIfExists)
	testutil.RequireErrorType(t, err, tabulaerrors.ErrorTypeTableExists)

	out := selectAll(t, e, ctx, "people")
	assert.Equal(t, []string{"a", "b", "c"}, names(t, out))
}

func TestSaveFailIfExistsRollsBackOnInsertFailure(t *testing.T) {
	e, ctx := newSQLiteExecutor(t)

	// Duplicate identities violate the primary key after CREATE succeeded.
	_, err := e.Save(ctx, "dup", people(t, []int64{1, 1}, []string{"a", "b"}), sqlbuilder.FailIfExists)
	testutil.RequireErrorType(t, err, tabulaerrors.ErrorTypeQuery)

	exists, err := e.TableExists(ctx, "dup")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSaveUpsert(t *testing.T) {
	e, ctx := newSQLiteExecutor(t)

	_, err := e.Save(ctx, "people", people(t, []int64{10, 11, 12}, []string{"a", "b", "c"}), sqlbuilder.FailIfExists)
	require.NoError(t, err)

	incoming := people(t, []int64{11, 13}, []string{"B", "D"})
	res, err := e.Save(ctx, "people", incoming, sqlbuilder.Upsert)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.RowsAffected)
	assert.Equal(t, 2, incoming.Height())

	out := selectAll(t, e, ctx, "people")
	assert.Equal(t, []string{"a", "B", "c", "D"}, names(t, out))
	assert.Equal(t, []value.Value{value.I64(10), value.I64(11), value.I64(12), value.I64(13)}, out.Index().Values())
}

func TestSaveReplace(t *testing.T) {
	e, ctx := newSQLiteExecutor(t)

	_, err := e.Save(ctx, "people", people(t, []int64{1, 2, 3}, []string{"a", "b", "c"}), sqlbuilder.Replace)
	require.NoError(t, err)

	res, err := e.Save(ctx, "people", people(t, []int64{7, 8}, []string{"x", "y"}), sqlbuilder.Replace)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.RowsAffected)

	out := selectAll(t, e, ctx, "people")
	assert.Equal(t, []string{"x", "y"}, names(t, out))
	assert.Equal(t, []value.Value{value.I64(7), value.I64(8)}, out.Index().Values())
}

// countingTx reports a fixed row count per statement verb.
type countingTx struct {
	Tx
	rows  map[string]uint64
	stmts []string
}

func (c *countingTx) Execute(_ context.Context, stmt string) (sqlbuilder.ExecutionResult, error) {
	c.stmts = append(c.stmts, stmt)
	verb, _, _ := strings.Cut(stmt, " ")
	return sqlbuilder.ExecutionResult{RowsAffected: c.rows[verb]}, nil
}

func TestCreateAndInsertSumsRowsAffected(t *testing.T) {
	e := NewExecutor("sqlite::memory:", WithLogger(testutil.TestLogger(t)))
	tx := &countingTx{rows: map[string]uint64{"CREATE": 1, "INSERT": 2}}

	n, err := e.createAndInsert(testutil.TestContext(t), tx, "people", `CREATE TABLE "people" ("id" INTEGER)`,
		people(t, []int64{1, 2}, []string{"a", "b"}))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
	require.Len(t, tx.stmts, 2)
}

func TestSQLiteSchemaStatementsReportNoRows(t *testing.T) {
	e, ctx := newSQLiteExecutor(t)

	_, err := e.Save(ctx, "people", people(t, []int64{1, 2, 3}, []string{"a", "b", "c"}), sqlbuilder.FailIfExists)
	require.NoError(t, err)

	res, err := e.AlterTable(ctx, sqlbuilder.AddColumn("people", "extra", value.KindI64, true))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.RowsAffected)

	res, err = e.DropTable(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.RowsAffected)

	// The count after a fresh create is the insert's alone.
	res, err = e.Save(ctx, "people", people(t, []int64{4, 5}, []string{"d", "e"}), sqlbuilder.FailIfExists)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.RowsAffected)
}

func TestModifiesRows(t *testing.T) {
	assert.True(t, modifiesRows("INSERT INTO t VALUES (1)"))
	assert.True(t, modifiesRows("  update t SET a = 1"))
	assert.True(t, modifiesRows("DELETE FROM t WHERE a = 1"))
	assert.False(t, modifiesRows(`CREATE TABLE "t" ("a" INTEGER)`))
	assert.False(t, modifiesRows("DROP TABLE t"))
	assert.False(t, modifiesRows(""))
}

func TestSaveUpsertKeyOnlyTable(t *testing.T) {
	e, ctx := newSQLiteExecutor(t)

	keys := func(ids ...int64) *columnar.Table {
		rows := make([]columnar.Row, len(ids))
		for i, id := range ids {
			rows[i] = columnar.NewRow(value.I64(id))
		}
		tbl, err := columnar.FromRows(rows)
		require.NoError(t, err)
		tbl.Index().Rename("id")
		return tbl
	}

	_, err := e.Save(ctx, "ids", keys(1, 2), sqlbuilder.FailIfExists)
	require.NoError(t, err)

	res, err := e.Save(ctx, "ids", keys(2, 3), sqlbuilder.Upsert)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.RowsAffected)

	_, err = e.Save(ctx, "ids", keys(9), sqlbuilder.Append)
	testutil.RequireErrorType(t, err, tabulaerrors.ErrorTypeValidation)
}

func TestSaveAppendIgnoresIndex(t *testing.T) {
	e, ctx := newSQLiteExecutor(t)

	_, err := e.Save(ctx, "people", people(t, []int64{10, 11, 12}, []string{"a", "b", "c"}), sqlbuilder.FailIfExists)
	require.NoError(t, err)

	// The incoming identities collide with stored ones; Append must not care.
	res, err := e.Save(ctx, "people", people(t, []int64{10, 11}, []string{"d", "e"}), sqlbuilder.Append)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.RowsAffected)

	out := selectAll(t, e, ctx, "people")
	assert.Equal(t, 5, out.Height())
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names(t, out))
}

func TestSelectWithPrimaryKey(t *testing.T) {
	e, ctx := newSQLiteExecutor(t)

	_, err := e.Save(ctx, "people", people(t, []int64{4, 5, 6}, []string{"a", "b", "c"}), sqlbuilder.FailIfExists)
	require.NoError(t, err)

	out, err := e.Select(ctx, sqlbuilder.NewSelect("people").
		WithAliases(sqlbuilder.Alias("name", "who")).
		Where(sqlbuilder.Where("id", sqlbuilder.GreaterEqual(value.I64(5)))).
		OrderBy(sqlbuilder.Desc("id")))
	require.NoError(t, err)

	assert.Equal(t, "id", out.IndexField().Name)
	assert.Equal(t, []value.Value{value.I64(6), value.I64(5)}, out.Index().Values())
	assert.Equal(t, []string{"who"}, out.ColumnNames())

	row, err := out.GetRow(value.I64(5))
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.String("b")}, row.Data)
}

func TestSelectWithoutPrimaryKey(t *testing.T) {
	e, ctx := newSQLiteExecutor(t)

	_, err := e.loader.Execute(ctx, `CREATE TABLE plain (name TEXT, age INTEGER)`)
	require.NoError(t, err)
	_, err = e.loader.Execute(ctx, `INSERT INTO plain VALUES ('a', 30), ('b', 40), ('c', NULL)`)
	require.NoError(t, err)

	out, err := e.Select(ctx, sqlbuilder.NewSelect("plain"))
	require.NoError(t, err)

	assert.Equal(t, []value.Value{value.I64(0), value.I64(1), value.I64(2)}, out.Index().Values())
	assert.Equal(t, []string{"name", "age"}, out.ColumnNames())
	age, _ := out.Column("age")
	assert.Equal(t, []value.Value{value.I64(30), value.I64(40), value.Null{}}, age.Values())
}

func TestSelectSkipsPrimaryKeyOnRequest(t *testing.T) {
	e, ctx := newSQLiteExecutor(t)

	_, err := e.Save(ctx, "people", people(t, []int64{4, 5}, []string{"a", "b"}), sqlbuilder.FailIfExists)
	require.NoError(t, err)

	out, err := e.Select(ctx, sqlbuilder.NewSelect("people").WithColumns("name").WithPrimaryKey(false))
	require.NoError(t, err)
	assert.Equal(t, columnar.DefaultIndexName, out.IndexField().Name)
	assert.Equal(t, []value.Value{value.I64(0), value.I64(1)}, out.Index().Values())
}

func TestSelectEmptyResult(t *testing.T) {
	e, ctx := newSQLiteExecutor(t)

	_, err := e.Save(ctx, "people", people(t, []int64{1}, []string{"a"}), sqlbuilder.FailIfExists)
	require.NoError(t, err)

	out, err := e.Select(ctx, sqlbuilder.NewSelect("people").
		WithColumns("name", "score").
		Where(sqlbuilder.Where("name", sqlbuilder.Equal(value.String("nobody")))))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Height())
	assert.Equal(t, []string{"name", "score"}, out.ColumnNames())
}

func TestDelete(t *testing.T) {
	e, ctx := newSQLiteExecutor(t)

	_, err := e.Save(ctx, "people", people(t, []int64{1, 2, 3}, []string{"a", "b", "a"}), sqlbuilder.FailIfExists)
	require.NoError(t, err)

	res, err := e.Delete(ctx, sqlbuilder.NewDelete("people", sqlbuilder.Where("name", sqlbuilder.Equal(value.String("a")))))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.RowsAffected)

	out := selectAll(t, e, ctx, "people")
	assert.Equal(t, []string{"b"}, names(t, out))
}

func TestIntrospection(t *testing.T) {
	e, ctx := newSQLiteExecutor(t)

	_, err := e.Save(ctx, "people", people(t, []int64{1, 2}, []string{"a", "b"}), sqlbuilder.FailIfExists)
	require.NoError(t, err)

	pk, err := e.GetPrimaryKey(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, "id", pk)

	schema, err := e.GetTableSchema(ctx, "people")
	require.NoError(t, err)
	require.Len(t, schema, 3)
	assert.Equal(t, sqlbuilder.TableSchema{Name: "id", Dtype: value.KindI64, IsNullable: true}, schema[0])
	assert.Equal(t, sqlbuilder.TableSchema{Name: "name", Dtype: value.KindString, IsNullable: true}, schema[1])
	assert.Equal(t, sqlbuilder.TableSchema{Name: "score", Dtype: value.KindF64, IsNullable: true}, schema[2])

	constraints, err := e.GetTableConstraints(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, []sqlbuilder.TableConstraint{{Name: "id", Type: sqlbuilder.ConstraintPrimaryKey}}, constraints)

	ids, err := e.GetExistingIDs(ctx, "people", people(t, []int64{2, 3}, []string{"x", "y"}).Index())
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.I64(2)}, ids)

	exists, err := e.TableExists(ctx, "people")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = e.GetPrimaryKey(ctx, "missing")
	testutil.RequireErrorType(t, err, tabulaerrors.ErrorTypeIndexNotFound)
}

func TestExistingIDsConvertToIndexKind(t *testing.T) {
	e, ctx := newSQLiteExecutor(t)

	tbl, err := columnar.FromRows([]columnar.Row{
		columnar.NewRow(value.I32(1), value.String("a")),
		columnar.NewRow(value.I32(2), value.String("b")),
	})
	require.NoError(t, err)
	_, err = e.Save(ctx, "narrow", tbl, sqlbuilder.FailIfExists)
	require.NoError(t, err)

	ids, err := e.GetExistingIDs(ctx, "narrow", tbl.Index())
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.I32(1), value.I32(2)}, ids)
}

func TestAlterAndDropTable(t *testing.T) {
	e, ctx := newSQLiteExecutor(t)

	_, err := e.Save(ctx, "people", people(t, []int64{1}, []string{"a"}), sqlbuilder.FailIfExists)
	require.NoError(t, err)

	_, err = e.AlterTable(ctx, sqlbuilder.AddColumn("people", "note", value.KindString, true))
	require.NoError(t, err)
	schema, err := e.GetTableSchema(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, "note", schema[len(schema)-1].Name)

	_, err = e.AlterTable(ctx, sqlbuilder.ModifyColumn("people", "note", value.KindI64, true))
	testutil.RequireErrorType(t, err, tabulaerrors.ErrorTypeCapability)

	_, err = e.DropTable(ctx, "people")
	require.NoError(t, err)
	exists, err := e.TableExists(ctx, "people")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRoundTripKinds(t *testing.T) {
	e, ctx := newSQLiteExecutor(t)

	tbl, err := columnar.FromRows([]columnar.Row{
		columnar.NewRow(value.I64(1), value.Bool(true), value.I16(-7), value.NewDate(2016, 1, 8), value.Bytes{0xca, 0xfe}),
		columnar.NewRow(value.I64(2), value.Bool(false), value.I16(300), value.NewDate(2020, 2, 29), value.Null{}),
	})
	require.NoError(t, err)
	require.NoError(t, tbl.SetColumnNames([]string{"flag", "small", "day", "blob"}))
	tbl.Index().Rename("id")

	_, err = e.Save(ctx, "kinds", tbl, sqlbuilder.FailIfExists)
	require.NoError(t, err)

	out := selectAll(t, e, ctx, "kinds")
	assert.Equal(t, tbl.Rows(), out.Rows())
}
