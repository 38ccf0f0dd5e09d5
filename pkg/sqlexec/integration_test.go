package sqlexec

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/sqlbuilder"
	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
	"github.com/ajitpratap0/tabula/pkg/testutil"
	"github.com/ajitpratap0/tabula/pkg/value"
)

// ServerSuite runs the save strategies against a live MySQL or Postgres
// server.
type ServerSuite struct {
	testutil.IntegrationTestSuite
	executor *Executor
	table    string
}

func (s *ServerSuite) SetupTest() {
	s.executor = NewExecutor(s.ConnString, WithLogger(testutil.TestLogger(s.T())))
	s.Require().NoError(s.executor.Connect(s.Context()))
	s.table = fmt.Sprintf("tabula_it_%d", time.Now().UnixNano())
}

func (s *ServerSuite) TearDownTest() {
	if exists, err := s.executor.TableExists(s.Context(), s.table); err == nil && exists {
		_, _ = s.executor.DropTable(s.Context(), s.table)
	}
	s.Require().NoError(s.executor.Disconnect(s.Context()))
}

func (s *ServerSuite) frame(ids []int32, names []string) *columnar.Table {
	rows := make([]columnar.Row, len(ids))
	for i, id := range ids {
		rows[i] = columnar.NewRow(value.I32(id), value.String(names[i]))
	}
	tbl, err := columnar.FromRows(rows)
	s.Require().NoError(err)
	s.Require().NoError(tbl.SetColumnNames([]string{"name"}))
	tbl.Index().Rename("id")
	return tbl
}

func (s *ServerSuite) TestUpsert() {
	ctx := s.Context()
	_, err := s.executor.Save(ctx, s.table, s.frame([]int32{10, 11, 12}, []string{"a", "b", "c"}), sqlbuilder.FailIfExists)
	s.Require().NoError(err)

	res, err := s.executor.Save(ctx, s.table, s.frame([]int32{11, 13}, []string{"B", "D"}), sqlbuilder.Upsert)
	s.Require().NoError(err)
	s.Equal(uint64(2), res.RowsAffected)

	out, err := s.executor.Select(ctx, sqlbuilder.NewSelect(s.table).OrderBy(sqlbuilder.Asc("id")))
	s.Require().NoError(err)
	s.Equal([]value.Value{value.I32(10), value.I32(11), value.I32(12), value.I32(13)}, out.Index().Values())
}

func (s *ServerSuite) TestFailIfExists() {
	ctx := s.Context()
	_, err := s.executor.Save(ctx, s.table, s.frame([]int32{1}, []string{"a"}), sqlbuilder.FailIfExists)
	s.Require().NoError(err)

	_, err = s.executor.Save(ctx, s.table, s.frame([]int32{2}, []string{"b"}), sqlbuilder.FailIfExists)
	s.True(tabulaerrors.IsType(err, tabulaerrors.ErrorTypeTableExists))
}

func (s *ServerSuite) TestSchemaAndPrimaryKey() {
	ctx := s.Context()
	_, err := s.executor.Save(ctx, s.table, s.frame([]int32{1}, []string{"a"}), sqlbuilder.Replace)
	s.Require().NoError(err)

	pk, err := s.executor.GetPrimaryKey(ctx, s.table)
	s.Require().NoError(err)
	s.Equal("id", pk)

	schema, err := s.executor.GetTableSchema(ctx, s.table)
	s.Require().NoError(err)
	s.Require().Len(schema, 2)
	s.Equal(value.KindI32, schema[0].Dtype)
	s.Equal(value.KindString, schema[1].Dtype)
}

func TestMySQLIntegration(t *testing.T) {
	conn := testutil.ConnStringFromEnv(t, testutil.MySQLEnv)
	s := new(ServerSuite)
	s.ConnString = conn
	suite.Run(t, s)
}

func TestPostgresIntegration(t *testing.T) {
	conn := testutil.ConnStringFromEnv(t, testutil.PostgresEnv)
	s := new(ServerSuite)
	s.ConnString = conn
	suite.Run(t, s)
}
