package sqlexec

import (
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabula/pkg/sqlbuilder"
	"github.com/ajitpratap0/tabula/pkg/value"
)

func TestDecodeSQL(t *testing.T) {
	ts := time.Date(2016, 1, 8, 9, 10, 11, 0, time.UTC)
	tests := []struct {
		name    string
		dialect sqlbuilder.Dialect
		raw     any
		typ     string
		want    value.Value
	}{
		{"null", sqlbuilder.MySQL, nil, "VARCHAR", value.Null{}},
		{"mysql text", sqlbuilder.MySQL, []byte("abc"), "VARCHAR", value.String("abc")},
		{"mysql decimal", sqlbuilder.MySQL, []byte("12.50"), "DECIMAL", value.NewDecimal(decimal.RequireFromString("12.50"))},
		{"mysql unsigned", sqlbuilder.MySQL, int64(7), "UNSIGNED INT", value.U32(7)},
		{"mysql unsigned tinyint", sqlbuilder.MySQL, []byte("42"), "UNSIGNED TINYINT", value.U8(42)},
		{"mysql unsigned smallint", sqlbuilder.MySQL, []byte("42"), "UNSIGNED SMALLINT", value.U16(42)},
		{"mysql unsigned mediumint", sqlbuilder.MySQL, []byte("42"), "UNSIGNED MEDIUMINT", value.U32(42)},
		{"mysql unsigned int text", sqlbuilder.MySQL, []byte("42"), "UNSIGNED INT", value.U32(42)},
		{"mysql unsigned bigint", sqlbuilder.MySQL, []byte("18446744073709551615"), "UNSIGNED BIGINT", value.U64(18446744073709551615)},
		{"mysql unsigned bigint native", sqlbuilder.MySQL, uint64(42), "UNSIGNED BIGINT", value.U64(42)},
		{"mysql mediumint", sqlbuilder.MySQL, []byte("-42"), "MEDIUMINT", value.I32(-42)},
		{"mysql tinyint", sqlbuilder.MySQL, int64(-3), "TINYINT", value.I8(-3)},
		{"mysql time text", sqlbuilder.MySQL, []byte("09:10:11"), "TIME", value.NewTime(9, 10, 11, 0)},
		{"mysql blob", sqlbuilder.MySQL, []byte{0xff, 0x00}, "BLOB", value.Bytes{0xff, 0x00}},
		{"mysql date", sqlbuilder.MySQL, ts, "DATE", value.NewDate(2016, 1, 8)},
		{"mysql datetime", sqlbuilder.MySQL, ts, "DATETIME", value.NewDateTime(ts)},
		{"sqlite integer", sqlbuilder.SQLite, int64(1 << 40), "INTEGER", value.I64(1 << 40)},
		{"sqlite bool", sqlbuilder.SQLite, true, "BOOLEAN", value.Bool(true)},
		{"sqlite untyped", sqlbuilder.SQLite, int64(1), "", value.I64(1)},
		{"sqlite real", sqlbuilder.SQLite, float64(1.5), "REAL", value.F32(1.5)},
		{"out of range keeps raw", sqlbuilder.SQLite, int64(1000), "TINYINT", value.I64(1000)},
		{"unparseable keeps text", sqlbuilder.SQLite, "abc", "INTEGER", value.String("abc")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeSQL(tt.dialect, tt.raw, tt.typ))
		})
	}
}

func TestDecodePG(t *testing.T) {
	n := pgtype.Numeric{Int: big.NewInt(1250), Exp: -2, Valid: true}
	got := decodePG(n, pgtype.NumericOID)
	require.IsType(t, value.Decimal{}, got)
	assert.Equal(t, "12.5", got.String())

	assert.Equal(t, value.Null{}, decodePG(pgtype.Numeric{NaN: true, Valid: true}, pgtype.NumericOID))
	assert.Equal(t, value.NewTime(9, 10, 11, 5000),
		decodePG(pgtype.Time{Microseconds: (9*3600+10*60+11)*1_000_000 + 5, Valid: true}, pgtype.TimeOID))

	day := time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, value.NewDate(2020, 2, 29), decodePG(day, pgtype.DateOID))
	assert.Equal(t, value.NewDateTime(day), decodePG(day, pgtype.TimestampOID))

	id := [16]byte{1, 2, 3}
	assert.Equal(t, value.Uuid(id), decodePG(id, pgtype.UUIDOID))
	assert.Equal(t, value.I32(5), decodePG(int32(5), pgtype.Int4OID))
	assert.Equal(t, value.Null{}, decodePG(nil, pgtype.TextOID))
}

func TestConform(t *testing.T) {
	row := []value.Value{value.I64(3), value.Null{}, value.String("x")}
	require.NoError(t, conform(row, []value.Kind{value.KindI32, value.KindString, value.KindString}))
	assert.Equal(t, value.I32(3), row[0])

	err := conform([]value.Value{value.String("x")}, []value.Kind{value.KindI64})
	assert.Error(t, err)
	err = conform([]value.Value{value.String("x")}, []value.Kind{value.KindString, value.KindString})
	assert.Error(t, err)
}
