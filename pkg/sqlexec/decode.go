package sqlexec

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/tabula/pkg/sqlbuilder"
	"github.com/ajitpratap0/tabula/pkg/value"
)

// decodeSQL maps a database/sql cell to a Value. typ is the column's
// database type name and decides the kind when the driver hands back text
// or a widened integer. A cell that does not parse as its declared kind is
// kept as the driver returned it.
func decodeSQL(d sqlbuilder.Dialect, raw any, typ string) value.Value {
	kind := d.KindFromSQLType(typ)
	switch x := raw.(type) {
	case nil:
		return value.Null{}
	case []byte:
		if kind == value.KindBytes || (kind == value.KindNull && !utf8.Valid(x)) {
			return value.Bytes(append([]byte(nil), x...))
		}
		return decodeText(string(x), kind)
	case string:
		return decodeText(x, kind)
	case time.Time:
		return decodeTime(x, kind)
	}

	v, err := value.From(raw)
	if err != nil {
		return value.String(fmt.Sprint(raw))
	}
	if kind == value.KindNull || kind == v.Kind() || !(kind.IsNumeric() || kind == value.KindBool) {
		return v
	}
	if converted, err := value.Convert(v, kind); err == nil {
		return converted
	}
	return v
}

func decodeText(s string, kind value.Kind) value.Value {
	v := value.String(s)
	if kind == value.KindNull || kind == value.KindString {
		return v
	}
	if converted, err := value.Convert(v, kind); err == nil {
		return converted
	}
	return v
}

func decodeTime(t time.Time, kind value.Kind) value.Value {
	switch kind {
	case value.KindDate:
		y, m, d := t.Date()
		return value.NewDate(y, m, d)
	case value.KindTime:
		return value.Time{Time: t}
	}
	return value.NewDateTime(t)
}

// decodePG maps a pgx native value to a Value. oid is the column's type OID.
func decodePG(raw any, oid uint32) value.Value {
	switch x := raw.(type) {
	case nil:
		return value.Null{}
	case pgtype.Numeric:
		if !x.Valid || x.NaN || x.InfinityModifier != pgtype.Finite || x.Int == nil {
			return value.Null{}
		}
		return value.NewDecimal(decimal.NewFromBigInt(x.Int, x.Exp))
	case pgtype.Time:
		if !x.Valid {
			return value.Null{}
		}
		us := x.Microseconds
		return value.NewTime(int(us/3_600_000_000), int(us/60_000_000%60), int(us/1_000_000%60), int(us%1_000_000)*1000)
	case time.Time:
		if oid == pgtype.DateOID {
			return decodeTime(x, value.KindDate)
		}
		return value.NewDateTime(x)
	case []byte:
		return value.Bytes(append([]byte(nil), x...))
	}

	v, err := value.From(raw)
	if err != nil {
		return value.String(fmt.Sprint(raw))
	}
	return v
}
