package value

import (
	"math"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
)

// dateTimeLayouts are tried in order when parsing a string as a DateTime.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	dateLayout,
}

// Convert returns v as the given kind. Null converts to Null for every kind.
// Conversions to an integer kind succeed only when the value is exactly
// representable. Conversions to a float kind are range checked but round to
// the nearest representable value, so F64 to F32 and large integers to
// either float may lose precision. Strings parse into uuid, decimal, date,
// time and datetime. Every other pairing fails with a type mismatch.
func Convert(v Value, to Kind) (Value, error) {
	v = OrNull(v)
	from := v.Kind()
	if from == to || from == KindNull {
		return v, nil
	}

	var (
		out Value
		ok  bool
	)
	switch {
	case to.IsInteger():
		out, ok = toInteger(v, to)
	case to.IsFloat():
		out, ok = toFloat(v, to)
	case to == KindDecimal:
		out, ok = toDecimal(v)
	case to == KindBool:
		out, ok = toBool(v)
	case to == KindString:
		out, ok = toString(v)
	case to == KindUuid:
		out, ok = toUuid(v)
	case to == KindBytes:
		if s, isStr := v.(String); isStr {
			out, ok = Bytes(s), true
		}
	case to == KindDateTime, to == KindDate, to == KindTime:
		out, ok = toTemporal(v, to)
	}
	if !ok {
		return nil, tabulaerrors.TypeMismatch(to, from).WithDetail("value", v.String())
	}
	return out, nil
}

// integer decomposes an integral value into sign and magnitude.
func integer(v Value) (neg bool, i int64, u uint64, ok bool) {
	signed := func(n int64) (bool, int64, uint64, bool) {
		if n < 0 {
			return true, n, 0, true
		}
		return false, n, uint64(n), true
	}
	switch x := v.(type) {
	case Bool:
		if x {
			return false, 1, 1, true
		}
		return false, 0, 0, true
	case I8:
		return signed(int64(x))
	case I16:
		return signed(int64(x))
	case I32:
		return signed(int64(x))
	case I64:
		return signed(int64(x))
	case U8:
		return false, 0, uint64(x), true
	case U16:
		return false, 0, uint64(x), true
	case U32:
		return false, 0, uint64(x), true
	case U64:
		return false, 0, uint64(x), true
	case F32:
		return floatInteger(float64(x))
	case F64:
		return floatInteger(float64(x))
	case Decimal:
		if !x.IsInteger() {
			return false, 0, 0, false
		}
		bi := x.BigInt()
		if x.Sign() < 0 {
			if !bi.IsInt64() {
				return false, 0, 0, false
			}
			return true, bi.Int64(), 0, true
		}
		if !bi.IsUint64() {
			return false, 0, 0, false
		}
		return false, 0, bi.Uint64(), true
	case String:
		d, err := decimal.NewFromString(strings.TrimSpace(string(x)))
		if err != nil {
			return false, 0, 0, false
		}
		return integer(Decimal{d})
	}
	return false, 0, 0, false
}

func floatInteger(f float64) (bool, int64, uint64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return false, 0, 0, false
	}
	if f < 0 {
		if f < math.MinInt64 {
			return false, 0, 0, false
		}
		return true, int64(f), 0, true
	}
	if f >= math.MaxUint64 {
		return false, 0, 0, false
	}
	return false, 0, uint64(f), true
}

func fitSigned(neg bool, i int64, u uint64, lo, hi int64) (int64, bool) {
	if neg {
		return i, i >= lo
	}
	if u > uint64(hi) {
		return 0, false
	}
	return int64(u), true
}

func fitUnsigned(neg bool, u uint64, hi uint64) (uint64, bool) {
	if neg {
		return 0, false
	}
	return u, u <= hi
}

func toInteger(v Value, to Kind) (Value, bool) {
	neg, i, u, ok := integer(v)
	if !ok {
		return nil, false
	}
	switch to {
	case KindI8:
		n, ok := fitSigned(neg, i, u, math.MinInt8, math.MaxInt8)
		return I8(n), ok
	case KindI16:
		n, ok := fitSigned(neg, i, u, math.MinInt16, math.MaxInt16)
		return I16(n), ok
	case KindI32:
		n, ok := fitSigned(neg, i, u, math.MinInt32, math.MaxInt32)
		return I32(n), ok
	case KindI64:
		n, ok := fitSigned(neg, i, u, math.MinInt64, math.MaxInt64)
		return I64(n), ok
	case KindU8:
		n, ok := fitUnsigned(neg, u, math.MaxUint8)
		return U8(n), ok
	case KindU16:
		n, ok := fitUnsigned(neg, u, math.MaxUint16)
		return U16(n), ok
	case KindU32:
		n, ok := fitUnsigned(neg, u, math.MaxUint32)
		return U32(n), ok
	case KindU64:
		n, ok := fitUnsigned(neg, u, math.MaxUint64)
		return U64(n), ok
	}
	return nil, false
}

func asFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case F32:
		return float64(x), true
	case F64:
		return float64(x), true
	case Decimal:
		f, _ := x.Float64()
		return f, true
	case String:
		d, err := decimal.NewFromString(strings.TrimSpace(string(x)))
		if err != nil {
			return 0, false
		}
		f, _ := d.Float64()
		return f, true
	}
	neg, i, u, ok := integer(v)
	if !ok {
		return 0, false
	}
	if neg {
		return float64(i), true
	}
	return float64(u), true
}

func toFloat(v Value, to Kind) (Value, bool) {
	if _, isBool := v.(Bool); isBool {
		return nil, false
	}
	f, ok := asFloat(v)
	if !ok {
		return nil, false
	}
	if to == KindF32 {
		if !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
			return nil, false
		}
		return F32(f), true
	}
	return F64(f), true
}

func toDecimal(v Value) (Value, bool) {
	switch x := v.(type) {
	case String:
		d, err := decimal.NewFromString(strings.TrimSpace(string(x)))
		if err != nil {
			return nil, false
		}
		return Decimal{d}, true
	case Bytes:
		d, err := decimal.NewFromString(string(x))
		if err != nil {
			return nil, false
		}
		return Decimal{d}, true
	case F32:
		return Decimal{decimal.NewFromFloat32(float32(x))}, true
	case F64:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return nil, false
		}
		return Decimal{decimal.NewFromFloat(float64(x))}, true
	case Bool:
		return nil, false
	}
	neg, i, u, ok := integer(v)
	if !ok {
		return nil, false
	}
	if neg {
		return Decimal{decimal.NewFromInt(i)}, true
	}
	return Decimal{decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0)}, true
}

func toBool(v Value) (Value, bool) {
	if s, ok := v.(String); ok {
		switch strings.ToLower(strings.TrimSpace(string(s))) {
		case "true", "t", "1":
			return Bool(true), true
		case "false", "f", "0":
			return Bool(false), true
		}
		return nil, false
	}
	if !v.Kind().IsInteger() {
		return nil, false
	}
	neg, _, u, _ := integer(v)
	if neg || u > 1 {
		return nil, false
	}
	return Bool(u == 1), true
}

func toString(v Value) (Value, bool) {
	switch x := v.(type) {
	case Bytes:
		if !utf8.Valid(x) {
			return nil, false
		}
		return String(x), true
	case Uuid, Decimal, Date, Time, DateTime:
		return String(x.String()), true
	}
	return nil, false
}

func toUuid(v Value) (Value, bool) {
	switch x := v.(type) {
	case String:
		u, err := uuid.Parse(strings.TrimSpace(string(x)))
		if err != nil {
			return nil, false
		}
		return Uuid(u), true
	case Bytes:
		if len(x) == 16 {
			u, err := uuid.FromBytes(x)
			return Uuid(u), err == nil
		}
		u, err := uuid.ParseBytes(x)
		return Uuid(u), err == nil
	}
	return nil, false
}

func toTemporal(v Value, to Kind) (Value, bool) {
	var t time.Time
	switch x := v.(type) {
	case String:
		parsed, ok := parseTemporal(strings.TrimSpace(string(x)), to)
		if !ok {
			return nil, false
		}
		t = parsed
	case Bytes:
		parsed, ok := parseTemporal(string(x), to)
		if !ok {
			return nil, false
		}
		t = parsed
	case DateTime:
		if to == KindTime {
			return nil, false
		}
		t = x.Time
	case Date:
		if to == KindTime {
			return nil, false
		}
		t = x.Time
	default:
		return nil, false
	}
	switch to {
	case KindDate:
		y, m, d := t.Date()
		return NewDate(y, m, d), true
	case KindTime:
		return Time{t}, true
	}
	return DateTime{t}, true
}

func parseTemporal(s string, to Kind) (time.Time, bool) {
	if to == KindTime {
		t, err := time.Parse(timeLayout, s)
		return t, err == nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
