package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
)

// From maps a Go value produced by a database driver or a caller into a
// Value. A Value passes through unchanged; nil becomes Null.
func From(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case int8:
		return I8(v), nil
	case int16:
		return I16(v), nil
	case int32:
		return I32(v), nil
	case int64:
		return I64(v), nil
	case int:
		return I64(v), nil
	case uint8:
		return U8(v), nil
	case uint16:
		return U16(v), nil
	case uint32:
		return U32(v), nil
	case uint64:
		return U64(v), nil
	case uint:
		return U64(v), nil
	case float32:
		return F32(v), nil
	case float64:
		return F64(v), nil
	case string:
		return String(v), nil
	case []byte:
		return Bytes(append([]byte(nil), v...)), nil
	case decimal.Decimal:
		return Decimal{v}, nil
	case time.Time:
		return DateTime{v}, nil
	case uuid.UUID:
		return Uuid(v), nil
	case [16]byte:
		return Uuid(v), nil
	case *string:
		if v == nil {
			return Null{}, nil
		}
		return String(*v), nil
	case *int64:
		if v == nil {
			return Null{}, nil
		}
		return I64(*v), nil
	case *float64:
		if v == nil {
			return Null{}, nil
		}
		return F64(*v), nil
	case *bool:
		if v == nil {
			return Null{}, nil
		}
		return Bool(*v), nil
	case *time.Time:
		if v == nil {
			return Null{}, nil
		}
		return DateTime{*v}, nil
	}
	return nil, tabulaerrors.Newf(tabulaerrors.ErrorTypeTypeMismatch, "unsupported go type %T", x).
		WithDetail("go_type", fmt.Sprintf("%T", x))
}

// MustFrom is From for values known to be supported; it panics otherwise.
// Intended for tests and literals.
func MustFrom(x any) Value {
	v, err := From(x)
	if err != nil {
		panic(err)
	}
	return v
}

// Native returns the plain Go representation of v, the inverse of From.
func Native(v Value) any {
	switch x := OrNull(v).(type) {
	case Null:
		return nil
	case Bool:
		return bool(x)
	case I8:
		return int8(x)
	case I16:
		return int16(x)
	case I32:
		return int32(x)
	case I64:
		return int64(x)
	case U8:
		return uint8(x)
	case U16:
		return uint16(x)
	case U32:
		return uint32(x)
	case U64:
		return uint64(x)
	case F32:
		return float32(x)
	case F64:
		return float64(x)
	case String:
		return string(x)
	case Decimal:
		return x.Decimal
	case Date:
		return x.Time
	case Time:
		return x.Time
	case DateTime:
		return x.Time
	case Uuid:
		return uuid.UUID(x)
	case Bytes:
		return []byte(x)
	}
	return nil
}

// Infer guesses the narrowest reasonable kind for a textual cell, as found in
// CSV input. The empty string is Null.
func Infer(s string) Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Null{}
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "null":
		return Null{}
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return I64(i)
	}
	if u, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
		return U64(u)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return F64(f)
	}
	if u, err := uuid.Parse(trimmed); err == nil && len(trimmed) == 36 {
		return Uuid(u)
	}
	if t, err := time.Parse(dateLayout, trimmed); err == nil {
		return Date{t}
	}
	for _, layout := range dateTimeLayouts[:len(dateTimeLayouts)-1] {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return DateTime{t}
		}
	}
	return String(s)
}
