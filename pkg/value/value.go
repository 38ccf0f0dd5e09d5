// Package value defines the scalar Value model shared by tables, rows and
// query statements.
//
// Value is a closed sum type: every concrete kind is a distinct Go type in
// this package and no other package can add one. Comparisons are only defined
// between values of the same kind. Crossing kinds requires an explicit
// Convert, which range-checks numeric narrowing and parses strings into
// structured kinds.
package value

import (
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
)

// Kind identifies the concrete arm of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
	KindString
	KindDecimal
	KindDate
	KindTime
	KindDateTime
	KindUuid
	KindBytes
)

var kindNames = [...]string{
	KindNull:     "null",
	KindBool:     "bool",
	KindI8:       "i8",
	KindI16:      "i16",
	KindI32:      "i32",
	KindI64:      "i64",
	KindU8:       "u8",
	KindU16:      "u16",
	KindU32:      "u32",
	KindU64:      "u64",
	KindF32:      "f32",
	KindF64:      "f64",
	KindString:   "string",
	KindDecimal:  "decimal",
	KindDate:     "date",
	KindTime:     "time",
	KindDateTime: "datetime",
	KindUuid:     "uuid",
	KindBytes:    "bytes",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return KindNull, false
}

// MarshalText encodes a kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, ok := ParseKind(string(b))
	if !ok {
		return tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "unknown value kind %q", string(b))
	}
	*k = parsed
	return nil
}

// IsSigned reports whether k is a signed integer kind.
func (k Kind) IsSigned() bool { return k >= KindI8 && k <= KindI64 }

// IsUnsigned reports whether k is an unsigned integer kind.
func (k Kind) IsUnsigned() bool { return k >= KindU8 && k <= KindU64 }

// IsInteger reports whether k is any integer kind.
func (k Kind) IsInteger() bool { return k.IsSigned() || k.IsUnsigned() }

// IsFloat reports whether k is a floating point kind.
func (k Kind) IsFloat() bool { return k == KindF32 || k == KindF64 }

// IsNumeric reports whether k is an integer, float or decimal kind.
func (k Kind) IsNumeric() bool { return k.IsInteger() || k.IsFloat() || k == KindDecimal }

// Value is a single scalar cell.
type Value interface {
	Kind() Kind
	String() string
	sealed()
}

type (
	Null   struct{}
	Bool   bool
	I8     int8
	I16    int16
	I32    int32
	I64    int64
	U8     uint8
	U16    uint16
	U32    uint32
	U64    uint64
	F32    float32
	F64    float64
	String string
	Uuid   uuid.UUID
	Bytes  []byte
)

// Decimal is an arbitrary precision decimal number.
type Decimal struct{ decimal.Decimal }

// Date is a calendar date; the clock part of the embedded time is ignored.
type Date struct{ time.Time }

// Time is a time of day; the date part of the embedded time is ignored.
type Time struct{ time.Time }

// DateTime is an instant.
type DateTime struct{ time.Time }

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05.999999999"
)

func (Null) Kind() Kind     { return KindNull }
func (Bool) Kind() Kind     { return KindBool }
func (I8) Kind() Kind       { return KindI8 }
func (I16) Kind() Kind      { return KindI16 }
func (I32) Kind() Kind      { return KindI32 }
func (I64) Kind() Kind      { return KindI64 }
func (U8) Kind() Kind       { return KindU8 }
func (U16) Kind() Kind      { return KindU16 }
func (U32) Kind() Kind      { return KindU32 }
func (U64) Kind() Kind      { return KindU64 }
func (F32) Kind() Kind      { return KindF32 }
func (F64) Kind() Kind      { return KindF64 }
func (String) Kind() Kind   { return KindString }
func (Decimal) Kind() Kind  { return KindDecimal }
func (Date) Kind() Kind     { return KindDate }
func (Time) Kind() Kind     { return KindTime }
func (DateTime) Kind() Kind { return KindDateTime }
func (Uuid) Kind() Kind     { return KindUuid }
func (Bytes) Kind() Kind    { return KindBytes }

func (Null) String() string       { return "null" }
func (v Bool) String() string     { return strconv.FormatBool(bool(v)) }
func (v I8) String() string       { return strconv.FormatInt(int64(v), 10) }
func (v I16) String() string      { return strconv.FormatInt(int64(v), 10) }
func (v I32) String() string      { return strconv.FormatInt(int64(v), 10) }
func (v I64) String() string      { return strconv.FormatInt(int64(v), 10) }
func (v U8) String() string       { return strconv.FormatUint(uint64(v), 10) }
func (v U16) String() string      { return strconv.FormatUint(uint64(v), 10) }
func (v U32) String() string      { return strconv.FormatUint(uint64(v), 10) }
func (v U64) String() string      { return strconv.FormatUint(uint64(v), 10) }
func (v F32) String() string      { return strconv.FormatFloat(float64(v), 'g', -1, 32) }
func (v F64) String() string      { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v String) String() string   { return string(v) }
func (v Decimal) String() string  { return v.Decimal.String() }
func (v Date) String() string     { return v.Time.Format(dateLayout) }
func (v Time) String() string     { return v.Time.Format(timeLayout) }
func (v DateTime) String() string { return v.Time.UTC().Format(time.RFC3339Nano) }
func (v Uuid) String() string     { return uuid.UUID(v).String() }
func (v Bytes) String() string    { return hex.EncodeToString(v) }

func (Null) sealed()     {}
func (Bool) sealed()     {}
func (I8) sealed()       {}
func (I16) sealed()      {}
func (I32) sealed()      {}
func (I64) sealed()      {}
func (U8) sealed()       {}
func (U16) sealed()      {}
func (U32) sealed()      {}
func (U64) sealed()      {}
func (F32) sealed()      {}
func (F64) sealed()      {}
func (String) sealed()   {}
func (Decimal) sealed()  {}
func (Date) sealed()     {}
func (Time) sealed()     {}
func (DateTime) sealed() {}
func (Uuid) sealed()     {}
func (Bytes) sealed()    {}

// NewDecimal wraps d.
func NewDecimal(d decimal.Decimal) Decimal { return Decimal{d} }

// NewDate builds a calendar date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// NewTime builds a time of day.
func NewTime(hour, min, sec, nsec int) Time {
	return Time{time.Date(0, 1, 1, hour, min, sec, nsec, time.UTC)}
}

// NewDateTime wraps t.
func NewDateTime(t time.Time) DateTime { return DateTime{t} }

// IsNull reports whether v is absent or the Null arm.
func IsNull(v Value) bool {
	return v == nil || v.Kind() == KindNull
}

// OrNull maps a nil interface to Null.
func OrNull(v Value) Value {
	if v == nil {
		return Null{}
	}
	return v
}

// Key returns a string usable as a map key. Two values have the same key
// exactly when Equal reports true for them.
func Key(v Value) string {
	v = OrNull(v)
	switch x := v.(type) {
	case F32:
		if x == 0 {
			v = F32(0)
		}
	case F64:
		if x == 0 {
			v = F64(0)
		}
	}
	return v.Kind().String() + ":" + v.String()
}
