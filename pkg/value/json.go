package value

import (
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
)

// Tagged carries a Value through JSON as {"kind":"i32","value":10}. The
// kind tag keeps sized integers and structured strings distinguishable after
// a round trip.
type Tagged struct {
	Value Value
}

type taggedWire struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (t Tagged) MarshalJSON() ([]byte, error) {
	v := OrNull(t.Value)
	wire := taggedWire{Kind: v.Kind().String()}
	if v.Kind() != KindNull {
		var payload any
		switch x := v.(type) {
		case Decimal, Date, Time, DateTime, Uuid:
			payload = x.String()
		case Bytes:
			payload = []byte(x)
		case F32:
			payload = floatPayload(float64(x), 32)
		case F64:
			payload = floatPayload(float64(x), 64)
		default:
			payload = Native(x)
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		wire.Value = raw
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tagged) UnmarshalJSON(data []byte) error {
	var wire taggedWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	kind, ok := ParseKind(wire.Kind)
	if !ok {
		return tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "unknown value kind %q", wire.Kind)
	}
	if kind == KindNull {
		t.Value = Null{}
		return nil
	}
	if len(wire.Value) == 0 {
		return tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "missing value for kind %s", kind)
	}

	v, err := decodeTagged(kind, wire.Value)
	if err != nil {
		return tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeValidation, "invalid "+kind.String()+" value")
	}
	t.Value = v
	return nil
}

func decodeTagged(kind Kind, raw json.RawMessage) (Value, error) {
	switch kind {
	case KindBool:
		var b bool
		err := json.Unmarshal(raw, &b)
		return Bool(b), err
	case KindI8, KindI16, KindI32, KindI64:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		return Convert(I64(n), kind)
	case KindU8, KindU16, KindU32, KindU64:
		var n uint64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		return Convert(U64(n), kind)
	case KindF32:
		f, err := decodeFloat(raw, 32)
		return F32(f), err
	case KindF64:
		f, err := decodeFloat(raw, 64)
		return F64(f), err
	case KindBytes:
		var b []byte
		err := json.Unmarshal(raw, &b)
		return Bytes(b), err
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	switch kind {
	case KindString:
		return String(s), nil
	case KindDecimal:
		d, err := decimal.NewFromString(s)
		return Decimal{d}, err
	case KindDate:
		t, err := time.Parse(dateLayout, s)
		return Date{t}, err
	case KindTime:
		t, err := time.Parse(timeLayout, s)
		return Time{t}, err
	case KindDateTime:
		t, err := time.Parse(time.RFC3339Nano, s)
		return DateTime{t}, err
	case KindUuid:
		u, err := uuid.Parse(s)
		return Uuid(u), err
	}
	return nil, tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "unsupported kind %s", kind)
}

// floatPayload keeps finite floats as JSON numbers. NaN and the infinities
// have no JSON number form and travel as "NaN", "+Inf" and "-Inf".
func floatPayload(f float64, bits int) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}
	if bits == 32 {
		return float32(f)
	}
	return f
}

func decodeFloat(raw json.RawMessage, bits int) (float64, error) {
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		return strconv.ParseFloat(s, bits)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}

// TaggedSlice wraps values for JSON encoding.
func TaggedSlice(values []Value) []Tagged {
	out := make([]Tagged, len(values))
	for i, v := range values {
		out[i] = Tagged{Value: v}
	}
	return out
}

// Untag unwraps decoded values.
func Untag(tagged []Tagged) []Value {
	if len(tagged) == 0 {
		return nil
	}
	out := make([]Value, len(tagged))
	for i, t := range tagged {
		out[i] = OrNull(t.Value)
	}
	return out
}
