package value

import (
	"bytes"
	"cmp"

	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
)

// Compare orders two values of the same kind. Values of different kinds are
// not comparable and yield a type mismatch error; Null only compares equal to
// Null.
func Compare(a, b Value) (int, error) {
	a, b = OrNull(a), OrNull(b)
	if a.Kind() != b.Kind() {
		return 0, tabulaerrors.TypeMismatch(a.Kind(), b.Kind())
	}

	switch x := a.(type) {
	case Null:
		return 0, nil
	case Bool:
		y := b.(Bool)
		switch {
		case x == y:
			return 0, nil
		case !bool(x):
			return -1, nil
		default:
			return 1, nil
		}
	case I8:
		return cmp.Compare(x, b.(I8)), nil
	case I16:
		return cmp.Compare(x, b.(I16)), nil
	case I32:
		return cmp.Compare(x, b.(I32)), nil
	case I64:
		return cmp.Compare(x, b.(I64)), nil
	case U8:
		return cmp.Compare(x, b.(U8)), nil
	case U16:
		return cmp.Compare(x, b.(U16)), nil
	case U32:
		return cmp.Compare(x, b.(U32)), nil
	case U64:
		return cmp.Compare(x, b.(U64)), nil
	case F32:
		return cmp.Compare(x, b.(F32)), nil
	case F64:
		return cmp.Compare(x, b.(F64)), nil
	case String:
		return cmp.Compare(x, b.(String)), nil
	case Decimal:
		return x.Cmp(b.(Decimal).Decimal), nil
	case Date:
		return cmp.Compare(x.String(), b.(Date).String()), nil
	case Time:
		return cmp.Compare(clockNanos(x), clockNanos(b.(Time))), nil
	case DateTime:
		return x.Compare(b.(DateTime).Time), nil
	case Uuid:
		y := b.(Uuid)
		return bytes.Compare(x[:], y[:]), nil
	case Bytes:
		return bytes.Compare(x, b.(Bytes)), nil
	}
	return 0, tabulaerrors.TypeMismatch(b.Kind(), a.Kind())
}

// Equal reports whether a and b are of the same kind and compare equal.
func Equal(a, b Value) bool {
	c, err := Compare(a, b)
	return err == nil && c == 0
}

// Less reports whether a orders before b. Mismatched kinds order by kind so
// that sorting a mixed slice is still deterministic.
func Less(a, b Value) bool {
	c, err := Compare(a, b)
	if err != nil {
		return OrNull(a).Kind() < OrNull(b).Kind()
	}
	return c < 0
}

func clockNanos(t Time) int64 {
	h, m, s := t.Clock()
	return ((int64(h)*60+int64(m))*60+int64(s))*1e9 + int64(t.Nanosecond())
}
