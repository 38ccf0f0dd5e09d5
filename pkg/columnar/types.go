package columnar

import (
	"fmt"

	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
	"github.com/ajitpratap0/tabula/pkg/value"
)

// DefaultIndexName is the name given to generated and extracted index series.
const DefaultIndexName = "index"

// Field describes one series of a table.
type Field struct {
	Name string
	Kind value.Kind
}

func (f Field) String() string {
	return fmt.Sprintf("%s: %s", f.Name, f.Kind)
}

// Series is a named, single-kind sequence of values. Null entries are allowed
// in a series of any kind. A series whose entries are all null has KindNull
// and takes the kind of whatever it is concatenated with.
type Series struct {
	name   string
	kind   value.Kind
	values []value.Value
}

// NewSeries builds a series and infers its kind from the first non-null
// value. Every other non-null value must share that kind.
func NewSeries(name string, values []value.Value) (*Series, error) {
	kind := value.KindNull
	for _, v := range values {
		if !value.IsNull(v) {
			kind = v.Kind()
			break
		}
	}
	return NewSeriesOfKind(name, kind, values)
}

// NewSeriesOfKind builds a series of a fixed kind, used when the kind is known
// up front (for example an empty query result).
func NewSeriesOfKind(name string, kind value.Kind, values []value.Value) (*Series, error) {
	vals := make([]value.Value, len(values))
	for i, v := range values {
		v = value.OrNull(v)
		if !value.IsNull(v) && v.Kind() != kind {
			return nil, tabulaerrors.TypeMismatch(kind, v.Kind()).
				WithDetail("series", name).
				WithDetail("position", i)
		}
		vals[i] = v
	}
	return &Series{name: name, kind: kind, values: vals}, nil
}

// DefaultIndex returns the dense sequential index 0..n-1.
func DefaultIndex(n int) *Series {
	vals := make([]value.Value, n)
	for i := range vals {
		vals[i] = value.I64(i)
	}
	return &Series{name: DefaultIndexName, kind: value.KindI64, values: vals}
}

func (s *Series) Name() string       { return s.name }
func (s *Series) Kind() value.Kind   { return s.kind }
func (s *Series) Len() int           { return len(s.values) }
func (s *Series) Field() Field       { return Field{Name: s.name, Kind: s.kind} }
func (s *Series) Rename(name string) { s.name = name }

// Values exposes the backing slice. Callers must not modify it.
func (s *Series) Values() []value.Value { return s.values }

// Get returns the value at position i.
func (s *Series) Get(i int) (value.Value, error) {
	if i < 0 || i >= len(s.values) {
		return nil, tabulaerrors.OutOfBounds(i, len(s.values))
	}
	return s.values[i], nil
}

// Find returns the first position holding a value equal to v.
func (s *Series) Find(v value.Value) (int, bool) {
	for i, x := range s.values {
		if value.Equal(x, v) {
			return i, true
		}
	}
	return -1, false
}

// Slice returns a copy of the positions [offset, offset+length), clamped to
// the series bounds.
func (s *Series) Slice(offset, length int) *Series {
	lo, hi := clamp(offset, length, len(s.values))
	vals := make([]value.Value, hi-lo)
	copy(vals, s.values[lo:hi])
	return &Series{name: s.name, kind: s.kind, values: vals}
}

// Concat returns s followed by other. Kinds must agree unless one side is
// entirely null.
func (s *Series) Concat(other *Series) (*Series, error) {
	kind := s.kind
	switch {
	case other.kind == value.KindNull:
	case kind == value.KindNull:
		kind = other.kind
	case kind != other.kind:
		return nil, tabulaerrors.TypeMismatch(kind, other.kind).WithDetail("series", s.name)
	}
	vals := make([]value.Value, 0, len(s.values)+len(other.values))
	vals = append(vals, s.values...)
	vals = append(vals, other.values...)
	return &Series{name: s.name, kind: kind, values: vals}, nil
}

// Take returns the values at the given positions, in order.
func (s *Series) Take(positions []int) *Series {
	vals := make([]value.Value, len(positions))
	for i, p := range positions {
		vals[i] = s.values[p]
	}
	return &Series{name: s.name, kind: s.kind, values: vals}
}

func clamp(offset, length, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := offset + length
	if length < 0 || end > n {
		end = n
	}
	return offset, end
}
