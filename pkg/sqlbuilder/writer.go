package sqlbuilder

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/ajitpratap0/tabula/pkg/value"
)

const (
	smallWriter = 1024
	largeWriter = 64 * 1024
)

var writerPool = sync.Pool{
	New: func() interface{} {
		return &writer{buf: make([]byte, 0, smallWriter)}
	},
}

// writer accumulates one statement. Identifiers and literals are escaped for
// the writer's dialect.
type writer struct {
	buf     []byte
	dialect Dialect
}

func newWriter(d Dialect) *writer {
	w := writerPool.Get().(*writer)
	w.buf = w.buf[:0]
	w.dialect = d
	return w
}

// close returns the writer to the pool. Oversized buffers are dropped.
func (w *writer) close() {
	if cap(w.buf) > largeWriter {
		return
	}
	writerPool.Put(w)
}

// finish returns the statement and releases the writer.
func (w *writer) finish() string {
	s := string(w.buf)
	w.close()
	return s
}

func (w *writer) query(s string) *writer {
	w.buf = append(w.buf, s...)
	return w
}

func (w *writer) space() *writer {
	w.buf = append(w.buf, ' ')
	return w
}

func (w *writer) comma(i int) *writer {
	if i > 0 {
		w.buf = append(w.buf, ", "...)
	}
	return w
}

func (w *writer) ident(name string) *writer {
	q := byte('"')
	if w.dialect == MySQL {
		q = '`'
	}
	w.buf = append(w.buf, q)
	for i := 0; i < len(name); i++ {
		if name[i] == q {
			w.buf = append(w.buf, q)
		}
		w.buf = append(w.buf, name[i])
	}
	w.buf = append(w.buf, q)
	return w
}

func (w *writer) str(s string) *writer {
	w.buf = append(w.buf, '\'')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\'':
			w.buf = append(w.buf, "''"...)
		case c == '\\' && w.dialect == MySQL:
			w.buf = append(w.buf, `\\`...)
		default:
			w.buf = append(w.buf, c)
		}
	}
	w.buf = append(w.buf, '\'')
	return w
}

func (w *writer) uint(n uint64) *writer {
	w.buf = strconv.AppendUint(w.buf, n, 10)
	return w
}

// float renders non-finite values as NULL; no dialect has a literal for them.
func (w *writer) float(f float64, bits int) *writer {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return w.query("NULL")
	}
	w.buf = strconv.AppendFloat(w.buf, f, 'g', -1, bits)
	return w
}

// literal renders v inline.
func (w *writer) literal(v value.Value) *writer {
	switch x := value.OrNull(v).(type) {
	case value.Null:
		return w.query("NULL")
	case value.Bool:
		if w.dialect == SQLite {
			if x {
				return w.query("1")
			}
			return w.query("0")
		}
		if x {
			return w.query("TRUE")
		}
		return w.query("FALSE")
	case value.I8, value.I16, value.I32, value.I64,
		value.U8, value.U16, value.U32, value.U64:
		return w.query(x.String())
	case value.F32:
		return w.float(float64(x), 32)
	case value.F64:
		return w.float(float64(x), 64)
	case value.Decimal:
		return w.query(x.Decimal.String())
	case value.String:
		return w.str(string(x))
	case value.Date:
		return w.str(x.String())
	case value.Time:
		return w.str(x.Format("15:04:05.999999"))
	case value.DateTime:
		return w.str(x.UTC().Format("2006-01-02 15:04:05.999999"))
	case value.Uuid:
		return w.str(x.String())
	case value.Bytes:
		h := hex.EncodeToString(x)
		if w.dialect == Postgres {
			return w.query(`'\x`).query(h).query("'::bytea")
		}
		return w.query("X'").query(strings.ToUpper(h)).query("'")
	}
	return w.query("NULL")
}
