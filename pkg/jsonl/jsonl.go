// Package jsonl writes JSON lines output with pooled buffers.
package jsonl

import (
	"bytes"
	"io"
	"math"
	"sync"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/value"
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// Writer emits one JSON document per line. Not safe for concurrent use.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write encodes v followed by a newline.
func (w *Writer) Write(v interface{}) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	enc := gojson.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	// Encode appends the newline.
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.w.Write(buf.Bytes())
	return err
}

// WriteTable prints one object per row and consumes t. Keys follow column
// order with a named index first; the positional default index is omitted.
func (w *Writer) WriteTable(t *columnar.Table) error {
	indexName := t.Index().Name()
	withIndex := indexName != columnar.DefaultIndexName
	fields := t.Fields()

	buf := GetBuffer()
	defer PutBuffer(buf)

	it := t.IntoIter()
	for it.Next() {
		row := it.Row()
		buf.Reset()
		buf.WriteByte('{')
		first := true
		put := func(name string, v value.Value) error {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			k, err := gojson.Marshal(name)
			if err != nil {
				return err
			}
			c, err := gojson.Marshal(Cell(v))
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(c)
			return nil
		}
		if withIndex {
			if err := put(indexName, row.Index); err != nil {
				return err
			}
		}
		for j, v := range row.Data {
			if err := put(fields[j].Name, v); err != nil {
				return err
			}
		}
		buf.WriteString("}\n")
		if _, err := w.w.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// Cell maps a value to something JSON carries without losing precision:
// decimals and temporals become strings, bytes become base64. NaN and the
// infinities become "NaN", "+Inf" and "-Inf".
func Cell(v value.Value) interface{} {
	switch x := value.OrNull(v).(type) {
	case value.Null:
		return nil
	case value.Decimal, value.Date, value.Time, value.DateTime, value.Uuid:
		return x.String()
	case value.F32:
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return x.String()
		}
		return float32(x)
	case value.F64:
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return x.String()
		}
		return float64(x)
	default:
		return value.Native(x)
	}
}
