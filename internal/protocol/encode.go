package protocol

import (
	"encoding/binary"
	"unicode/utf8"
)

// Writer appends fixed-width fields to a byte slice.
type Writer struct {
	buf []byte
}

// NewWriter appends onto b, which may be nil.
func NewWriter(b []byte) *Writer {
	return &Writer{buf: b}
}

func (w *Writer) Uint8(v uint8) {
	w.buf = append(w.buf, v)
}

// Uint16 appends v big-endian.
func (w *Writer) Uint16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *Writer) Bytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *Writer) Flag(v bool) {
	if v {
		w.buf = append(w.buf, 1)
		return
	}
	w.buf = append(w.buf, 0)
}

// String appends the UTF-8 bytes of s.
func (w *Writer) String(field, s string) error {
	if !utf8.ValidString(s) {
		return Validationf(ErrInvalidUTF8, field, "malformed utf-8")
	}
	w.buf = append(w.buf, s...)
	return nil
}

// Group appends a finished bit-packed group.
func (w *Writer) Group(field string, g *BitWriter) error {
	b, err := g.Bytes(field)
	if err != nil {
		return err
	}
	w.buf = append(w.buf, b...)
	return nil
}

func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) Result() []byte { return w.buf }
