package protocol

import (
	"encoding/binary"
	"unicode/utf8"
)

// Reader is a forward-only cursor over a payload buffer. Every read consumes
// exactly its declared width or fails with a framing error.
type Reader struct {
	buf []byte
	off int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

// Remaining is the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) take(field string, n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, Framingf(ErrShortBuffer, field, "need %d bytes at offset %d, have %d", n, r.off, r.Remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) Uint8(field string) (uint8, error) {
	b, err := r.take(field, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint16 reads a big-endian uint16.
func (r *Reader) Uint16(field string) (uint16, error) {
	b, err := r.take(field, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// Bytes returns a copy of the next n bytes.
func (r *Reader) Bytes(field string, n int) ([]byte, error) {
	b, err := r.take(field, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// Const consumes len(want) bytes that must match want exactly.
func (r *Reader) Const(field string, want []byte) error {
	b, err := r.take(field, len(want))
	if err != nil {
		return err
	}
	for i := range want {
		if b[i] != want[i] {
			return Validationf(ErrConstMismatch, field, "got % X want % X", b, want)
		}
	}
	return nil
}

// Flag reads a one-byte boolean; only 0x00 and 0x01 are accepted.
func (r *Reader) Flag(field string) (bool, error) {
	v, err := r.Uint8(field)
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, Validationf(ErrUnknownEnum, field, "invalid flag byte 0x%02X", v)
	}
}

// String reads exactly n bytes of UTF-8 without trimming.
func (r *Reader) String(field string, n int) (string, error) {
	b, err := r.take(field, n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", Validationf(ErrInvalidUTF8, field, "malformed utf-8 % X", b)
	}
	return string(b), nil
}

// Rest reads all remaining bytes as a string.
func (r *Reader) Rest(field string) (string, error) {
	return r.String(field, r.Remaining())
}

// Group reads n bytes as a bit-packed group.
func (r *Reader) Group(field string, n int) (*BitReader, error) {
	b, err := r.take(field, n)
	if err != nil {
		return nil, err
	}
	return NewBitReader(b), nil
}

// Done fails when unread bytes remain.
func (r *Reader) Done(field string) error {
	if r.Remaining() != 0 {
		return Framingf(ErrTrailingBytes, field, "%d unread bytes", r.Remaining())
	}
	return nil
}
