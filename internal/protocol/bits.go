package protocol

// BitReader reads most-significant-bit-first fields from a byte-aligned group.
type BitReader struct {
	buf []byte
	pos int
}

func NewBitReader(b []byte) *BitReader {
	return &BitReader{buf: b}
}

// Uint reads a width-bit unsigned integer (width <= 32).
func (b *BitReader) Uint(field string, width int) (uint32, error) {
	if width <= 0 || width > 32 {
		return 0, Framingf(ErrShortBuffer, field, "unsupported bit width %d", width)
	}
	if b.pos+width > len(b.buf)*8 {
		return 0, Framingf(ErrShortBuffer, field, "need %d bits at bit %d, group has %d", width, b.pos, len(b.buf)*8)
	}
	var v uint32
	for i := 0; i < width; i++ {
		byteIdx := (b.pos + i) / 8
		bit := 7 - (b.pos+i)%8
		v = v<<1 | uint32(b.buf[byteIdx]>>bit&1)
	}
	b.pos += width
	return v, nil
}

func (b *BitReader) Flag(field string) (bool, error) {
	v, err := b.Uint(field, 1)
	return v == 1, err
}

// Done fails unless every declared bit of the group was consumed.
func (b *BitReader) Done(field string) error {
	if b.pos != len(b.buf)*8 {
		return Framingf(ErrTrailingBytes, field, "group consumed %d of %d bits", b.pos, len(b.buf)*8)
	}
	return nil
}

// BitWriter packs most-significant-bit-first fields into whole bytes.
type BitWriter struct {
	buf []byte
	pos int
}

func NewBitWriter() *BitWriter {
	return &BitWriter{}
}

// Uint appends the low width bits of v. A value that does not fit is a
// validation error, never a truncation.
func (b *BitWriter) Uint(field string, width int, v uint32) error {
	if width <= 0 || width > 32 {
		return Constructionf(nil, field, "unsupported bit width %d", width)
	}
	if width < 32 && v>>width != 0 {
		return Validationf(ErrOutOfRange, field, "%d does not fit in %d bits", v, width)
	}
	for i := width - 1; i >= 0; i-- {
		if b.pos%8 == 0 {
			b.buf = append(b.buf, 0)
		}
		if v>>i&1 == 1 {
			b.buf[b.pos/8] |= 1 << (7 - b.pos%8)
		}
		b.pos++
	}
	return nil
}

func (b *BitWriter) Flag(field string, v bool) error {
	if v {
		return b.Uint(field, 1, 1)
	}
	return b.Uint(field, 1, 0)
}

// Bytes returns the packed group; the declared widths must sum to whole bytes.
func (b *BitWriter) Bytes(field string) ([]byte, error) {
	if b.pos%8 != 0 {
		return nil, Constructionf(nil, field, "bit group of %d bits is not byte aligned", b.pos)
	}
	return b.buf, nil
}
