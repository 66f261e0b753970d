package frame

import (
	"github.com/danmuck/am43ctl/internal/protocol"
	"github.com/danmuck/am43ctl/internal/protocol/schema"
)

const (
	// Header is the first byte of every frame.
	Header byte = 0x9A
	// HeaderLen covers the header, opcode and length bytes.
	HeaderLen = 3
	// MaxPayload is the largest payload the length byte can describe.
	MaxPayload = 0xFF
)

// Frame is one header+opcode+length+payload unit. The length is not stored;
// it is recomputed from the payload on every encode.
type Frame struct {
	Type    protocol.MessageType
	Payload schema.Payload
}

// Append appends the wire form of f to b.
func Append(b []byte, f Frame) ([]byte, error) {
	if _, err := protocol.ParseMessageType(byte(f.Type)); err != nil {
		return nil, protocol.Constructionf(protocol.ErrUnknownMessageType, "opcode", "cannot encode opcode 0x%02X", uint8(f.Type))
	}
	if f.Payload == nil {
		return nil, protocol.Constructionf(protocol.ErrNoDefaultShape, "payload", "frame %s has no payload", f.Type)
	}
	start := len(b)
	b = append(b, Header, byte(f.Type), 0)
	b, err := f.Payload.AppendBinary(b)
	if err != nil {
		return nil, err
	}
	n := len(b) - start - HeaderLen
	if n > MaxPayload {
		return nil, protocol.Constructionf(protocol.ErrPayloadTooLarge, "length", "%s payload is %d bytes", f.Type, n)
	}
	b[start+2] = byte(n)
	return b, nil
}

// Encode returns the wire form of f.
func Encode(f Frame) ([]byte, error) {
	return Append(nil, f)
}

// Decode parses one frame from the start of b for direction dir. It returns
// the frame and the number of bytes it occupied; bytes after the frame are
// left to the caller.
func Decode(reg *schema.Registry, dir protocol.Direction, b []byte) (Frame, int, error) {
	r := protocol.NewReader(b)
	if err := r.Const("header", []byte{Header}); err != nil {
		if protocol.KindOf(err) == protocol.KindValidation {
			return Frame{}, 0, protocol.Framingf(protocol.ErrInvalidHeader, "header", "got 0x%02X want 0x%02X", b[0], Header)
		}
		return Frame{}, 0, err
	}
	op, err := r.Uint8("opcode")
	if err != nil {
		return Frame{}, 0, err
	}
	mt, err := protocol.ParseMessageType(op)
	if err != nil {
		return Frame{}, 0, err
	}
	length, err := r.Uint8("length")
	if err != nil {
		return Frame{}, 0, err
	}
	body, err := r.Bytes("payload", int(length))
	if err != nil {
		return Frame{}, 0, err
	}
	p, err := reg.Decode(dir, mt, body)
	if err != nil {
		return Frame{}, 0, err
	}
	return Frame{Type: mt, Payload: p}, r.Offset(), nil
}
