package frame

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/am43ctl/internal/protocol"
	"github.com/danmuck/am43ctl/internal/protocol/schema"
	"github.com/danmuck/am43ctl/internal/testutil/testlog"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	testlog.Start(t)
	in := Frame{Type: protocol.MsgRequestBatteryStatus, Payload: schema.BatteryStatus{Level: 73}}
	b, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0x9A, 0xA2, 0x05, 0x00, 0x00, 0x00, 0x00, 0x49}
	if !bytes.Equal(b, want) {
		t.Fatalf("got % X want % X", b, want)
	}
	out, n, err := Decode(schema.Default(), protocol.Response, append(b, 0x74))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(want) {
		t.Fatalf("consumed %d want %d", n, len(want))
	}
	if out != in {
		t.Fatalf("got %#v want %#v", out, in)
	}
}

func TestLengthIsRecomputed(t *testing.T) {
	testlog.Start(t)
	for _, name := range []string{"", "a", "bedroom blind"} {
		b, err := Encode(Frame{Type: protocol.MsgUpdateName, Payload: schema.UpdateName{Name: name}})
		if err != nil {
			t.Fatalf("encode %q: %v", name, err)
		}
		if int(b[2]) != len(b)-HeaderLen {
			t.Fatalf("length byte %d does not match payload %d", b[2], len(b)-HeaderLen)
		}
	}
}

func TestAppendKeepsPrefix(t *testing.T) {
	testlog.Start(t)
	b, err := Append([]byte{0x00, 0xFF, 0x00, 0x00}, Frame{Type: protocol.MsgRequestBatteryStatus, Payload: schema.Query{}})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	want := []byte{0x00, 0xFF, 0x00, 0x00, 0x9A, 0xA2, 0x01, 0x01}
	if !bytes.Equal(b, want) {
		t.Fatalf("got % X want % X", b, want)
	}
}

func TestDecodeFramingErrors(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name  string
		in    []byte
		cause error
	}{
		{"empty", nil, protocol.ErrShortBuffer},
		{"bad header", []byte{0x9B, 0xA2, 0x01, 0x01}, protocol.ErrInvalidHeader},
		{"unknown opcode", []byte{0x9A, 0x01, 0x01, 0x01}, protocol.ErrUnknownMessageType},
		{"no length", []byte{0x9A, 0xA2}, protocol.ErrShortBuffer},
		{"truncated payload", []byte{0x9A, 0xA2, 0x05, 0x00, 0x00}, protocol.ErrShortBuffer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Decode(schema.Default(), protocol.Response, tc.in)
			if !errors.Is(err, protocol.ErrFraming) || !errors.Is(err, tc.cause) {
				t.Fatalf("expected framing/%v, got %v", tc.cause, err)
			}
		})
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	testlog.Start(t)
	_, err := Encode(Frame{Type: protocol.MsgFault, Payload: schema.Raw{Data: make([]byte, MaxPayload+1)}})
	if !errors.Is(err, protocol.ErrConstruction) || !errors.Is(err, protocol.ErrPayloadTooLarge) {
		t.Fatalf("expected construction error, got %v", err)
	}
}

func TestEncodeRejectsUnknownOpcode(t *testing.T) {
	testlog.Start(t)
	_, err := Encode(Frame{Type: protocol.MessageType(0x01), Payload: schema.Query{}})
	if !errors.Is(err, protocol.ErrConstruction) {
		t.Fatalf("expected construction error, got %v", err)
	}
}
