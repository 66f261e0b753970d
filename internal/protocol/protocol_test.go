package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/am43ctl/internal/testutil/testlog"
)

type color uint8

var colors = Enum[color]{Name: "Color", Values: map[color]string{1: "RED", 2: "GREEN", 0x10: "BLUE"}}

var perms = Flags[color]{Name: "Perm", Bits: []FlagBit[color]{{Bit: 0x01, Name: "READ"}, {Bit: 0x02, Name: "WRITE"}}}

func TestReaderWriterRoundTrip(t *testing.T) {
	testlog.Start(t)
	w := NewWriter(nil)
	w.Uint8(0x9A)
	w.Uint16(0x1234)
	w.Flag(true)
	if err := w.String("name", "blind"); err != nil {
		t.Fatalf("string: %v", err)
	}
	want := []byte{0x9A, 0x12, 0x34, 0x01, 'b', 'l', 'i', 'n', 'd'}
	if !bytes.Equal(w.Result(), want) {
		t.Fatalf("got % X want % X", w.Result(), want)
	}

	r := NewReader(w.Result())
	if v, err := r.Uint8("a"); err != nil || v != 0x9A {
		t.Fatalf("uint8 %v %v", v, err)
	}
	if v, err := r.Uint16("b"); err != nil || v != 0x1234 {
		t.Fatalf("uint16 %v %v", v, err)
	}
	if v, err := r.Flag("c"); err != nil || !v {
		t.Fatalf("flag %v %v", v, err)
	}
	if v, err := r.Rest("name"); err != nil || v != "blind" {
		t.Fatalf("rest %q %v", v, err)
	}
	if err := r.Done("msg"); err != nil {
		t.Fatalf("done: %v", err)
	}
}

func TestReaderErrors(t *testing.T) {
	testlog.Start(t)
	r := NewReader([]byte{0x01})
	if _, err := r.Uint16("pin"); !errors.Is(err, ErrFraming) || !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("expected short buffer, got %v", err)
	}
	if KindOf(mustErr(NewReader([]byte{0x02}).Flag("f"))) != KindValidation {
		t.Fatalf("flag byte 2 should be a validation error")
	}
	if err := NewReader([]byte{0x02}).Const("body", []byte{0x01}); !errors.Is(err, ErrConstMismatch) {
		t.Fatalf("expected const mismatch, got %v", err)
	}
	if _, err := NewReader([]byte{0xC3, 0x28}).Rest("name"); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected invalid utf-8, got %v", err)
	}
	if err := NewReader([]byte{1, 2}).Done("x"); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("expected trailing bytes, got %v", err)
	}
	if err := NewWriter(nil).String("name", "\xff"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReaderBytesCopies(t *testing.T) {
	testlog.Start(t)
	src := []byte{1, 2, 3}
	b, err := NewReader(src).Bytes("raw", 3)
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	src[0] = 9
	if b[0] != 1 {
		t.Fatalf("Bytes must not alias its input")
	}
}

func TestBitGroups(t *testing.T) {
	testlog.Start(t)
	g := NewBitWriter()
	steps := []struct {
		width int
		v     uint32
	}{{4, 0x3}, {1, 0}, {1, 1}, {1, 1}, {1, 0}, {8, 30}, {16, 0x0102}}
	for _, s := range steps {
		if err := g.Uint("f", s.width, s.v); err != nil {
			t.Fatalf("pack: %v", err)
		}
	}
	b, err := g.Bytes("group")
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	want := []byte{0x36, 0x1E, 0x01, 0x02}
	if !bytes.Equal(b, want) {
		t.Fatalf("got % X want % X", b, want)
	}

	r := NewBitReader(b)
	for _, s := range steps {
		v, err := r.Uint("f", s.width)
		if err != nil || v != s.v {
			t.Fatalf("unpack width %d: %v %v", s.width, v, err)
		}
	}
	if err := r.Done("group"); err != nil {
		t.Fatalf("done: %v", err)
	}
}

func TestBitGroupErrors(t *testing.T) {
	testlog.Start(t)
	if err := NewBitWriter().Uint("type", 4, 16); !errors.Is(err, ErrValidation) || !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("16 in 4 bits should fail, got %v", err)
	}
	g := NewBitWriter()
	_ = g.Uint("half", 4, 1)
	if _, err := g.Bytes("group"); !errors.Is(err, ErrConstruction) {
		t.Fatalf("unaligned group should fail, got %v", err)
	}
	r := NewBitReader([]byte{0xFF})
	if _, err := r.Uint("wide", 9); !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("expected short buffer, got %v", err)
	}
	_, _ = r.Uint("part", 3)
	if err := r.Done("group"); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("partially read group should fail, got %v", err)
	}
}

func TestEnumAndRange(t *testing.T) {
	testlog.Start(t)
	if err := colors.Check("c", 2); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := colors.Check("c", 3); !errors.Is(err, ErrUnknownEnum) {
		t.Fatalf("expected unknown enum, got %v", err)
	}
	if v, ok := colors.Lookup("blue"); !ok || v != 0x10 {
		t.Fatalf("lookup %v %v", v, ok)
	}
	if got := colors.String(7); got != "Color(0x07)" {
		t.Fatalf("string %q", got)
	}
	if names := colors.Names(); len(names) != 3 || names[0] != "RED" || names[2] != "BLUE" {
		t.Fatalf("names %v", names)
	}

	rng := Range{Min: 0, Max: 100}
	if err := rng.Check("position", 100); err != nil {
		t.Fatalf("100: %v", err)
	}
	if err := rng.Check("position", 101); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("101: %v", err)
	}
}

func TestFlagsSplitJoin(t *testing.T) {
	testlog.Start(t)
	if got := perms.Split(0); len(got) != 0 {
		t.Fatalf("zero mask should have no names: %v", got)
	}
	got := perms.Split(0x83)
	if len(got) != 3 || got[0] != "READ" || got[1] != "WRITE" || got[2] != "0x80" {
		t.Fatalf("split %v", got)
	}
	v, err := perms.Join([]string{"write", "0x80"})
	if err != nil || v != 0x82 {
		t.Fatalf("join %v %v", v, err)
	}
	if _, err := perms.Join([]string{"EXECUTE"}); err == nil {
		t.Fatalf("unknown flag name should fail")
	}
}

func TestFieldsAccessors(t *testing.T) {
	testlog.Start(t)
	f := Fields{
		"a": int64(5),
		"b": 6.0,
		"c": "0x07",
		"d": "true",
		"e": "GREEN",
		"f": []any{"READ"},
		"g": map[string]any{"x": 1},
		"h": 1.5,
	}
	for name, want := range map[string]int{"a": 5, "b": 6, "c": 7} {
		if v, err := f.Int(name); err != nil || v != want {
			t.Fatalf("%s: %v %v", name, v, err)
		}
	}
	if _, err := f.Int("h"); !errors.Is(err, ErrFieldTypeMismatch) {
		t.Fatalf("fractional float should fail, got %v", err)
	}
	if _, err := f.Int("missing"); !errors.Is(err, ErrConstruction) || !errors.Is(err, ErrMissingField) {
		t.Fatalf("missing field: %v", err)
	}
	if v, err := f.IntOr("missing", 9); err != nil || v != 9 {
		t.Fatalf("IntOr %v %v", v, err)
	}
	if v, err := f.Bool("d"); err != nil || !v {
		t.Fatalf("bool %v %v", v, err)
	}
	if v, err := FieldEnum(f, "e", colors); err != nil || v != 2 {
		t.Fatalf("enum by name %v %v", v, err)
	}
	if v, err := FieldEnum(f, "b", colors); !errors.Is(err, ErrUnknownEnum) {
		t.Fatalf("enum 6 should fail, got %v %v", v, err)
	}
	if v, err := FieldFlags(f, "f", perms); err != nil || v != 0x01 {
		t.Fatalf("flags %v %v", v, err)
	}
	if v, err := FieldFlags(f, "missing", perms); err != nil || v != 0 {
		t.Fatalf("absent flags %v %v", v, err)
	}
	if sub, err := f.Sub("g"); err != nil || sub["x"] != 1 {
		t.Fatalf("sub %v %v", sub, err)
	}
	if err := f.Only("a", "b"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("only: %v", err)
	}
}

func TestMessageTypeLookup(t *testing.T) {
	testlog.Start(t)
	if mt, ok := LookupMessageType("request_settings"); !ok || mt != MsgRequestSettings {
		t.Fatalf("lookup by name %v %v", mt, ok)
	}
	if mt, ok := LookupMessageType("0xA2"); !ok || mt != MsgRequestBatteryStatus {
		t.Fatalf("lookup by opcode %v %v", mt, ok)
	}
	if _, ok := LookupMessageType("0x01"); ok {
		t.Fatalf("unmapped opcode should not resolve")
	}
	if _, err := ParseMessageType(0x01); !errors.Is(err, ErrFraming) || !errors.Is(err, ErrUnknownMessageType) {
		t.Fatalf("expected unknown message type, got %v", err)
	}
	if len(MessageTypes()) != 18 {
		t.Fatalf("expected 18 message types")
	}
	if d, err := ParseDirection("device"); err != nil || d != Response || d.Opposite() != Request {
		t.Fatalf("direction %v %v", d, err)
	}
}

func TestHex(t *testing.T) {
	testlog.Start(t)
	b, err := ParseHex("0x9A:A2 01-01")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := FormatHex(b); got != "9a-a2-01-01" {
		t.Fatalf("format %q", got)
	}
	if _, err := ParseHex("9"); err == nil {
		t.Fatalf("odd length should fail")
	}
}

func mustErr(_ bool, err error) error { return err }
