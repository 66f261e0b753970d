package envelope

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/am43ctl/internal/protocol"
	"github.com/danmuck/am43ctl/internal/protocol/schema"
	"github.com/danmuck/am43ctl/internal/testutil/testlog"
)

func TestBatteryResponseVector(t *testing.T) {
	testlog.Start(t)
	env := Envelope{Direction: protocol.Response, Type: protocol.MsgRequestBatteryStatus, Payload: schema.BatteryStatus{Level: 73}}
	b, err := Encode(env)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0x9A, 0xA2, 0x05, 0x00, 0x00, 0x00, 0x00, 0x49, 0x74}
	if !bytes.Equal(b, want) {
		t.Fatalf("got % X want % X", b, want)
	}
	back, err := Decode(want)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	status, ok := back.Payload.(schema.BatteryStatus)
	if !ok || status.Level != 73 {
		t.Fatalf("unexpected payload %#v", back.Payload)
	}
	if back.Direction != protocol.Response {
		t.Fatalf("direction %s", back.Direction)
	}
}

func TestBatteryRequestVector(t *testing.T) {
	testlog.Start(t)
	env, err := Prepare(protocol.Request, protocol.MsgRequestBatteryStatus, schema.Request{})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	b, err := Encode(env)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0x00, 0xFF, 0x00, 0x00, 0x9A, 0xA2, 0x01, 0x01, 0x38}
	if !bytes.Equal(b, want) {
		t.Fatalf("got % X want % X", b, want)
	}
	back, err := Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back != env {
		t.Fatalf("got %#v want %#v", back, env)
	}
}

func TestAcknowledgementFooter(t *testing.T) {
	testlog.Start(t)
	for _, success := range []bool{true, false} {
		env := Envelope{Direction: protocol.Response, Type: protocol.MsgControlPosition, Payload: schema.NewOperationResult(success)}
		b, err := Encode(env)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if got := b[len(b)-1]; got != Sentinel(success) {
			t.Fatalf("success=%v footer 0x%02X", success, got)
		}
		back, err := Decode(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ok, isAck := back.Success(); !isAck || ok != success {
			t.Fatalf("success=%v decoded %v ack=%v", success, ok, isAck)
		}
	}
}

func TestSentinelExclusivity(t *testing.T) {
	testlog.Start(t)
	base := []byte{0x9A, 0x0D, 0x01, 0x5A, SentinelSuccess}
	if _, err := Decode(base); err != nil {
		t.Fatalf("decode base: %v", err)
	}
	for v := 0; v <= 0xFF; v++ {
		if byte(v) == SentinelSuccess {
			continue
		}
		in := append([]byte(nil), base...)
		in[len(in)-1] = byte(v)
		_, err := Decode(in)
		if !errors.Is(err, protocol.ErrIntegrity) {
			t.Fatalf("footer 0x%02X: expected integrity error, got %v", v, err)
		}
	}
}

func TestSingleBitFlipIsIntegrityError(t *testing.T) {
	testlog.Start(t)
	envs := []Envelope{
		{Direction: protocol.Request, Type: protocol.MsgRequestBatteryStatus, Payload: schema.Query{}},
		{Direction: protocol.Response, Type: protocol.MsgRequestBatteryStatus, Payload: schema.BatteryStatus{Level: 73}},
		{Direction: protocol.Request, Type: protocol.MsgControlPosition, Payload: schema.PositionControl{Position: 50}},
		{Direction: protocol.Response, Type: protocol.MsgRequestSettings, Payload: schema.Settings{
			HasLightDevice: true, BottomLimitOK: true, TopLimitOK: true,
			ButtonsMode: schema.ButtonsInching, Direction: schema.MotorForward, Speed: 30, CurrentPosition: 50,
			Length: 0x0100, WheelGearDiameter: schema.Diameter29mm, DeviceType: schema.RollerShade,
		}},
		// Checksums that happen to equal a sentinel byte.
		{Direction: protocol.Request, Type: protocol.MsgControlPosition, Payload: schema.PositionControl{Position: 88}},
		{Direction: protocol.Response, Type: protocol.MsgRequestBatteryStatus, Payload: schema.BatteryStatus{Level: 12}},
	}
	for _, env := range envs {
		b, err := Encode(env)
		if err != nil {
			t.Fatalf("encode %s: %v", env.Type, err)
		}
		for i := 0; i < len(b)-1; i++ {
			for bit := 0; bit < 8; bit++ {
				in := append([]byte(nil), b...)
				in[i] ^= 1 << bit
				_, err := Decode(in)
				if !errors.Is(err, protocol.ErrIntegrity) {
					t.Fatalf("%s byte %d bit %d: expected integrity error, got %v", env.Type, i, bit, err)
				}
			}
		}
	}
}

func TestRoundTripEveryShape(t *testing.T) {
	testlog.Start(t)
	season := schema.Season{ID: 1, Enabled: true, LightSwitchState: schema.SwitchAllClose, LightToOpen: schema.Lux20, LightToClose: schema.Lux5000, StartHour: 6, EndHour: 22, EndMinute: 15}
	envs := []Envelope{
		{protocol.Request, protocol.MsgPassword, schema.Password{Pin: 8888}},
		{protocol.Request, protocol.MsgPasswordChange, schema.Password{Pin: 0}},
		{protocol.Request, protocol.MsgUpdateName, schema.UpdateName{Name: "salon ✓"}},
		{protocol.Request, protocol.MsgControlDirect, schema.DirectControl{Action: schema.ActionStop}},
		{protocol.Request, protocol.MsgUpdateDeviceTime, schema.UpdateDeviceTime{DayOfWeek: schema.Saturday, Hour: 23, Minute: 59, Second: 0}},
		{protocol.Request, protocol.MsgRequestIlluminance, schema.Query{}},
		{protocol.Request, protocol.MsgUpdateTimer, schema.UpdateTimer{TimerID: 0, Action: schema.TimerDelete, Timer: schema.Timer{}}},
		{protocol.Request, protocol.MsgUpdateLimitOrReset, schema.LimitOrReset{Command: schema.LimitExit, Mode: schema.LimitModeBottom}},
		{protocol.Request, protocol.MsgUpdateSeason, schema.UpdateSeason{Season: season}},
		{protocol.Request, protocol.MsgUpdateSettings, schema.UpdateSettings{DeviceType: schema.TripleShade, Speed: 50, Length: 1200, WheelGearDiameter: schema.Diameter13mm}},
		{protocol.Response, protocol.MsgUpdateName, schema.NewOperationResult(true)},
		{protocol.Response, protocol.MsgListTimers, schema.ListTimers{Timers: []schema.Timer{{Enabled: true, TargetPosition: 100, Repeat: 0x7F, Hour: schema.HourAt(0), Minute: 59}}}},
		{protocol.Response, protocol.MsgRequestIlluminance, schema.Illuminance{Level: 3}},
		{protocol.Response, protocol.MsgFinishedMoving, schema.FinishedMoving{Position: 100}},
		{protocol.Response, protocol.MsgUpdateLimitOrReset, schema.LimitOrResetResult{Result: schema.LimitTimeout}},
		{protocol.Response, protocol.MsgListSeasons, schema.ListSeasons{Summer: season, Winter: season}},
		{protocol.Response, protocol.MsgSpeed, schema.Raw{Data: []byte{0x10, 0x20}}},
	}
	for _, env := range envs {
		b, err := Encode(env)
		if err != nil {
			t.Fatalf("encode %s %s: %v", env.Direction, env.Type, err)
		}
		back, err := Decode(b)
		if err != nil {
			t.Fatalf("decode %s %s (% X): %v", env.Direction, env.Type, b, err)
		}
		if !reflect.DeepEqual(back, env) {
			t.Fatalf("round trip mismatch: got %#v want %#v", back, env)
		}
	}
}

func TestDecodeFraming(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name  string
		in    []byte
		cause error
	}{
		{"empty", nil, protocol.ErrShortBuffer},
		{"tag only", ClientTag[:], protocol.ErrShortBuffer},
		{"trailing", []byte{0x9A, 0xA2, 0x05, 0x00, 0x00, 0x00, 0x00, 0x49, 0x74, 0x00}, protocol.ErrTrailingBytes},
		{"unknown opcode", []byte{0x9A, 0x01, 0x00, 0x9B}, protocol.ErrUnknownMessageType},
		{"bad header", []byte{0x9B, 0xA2, 0x00, 0x39}, protocol.ErrInvalidHeader},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.in)
			if !errors.Is(err, protocol.ErrFraming) || !errors.Is(err, tc.cause) {
				t.Fatalf("expected framing/%v, got %v", tc.cause, err)
			}
		})
	}
}

func TestSentinelValuedChecksumFooter(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		env  Envelope
		want []byte
	}{
		{
			Envelope{Direction: protocol.Request, Type: protocol.MsgControlPosition, Payload: schema.PositionControl{Position: 88}},
			[]byte{0x00, 0xFF, 0x00, 0x00, 0x9A, 0x0D, 0x01, 0x58, SentinelFailure},
		},
		{
			Envelope{Direction: protocol.Response, Type: protocol.MsgRequestBatteryStatus, Payload: schema.BatteryStatus{Level: 12}},
			[]byte{0x9A, 0xA2, 0x05, 0x00, 0x00, 0x00, 0x00, 0x0C, SentinelSuccess},
		},
	}
	for _, tc := range cases {
		b, err := Encode(tc.env)
		if err != nil {
			t.Fatalf("encode %s: %v", tc.env.Type, err)
		}
		if !bytes.Equal(b, tc.want) {
			t.Fatalf("%s: got % X want % X", tc.env.Type, b, tc.want)
		}
		back, err := Decode(b)
		if err != nil {
			t.Fatalf("decode %s: %v", tc.env.Type, err)
		}
		if !reflect.DeepEqual(back, tc.env) {
			t.Fatalf("%s: got %+v want %+v", tc.env.Type, back, tc.env)
		}
	}
}

func TestTruncatedEnvelopeIsIntegrityError(t *testing.T) {
	testlog.Start(t)
	// Battery reading 73 with one reserved byte and the footer dropped.
	_, err := Decode([]byte{0x9A, 0xA2, 0x05, 0x00, 0x00, 0x00, 0x49})
	if !errors.Is(err, protocol.ErrIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}
	if !errors.Is(err, protocol.ErrChecksumMismatch) || !errors.Is(err, protocol.ErrShortBuffer) {
		t.Fatalf("expected checksum mismatch joined with short buffer, got %v", err)
	}
	if protocol.KindOf(err) != protocol.KindIntegrity {
		t.Fatalf("kind = %s", protocol.KindOf(err))
	}
}

func TestSentinelMustMatchResult(t *testing.T) {
	testlog.Start(t)
	_, err := Decode([]byte{0x9A, 0x0D, 0x01, 0x5A, SentinelFailure})
	if !errors.Is(err, protocol.ErrIntegrity) || !errors.Is(err, protocol.ErrBadSentinel) {
		t.Fatalf("expected sentinel mismatch, got %v", err)
	}
}

func TestEncodeRejectsWrongShape(t *testing.T) {
	testlog.Start(t)
	_, err := Encode(Envelope{Direction: protocol.Request, Type: protocol.MsgControlPosition, Payload: schema.NewOperationResult(true)})
	if !errors.Is(err, protocol.ErrConstruction) {
		t.Fatalf("expected construction error, got %v", err)
	}
	_, err = Encode(Envelope{Direction: protocol.Response, Type: protocol.MsgControlPosition, Payload: schema.OperationResult{}})
	if !errors.Is(err, protocol.ErrValidation) {
		t.Fatalf("unset acknowledgement should not encode, got %v", err)
	}
}

func TestConfirmation(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		env  Envelope
		want bool
	}{
		{Envelope{protocol.Request, protocol.MsgControlPosition, schema.PositionControl{Position: 10}}, true},
		{Envelope{protocol.Request, protocol.MsgUpdateLimitOrReset, schema.NewReset()}, true},
		{Envelope{protocol.Request, protocol.MsgRequestSettings, schema.Query{}}, false},
		{Envelope{protocol.Request, protocol.MsgRequestBatteryStatus, schema.Query{}}, false},
		{Envelope{protocol.Response, protocol.MsgFinishedMoving, schema.FinishedMoving{Position: 3}}, false},
	}
	for _, tc := range cases {
		if got := ConfirmationExpected(tc.env); got != tc.want {
			t.Fatalf("%s %s: got %v want %v", tc.env.Direction, tc.env.Type, got, tc.want)
		}
	}

	req := Envelope{Direction: protocol.Request, Type: protocol.MsgControlPosition, Payload: schema.PositionControl{Position: 10}}
	reply, err := PrepareConfirmation(req, true)
	if err != nil {
		t.Fatalf("prepare confirmation: %v", err)
	}
	b, err := Encode(reply)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0x9A, 0x0D, 0x01, 0x5A, SentinelSuccess}
	if !bytes.Equal(b, want) {
		t.Fatalf("got % X want % X", b, want)
	}

	_, err = PrepareConfirmation(Envelope{Direction: protocol.Request, Type: protocol.MsgRequestSettings, Payload: schema.Query{}}, true)
	if !errors.Is(err, protocol.ErrConstruction) {
		t.Fatalf("expected construction error, got %v", err)
	}
}

func TestCodecConfirm(t *testing.T) {
	testlog.Start(t)
	c := NewCodec(nil, nil)
	reset := []byte{0x00, 0xFF, 0x00, 0x00, 0x9A, 0x22, 0x03, 0x00, 0x00, 0x01}
	reset = append(reset, Checksum(reset[len(ClientTag):]))
	b, err := c.Confirm(reset, false)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	want := []byte{0x9A, 0x22, 0x01, 0xB5, SentinelFailure}
	if !bytes.Equal(b, want) {
		t.Fatalf("got % X want % X", b, want)
	}
}
