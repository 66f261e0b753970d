package schema

import (
	"time"

	"github.com/danmuck/am43ctl/internal/protocol"
)

var (
	pinRange      = protocol.Range{Min: 0, Max: 9999}
	positionRange = protocol.Range{Min: 0, Max: 100}
	hourRange     = protocol.Range{Min: 0, Max: 23}
	minuteRange   = protocol.Range{Min: 0, Max: 59}
	timerIDRange  = protocol.Range{Min: 0, Max: MaxTimers - 1}
	speedRange    = protocol.Range{Min: 20, Max: 50}
)

// queryBody is the constant body of the request-only query messages.
var queryBody = []byte{0x01}

// Password carries the four digit PIN for PASSWORD and PASSWORD_CHANGE.
type Password struct {
	Pin uint16 `json:"pin"`
}

func (Password) Shape() Shape { return ShapePassword }
func (Password) sealed()      {}

func (p Password) Validate() error {
	return pinRange.Check("pin", int(p.Pin))
}

func (p Password) AppendBinary(b []byte) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	w := protocol.NewWriter(b)
	w.Uint16(p.Pin)
	return w.Result(), nil
}

func decodePassword(r *protocol.Reader) (Payload, error) {
	pin, err := r.Uint16("pin")
	if err != nil {
		return nil, err
	}
	return Password{Pin: pin}, nil
}

func buildPassword(f protocol.Fields) (Payload, error) {
	if err := f.Only("pin"); err != nil {
		return nil, err
	}
	pin, err := f.Int("pin")
	if err != nil {
		return nil, err
	}
	if err := pinRange.Check("pin", pin); err != nil {
		return nil, err
	}
	return Password{Pin: uint16(pin)}, nil
}

// UpdateName renames the device. The name fills the whole payload.
type UpdateName struct {
	Name string `json:"name"`
}

func (UpdateName) Shape() Shape { return ShapeUpdateName }
func (UpdateName) sealed()      {}

func (p UpdateName) Validate() error {
	if len(p.Name) > maxPayload {
		return protocol.Validationf(protocol.ErrPayloadTooLarge, "name", "%d bytes exceeds %d", len(p.Name), maxPayload)
	}
	return nil
}

func (p UpdateName) AppendBinary(b []byte) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	w := protocol.NewWriter(b)
	if err := w.String("name", p.Name); err != nil {
		return nil, err
	}
	return w.Result(), nil
}

func decodeUpdateName(r *protocol.Reader) (Payload, error) {
	name, err := r.Rest("name")
	if err != nil {
		return nil, err
	}
	return UpdateName{Name: name}, nil
}

func buildUpdateName(f protocol.Fields) (Payload, error) {
	if err := f.Only("name"); err != nil {
		return nil, err
	}
	name, err := f.String("name")
	if err != nil {
		return nil, err
	}
	return UpdateName{Name: name}, nil
}

type DirectControl struct {
	Action DirectAction `json:"action"`
}

func (DirectControl) Shape() Shape { return ShapeDirectControl }
func (DirectControl) sealed()      {}

func (p DirectControl) Validate() error {
	return DirectActions.Check("action", p.Action)
}

func (p DirectControl) AppendBinary(b []byte) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return append(b, byte(p.Action)), nil
}

func decodeDirectControl(r *protocol.Reader) (Payload, error) {
	v, err := r.Uint8("action")
	if err != nil {
		return nil, err
	}
	return DirectControl{Action: DirectAction(v)}, nil
}

func buildDirectControl(f protocol.Fields) (Payload, error) {
	if err := f.Only("action"); err != nil {
		return nil, err
	}
	action, err := protocol.FieldEnum(f, "action", DirectActions)
	if err != nil {
		return nil, err
	}
	return DirectControl{Action: action}, nil
}

// UpdateDeviceTime sets the device clock.
type UpdateDeviceTime struct {
	DayOfWeek DayOfWeek `json:"day_of_week"`
	Hour      uint8     `json:"hour"`
	Minute    uint8     `json:"minute"`
	Second    uint8     `json:"second"`
}

// DeviceTimeFrom converts t, in its own location, into a clock update.
func DeviceTimeFrom(t time.Time) UpdateDeviceTime {
	return UpdateDeviceTime{
		DayOfWeek: DayOfWeek(t.Weekday()),
		Hour:      uint8(t.Hour()),
		Minute:    uint8(t.Minute()),
		Second:    uint8(t.Second()),
	}
}

func (UpdateDeviceTime) Shape() Shape { return ShapeUpdateDeviceTime }
func (UpdateDeviceTime) sealed()      {}

func (p UpdateDeviceTime) Validate() error {
	if err := DaysOfWeek.Check("day_of_week", p.DayOfWeek); err != nil {
		return err
	}
	if err := hourRange.Check("hour", int(p.Hour)); err != nil {
		return err
	}
	if err := minuteRange.Check("minute", int(p.Minute)); err != nil {
		return err
	}
	return minuteRange.Check("second", int(p.Second))
}

func (p UpdateDeviceTime) AppendBinary(b []byte) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return append(b, byte(p.DayOfWeek), p.Hour, p.Minute, p.Second), nil
}

func decodeUpdateDeviceTime(r *protocol.Reader) (Payload, error) {
	var raw [4]uint8
	for i, name := range []string{"day_of_week", "hour", "minute", "second"} {
		v, err := r.Uint8(name)
		if err != nil {
			return nil, err
		}
		raw[i] = v
	}
	return UpdateDeviceTime{DayOfWeek: DayOfWeek(raw[0]), Hour: raw[1], Minute: raw[2], Second: raw[3]}, nil
}

func buildUpdateDeviceTime(f protocol.Fields) (Payload, error) {
	if err := f.Only("day_of_week", "hour", "minute", "second"); err != nil {
		return nil, err
	}
	dow, err := protocol.FieldEnum(f, "day_of_week", DaysOfWeek)
	if err != nil {
		return nil, err
	}
	hour, err := rangedField(f, "hour", hourRange, -1)
	if err != nil {
		return nil, err
	}
	minute, err := rangedField(f, "minute", minuteRange, -1)
	if err != nil {
		return nil, err
	}
	second, err := rangedField(f, "second", minuteRange, -1)
	if err != nil {
		return nil, err
	}
	return UpdateDeviceTime{DayOfWeek: dow, Hour: uint8(hour), Minute: uint8(minute), Second: uint8(second)}, nil
}

// Query is the fixed 0x01 body of REQUEST_SETTINGS, REQUEST_BATTERY_STATUS
// and REQUEST_ILLUMINANCE.
type Query struct{}

func (Query) Shape() Shape    { return ShapeQuery }
func (Query) Validate() error { return nil }
func (Query) sealed()         {}

func (Query) AppendBinary(b []byte) ([]byte, error) {
	return append(b, queryBody...), nil
}

func decodeQuery(r *protocol.Reader) (Payload, error) {
	if err := r.Const("body", queryBody); err != nil {
		return nil, err
	}
	return Query{}, nil
}

func buildQuery(f protocol.Fields) (Payload, error) {
	if err := f.Only(); err != nil {
		return nil, err
	}
	return Query{}, nil
}

// PositionControl moves the blind to a percentage.
type PositionControl struct {
	Position uint8 `json:"position"`
}

func (PositionControl) Shape() Shape { return ShapePositionControl }
func (PositionControl) sealed()      {}

func (p PositionControl) Validate() error {
	return positionRange.Check("position", int(p.Position))
}

func (p PositionControl) AppendBinary(b []byte) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return append(b, p.Position), nil
}

func decodePositionControl(r *protocol.Reader) (Payload, error) {
	v, err := r.Uint8("position")
	if err != nil {
		return nil, err
	}
	return PositionControl{Position: v}, nil
}

func buildPositionControl(f protocol.Fields) (Payload, error) {
	if err := f.Only("position"); err != nil {
		return nil, err
	}
	pos, err := rangedField(f, "position", positionRange, -1)
	if err != nil {
		return nil, err
	}
	return PositionControl{Position: uint8(pos)}, nil
}

// LimitOrReset drives limit calibration or a factory reset.
//
// IsReset must be true exactly when Command is INIT and Mode is UNDEFINED;
// with IsReset false the mode must name a limit. Any other combination,
// e.g. SAVE with mode UNDEFINED, is rejected.
type LimitOrReset struct {
	Command LimitCommand `json:"command"`
	Mode    LimitMode    `json:"limit_mode"`
	IsReset bool         `json:"is_reset"`
}

// NewReset returns the factory reset command.
func NewReset() LimitOrReset {
	return LimitOrReset{Command: LimitInit, Mode: LimitModeUndefined, IsReset: true}
}

func (LimitOrReset) Shape() Shape { return ShapeLimitOrReset }
func (LimitOrReset) sealed()      {}

func (p LimitOrReset) Validate() error {
	if err := LimitCommands.Check("command", p.Command); err != nil {
		return err
	}
	if err := LimitModes.Check("limit_mode", p.Mode); err != nil {
		return err
	}
	if p.IsReset {
		if p.Command != LimitInit || p.Mode != LimitModeUndefined {
			return protocol.Validationf(protocol.ErrOutOfRange, "is_reset", "reset requires command INIT and mode UNDEFINED, got %s/%s", p.Command, p.Mode)
		}
		return nil
	}
	if p.Mode == LimitModeUndefined {
		return protocol.Validationf(protocol.ErrOutOfRange, "limit_mode", "mode UNDEFINED is only valid for a reset")
	}
	return nil
}

func (p LimitOrReset) AppendBinary(b []byte) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	w := protocol.NewWriter(b)
	w.Uint8(uint8(p.Command))
	w.Uint8(uint8(p.Mode))
	w.Flag(p.IsReset)
	return w.Result(), nil
}

func decodeLimitOrReset(r *protocol.Reader) (Payload, error) {
	cmd, err := r.Uint8("command")
	if err != nil {
		return nil, err
	}
	mode, err := r.Uint8("limit_mode")
	if err != nil {
		return nil, err
	}
	reset, err := r.Flag("is_reset")
	if err != nil {
		return nil, err
	}
	return LimitOrReset{Command: LimitCommand(cmd), Mode: LimitMode(mode), IsReset: reset}, nil
}

func buildLimitOrReset(f protocol.Fields) (Payload, error) {
	if err := f.Only("command", "limit_mode", "is_reset"); err != nil {
		return nil, err
	}
	cmd, err := protocol.FieldEnum(f, "command", LimitCommands)
	if err != nil {
		return nil, err
	}
	mode, err := protocol.FieldEnum(f, "limit_mode", LimitModes)
	if err != nil {
		return nil, err
	}
	reset, err := f.BoolOr("is_reset", false)
	if err != nil {
		return nil, err
	}
	return LimitOrReset{Command: cmd, Mode: mode, IsReset: reset}, nil
}

// rangedField reads an integer field and checks it against rng. A def of -1
// makes the field required.
func rangedField(f protocol.Fields, name string, rng protocol.Range, def int) (int, error) {
	var (
		v   int
		err error
	)
	if def < 0 {
		v, err = f.Int(name)
	} else {
		v, err = f.IntOr(name, def)
	}
	if err != nil {
		return 0, err
	}
	if err := rng.Check(name, v); err != nil {
		return 0, err
	}
	return v, nil
}
