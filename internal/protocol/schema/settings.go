package schema

import (
	"github.com/danmuck/am43ctl/internal/protocol"
)

const (
	SettingsSize       = 7
	UpdateSettingsSize = 6
)

// bitField is one entry of a bit-packed layout, most significant bit first.
type bitField struct {
	name  string
	width int
	get   func() uint32
	set   func(uint32)
}

func packFields(group string, fields []bitField) ([]byte, error) {
	g := protocol.NewBitWriter()
	for _, f := range fields {
		if err := g.Uint(f.name, f.width, f.get()); err != nil {
			return nil, err
		}
	}
	return g.Bytes(group)
}

func unpackFields(r *protocol.Reader, group string, size int, fields []bitField) error {
	g, err := r.Group(group, size)
	if err != nil {
		return err
	}
	for _, f := range fields {
		v, err := g.Uint(f.name, f.width)
		if err != nil {
			return err
		}
		f.set(v)
	}
	return g.Done(group)
}

// Settings is the device configuration reported for REQUEST_SETTINGS.
type Settings struct {
	Reserved1         uint8          `json:"-"`
	HasLightDevice    bool           `json:"has_light_device"`
	BottomLimitOK     bool           `json:"bottom_limit_is_ok"`
	TopLimitOK        bool           `json:"top_limit_is_ok"`
	ButtonsMode       ButtonsMode    `json:"buttons_mode"`
	Direction         MotorDirection `json:"direction"`
	Speed             uint8          `json:"speed"`
	CurrentPosition   uint8          `json:"current_position"`
	Length            uint16         `json:"length"`
	WheelGearDiameter Diameter       `json:"wheel_gear_diameter"`
	DeviceType        DeviceType     `json:"device_type"`
	Reserved2         uint8          `json:"-"`
}

func (Settings) Shape() Shape { return ShapeSettings }
func (Settings) sealed()      {}

func (p Settings) Validate() error {
	if err := speedRange.Check("speed", int(p.Speed)); err != nil {
		return err
	}
	if err := Diameters.Check("wheel_gear_diameter", p.WheelGearDiameter); err != nil {
		return err
	}
	return DeviceTypes.Check("device_type", p.DeviceType)
}

func (p *Settings) layout() []bitField {
	return []bitField{
		{"reserved1", 3, func() uint32 { return uint32(p.Reserved1) }, func(v uint32) { p.Reserved1 = uint8(v) }},
		{"has_light_device", 1, func() uint32 { return boolBit(p.HasLightDevice) }, func(v uint32) { p.HasLightDevice = v == 1 }},
		{"bottom_limit_is_ok", 1, func() uint32 { return boolBit(p.BottomLimitOK) }, func(v uint32) { p.BottomLimitOK = v == 1 }},
		{"top_limit_is_ok", 1, func() uint32 { return boolBit(p.TopLimitOK) }, func(v uint32) { p.TopLimitOK = v == 1 }},
		{"buttons_mode", 1, func() uint32 { return uint32(p.ButtonsMode) }, func(v uint32) { p.ButtonsMode = ButtonsMode(v) }},
		{"direction", 1, func() uint32 { return uint32(p.Direction) }, func(v uint32) { p.Direction = MotorDirection(v) }},
		{"speed", 8, func() uint32 { return uint32(p.Speed) }, func(v uint32) { p.Speed = uint8(v) }},
		{"current_position", 8, func() uint32 { return uint32(p.CurrentPosition) }, func(v uint32) { p.CurrentPosition = uint8(v) }},
		{"length", 16, func() uint32 { return uint32(p.Length) }, func(v uint32) { p.Length = uint16(v) }},
		{"wheel_gear_diameter", 8, func() uint32 { return uint32(p.WheelGearDiameter) }, func(v uint32) { p.WheelGearDiameter = Diameter(v) }},
		{"device_type", 4, func() uint32 { return uint32(p.DeviceType) }, func(v uint32) { p.DeviceType = DeviceType(v) }},
		{"reserved2", 4, func() uint32 { return uint32(p.Reserved2) }, func(v uint32) { p.Reserved2 = uint8(v) }},
	}
}

func (p Settings) AppendBinary(b []byte) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	packed, err := packFields("settings", p.layout())
	if err != nil {
		return nil, err
	}
	return append(b, packed...), nil
}

func decodeSettings(r *protocol.Reader) (Payload, error) {
	var p Settings
	if err := unpackFields(r, "settings", SettingsSize, p.layout()); err != nil {
		return nil, err
	}
	return p, nil
}

func buildSettings(f protocol.Fields) (Payload, error) {
	if err := f.Only("has_light_device", "bottom_limit_is_ok", "top_limit_is_ok", "buttons_mode",
		"direction", "speed", "current_position", "length", "wheel_gear_diameter", "device_type"); err != nil {
		return nil, err
	}
	var p Settings
	var err error
	for _, c := range []struct {
		name string
		dst  *bool
	}{
		{"has_light_device", &p.HasLightDevice},
		{"bottom_limit_is_ok", &p.BottomLimitOK},
		{"top_limit_is_ok", &p.TopLimitOK},
	} {
		if *c.dst, err = f.BoolOr(c.name, false); err != nil {
			return nil, err
		}
	}
	common, err := buildMotorFields(f)
	if err != nil {
		return nil, err
	}
	pos, err := rangedField(f, "current_position", positionRange, 0)
	if err != nil {
		return nil, err
	}
	p.ButtonsMode = common.ButtonsMode
	p.Direction = common.Direction
	p.Speed = common.Speed
	p.Length = common.Length
	p.WheelGearDiameter = common.WheelGearDiameter
	p.DeviceType = common.DeviceType
	p.CurrentPosition = uint8(pos)
	return p, nil
}

// UpdateSettings rewrites the device configuration.
type UpdateSettings struct {
	DeviceType        DeviceType     `json:"device_type"`
	Reserved1         uint8          `json:"-"`
	ButtonsMode       ButtonsMode    `json:"buttons_mode"`
	Direction         MotorDirection `json:"direction"`
	Reserved2         uint8          `json:"-"`
	Speed             uint8          `json:"speed"`
	Reserved3         uint8          `json:"-"`
	Length            uint16         `json:"length"`
	WheelGearDiameter Diameter       `json:"wheel_gear_diameter"`
}

func (UpdateSettings) Shape() Shape { return ShapeUpdateSettings }
func (UpdateSettings) sealed()      {}

func (p UpdateSettings) Validate() error {
	if err := DeviceTypes.Check("device_type", p.DeviceType); err != nil {
		return err
	}
	if err := speedRange.Check("speed", int(p.Speed)); err != nil {
		return err
	}
	return Diameters.Check("wheel_gear_diameter", p.WheelGearDiameter)
}

func (p *UpdateSettings) layout() []bitField {
	return []bitField{
		{"device_type", 4, func() uint32 { return uint32(p.DeviceType) }, func(v uint32) { p.DeviceType = DeviceType(v) }},
		{"reserved1", 1, func() uint32 { return uint32(p.Reserved1) }, func(v uint32) { p.Reserved1 = uint8(v) }},
		{"buttons_mode", 1, func() uint32 { return uint32(p.ButtonsMode) }, func(v uint32) { p.ButtonsMode = ButtonsMode(v) }},
		{"direction", 1, func() uint32 { return uint32(p.Direction) }, func(v uint32) { p.Direction = MotorDirection(v) }},
		{"reserved2", 1, func() uint32 { return uint32(p.Reserved2) }, func(v uint32) { p.Reserved2 = uint8(v) }},
		{"speed", 8, func() uint32 { return uint32(p.Speed) }, func(v uint32) { p.Speed = uint8(v) }},
		{"reserved3", 8, func() uint32 { return uint32(p.Reserved3) }, func(v uint32) { p.Reserved3 = uint8(v) }},
		{"length", 16, func() uint32 { return uint32(p.Length) }, func(v uint32) { p.Length = uint16(v) }},
		{"wheel_gear_diameter", 8, func() uint32 { return uint32(p.WheelGearDiameter) }, func(v uint32) { p.WheelGearDiameter = Diameter(v) }},
	}
}

func (p UpdateSettings) AppendBinary(b []byte) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	packed, err := packFields("update_settings", p.layout())
	if err != nil {
		return nil, err
	}
	return append(b, packed...), nil
}

func decodeUpdateSettings(r *protocol.Reader) (Payload, error) {
	var p UpdateSettings
	if err := unpackFields(r, "update_settings", UpdateSettingsSize, p.layout()); err != nil {
		return nil, err
	}
	return p, nil
}

func buildUpdateSettings(f protocol.Fields) (Payload, error) {
	if err := f.Only("buttons_mode", "direction", "speed", "length", "wheel_gear_diameter", "device_type"); err != nil {
		return nil, err
	}
	p, err := buildMotorFields(f)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// buildMotorFields reads the fields shared by Settings and UpdateSettings.
func buildMotorFields(f protocol.Fields) (UpdateSettings, error) {
	var p UpdateSettings
	var err error
	if f.Has("buttons_mode") {
		if p.ButtonsMode, err = protocol.FieldEnum(f, "buttons_mode", ButtonsModes); err != nil {
			return UpdateSettings{}, err
		}
	}
	if f.Has("direction") {
		if p.Direction, err = protocol.FieldEnum(f, "direction", MotorDirections); err != nil {
			return UpdateSettings{}, err
		}
	}
	speed, err := rangedField(f, "speed", speedRange, -1)
	if err != nil {
		return UpdateSettings{}, err
	}
	p.Speed = uint8(speed)
	length, err := rangedField(f, "length", protocol.Range{Min: 0, Max: 0xFFFF}, 0)
	if err != nil {
		return UpdateSettings{}, err
	}
	p.Length = uint16(length)
	if p.WheelGearDiameter, err = protocol.FieldEnum(f, "wheel_gear_diameter", Diameters); err != nil {
		return UpdateSettings{}, err
	}
	if p.DeviceType, err = protocol.FieldEnum(f, "device_type", DeviceTypes); err != nil {
		return UpdateSettings{}, err
	}
	return p, nil
}
