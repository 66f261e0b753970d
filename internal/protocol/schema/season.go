package schema

import (
	"github.com/danmuck/am43ctl/internal/protocol"
)

// SeasonSize is the encoded size of one bit-packed Season.
const SeasonSize = 8

// Season is a light-sensor schedule. Reserved keeps the seven pad bits
// that precede the enabled flag.
type Season struct {
	ID               uint8            `json:"season_id"`
	Reserved         uint8            `json:"-"`
	Enabled          bool             `json:"is_enabled"`
	LightSwitchState LightSwitchState `json:"light_switch_state"`
	LightToOpen      LightLevel       `json:"light_level_to_open"`
	LightToClose     LightLevel       `json:"light_level_to_close"`
	StartHour        uint8            `json:"start_hour"`
	StartMinute      uint8            `json:"start_minute"`
	EndHour          uint8            `json:"end_hour"`
	EndMinute        uint8            `json:"end_minute"`
}

func (s Season) Validate() error {
	if err := LightSwitchStates.Check("light_switch_state", s.LightSwitchState); err != nil {
		return err
	}
	if err := LightLevels.Check("light_level_to_open", s.LightToOpen); err != nil {
		return err
	}
	if err := LightLevels.Check("light_level_to_close", s.LightToClose); err != nil {
		return err
	}
	for _, c := range []struct {
		name string
		rng  protocol.Range
		v    uint8
	}{
		{"start_hour", hourRange, s.StartHour},
		{"start_minute", minuteRange, s.StartMinute},
		{"end_hour", hourRange, s.EndHour},
		{"end_minute", minuteRange, s.EndMinute},
	} {
		if err := c.rng.Check(c.name, int(c.v)); err != nil {
			return err
		}
	}
	return nil
}

func (s Season) pack() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	g := protocol.NewBitWriter()
	steps := []struct {
		name  string
		width int
		v     uint32
	}{
		{"season_id", 8, uint32(s.ID)},
		{"reserved", 7, uint32(s.Reserved)},
		{"is_enabled", 1, boolBit(s.Enabled)},
		{"light_switch_state", 8, uint32(s.LightSwitchState)},
		{"light_level_to_open", 4, uint32(s.LightToOpen)},
		{"light_level_to_close", 4, uint32(s.LightToClose)},
		{"start_hour", 8, uint32(s.StartHour)},
		{"start_minute", 8, uint32(s.StartMinute)},
		{"end_hour", 8, uint32(s.EndHour)},
		{"end_minute", 8, uint32(s.EndMinute)},
	}
	for _, st := range steps {
		if err := g.Uint(st.name, st.width, st.v); err != nil {
			return nil, err
		}
	}
	return g.Bytes("season")
}

func readSeason(r *protocol.Reader, field string) (Season, error) {
	g, err := r.Group(field, SeasonSize)
	if err != nil {
		return Season{}, err
	}
	var s Season
	fields := []struct {
		name  string
		width int
		set   func(uint32)
	}{
		{"season_id", 8, func(v uint32) { s.ID = uint8(v) }},
		{"reserved", 7, func(v uint32) { s.Reserved = uint8(v) }},
		{"is_enabled", 1, func(v uint32) { s.Enabled = v == 1 }},
		{"light_switch_state", 8, func(v uint32) { s.LightSwitchState = LightSwitchState(v) }},
		{"light_level_to_open", 4, func(v uint32) { s.LightToOpen = LightLevel(v) }},
		{"light_level_to_close", 4, func(v uint32) { s.LightToClose = LightLevel(v) }},
		{"start_hour", 8, func(v uint32) { s.StartHour = uint8(v) }},
		{"start_minute", 8, func(v uint32) { s.StartMinute = uint8(v) }},
		{"end_hour", 8, func(v uint32) { s.EndHour = uint8(v) }},
		{"end_minute", 8, func(v uint32) { s.EndMinute = uint8(v) }},
	}
	for _, fd := range fields {
		v, err := g.Uint(fd.name, fd.width)
		if err != nil {
			return Season{}, err
		}
		fd.set(v)
	}
	if err := g.Done(field); err != nil {
		return Season{}, err
	}
	return s, nil
}

func buildSeason(f protocol.Fields) (Season, error) {
	if err := f.Only("season_id", "is_enabled", "light_switch_state", "light_level_to_open",
		"light_level_to_close", "start_hour", "start_minute", "end_hour", "end_minute"); err != nil {
		return Season{}, err
	}
	var s Season
	id, err := rangedField(f, "season_id", protocol.Range{Min: 0, Max: 255}, 0)
	if err != nil {
		return Season{}, err
	}
	s.ID = uint8(id)
	if s.Enabled, err = f.BoolOr("is_enabled", true); err != nil {
		return Season{}, err
	}
	if s.LightSwitchState, err = protocol.FieldEnum(f, "light_switch_state", LightSwitchStates); err != nil {
		return Season{}, err
	}
	if s.LightToOpen, err = protocol.FieldEnum(f, "light_level_to_open", LightLevels); err != nil {
		return Season{}, err
	}
	if s.LightToClose, err = protocol.FieldEnum(f, "light_level_to_close", LightLevels); err != nil {
		return Season{}, err
	}
	for _, c := range []struct {
		name string
		rng  protocol.Range
		dst  *uint8
	}{
		{"start_hour", hourRange, &s.StartHour},
		{"start_minute", minuteRange, &s.StartMinute},
		{"end_hour", hourRange, &s.EndHour},
		{"end_minute", minuteRange, &s.EndMinute},
	} {
		v, err := rangedField(f, c.name, c.rng, -1)
		if err != nil {
			return Season{}, err
		}
		*c.dst = uint8(v)
	}
	return s, nil
}

type UpdateSeason struct {
	Season Season `json:"season"`
}

func (UpdateSeason) Shape() Shape      { return ShapeUpdateSeason }
func (UpdateSeason) sealed()           {}
func (p UpdateSeason) Validate() error { return p.Season.Validate() }

func (p UpdateSeason) AppendBinary(b []byte) ([]byte, error) {
	packed, err := p.Season.pack()
	if err != nil {
		return nil, err
	}
	return append(b, packed...), nil
}

func decodeUpdateSeason(r *protocol.Reader) (Payload, error) {
	s, err := readSeason(r, "season")
	if err != nil {
		return nil, err
	}
	return UpdateSeason{Season: s}, nil
}

func buildUpdateSeason(f protocol.Fields) (Payload, error) {
	if err := f.Only("season"); err != nil {
		return nil, err
	}
	sub, err := f.Sub("season")
	if err != nil {
		return nil, err
	}
	s, err := buildSeason(sub)
	if err != nil {
		return nil, err
	}
	return UpdateSeason{Season: s}, nil
}

// ListSeasons is the device's summer and winter schedule pair.
type ListSeasons struct {
	Summer Season `json:"summer"`
	Winter Season `json:"winter"`
}

func (ListSeasons) Shape() Shape { return ShapeListSeasons }
func (ListSeasons) sealed()      {}

func (p ListSeasons) Validate() error {
	if err := p.Summer.Validate(); err != nil {
		return err
	}
	return p.Winter.Validate()
}

func (p ListSeasons) AppendBinary(b []byte) ([]byte, error) {
	summer, err := p.Summer.pack()
	if err != nil {
		return nil, err
	}
	winter, err := p.Winter.pack()
	if err != nil {
		return nil, err
	}
	b = append(b, summer...)
	return append(b, winter...), nil
}

func decodeListSeasons(r *protocol.Reader) (Payload, error) {
	summer, err := readSeason(r, "summer")
	if err != nil {
		return nil, err
	}
	winter, err := readSeason(r, "winter")
	if err != nil {
		return nil, err
	}
	return ListSeasons{Summer: summer, Winter: winter}, nil
}

func buildListSeasons(f protocol.Fields) (Payload, error) {
	if err := f.Only("summer", "winter"); err != nil {
		return nil, err
	}
	var out ListSeasons
	for _, c := range []struct {
		name string
		dst  *Season
	}{{"summer", &out.Summer}, {"winter", &out.Winter}} {
		sub, err := f.Sub(c.name)
		if err != nil {
			return nil, err
		}
		if *c.dst, err = buildSeason(sub); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func boolBit(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
