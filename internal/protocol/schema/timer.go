package schema

import (
	"github.com/danmuck/am43ctl/internal/protocol"
)

const (
	// MaxTimers is the number of timer slots a device holds.
	MaxTimers = 4
	// TimerSize is the encoded size of one Timer.
	TimerSize = 5
)

// Timer is one scheduled move. The hour is stored on the device
// incremented by one; a nil Hour is wire byte 0, so the zero Timer has no
// hour.
type Timer struct {
	Enabled        bool        `json:"enabled"`
	TargetPosition uint8       `json:"target_position"`
	Repeat         TimerRepeat `json:"repeat"`
	Hour           *uint8      `json:"hour"`
	Minute         uint8       `json:"minute"`
}

// HourAt returns an hour for Timer.Hour.
func HourAt(h uint8) *uint8 { return &h }

// HasHour reports whether the timer carries an hour.
func (t Timer) HasHour() bool { return t.Hour != nil }

func (t Timer) Validate() error {
	if err := positionRange.Check("target_position", int(t.TargetPosition)); err != nil {
		return err
	}
	if t.HasHour() {
		if err := hourRange.Check("hour", int(*t.Hour)); err != nil {
			return err
		}
	}
	return minuteRange.Check("minute", int(t.Minute))
}

func (t Timer) append(w *protocol.Writer) error {
	if err := t.Validate(); err != nil {
		return err
	}
	w.Flag(t.Enabled)
	w.Uint8(t.TargetPosition)
	w.Uint8(uint8(t.Repeat))
	if t.HasHour() {
		w.Uint8(*t.Hour + 1)
	} else {
		w.Uint8(0)
	}
	w.Uint8(t.Minute)
	return nil
}

func readTimer(r *protocol.Reader) (Timer, error) {
	var t Timer
	var err error
	if t.Enabled, err = r.Flag("enabled"); err != nil {
		return Timer{}, err
	}
	if t.TargetPosition, err = r.Uint8("target_position"); err != nil {
		return Timer{}, err
	}
	repeat, err := r.Uint8("repeat")
	if err != nil {
		return Timer{}, err
	}
	t.Repeat = TimerRepeat(repeat)
	hour, err := r.Uint8("hour")
	if err != nil {
		return Timer{}, err
	}
	if hour > 0 {
		t.Hour = HourAt(hour - 1)
	}
	if t.Minute, err = r.Uint8("minute"); err != nil {
		return Timer{}, err
	}
	return t, nil
}

func buildTimer(f protocol.Fields) (Timer, error) {
	if err := f.Only("enabled", "target_position", "repeat", "hour", "minute"); err != nil {
		return Timer{}, err
	}
	enabled, err := f.BoolOr("enabled", true)
	if err != nil {
		return Timer{}, err
	}
	pos, err := rangedField(f, "target_position", positionRange, -1)
	if err != nil {
		return Timer{}, err
	}
	repeat, err := protocol.FieldFlags(f, "repeat", RepeatFlags)
	if err != nil {
		return Timer{}, err
	}
	var hour *uint8
	if f.Has("hour") {
		h, err := rangedField(f, "hour", hourRange, -1)
		if err != nil {
			return Timer{}, err
		}
		hour = HourAt(uint8(h))
	}
	minute, err := rangedField(f, "minute", minuteRange, 0)
	if err != nil {
		return Timer{}, err
	}
	return Timer{
		Enabled:        enabled,
		TargetPosition: uint8(pos),
		Repeat:         repeat,
		Hour:           hour,
		Minute:         uint8(minute),
	}, nil
}

// UpdateTimer writes or deletes one timer slot.
type UpdateTimer struct {
	TimerID uint8       `json:"timer_id"`
	Action  TimerAction `json:"action"`
	Timer   Timer       `json:"timer"`
}

func (UpdateTimer) Shape() Shape { return ShapeUpdateTimer }
func (UpdateTimer) sealed()      {}

func (p UpdateTimer) Validate() error {
	if err := timerIDRange.Check("timer_id", int(p.TimerID)); err != nil {
		return err
	}
	if err := TimerActions.Check("action", p.Action); err != nil {
		return err
	}
	return p.Timer.Validate()
}

func (p UpdateTimer) AppendBinary(b []byte) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	w := protocol.NewWriter(b)
	w.Uint8(p.TimerID)
	w.Uint8(uint8(p.Action))
	if err := p.Timer.append(w); err != nil {
		return nil, err
	}
	return w.Result(), nil
}

func decodeUpdateTimer(r *protocol.Reader) (Payload, error) {
	id, err := r.Uint8("timer_id")
	if err != nil {
		return nil, err
	}
	action, err := r.Uint8("action")
	if err != nil {
		return nil, err
	}
	t, err := readTimer(r)
	if err != nil {
		return nil, err
	}
	return UpdateTimer{TimerID: id, Action: TimerAction(action), Timer: t}, nil
}

func buildUpdateTimer(f protocol.Fields) (Payload, error) {
	if err := f.Only("timer_id", "action", "timer"); err != nil {
		return nil, err
	}
	id, err := rangedField(f, "timer_id", timerIDRange, -1)
	if err != nil {
		return nil, err
	}
	action := TimerUpdate
	if f.Has("action") {
		if action, err = protocol.FieldEnum(f, "action", TimerActions); err != nil {
			return nil, err
		}
	}
	sub, err := f.Sub("timer")
	if err != nil {
		return nil, err
	}
	t, err := buildTimer(sub)
	if err != nil {
		return nil, err
	}
	return UpdateTimer{TimerID: uint8(id), Action: action, Timer: t}, nil
}

// ListTimers holds every configured timer. The count follows the payload
// length.
type ListTimers struct {
	Timers []Timer `json:"timers"`
}

func (ListTimers) Shape() Shape { return ShapeListTimers }
func (ListTimers) sealed()      {}

func (p ListTimers) Validate() error {
	if len(p.Timers)*TimerSize > maxPayload {
		return protocol.Validationf(protocol.ErrPayloadTooLarge, "timers", "%d timers exceed one frame", len(p.Timers))
	}
	for _, t := range p.Timers {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (p ListTimers) AppendBinary(b []byte) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	w := protocol.NewWriter(b)
	for _, t := range p.Timers {
		if err := t.append(w); err != nil {
			return nil, err
		}
	}
	return w.Result(), nil
}

func decodeListTimers(r *protocol.Reader) (Payload, error) {
	timers := make([]Timer, 0, r.Remaining()/TimerSize)
	for r.Remaining() > 0 {
		t, err := readTimer(r)
		if err != nil {
			return nil, err
		}
		timers = append(timers, t)
	}
	return ListTimers{Timers: timers}, nil
}

func buildListTimers(f protocol.Fields) (Payload, error) {
	if err := f.Only("timers"); err != nil {
		return nil, err
	}
	if !f.Has("timers") {
		return ListTimers{Timers: []Timer{}}, nil
	}
	items, err := f.List("timers")
	if err != nil {
		return nil, err
	}
	timers := make([]Timer, 0, len(items))
	for _, it := range items {
		t, err := buildTimer(it)
		if err != nil {
			return nil, err
		}
		timers = append(timers, t)
	}
	return ListTimers{Timers: timers}, nil
}
