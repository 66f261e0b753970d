package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/danmuck/am43ctl/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Shape descriptors. Each is shared by every opcode that carries the shape.
var (
	descPassword           = &Descriptor{Shape: ShapePassword, Size: 2, decode: decodePassword, build: buildPassword}
	descUpdateName         = &Descriptor{Shape: ShapeUpdateName, decode: decodeUpdateName, build: buildUpdateName}
	descDirectControl      = &Descriptor{Shape: ShapeDirectControl, Size: 1, decode: decodeDirectControl, build: buildDirectControl}
	descUpdateDeviceTime   = &Descriptor{Shape: ShapeUpdateDeviceTime, Size: 4, decode: decodeUpdateDeviceTime, build: buildUpdateDeviceTime}
	descQuery              = &Descriptor{Shape: ShapeQuery, Size: 1, decode: decodeQuery, build: buildQuery}
	descPositionControl    = &Descriptor{Shape: ShapePositionControl, Size: 1, decode: decodePositionControl, build: buildPositionControl}
	descUpdateTimer        = &Descriptor{Shape: ShapeUpdateTimer, Size: 2 + TimerSize, decode: decodeUpdateTimer, build: buildUpdateTimer}
	descLimitOrReset       = &Descriptor{Shape: ShapeLimitOrReset, Size: 3, decode: decodeLimitOrReset, build: buildLimitOrReset}
	descUpdateSeason       = &Descriptor{Shape: ShapeUpdateSeason, Packing: BitPacked, Size: SeasonSize, decode: decodeUpdateSeason, build: buildUpdateSeason}
	descUpdateSettings     = &Descriptor{Shape: ShapeUpdateSettings, Packing: BitPacked, Size: UpdateSettingsSize, decode: decodeUpdateSettings, build: buildUpdateSettings}
	descBatteryStatus      = &Descriptor{Shape: ShapeBatteryStatus, Size: 5, decode: decodeBatteryStatus, build: buildBatteryStatus}
	descSettings           = &Descriptor{Shape: ShapeSettings, Packing: BitPacked, Size: SettingsSize, decode: decodeSettings, build: buildSettings}
	descListTimers         = &Descriptor{Shape: ShapeListTimers, Elem: TimerSize, decode: decodeListTimers, build: buildListTimers}
	descIlluminance        = &Descriptor{Shape: ShapeIlluminance, Size: 2, decode: decodeIlluminance, build: buildIlluminance}
	descFinishedMoving     = &Descriptor{Shape: ShapeFinishedMoving, Size: 4, decode: decodeFinishedMoving, build: buildFinishedMoving}
	descListSeasons        = &Descriptor{Shape: ShapeListSeasons, Packing: BitPacked, Size: 2 * SeasonSize, decode: decodeListSeasons, build: buildListSeasons}
	descOperationResult    = &Descriptor{Shape: ShapeOperationResult, Ack: true, Size: 1, decode: decodeOperationResult, build: buildOperationResult, ack: func(ok bool) Payload { return NewOperationResult(ok) }}
	descLimitOrResetResult = &Descriptor{Shape: ShapeLimitOrResetResult, Ack: true, Size: 1, decode: decodeLimitOrResetResult, build: buildLimitOrResetResult, ack: func(ok bool) Payload { return NewLimitOrResetResult(ok) }}
)

// Table maps opcodes to their candidate shapes in priority order.
type Table map[protocol.MessageType][]*Descriptor

// RequestTable is the client to device dispatch table.
func RequestTable() Table {
	return Table{
		protocol.MsgPassword:             {descPassword},
		protocol.MsgPasswordChange:       {descPassword},
		protocol.MsgUpdateName:           {descUpdateName},
		protocol.MsgControlDirect:        {descDirectControl},
		protocol.MsgUpdateDeviceTime:     {descUpdateDeviceTime},
		protocol.MsgRequestSettings:      {descQuery},
		protocol.MsgRequestBatteryStatus: {descQuery},
		protocol.MsgRequestIlluminance:   {descQuery},
		protocol.MsgUpdateTimer:          {descUpdateTimer},
		protocol.MsgControlPosition:      {descPositionControl},
		protocol.MsgUpdateLimitOrReset:   {descLimitOrReset},
		protocol.MsgUpdateSeason:         {descUpdateSeason},
		protocol.MsgUpdateSettings:       {descUpdateSettings},
	}
}

// ResponseTable is the device to client dispatch table. Battery status
// answers with either a reading or a bare acknowledgement depending on
// firmware, so the reading is tried first.
func ResponseTable() Table {
	return Table{
		protocol.MsgRequestBatteryStatus: {descBatteryStatus, descOperationResult},
		protocol.MsgUpdateName:           {descOperationResult},
		protocol.MsgPasswordChange:       {descOperationResult},
		protocol.MsgPassword:             {descOperationResult},
		protocol.MsgControlDirect:        {descOperationResult},
		protocol.MsgControlPosition:      {descOperationResult},
		protocol.MsgUpdateDeviceTime:     {descOperationResult},
		protocol.MsgRequestSettings:      {descSettings},
		protocol.MsgListTimers:           {descListTimers},
		protocol.MsgUpdateTimer:          {descOperationResult},
		protocol.MsgRequestIlluminance:   {descIlluminance},
		protocol.MsgFinishedMoving:       {descFinishedMoving},
		protocol.MsgUpdateLimitOrReset:   {descLimitOrResetResult},
		protocol.MsgListSeasons:          {descListSeasons},
		protocol.MsgUpdateSeason:         {descOperationResult},
		protocol.MsgUpdateSettings:       {descOperationResult},
	}
}

// Registry resolves (direction, opcode) pairs to payload shapes. It is
// immutable after construction and safe for concurrent use.
type Registry struct {
	tables [2]Table
}

var defaultRegistry = NewRegistry(RequestTable(), ResponseTable())

// Default returns the registry built from the canonical dispatch tables.
func Default() *Registry { return defaultRegistry }

// NewRegistry copies the given tables into a new registry.
func NewRegistry(request, response Table) *Registry {
	r := &Registry{}
	for i, src := range []Table{request, response} {
		dst := make(Table, len(src))
		for mt, cands := range src {
			dst[mt] = append([]*Descriptor(nil), cands...)
		}
		r.tables[i] = dst
	}
	return r
}

func (r *Registry) table(dir protocol.Direction) Table {
	if dir == protocol.Response {
		return r.tables[1]
	}
	return r.tables[0]
}

// Candidates returns a copy of the declared shapes for dir and mt, or nil
// when the pair has no mapping.
func (r *Registry) Candidates(dir protocol.Direction, mt protocol.MessageType) []*Descriptor {
	cands := r.table(dir)[mt]
	if len(cands) == 0 {
		return nil
	}
	return append([]*Descriptor(nil), cands...)
}

// DefaultShape returns the first declared shape for dir and mt.
func (r *Registry) DefaultShape(dir protocol.Direction, mt protocol.MessageType) (*Descriptor, bool) {
	cands := r.Candidates(dir, mt)
	if len(cands) == 0 {
		return nil, false
	}
	return cands[0], true
}

// ResolveDecode returns the shapes to try for a payload of length bytes. An
// unmapped pair falls back to opaque bytes of that length.
func (r *Registry) ResolveDecode(dir protocol.Direction, mt protocol.MessageType, length int) []*Descriptor {
	if cands := r.Candidates(dir, mt); len(cands) > 0 {
		return cands
	}
	return []*Descriptor{rawDescriptor(length)}
}

// Attempt records why one candidate shape rejected a payload.
type Attempt struct {
	Shape Shape
	Err   error
}

// DecodeError aggregates the failures of every candidate shape.
type DecodeError struct {
	Direction protocol.Direction
	Type      protocol.MessageType
	Attempts  []Attempt
}

func (e *DecodeError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Shape, a.Err))
	}
	return fmt.Sprintf("schema: no shape accepted %s %s payload (%s)", e.Direction, e.Type, strings.Join(parts, "; "))
}

// Unwrap exposes every candidate failure to errors.Is and errors.As.
func (e *DecodeError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Decode parses payload with the first candidate that accepts it. With a
// single candidate its error is returned as is.
func (r *Registry) Decode(dir protocol.Direction, mt protocol.MessageType, payload []byte) (Payload, error) {
	cands := r.ResolveDecode(dir, mt, len(payload))
	var attempts []Attempt
	for _, d := range cands {
		p, err := d.Decode(payload)
		if err == nil {
			return p, nil
		}
		log.Debug().
			Str("direction", dir.String()).
			Str("type", mt.String()).
			Str("shape", string(d.Shape)).
			Err(err).
			Msg("schema.Decode candidate rejected")
		attempts = append(attempts, Attempt{Shape: d.Shape, Err: err})
	}
	if len(attempts) == 1 {
		return nil, attempts[0].Err
	}
	return nil, &DecodeError{Direction: dir, Type: mt, Attempts: attempts}
}

// ResolveEncode checks that p's shape is allowed for dir and mt and returns
// its descriptor. Opaque payloads are only allowed for unmapped pairs.
func (r *Registry) ResolveEncode(dir protocol.Direction, mt protocol.MessageType, p Payload) (*Descriptor, error) {
	if p == nil {
		return nil, protocol.Constructionf(protocol.ErrNoDefaultShape, "payload", "nil payload for %s %s", dir, mt)
	}
	for _, d := range r.ResolveDecode(dir, mt, 0) {
		if d.Shape == p.Shape() {
			return d, nil
		}
	}
	return nil, protocol.Constructionf(protocol.ErrShapeNotAllowed, "payload",
		"%s is not allowed for %s %s (allowed: %s)", p.Shape(), dir, mt, strings.Join(shapeNames(r.ResolveDecode(dir, mt, 0)), ","))
}

// AcknowledgementFor returns the acknowledgement shape answering mt in dir,
// if the default candidate is one.
func (r *Registry) AcknowledgementFor(dir protocol.Direction, mt protocol.MessageType) (*Descriptor, bool) {
	d, ok := r.DefaultShape(dir, mt)
	if !ok || !d.Ack {
		return nil, false
	}
	return d, true
}

// Route describes one dispatch entry for tooling.
type Route struct {
	Direction protocol.Direction   `json:"direction"`
	Type      protocol.MessageType `json:"type"`
	Opcode    string               `json:"opcode"`
	Shapes    []ShapeInfo          `json:"shapes"`
}

// ShapeInfo is the introspection view of a Descriptor.
type ShapeInfo struct {
	Shape           Shape   `json:"shape"`
	Packing         Packing `json:"packing"`
	Acknowledgement bool    `json:"acknowledgement"`
	Size            int     `json:"size,omitempty"`
	ElementSize     int     `json:"element_size,omitempty"`
}

func (d *Descriptor) Info() ShapeInfo {
	return ShapeInfo{Shape: d.Shape, Packing: d.Packing, Acknowledgement: d.Ack, Size: d.Size, ElementSize: d.Elem}
}

// Routes lists every opcode in both directions, unmapped ones as Raw.
func (r *Registry) Routes() []Route {
	var out []Route
	for _, dir := range []protocol.Direction{protocol.Request, protocol.Response} {
		for _, mt := range protocol.MessageTypes() {
			cands := r.ResolveDecode(dir, mt, 0)
			infos := make([]ShapeInfo, 0, len(cands))
			for _, d := range cands {
				infos = append(infos, d.Info())
			}
			out = append(out, Route{Direction: dir, Type: mt, Opcode: fmt.Sprintf("0x%02X", uint8(mt)), Shapes: infos})
		}
	}
	return out
}

// Shapes lists the distinct shapes the registry can produce, sorted by name.
func (r *Registry) Shapes() []Shape {
	seen := map[Shape]struct{}{ShapeRaw: {}}
	for _, t := range r.tables {
		for _, cands := range t {
			for _, d := range cands {
				seen[d.Shape] = struct{}{}
			}
		}
	}
	out := make([]Shape, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func shapeNames(ds []*Descriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, string(d.Shape))
	}
	return out
}

// IsDecodeError reports whether err aggregates several candidate failures.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
