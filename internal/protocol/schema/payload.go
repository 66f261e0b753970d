package schema

import (
	"encoding/json"

	"github.com/danmuck/am43ctl/internal/protocol"
)

// Shape names a payload layout.
type Shape string

const (
	ShapePassword           Shape = "Password"
	ShapeUpdateName         Shape = "UpdateName"
	ShapeDirectControl      Shape = "DirectControl"
	ShapeUpdateDeviceTime   Shape = "UpdateDeviceTime"
	ShapeQuery              Shape = "Query"
	ShapePositionControl    Shape = "PositionControl"
	ShapeUpdateTimer        Shape = "UpdateTimer"
	ShapeLimitOrReset       Shape = "LimitOrReset"
	ShapeUpdateSeason       Shape = "UpdateSeason"
	ShapeUpdateSettings     Shape = "UpdateSettings"
	ShapeBatteryStatus      Shape = "BatteryStatus"
	ShapeOperationResult    Shape = "OperationResult"
	ShapeSettings           Shape = "Settings"
	ShapeListTimers         Shape = "ListTimers"
	ShapeIlluminance        Shape = "Illuminance"
	ShapeFinishedMoving     Shape = "FinishedMoving"
	ShapeLimitOrResetResult Shape = "LimitOrResetResult"
	ShapeListSeasons        Shape = "ListSeasons"
	ShapeRaw                Shape = "Raw"
)

// Packing tells whether a shape's fields occupy whole bytes or share them.
type Packing uint8

const (
	ByteAligned Packing = iota
	BitPacked
)

func (p Packing) String() string {
	if p == BitPacked {
		return "bit-packed"
	}
	return "byte-aligned"
}

func (p Packing) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Payload is the closed set of message bodies. Every implementation lives in
// this package.
type Payload interface {
	Shape() Shape
	// Validate checks every field constraint, including cross-field ones.
	Validate() error
	// AppendBinary validates and appends the wire encoding to b.
	AppendBinary(b []byte) ([]byte, error)
	sealed()
}

// Acknowledgement is a payload whose envelope footer is a success/failure
// sentinel instead of a checksum.
type Acknowledgement interface {
	Payload
	Success() bool
}

// IsAcknowledgement reports whether p uses the sentinel footer.
func IsAcknowledgement(p Payload) bool {
	_, ok := p.(Acknowledgement)
	return ok
}

// Marshal encodes p into a fresh slice.
func Marshal(p Payload) ([]byte, error) {
	return p.AppendBinary(nil)
}

// Raw is the opaque body of a message type with no further structure in a
// given direction.
type Raw struct {
	Data []byte
}

func (Raw) Shape() Shape    { return ShapeRaw }
func (Raw) Validate() error { return nil }
func (Raw) sealed()         {}

func (p Raw) AppendBinary(b []byte) ([]byte, error) {
	return append(b, p.Data...), nil
}

func (p Raw) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"data": protocol.FormatHex(p.Data)})
}

func decodeRaw(r *protocol.Reader) (Payload, error) {
	b, err := r.Bytes("data", r.Remaining())
	if err != nil {
		return nil, err
	}
	return Raw{Data: b}, nil
}

// Descriptor is the static description of one shape.
type Descriptor struct {
	Shape   Shape
	Packing Packing
	// Ack marks acknowledgement shapes.
	Ack bool
	// Size is the exact encoded size, or 0 when the size follows the
	// payload length.
	Size int
	// Elem is the per-element size of length-derived arrays.
	Elem int

	decode func(r *protocol.Reader) (Payload, error)
	build  func(f protocol.Fields) (Payload, error)
	ack    func(success bool) Payload
}

// Decode parses exactly len(b) bytes as this shape.
func (d *Descriptor) Decode(b []byte) (Payload, error) {
	if d.Size > 0 && len(b) != d.Size {
		if len(b) < d.Size {
			return nil, protocol.Framingf(protocol.ErrShortBuffer, string(d.Shape), "payload is %d bytes, shape needs %d", len(b), d.Size)
		}
		return nil, protocol.Framingf(protocol.ErrTrailingBytes, string(d.Shape), "payload is %d bytes, shape needs %d", len(b), d.Size)
	}
	if d.Elem > 0 && len(b)%d.Elem != 0 {
		return nil, protocol.Framingf(protocol.ErrTrailingBytes, string(d.Shape), "payload of %d bytes is not a multiple of %d", len(b), d.Elem)
	}
	r := protocol.NewReader(b)
	p, err := d.decode(r)
	if err != nil {
		return nil, err
	}
	if err := r.Done(string(d.Shape)); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Build constructs the shape from named fields.
func (d *Descriptor) Build(f protocol.Fields) (Payload, error) {
	if f == nil {
		f = protocol.Fields{}
	}
	p, err := d.build(f)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Acknowledge constructs an acknowledgement shape carrying success.
func (d *Descriptor) Acknowledge(success bool) (Payload, error) {
	if !d.Ack || d.ack == nil {
		return nil, protocol.Constructionf(protocol.ErrShapeNotAllowed, string(d.Shape), "not an acknowledgement shape")
	}
	return d.ack(success), nil
}

func rawDescriptor(length int) *Descriptor {
	return &Descriptor{
		Shape:   ShapeRaw,
		Packing: ByteAligned,
		Size:    length,
		decode:  decodeRaw,
		build: func(f protocol.Fields) (Payload, error) {
			if err := f.Only("data"); err != nil {
				return nil, err
			}
			s, err := f.String("data")
			if err != nil {
				return nil, err
			}
			b, err := protocol.ParseHex(s)
			if err != nil {
				return nil, protocol.Constructionf(protocol.ErrFieldTypeMismatch, "data", "not hex: %v", err)
			}
			return Raw{Data: b}, nil
		},
	}
}
