package schema

import (
	"encoding/json"

	"github.com/danmuck/am43ctl/internal/protocol"
)

// maxPayload is the largest payload a one-byte length can describe.
const maxPayload = 0xFF

// BatteryStatus reports the battery level in percent.
type BatteryStatus struct {
	Reserved [4]byte `json:"-"`
	Level    uint8   `json:"level"`
}

func (BatteryStatus) Shape() Shape    { return ShapeBatteryStatus }
func (BatteryStatus) Validate() error { return nil }
func (BatteryStatus) sealed()         {}

func (p BatteryStatus) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, p.Reserved[:]...)
	return append(b, p.Level), nil
}

func decodeBatteryStatus(r *protocol.Reader) (Payload, error) {
	var p BatteryStatus
	reserved, err := r.Bytes("reserved", len(p.Reserved))
	if err != nil {
		return nil, err
	}
	copy(p.Reserved[:], reserved)
	if p.Level, err = r.Uint8("level"); err != nil {
		return nil, err
	}
	return p, nil
}

func buildBatteryStatus(f protocol.Fields) (Payload, error) {
	if err := f.Only("level"); err != nil {
		return nil, err
	}
	level, err := rangedField(f, "level", protocol.Range{Min: 0, Max: 255}, -1)
	if err != nil {
		return nil, err
	}
	return BatteryStatus{Level: uint8(level)}, nil
}

// OperationResult acknowledges most write requests.
type OperationResult struct {
	Result ResultCode `json:"result"`
}

// NewOperationResult returns the acknowledgement for success.
func NewOperationResult(success bool) OperationResult {
	if success {
		return OperationResult{Result: ResultSuccess}
	}
	return OperationResult{Result: ResultFailure}
}

func (OperationResult) Shape() Shape    { return ShapeOperationResult }
func (OperationResult) sealed()         {}
func (p OperationResult) Success() bool { return p.Result == ResultSuccess }

func (p OperationResult) Validate() error {
	return ResultCodes.Check("result", p.Result)
}

func (p OperationResult) AppendBinary(b []byte) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return append(b, byte(p.Result)), nil
}

func (p OperationResult) MarshalJSON() ([]byte, error) {
	return ackJSON(p.Result.String(), p.Success())
}

func decodeOperationResult(r *protocol.Reader) (Payload, error) {
	v, err := r.Uint8("result")
	if err != nil {
		return nil, err
	}
	return OperationResult{Result: ResultCode(v)}, nil
}

func buildOperationResult(f protocol.Fields) (Payload, error) {
	if err := f.Only("result", "success"); err != nil {
		return nil, err
	}
	if f.Has("result") {
		code, err := protocol.FieldEnum(f, "result", ResultCodes)
		if err != nil {
			return nil, err
		}
		return OperationResult{Result: code}, nil
	}
	if !f.Has("success") {
		return nil, protocol.Constructionf(protocol.ErrMissingSuccess, "success", "acknowledgement needs result or success")
	}
	ok, err := f.Bool("success")
	if err != nil {
		return nil, err
	}
	return NewOperationResult(ok), nil
}

// Illuminance reports the light sensor reading.
type Illuminance struct {
	HasLightDevice bool  `json:"has_light_device"`
	Level          uint8 `json:"level"`
}

func (Illuminance) Shape() Shape    { return ShapeIlluminance }
func (Illuminance) Validate() error { return nil }
func (Illuminance) sealed()         {}

func (p Illuminance) AppendBinary(b []byte) ([]byte, error) {
	w := protocol.NewWriter(b)
	w.Flag(p.HasLightDevice)
	w.Uint8(p.Level)
	return w.Result(), nil
}

func decodeIlluminance(r *protocol.Reader) (Payload, error) {
	has, err := r.Flag("has_light_device")
	if err != nil {
		return nil, err
	}
	level, err := r.Uint8("level")
	if err != nil {
		return nil, err
	}
	return Illuminance{HasLightDevice: has, Level: level}, nil
}

func buildIlluminance(f protocol.Fields) (Payload, error) {
	if err := f.Only("has_light_device", "level"); err != nil {
		return nil, err
	}
	has, err := f.BoolOr("has_light_device", true)
	if err != nil {
		return nil, err
	}
	level, err := rangedField(f, "level", protocol.Range{Min: 0, Max: 255}, -1)
	if err != nil {
		return nil, err
	}
	return Illuminance{HasLightDevice: has, Level: uint8(level)}, nil
}

// FinishedMoving is sent by the device when the blind stops.
type FinishedMoving struct {
	Reserved1 byte    `json:"-"`
	Position  uint8   `json:"position"`
	Reserved2 [2]byte `json:"-"`
}

func (FinishedMoving) Shape() Shape    { return ShapeFinishedMoving }
func (FinishedMoving) Validate() error { return nil }
func (FinishedMoving) sealed()         {}

func (p FinishedMoving) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, p.Reserved1, p.Position)
	return append(b, p.Reserved2[:]...), nil
}

func decodeFinishedMoving(r *protocol.Reader) (Payload, error) {
	var p FinishedMoving
	var err error
	if p.Reserved1, err = r.Uint8("reserved1"); err != nil {
		return nil, err
	}
	if p.Position, err = r.Uint8("position"); err != nil {
		return nil, err
	}
	reserved, err := r.Bytes("reserved2", len(p.Reserved2))
	if err != nil {
		return nil, err
	}
	copy(p.Reserved2[:], reserved)
	return p, nil
}

func buildFinishedMoving(f protocol.Fields) (Payload, error) {
	if err := f.Only("position"); err != nil {
		return nil, err
	}
	pos, err := rangedField(f, "position", protocol.Range{Min: 0, Max: 255}, -1)
	if err != nil {
		return nil, err
	}
	return FinishedMoving{Position: uint8(pos)}, nil
}

// LimitOrResetResult acknowledges UPDATE_LIMIT_OR_RESET.
type LimitOrResetResult struct {
	Result LimitResult `json:"result"`
}

// NewLimitOrResetResult maps a bare success flag onto a result code.
func NewLimitOrResetResult(success bool) LimitOrResetResult {
	if success {
		return LimitOrResetResult{Result: LimitUpdateSuccess}
	}
	return LimitOrResetResult{Result: LimitFailure}
}

func (LimitOrResetResult) Shape() Shape    { return ShapeLimitOrResetResult }
func (LimitOrResetResult) sealed()         {}
func (p LimitOrResetResult) Success() bool { return p.Result.Succeeded() }

func (p LimitOrResetResult) Validate() error {
	return LimitResults.Check("result", p.Result)
}

func (p LimitOrResetResult) AppendBinary(b []byte) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return append(b, byte(p.Result)), nil
}

func (p LimitOrResetResult) MarshalJSON() ([]byte, error) {
	return ackJSON(p.Result.String(), p.Success())
}

func decodeLimitOrResetResult(r *protocol.Reader) (Payload, error) {
	v, err := r.Uint8("result")
	if err != nil {
		return nil, err
	}
	return LimitOrResetResult{Result: LimitResult(v)}, nil
}

func buildLimitOrResetResult(f protocol.Fields) (Payload, error) {
	if err := f.Only("result", "success"); err != nil {
		return nil, err
	}
	if f.Has("result") {
		code, err := protocol.FieldEnum(f, "result", LimitResults)
		if err != nil {
			return nil, err
		}
		return LimitOrResetResult{Result: code}, nil
	}
	if !f.Has("success") {
		return nil, protocol.Constructionf(protocol.ErrMissingSuccess, "success", "acknowledgement needs result or success")
	}
	ok, err := f.Bool("success")
	if err != nil {
		return nil, err
	}
	return NewLimitOrResetResult(ok), nil
}

func ackJSON(result string, success bool) ([]byte, error) {
	return json.Marshal(struct {
		Result  string `json:"result"`
		Success bool   `json:"success"`
	}{result, success})
}
