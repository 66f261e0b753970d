package schema

import (
	"encoding/json"

	"github.com/danmuck/am43ctl/internal/protocol"
)

// DirectAction is the body of CONTROL_DIRECT.
type DirectAction uint8

const (
	ActionStop  DirectAction = 0xCC
	ActionOpen  DirectAction = 0xDD
	ActionClose DirectAction = 0xEE
)

var DirectActions = protocol.Enum[DirectAction]{Name: "DirectAction", Values: map[DirectAction]string{
	ActionStop:  "STOP",
	ActionOpen:  "OPEN",
	ActionClose: "CLOSE",
}}

func (v DirectAction) String() string               { return DirectActions.String(v) }
func (v DirectAction) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// DayOfWeek counts from Sunday = 0, matching time.Weekday.
type DayOfWeek uint8

const (
	Sunday DayOfWeek = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var DaysOfWeek = protocol.Enum[DayOfWeek]{Name: "DayOfWeek", Values: map[DayOfWeek]string{
	Sunday:    "SUNDAY",
	Monday:    "MONDAY",
	Tuesday:   "TUESDAY",
	Wednesday: "WEDNESDAY",
	Thursday:  "THURSDAY",
	Friday:    "FRIDAY",
	Saturday:  "SATURDAY",
}}

func (v DayOfWeek) String() string               { return DaysOfWeek.String(v) }
func (v DayOfWeek) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

type TimerAction uint8

const (
	TimerUpdate TimerAction = 0
	TimerDelete TimerAction = 1
)

var TimerActions = protocol.Enum[TimerAction]{Name: "TimerAction", Values: map[TimerAction]string{
	TimerUpdate: "UPDATE",
	TimerDelete: "DELETE",
}}

func (v TimerAction) String() string               { return TimerActions.String(v) }
func (v TimerAction) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

type LimitCommand uint8

const (
	LimitInit LimitCommand = 0x00
	LimitSave LimitCommand = 0x20
	LimitExit LimitCommand = 0x40
)

var LimitCommands = protocol.Enum[LimitCommand]{Name: "LimitCommand", Values: map[LimitCommand]string{
	LimitInit: "INIT",
	LimitSave: "SAVE",
	LimitExit: "EXIT",
}}

func (v LimitCommand) String() string               { return LimitCommands.String(v) }
func (v LimitCommand) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

type LimitMode uint8

const (
	LimitModeUndefined LimitMode = 0
	LimitModeTop       LimitMode = 1
	LimitModeBottom    LimitMode = 2
)

var LimitModes = protocol.Enum[LimitMode]{Name: "LimitMode", Values: map[LimitMode]string{
	LimitModeUndefined: "UNDEFINED",
	LimitModeTop:       "TOP",
	LimitModeBottom:    "BOTTOM",
}}

func (v LimitMode) String() string               { return LimitModes.String(v) }
func (v LimitMode) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// ButtonsMode is a one-bit setting.
type ButtonsMode uint8

const (
	ButtonsContinuous ButtonsMode = 0
	ButtonsInching    ButtonsMode = 1
)

var ButtonsModes = protocol.Enum[ButtonsMode]{Name: "ButtonsMode", Values: map[ButtonsMode]string{
	ButtonsContinuous: "CONTINUOUS",
	ButtonsInching:    "INCHING",
}}

func (v ButtonsMode) String() string               { return ButtonsModes.String(v) }
func (v ButtonsMode) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// MotorDirection is a one-bit setting.
type MotorDirection uint8

const (
	MotorReverse MotorDirection = 0
	MotorForward MotorDirection = 1
)

var MotorDirections = protocol.Enum[MotorDirection]{Name: "MotorDirection", Values: map[MotorDirection]string{
	MotorReverse: "REVERSE",
	MotorForward: "FORWARD",
}}

func (v MotorDirection) String() string               { return MotorDirections.String(v) }
func (v MotorDirection) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// Diameter is the wheel gear diameter in millimetres.
type Diameter uint8

const (
	Diameter13mm Diameter = 13
	Diameter18mm Diameter = 18
	Diameter29mm Diameter = 29
)

var Diameters = protocol.Enum[Diameter]{Name: "Diameter", Values: map[Diameter]string{
	Diameter13mm: "DIAMETER_13MM",
	Diameter18mm: "DIAMETER_18MM",
	Diameter29mm: "DIAMETER_29MM",
}}

func (v Diameter) String() string               { return Diameters.String(v) }
func (v Diameter) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// DeviceType is a four-bit field.
type DeviceType uint8

const (
	VenetianBlind  DeviceType = 1
	VerticalBlind  DeviceType = 2
	RollerShade    DeviceType = 3
	HoneycombShade DeviceType = 4
	ZebraShade     DeviceType = 5
	TripleShade    DeviceType = 8
)

var DeviceTypes = protocol.Enum[DeviceType]{Name: "DeviceType", Values: map[DeviceType]string{
	VenetianBlind:  "VENETIAN_BLIND",
	VerticalBlind:  "VERTICAL_BLIND",
	RollerShade:    "ROLLER_SHADE",
	HoneycombShade: "HONEYCOMB_SHADE",
	ZebraShade:     "ZEBRA_SHADE",
	TripleShade:    "TRIPLE_SHADE",
}}

func (v DeviceType) String() string               { return DeviceTypes.String(v) }
func (v DeviceType) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

type LightSwitchState uint8

const (
	SwitchAllClose             LightSwitchState = 0x00
	SwitchOpenToOpenCloseClose LightSwitchState = 0x10
	SwitchOpenToStopCloseOpen  LightSwitchState = 0x01
	SwitchOpenToOpenCloseOpen  LightSwitchState = 0x11
)

var LightSwitchStates = protocol.Enum[LightSwitchState]{Name: "LightSwitchState", Values: map[LightSwitchState]string{
	SwitchAllClose:             "ALL_CLOSE",
	SwitchOpenToOpenCloseClose: "OPEN2OPEN_CLOSE2CLOSE",
	SwitchOpenToStopCloseOpen:  "OPEN2STOP_CLOSE2OPEN",
	SwitchOpenToOpenCloseOpen:  "OPEN2OPEN_CLOSE2OPEN",
}}

func (v LightSwitchState) String() string               { return LightSwitchStates.String(v) }
func (v LightSwitchState) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// LightLevel is a four-bit illuminance threshold.
type LightLevel uint8

const (
	Lux20 LightLevel = iota + 1
	Lux100
	Lux200
	Lux300
	Lux500
	Lux800
	Lux1000
	Lux2000
	Lux5000
)

var LightLevels = protocol.Enum[LightLevel]{Name: "LightLevel", Values: map[LightLevel]string{
	Lux20:   "LUX_20",
	Lux100:  "LUX_100",
	Lux200:  "LUX_200",
	Lux300:  "LUX_300",
	Lux500:  "LUX_500",
	Lux800:  "LUX_800",
	Lux1000: "LUX_1000",
	Lux2000: "LUX_2000",
	Lux5000: "LUX_5000",
}}

func (v LightLevel) String() string               { return LightLevels.String(v) }
func (v LightLevel) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// ResultCode is the body of an OperationResult.
type ResultCode uint8

const (
	ResultSuccess ResultCode = 0x5A
	ResultFailure ResultCode = 0xA5
)

var ResultCodes = protocol.Enum[ResultCode]{Name: "ResultCode", Values: map[ResultCode]string{
	ResultSuccess: "SUCCESS",
	ResultFailure: "FAILURE",
}}

func (v ResultCode) String() string               { return ResultCodes.String(v) }
func (v ResultCode) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// LimitResult is the body of a LimitOrResetResult.
type LimitResult uint8

const (
	LimitInitSuccess   LimitResult = 0x5A
	LimitUpdateSuccess LimitResult = 0x5B
	LimitResetSuccess  LimitResult = 0xC5
	LimitTimeout       LimitResult = 0xA5
	LimitExited        LimitResult = 0x5C
	LimitFailure       LimitResult = 0xB5
)

var LimitResults = protocol.Enum[LimitResult]{Name: "LimitResult", Values: map[LimitResult]string{
	LimitInitSuccess:   "LIMIT_INIT_SUCCESS",
	LimitUpdateSuccess: "LIMIT_UPDATE_SUCCESS",
	LimitResetSuccess:  "RESET_SUCCESS",
	LimitTimeout:       "TIMEOUT",
	LimitExited:        "EXIT",
	LimitFailure:       "FAILURE",
}}

func (v LimitResult) String() string               { return LimitResults.String(v) }
func (v LimitResult) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// Succeeded reports whether the device accepted the limit command.
func (v LimitResult) Succeeded() bool {
	switch v {
	case LimitInitSuccess, LimitUpdateSuccess, LimitResetSuccess, LimitExited:
		return true
	default:
		return false
	}
}

// TimerRepeat is the weekday bitmask of a timer.
type TimerRepeat uint8

const (
	RepeatSunday TimerRepeat = 1 << iota
	RepeatMonday
	RepeatTuesday
	RepeatWednesday
	RepeatThursday
	RepeatFriday
	RepeatSaturday
)

var RepeatFlags = protocol.Flags[TimerRepeat]{Name: "TimerRepeat", Bits: []protocol.FlagBit[TimerRepeat]{
	{Bit: RepeatSunday, Name: "SUNDAY"},
	{Bit: RepeatMonday, Name: "MONDAY"},
	{Bit: RepeatTuesday, Name: "TUESDAY"},
	{Bit: RepeatWednesday, Name: "WEDNESDAY"},
	{Bit: RepeatThursday, Name: "THURSDAY"},
	{Bit: RepeatFriday, Name: "FRIDAY"},
	{Bit: RepeatSaturday, Name: "SATURDAY"},
}}

func (v TimerRepeat) Has(day TimerRepeat) bool { return v&day == day }

func (v TimerRepeat) MarshalJSON() ([]byte, error) {
	return json.Marshal(RepeatFlags.Split(v))
}
