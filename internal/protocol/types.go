package protocol

import (
	"fmt"
	"sort"
	"strings"
)

// MessageType is the one-byte opcode of a frame.
type MessageType uint8

const (
	MsgControlDirect        MessageType = 0x0A
	MsgControlPosition      MessageType = 0x0D
	MsgUpdateSettings       MessageType = 0x11
	MsgUpdateDeviceTime     MessageType = 0x14
	MsgUpdateTimer          MessageType = 0x15
	MsgUpdateSeason         MessageType = 0x16
	MsgPassword             MessageType = 0x17
	MsgPasswordChange       MessageType = 0x18
	MsgUpdateLimitOrReset   MessageType = 0x22
	MsgUpdateName           MessageType = 0x35
	MsgFinishedMoving       MessageType = 0xA1
	MsgRequestBatteryStatus MessageType = 0xA2
	MsgSpeed                MessageType = 0xA3
	MsgFault                MessageType = 0xA6
	MsgRequestSettings      MessageType = 0xA7
	MsgListTimers           MessageType = 0xA8
	MsgListSeasons          MessageType = 0xA9
	MsgRequestIlluminance   MessageType = 0xAA
)

var messageTypeNames = map[MessageType]string{
	MsgControlDirect:        "CONTROL_DIRECT",
	MsgControlPosition:      "CONTROL_POSITION",
	MsgUpdateSettings:       "UPDATE_SETTINGS",
	MsgUpdateDeviceTime:     "UPDATE_DEVICE_TIME",
	MsgUpdateTimer:          "UPDATE_TIMER",
	MsgUpdateSeason:         "UPDATE_SEASON",
	MsgPassword:             "PASSWORD",
	MsgPasswordChange:       "PASSWORD_CHANGE",
	MsgUpdateLimitOrReset:   "UPDATE_LIMIT_OR_RESET",
	MsgUpdateName:           "UPDATE_NAME",
	MsgFinishedMoving:       "FINISHED_MOVING",
	MsgRequestBatteryStatus: "REQUEST_BATTERY_STATUS",
	MsgSpeed:                "SPEED",
	MsgFault:                "FAULT",
	MsgRequestSettings:      "REQUEST_SETTINGS",
	MsgListTimers:           "LIST_TIMERS",
	MsgListSeasons:          "LIST_SEASONS",
	MsgRequestIlluminance:   "REQUEST_ILLUMINANCE",
}

// ParseMessageType maps an opcode byte onto the closed MessageType set.
func ParseMessageType(b byte) (MessageType, error) {
	mt := MessageType(b)
	if _, ok := messageTypeNames[mt]; !ok {
		return 0, Framingf(ErrUnknownMessageType, "opcode", "unmapped opcode 0x%02X", b)
	}
	return mt, nil
}

// LookupMessageType resolves a name such as "REQUEST_SETTINGS" (case
// insensitive) or a numeric opcode such as "0xA7".
func LookupMessageType(s string) (MessageType, bool) {
	s = strings.TrimSpace(s)
	for mt, name := range messageTypeNames {
		if strings.EqualFold(name, s) {
			return mt, true
		}
	}
	var n uint
	if _, err := fmt.Sscanf(strings.ToLower(s), "0x%x", &n); err == nil && n <= 0xFF {
		mt := MessageType(n)
		if _, ok := messageTypeNames[mt]; ok {
			return mt, true
		}
	}
	return 0, false
}

// MessageTypes lists every defined opcode in ascending order.
func MessageTypes() []MessageType {
	out := make([]MessageType, 0, len(messageTypeNames))
	for mt := range messageTypeNames {
		out = append(out, mt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m MessageType) String() string {
	if name, ok := messageTypeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("MessageType(0x%02X)", uint8(m))
}

func (m MessageType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Direction tells which side produced a message.
type Direction uint8

const (
	// Request is client to device; these carry the client tag.
	Request Direction = iota
	// Response is device to client, including unsolicited notifications.
	Response
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Request {
		return Response
	}
	return Request
}

func (d Direction) String() string {
	if d == Response {
		return "response"
	}
	return "request"
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// ParseDirection accepts "request"/"response" and the aliases "client"/"device".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "request", "req", "client":
		return Request, nil
	case "response", "resp", "device", "notification":
		return Response, nil
	default:
		return 0, fmt.Errorf("protocol: unknown direction %q", s)
	}
}
