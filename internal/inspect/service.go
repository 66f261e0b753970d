package inspect

import (
	"errors"
	"fmt"

	"github.com/danmuck/am43ctl/internal/config"
	"github.com/danmuck/am43ctl/internal/observability"
	"github.com/danmuck/am43ctl/internal/protocol"
	"github.com/danmuck/am43ctl/internal/protocol/envelope"
	"github.com/danmuck/am43ctl/internal/protocol/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrBadInput marks input that never reached the codec, such as malformed hex.
var ErrBadInput = errors.New("inspect: bad input")

// Report is the JSON view of one decoded or encoded envelope.
type Report struct {
	Direction            protocol.Direction   `json:"direction"`
	Type                 protocol.MessageType `json:"type"`
	Opcode               string               `json:"opcode"`
	Shape                schema.Shape         `json:"shape"`
	Packing              schema.Packing       `json:"packing"`
	Acknowledgement      bool                 `json:"acknowledgement"`
	Success              *bool                `json:"success,omitempty"`
	ConfirmationExpected bool                 `json:"confirmation_expected"`
	Payload              schema.Payload       `json:"payload"`
	Hex                  string               `json:"hex"`
	Size                 int                  `json:"size"`
}

// Service exposes the codec to the CLI and HTTP API and records metrics for
// every call.
type Service struct {
	codec *envelope.Codec
	log   zerolog.Logger
}

func NewService(codec *envelope.Codec, logger *zerolog.Logger) *Service {
	if codec == nil {
		codec = envelope.Default()
	}
	l := log.Logger
	if logger != nil {
		l = *logger
	}
	return &Service{codec: codec, log: l.With().Str("component", "inspect").Logger()}
}

func (s *Service) Codec() *envelope.Codec { return s.codec }

// DecodeHex parses s as hex and decodes it as one envelope.
func (s *Service) DecodeHex(in string) (Report, error) {
	b, err := protocol.ParseHex(in)
	if err != nil {
		observability.RecordCodec("decode", "unknown", "unknown", "bad_input", 0)
		return Report{}, fmt.Errorf("%w: %v", ErrBadInput, err)
	}
	return s.Decode(b)
}

func (s *Service) Decode(b []byte) (Report, error) {
	env, err := s.codec.Decode(b)
	if err != nil {
		observability.RecordCodec("decode", "unknown", "unknown", protocol.KindOf(err).String(), len(b))
		return Report{}, err
	}
	observability.RecordCodec("decode", env.Direction.String(), env.Type.String(), "ok", len(b))
	return s.report(env, b), nil
}

// Encode prepares and encodes msg.
func (s *Service) Encode(msg config.MessageSpec) (Report, error) {
	dir, mt, req, err := msg.Resolve()
	if err != nil {
		observability.RecordCodec("encode", msg.Direction, "unknown", resultLabel(err), 0)
		return Report{}, err
	}
	env, err := s.codec.Prepare(dir, mt, req)
	if err != nil {
		observability.RecordCodec("encode", dir.String(), mt.String(), resultLabel(err), 0)
		return Report{}, err
	}
	return s.encode(env)
}

func (s *Service) encode(env envelope.Envelope) (Report, error) {
	b, err := s.codec.Encode(env)
	if err != nil {
		observability.RecordCodec("encode", env.Direction.String(), env.Type.String(), resultLabel(err), 0)
		return Report{}, err
	}
	observability.RecordCodec("encode", env.Direction.String(), env.Type.String(), "ok", len(b))
	s.log.Debug().
		Str("direction", env.Direction.String()).
		Str("type", env.Type.String()).
		Str("hex", protocol.FormatHex(b)).
		Msg("encoded")
	return s.report(env, b), nil
}

// EncodeFile encodes every message of a TOML message file in order.
func (s *Service) EncodeFile(path string) ([]Report, error) {
	file, err := config.LoadMessageFile(path)
	if err != nil {
		return nil, err
	}
	out := make([]Report, 0, len(file.Messages))
	for i, msg := range file.Messages {
		r, err := s.Encode(msg)
		if err != nil {
			return nil, fmt.Errorf("message[%d] %s: %w", i, msg, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Confirm decodes in and encodes the acknowledgement answering it.
func (s *Service) Confirm(in string, success bool) (Report, error) {
	b, err := protocol.ParseHex(in)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrBadInput, err)
	}
	env, err := s.codec.Decode(b)
	if err != nil {
		observability.RecordCodec("confirm", "unknown", "unknown", resultLabel(err), len(b))
		return Report{}, err
	}
	reply, err := s.codec.PrepareConfirmation(env, success)
	if err != nil {
		observability.RecordCodec("confirm", env.Direction.String(), env.Type.String(), resultLabel(err), len(b))
		return Report{}, err
	}
	report, err := s.encode(reply)
	if err != nil {
		return Report{}, err
	}
	observability.RecordConfirmation(env.Type.String(), success)
	return report, nil
}

// Routes lists the dispatch table.
func (s *Service) Routes() []schema.Route {
	return s.codec.Registry().Routes()
}

func (s *Service) report(env envelope.Envelope, b []byte) Report {
	r := Report{
		Direction:            env.Direction,
		Type:                 env.Type,
		Opcode:               fmt.Sprintf("0x%02X", uint8(env.Type)),
		Shape:                env.Payload.Shape(),
		Acknowledgement:      schema.IsAcknowledgement(env.Payload),
		ConfirmationExpected: s.codec.ConfirmationExpected(env),
		Payload:              env.Payload,
		Hex:                  protocol.FormatHex(b),
		Size:                 len(b),
	}
	if d, err := s.codec.Registry().ResolveEncode(env.Direction, env.Type, env.Payload); err == nil {
		r.Packing = d.Packing
	}
	if ok, isAck := env.Success(); isAck {
		r.Success = &ok
	}
	return r
}

func resultLabel(err error) string {
	if k := protocol.KindOf(err); k != 0 {
		return k.String()
	}
	return "error"
}
