package envelope

import (
	"bytes"
	"errors"

	"github.com/danmuck/am43ctl/internal/protocol"
	"github.com/danmuck/am43ctl/internal/protocol/frame"
	"github.com/danmuck/am43ctl/internal/protocol/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ClientTag prefixes every client to device envelope.
var ClientTag = [4]byte{0x00, 0xFF, 0x00, 0x00}

const (
	SentinelSuccess byte = 0x31
	SentinelFailure byte = 0xCE
)

// Envelope is a frame plus its direction. The tag and footer are derived on
// encode and never stored.
type Envelope struct {
	Direction protocol.Direction   `json:"direction"`
	Type      protocol.MessageType `json:"type"`
	Payload   schema.Payload       `json:"payload"`
}

func (e Envelope) Frame() frame.Frame {
	return frame.Frame{Type: e.Type, Payload: e.Payload}
}

// Success reports the acknowledgement result; ok is false for other payloads.
func (e Envelope) Success() (success, ok bool) {
	ack, ok := e.Payload.(schema.Acknowledgement)
	if !ok {
		return false, false
	}
	return ack.Success(), true
}

// Checksum is the XOR of every byte in b.
func Checksum(b []byte) byte {
	var sum byte
	for _, c := range b {
		sum ^= c
	}
	return sum
}

// Sentinel returns the acknowledgement footer for success.
func Sentinel(success bool) byte {
	if success {
		return SentinelSuccess
	}
	return SentinelFailure
}

func isSentinel(b byte) bool {
	return b == SentinelSuccess || b == SentinelFailure
}

// Codec encodes and decodes envelopes against one registry. It holds no
// mutable state and is safe for concurrent use.
type Codec struct {
	reg *schema.Registry
	log *zerolog.Logger
}

// NewCodec returns a codec over reg. A nil logger follows the global zerolog
// logger.
func NewCodec(reg *schema.Registry, logger *zerolog.Logger) *Codec {
	if reg == nil {
		reg = schema.Default()
	}
	return &Codec{reg: reg, log: logger}
}

var defaultCodec = NewCodec(schema.Default(), nil)

// Default returns the codec over the canonical registry.
func Default() *Codec { return defaultCodec }

func (c *Codec) Registry() *schema.Registry { return c.reg }

func (c *Codec) logger() *zerolog.Logger {
	if c.log != nil {
		return c.log
	}
	return &log.Logger
}

// Encode validates env and returns its wire bytes.
func (c *Codec) Encode(env Envelope) ([]byte, error) {
	b, err := c.encode(env)
	if err != nil {
		c.logger().Debug().
			Str("direction", env.Direction.String()).
			Str("type", env.Type.String()).
			Err(err).
			Msg("envelope.Encode failed")
		return nil, err
	}
	return b, nil
}

func (c *Codec) encode(env Envelope) ([]byte, error) {
	if env.Direction != protocol.Request && env.Direction != protocol.Response {
		return nil, protocol.Constructionf(nil, "direction", "invalid direction %d", env.Direction)
	}
	if _, err := c.reg.ResolveEncode(env.Direction, env.Type, env.Payload); err != nil {
		return nil, err
	}
	var b []byte
	if env.Direction == protocol.Request {
		b = append(b, ClientTag[:]...)
	}
	start := len(b)
	b, err := frame.Append(b, env.Frame())
	if err != nil {
		return nil, err
	}
	if ack, ok := env.Payload.(schema.Acknowledgement); ok {
		return append(b, Sentinel(ack.Success())), nil
	}
	return append(b, Checksum(b[start:])), nil
}

// Decode parses exactly one envelope from b.
//
// A footer that disagrees with the checksum is an integrity error unless it
// is the sentinel of a well formed acknowledgement. When the frame is also
// malformed the structural cause is joined to ErrChecksumMismatch, so a
// corrupted byte anywhere in the envelope reports ErrIntegrity.
func (c *Codec) Decode(b []byte) (Envelope, error) {
	env, err := c.decode(b)
	if err != nil {
		c.logger().Debug().
			Str("hex", protocol.FormatHex(b)).
			Str("kind", protocol.KindOf(err).String()).
			Err(err).
			Msg("envelope.Decode failed")
		return Envelope{}, err
	}
	return env, nil
}

func (c *Codec) decode(b []byte) (Envelope, error) {
	dir := protocol.Response
	body := b
	if bytes.HasPrefix(b, ClientTag[:]) {
		dir = protocol.Request
		body = b[len(ClientTag):]
	}
	if len(body) < frame.HeaderLen+1 {
		return Envelope{}, protocol.Framingf(protocol.ErrShortBuffer, "envelope", "%d bytes after tag, need at least %d", len(body), frame.HeaderLen+1)
	}

	last := len(body) - 1
	footer := body[last]
	sum := Checksum(body[:last])
	fr, n, err := frame.Decode(c.reg, dir, body[:last])
	if err == nil && n != last {
		err = protocol.Framingf(protocol.ErrTrailingBytes, "envelope", "%d bytes between frame and footer", last-n)
	}
	if footer != sum && (err != nil || !isSentinel(footer)) {
		return Envelope{}, checksumMismatch(footer, sum, err)
	}
	if err != nil {
		return Envelope{}, err
	}

	env := Envelope{Direction: dir, Type: fr.Type, Payload: fr.Payload}
	if ack, ok := fr.Payload.(schema.Acknowledgement); ok {
		if !isSentinel(footer) {
			return Envelope{}, protocol.Integrityf(protocol.ErrBadSentinel, "footer", "0x%02X is not a sentinel", footer)
		}
		if (footer == SentinelSuccess) != ack.Success() {
			return Envelope{}, protocol.Integrityf(protocol.ErrBadSentinel, "footer", "sentinel 0x%02X disagrees with result", footer)
		}
		return env, nil
	}
	if footer != sum {
		return Envelope{}, checksumMismatch(footer, sum, nil)
	}
	return env, nil
}

func checksumMismatch(footer, sum byte, structural error) error {
	if structural == nil {
		return protocol.Integrityf(protocol.ErrChecksumMismatch, "footer", "got 0x%02X want 0x%02X", footer, sum)
	}
	cause := error(protocol.ErrChecksumMismatch)
	var pe *protocol.Error
	if errors.As(structural, &pe) && pe.Err != nil {
		cause = errors.Join(protocol.ErrChecksumMismatch, pe.Err)
	}
	return protocol.Integrityf(cause, "footer", "got 0x%02X want 0x%02X (%v)", footer, sum, structural)
}

// Prepare builds a validated envelope using the registry's prepare modes.
func (c *Codec) Prepare(dir protocol.Direction, mt protocol.MessageType, req schema.Request) (Envelope, error) {
	p, err := c.reg.Prepare(dir, mt, req)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Direction: dir, Type: mt, Payload: p}, nil
}

// ConfirmationExpected reports whether the peer answers env with an
// acknowledgement.
func (c *Codec) ConfirmationExpected(env Envelope) bool {
	_, ok := c.reg.AcknowledgementFor(env.Direction.Opposite(), env.Type)
	return ok
}

// PrepareConfirmation builds the acknowledgement answering env.
func (c *Codec) PrepareConfirmation(env Envelope, success bool) (Envelope, error) {
	dir := env.Direction.Opposite()
	d, ok := c.reg.AcknowledgementFor(dir, env.Type)
	if !ok {
		return Envelope{}, protocol.Constructionf(protocol.ErrShapeNotAllowed, "payload", "%s %s is not acknowledged", env.Direction, env.Type)
	}
	p, err := d.Acknowledge(success)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Direction: dir, Type: env.Type, Payload: p}, nil
}

// Confirm decodes b and encodes the acknowledgement answering it.
func (c *Codec) Confirm(b []byte, success bool) ([]byte, error) {
	env, err := c.Decode(b)
	if err != nil {
		return nil, err
	}
	reply, err := c.PrepareConfirmation(env, success)
	if err != nil {
		return nil, err
	}
	return c.Encode(reply)
}

func Encode(env Envelope) ([]byte, error) { return defaultCodec.Encode(env) }

func Decode(b []byte) (Envelope, error) { return defaultCodec.Decode(b) }

func Prepare(dir protocol.Direction, mt protocol.MessageType, req schema.Request) (Envelope, error) {
	return defaultCodec.Prepare(dir, mt, req)
}

func ConfirmationExpected(env Envelope) bool { return defaultCodec.ConfirmationExpected(env) }

func PrepareConfirmation(env Envelope, success bool) (Envelope, error) {
	return defaultCodec.PrepareConfirmation(env, success)
}
