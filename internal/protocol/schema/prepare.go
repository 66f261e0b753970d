package schema

import (
	"github.com/danmuck/am43ctl/internal/protocol"
)

// Request selects how Prepare constructs a payload. At most one of Payload,
// Fields and Success should be set; a zero Request builds the default shape
// from no fields.
type Request struct {
	// Payload is used as is after checking it is allowed.
	Payload Payload
	// Fields builds the default shape from named values.
	Fields protocol.Fields
	// Success builds the acknowledgement shape directly.
	Success *bool
}

// Success is a convenience for Request.Success.
func Success(v bool) *bool { return &v }

// Prepare constructs and validates the payload for dir and mt.
//
// Acknowledgement shapes never default to success: they require either
// Success or a result/success field.
func (r *Registry) Prepare(dir protocol.Direction, mt protocol.MessageType, req Request) (Payload, error) {
	if req.Payload != nil {
		if _, err := r.ResolveEncode(dir, mt, req.Payload); err != nil {
			return nil, err
		}
		if err := req.Payload.Validate(); err != nil {
			return nil, err
		}
		return req.Payload, nil
	}

	cands := r.Candidates(dir, mt)
	if len(cands) == 0 {
		if req.Success != nil {
			return nil, protocol.Constructionf(protocol.ErrShapeNotAllowed, "success", "%s %s has no acknowledgement shape", dir, mt)
		}
		if len(req.Fields) == 0 {
			return nil, protocol.Constructionf(protocol.ErrNoDefaultShape, "payload", "%s %s has no shape; supply raw data", dir, mt)
		}
		return rawDescriptor(0).Build(req.Fields)
	}

	if req.Success != nil {
		for _, d := range cands {
			if d.Ack {
				return d.Acknowledge(*req.Success)
			}
		}
		return nil, protocol.Constructionf(protocol.ErrShapeNotAllowed, "success", "%s %s has no acknowledgement shape", dir, mt)
	}

	d := cands[0]
	if d.Ack && len(req.Fields) == 0 {
		return nil, protocol.Constructionf(protocol.ErrMissingSuccess, "success", "%s %s requires an explicit success flag", dir, mt)
	}
	return d.Build(req.Fields)
}
