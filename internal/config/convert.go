package config

import (
	"fmt"
	"strings"

	"github.com/danmuck/am43ctl/internal/protocol"
	"github.com/danmuck/am43ctl/internal/protocol/schema"
)

// Resolve maps the textual message onto registry inputs. An empty direction
// means request.
func (m MessageSpec) Resolve() (protocol.Direction, protocol.MessageType, schema.Request, error) {
	dir := protocol.Request
	if strings.TrimSpace(m.Direction) != "" {
		d, err := protocol.ParseDirection(m.Direction)
		if err != nil {
			return 0, 0, schema.Request{}, err
		}
		dir = d
	}
	mt, ok := protocol.LookupMessageType(m.Type)
	if !ok {
		return 0, 0, schema.Request{}, protocol.Constructionf(protocol.ErrUnknownMessageType, "type", "unknown message type %q", m.Type)
	}
	req := schema.Request{Success: m.Success}
	if len(m.Fields) > 0 {
		req.Fields = protocol.Fields(m.Fields)
	}
	return dir, mt, req, nil
}

func (m MessageSpec) String() string {
	dir := m.Direction
	if dir == "" {
		dir = protocol.Request.String()
	}
	return fmt.Sprintf("%s %s", dir, strings.ToUpper(strings.TrimSpace(m.Type)))
}
