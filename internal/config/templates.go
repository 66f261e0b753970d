package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "tool", "server":
		return toolTemplate, nil
	case "message", "messages":
		return messageTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const toolTemplate = `[log]
level = "info"
timestamp = true
no_color = false

[server]
addr = ":9043"
node = "am43ctl"
cors_origins = ["http://localhost:3000"]
read_timeout = "5s"
write_timeout = "5s"
# tls_cert = "/etc/am43ctl/server.crt"
# tls_key = "/etc/am43ctl/server.key"
`

const messageTemplate = `[[message]]
direction = "request"
type = "REQUEST_BATTERY_STATUS"

[[message]]
direction = "request"
type = "CONTROL_POSITION"
[message.fields]
position = 40

[[message]]
direction = "request"
type = "UPDATE_TIMER"
[message.fields]
timer_id = 0
action = "UPDATE"
[message.fields.timer]
target_position = 100
repeat = ["MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY"]
hour = 7
minute = 30

[[message]]
direction = "response"
type = "CONTROL_POSITION"
success = true
`
