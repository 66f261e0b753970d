package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// MessageFile is a TOML document describing envelopes to encode.
//
//	[[message]]
//	direction = "request"
//	type = "CONTROL_POSITION"
//	[message.fields]
//	position = 40
type MessageFile struct {
	Messages []MessageSpec `toml:"message"`
}

// MessageSpec names one envelope. Success selects the acknowledgement mode;
// otherwise Fields build the default shape.
type MessageSpec struct {
	Direction string         `toml:"direction" json:"direction"`
	Type      string         `toml:"type" json:"type"`
	Success   *bool          `toml:"success,omitempty" json:"success,omitempty"`
	Fields    map[string]any `toml:"fields,omitempty" json:"fields,omitempty"`
}

func LoadMessageFile(path string) (MessageFile, error) {
	var file MessageFile
	if err := loadToml(path, &file); err != nil {
		return MessageFile{}, err
	}
	if err := ValidateMessageFile(file); err != nil {
		return MessageFile{}, fmt.Errorf("message file %s: %w", path, err)
	}
	return file, nil
}

func ParseMessageFile(data []byte) (MessageFile, error) {
	var file MessageFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return MessageFile{}, fmt.Errorf("message file parse failed: %w", err)
	}
	if err := ValidateMessageFile(file); err != nil {
		return MessageFile{}, err
	}
	return file, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateMessageFile(file MessageFile) error {
	if len(file.Messages) == 0 {
		return fmt.Errorf("no [[message]] entries")
	}
	for i, msg := range file.Messages {
		if err := ValidateMessageSpec(msg); err != nil {
			return fmt.Errorf("message[%d] invalid: %w", i, err)
		}
	}
	return nil
}

func ValidateMessageSpec(msg MessageSpec) error {
	if strings.TrimSpace(msg.Type) == "" {
		return fmt.Errorf("type is required")
	}
	if msg.Success != nil && len(msg.Fields) > 0 {
		return fmt.Errorf("success and fields are mutually exclusive")
	}
	return nil
}
