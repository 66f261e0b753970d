package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/am43ctl/internal/protocol"
	"github.com/danmuck/am43ctl/internal/protocol/schema"
	"github.com/danmuck/am43ctl/internal/testutil/testlog"
	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadOverlaysDefinedKeys(t *testing.T) {
	testlog.Start(t)
	path := writeFile(t, "am43.toml", `
[log]
level = "debug"

[server]
addr = "127.0.0.1:8043"
read_timeout = "250ms"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := Default()
	if cfg.Log.Level != "debug" || cfg.Log.Timestamp != def.Log.Timestamp {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
	if cfg.Server.Addr != "127.0.0.1:8043" || cfg.Server.Node != def.Server.Node {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Server.ReadTimeout != 250*time.Millisecond || cfg.Server.WriteTimeout != def.Server.WriteTimeout {
		t.Fatalf("unexpected timeouts %+v", cfg.Server)
	}
	if cfg.Server.TLSEnabled() {
		t.Fatalf("tls should be off by default")
	}
	if got := cfg.Log.Logging().Level; got != zerolog.DebugLevel {
		t.Fatalf("logging level %v", got)
	}
}

func TestLoadEmptyCorsOriginsFallsBack(t *testing.T) {
	testlog.Start(t)
	def := Default().Server.CorsOrigins
	for name, body := range map[string]string{
		"empty": "[server]\ncors_origins = []\n",
		"blank": "[server]\ncors_origins = [\" \", \"\"]\n",
	} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, "am43.toml", body))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if strings.Join(cfg.Server.CorsOrigins, ",") != strings.Join(def, ",") {
				t.Fatalf("origins = %q want %q", cfg.Server.CorsOrigins, def)
			}
		})
	}
	cfg, err := Load(writeFile(t, "am43.toml", "[server]\ncors_origins = [\" https://blinds.local \", \"\"]\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Server.CorsOrigins) != 1 || cfg.Server.CorsOrigins[0] != "https://blinds.local" {
		t.Fatalf("origins = %q", cfg.Server.CorsOrigins)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"level":   "[log]\nlevel = \"loud\"\n",
		"addr":    "[server]\naddr = \"nope\"\n",
		"timeout": "[server]\nread_timeout = \"soon\"\n",
		"unknown": "[server]\nport = 1\n",
		"tls":     "[server]\ntls_cert = \"server.crt\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeFile(t, "bad.toml", body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestTemplatesParse(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	toolPath := filepath.Join(dir, "am43.toml")
	if err := WriteTemplate(toolPath, "tool", false); err != nil {
		t.Fatalf("write tool template: %v", err)
	}
	if _, err := Load(toolPath); err != nil {
		t.Fatalf("tool template does not load: %v", err)
	}
	if err := WriteTemplate(toolPath, "tool", false); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}

	msgPath := filepath.Join(dir, "messages.toml")
	if err := WriteTemplate(msgPath, "message", false); err != nil {
		t.Fatalf("write message template: %v", err)
	}
	file, err := LoadMessageFile(msgPath)
	if err != nil {
		t.Fatalf("message template does not load: %v", err)
	}
	reg := schema.Default()
	for i, msg := range file.Messages {
		dir, mt, req, err := msg.Resolve()
		if err != nil {
			t.Fatalf("message[%d] resolve: %v", i, err)
		}
		if _, err := reg.Prepare(dir, mt, req); err != nil {
			t.Fatalf("message[%d] %s prepare: %v", i, msg, err)
		}
	}

	if _, err := Template("device"); err == nil {
		t.Fatalf("unknown kind should fail")
	}
}

func TestParseMessageFileNestedFields(t *testing.T) {
	testlog.Start(t)
	file, err := ParseMessageFile([]byte(`
[[message]]
type = "update_season"
[message.fields.season]
season_id = 0
light_switch_state = "ALL_CLOSE"
light_level_to_open = "LUX_20"
light_level_to_close = "LUX_5000"
start_hour = 6
start_minute = 0
end_hour = 21
end_minute = 45
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	dir, mt, req, err := file.Messages[0].Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if dir != protocol.Request || mt != protocol.MsgUpdateSeason {
		t.Fatalf("resolved %s %s", dir, mt)
	}
	p, err := schema.Default().Prepare(dir, mt, req)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	season := p.(schema.UpdateSeason).Season
	if season.LightToClose != schema.Lux5000 || season.EndMinute != 45 || !season.Enabled {
		t.Fatalf("unexpected season %+v", season)
	}
}

func TestMessageSpecValidation(t *testing.T) {
	testlog.Start(t)
	ok := true
	if _, err := ParseMessageFile([]byte("")); err == nil {
		t.Fatalf("empty file should fail")
	}
	err := ValidateMessageSpec(MessageSpec{Type: "CONTROL_DIRECT", Success: &ok, Fields: map[string]any{"action": "OPEN"}})
	if err == nil {
		t.Fatalf("success with fields should fail")
	}
	_, _, _, err = MessageSpec{Type: "NOT_A_TYPE"}.Resolve()
	if !errors.Is(err, protocol.ErrUnknownMessageType) {
		t.Fatalf("expected unknown type, got %v", err)
	}
	_, _, _, err = MessageSpec{Direction: "sideways", Type: "FAULT"}.Resolve()
	if err == nil {
		t.Fatalf("bad direction should fail")
	}
}
