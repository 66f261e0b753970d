package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/am43ctl/internal/logging"
)

// Config is the am43ctl tool configuration.
type Config struct {
	Log    LogConfig
	Server ServerConfig
}

type LogConfig struct {
	Level     string
	Timestamp bool
	NoColor   bool
}

type ServerConfig struct {
	Addr         string
	Node         string
	CorsOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// TLSCert and TLSKey switch the listener to HTTPS when both are set.
	TLSCert string
	TLSKey  string
}

func (s ServerConfig) TLSEnabled() bool {
	return s.TLSCert != "" && s.TLSKey != ""
}

type fileConfig struct {
	Log struct {
		Level     string `toml:"level"`
		Timestamp bool   `toml:"timestamp"`
		NoColor   bool   `toml:"no_color"`
	} `toml:"log"`
	Server struct {
		Addr         string   `toml:"addr"`
		Node         string   `toml:"node"`
		CorsOrigins  []string `toml:"cors_origins"`
		ReadTimeout  string   `toml:"read_timeout"`
		WriteTimeout string   `toml:"write_timeout"`
		TLSCert      string   `toml:"tls_cert"`
		TLSKey       string   `toml:"tls_key"`
	} `toml:"server"`
}

func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Timestamp: true},
		Server: ServerConfig{
			Addr:         ":9043",
			Node:         "am43ctl",
			CorsOrigins:  NormalizeOrigins(nil),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
	}
}

// Load overlays the keys present in path onto Default and validates the
// result.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load am43ctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load am43ctl config: unknown key %s", undecoded[0])
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}
	if meta.IsDefined("server", "addr") {
		cfg.Server.Addr = strings.TrimSpace(raw.Server.Addr)
	}
	if meta.IsDefined("server", "node") {
		cfg.Server.Node = strings.TrimSpace(raw.Server.Node)
	}
	if meta.IsDefined("server", "cors_origins") {
		cfg.Server.CorsOrigins = NormalizeOrigins(raw.Server.CorsOrigins)
	}
	if meta.IsDefined("server", "tls_cert") {
		cfg.Server.TLSCert = strings.TrimSpace(raw.Server.TLSCert)
	}
	if meta.IsDefined("server", "tls_key") {
		cfg.Server.TLSKey = strings.TrimSpace(raw.Server.TLSKey)
	}
	if meta.IsDefined("server", "read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Server.ReadTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse read_timeout: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}
	if meta.IsDefined("server", "write_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Server.WriteTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse write_timeout: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("log config: unknown level %q", c.Log.Level)
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		return fmt.Errorf("server config addr %q: %w", c.Server.Addr, err)
	}
	if strings.TrimSpace(c.Server.Node) == "" {
		return fmt.Errorf("server config missing node")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server config timeouts must be positive")
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		return fmt.Errorf("server config needs both tls_cert and tls_key")
	}
	return nil
}

// Logging converts the [log] section for logging.Install.
func (c LogConfig) Logging() logging.Config {
	lvl, _ := logging.ParseLevel(c.Level)
	cfg := logging.DefaultConfig(logging.ProfileRuntime)
	cfg.Level = lvl
	cfg.Timestamp = c.Timestamp
	cfg.NoColor = c.NoColor
	return cfg
}

// NormalizeOrigins trims origins and drops blanks. An empty result falls
// back to the local dashboard origin; the CORS middleware rejects an empty
// allow list.
func NormalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return []string{"http://localhost:3000"}
	}
	return out
}
