// Package kconfig handles klishd/klish process configuration, following
// the struct-tagged-file-plus-env-override pattern the example corpus
// uses for its own app configuration (see DESIGN.md).
package kconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// appName is the single source of truth for derived identifiers (env
// vars, config paths).
const appName = "klish"

var envConfigDir = "KLISH_CONFIG_DIR"

// DaemonConfig holds klishd's process configuration.
type DaemonConfig struct {
	// Socket is the unix-domain socket path klishd listens on.
	Socket string `toml:"socket"`

	// SchemeFiles lists deploy/yaml scheme sources loaded at startup, in
	// order; later files merge over earlier ones (spec.md §3 merge
	// semantics apply across files too).
	SchemeFiles []string `toml:"scheme_files"`

	// LogFile is where klishd writes its structured log; empty means
	// stderr.
	LogFile string `toml:"log_file"`
	Debug   bool   `toml:"debug"`

	// KeepaliveSeconds is the idle-connection keepalive interval (spec.md
	// §6 wire protocol).
	KeepaliveSeconds int `toml:"keepalive_seconds"`

	// CancelGraceSeconds is how long klishd waits after SIGTERM before
	// escalating to SIGKILL when cancelling a running action (spec.md
	// §4.G).
	CancelGraceSeconds int `toml:"cancel_grace_seconds"`
}

// ClientConfig holds klish's process configuration.
type ClientConfig struct {
	Socket  string `toml:"socket"`
	LogFile string `toml:"log_file"`
	Debug   bool   `toml:"debug"`
}

func defaultDaemonConfig() DaemonConfig {
	return DaemonConfig{
		Socket:             "/var/run/klishd.sock",
		KeepaliveSeconds:   30,
		CancelGraceSeconds: 5,
	}
}

func defaultClientConfig() ClientConfig {
	return ClientConfig{Socket: "/var/run/klishd.sock"}
}

// LoadDaemonConfig reads path (if non-empty and present) over the
// defaults; KLISH_CONFIG_DIR/klishd.toml is tried when path is empty.
func LoadDaemonConfig(path string) (DaemonConfig, error) {
	cfg := defaultDaemonConfig()
	path = resolvePath(path, "klishd.toml")
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("kconfig: load daemon config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadClientConfig reads path (if non-empty and present) over the
// defaults; KLISH_CONFIG_DIR/klish.toml is tried when path is empty.
func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := defaultClientConfig()
	path = resolvePath(path, "klish.toml")
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("kconfig: load client config %s: %w", path, err)
	}
	return cfg, nil
}

func resolvePath(explicit, filename string) string {
	if explicit != "" {
		return explicit
	}
	dir := os.Getenv(envConfigDir)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config", appName)
	}
	return filepath.Join(dir, filename)
}
