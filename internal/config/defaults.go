// Package config loads idb client settings from flags, IDB_* environment
// variables and an optional config.yaml.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Defaults holds the built-in value of every setting.
var Defaults = struct {
	DataDir         string
	Host            string
	Port            int
	ChunkSize       int
	DialTimeout     time.Duration
	MaxMsgSize      int
	RegistryBackend string
	LogLevel        string
	LogFormat       string
	LogMaxSizeMB    int
	LogMaxBackups   int
	OTLPProtocol    string
	ServiceName     string
}{
	DataDir:         DefaultDataDir(),
	Host:            "localhost",
	Port:            10882,
	ChunkSize:       512 * 1024,
	DialTimeout:     5 * time.Second,
	MaxMsgSize:      16 * 1024 * 1024,
	RegistryBackend: "fs",
	LogLevel:        "warn",
	LogFormat:       "text",
	LogMaxSizeMB:    50,
	LogMaxBackups:   3,
	OTLPProtocol:    "http",
	ServiceName:     "idb",
}

// DefaultDataDir returns ~/.idb, or .idb when there is no home directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".idb"
	}
	return filepath.Join(home, ".idb")
}
