package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetString(t *testing.T) {
	config := map[string]string{"path": "/var/idb", "empty": ""}

	if got := GetString(config, "path", "default"); got != "/var/idb" {
		t.Errorf("GetString = %q", got)
	}
	if got := GetString(config, "missing", "default"); got != "default" {
		t.Errorf("GetString missing = %q", got)
	}
	if got := GetString(config, "empty", "default"); got != "default" {
		t.Errorf("GetString empty = %q", got)
	}
}

func TestGetBool(t *testing.T) {
	config := map[string]string{"a": "YES", "b": "0", "bad": "maybe"}

	if v, err := GetBool(config, "a", false); err != nil || !v {
		t.Errorf("GetBool a: got %v, %v", v, err)
	}
	if v, err := GetBool(config, "b", true); err != nil || v {
		t.Errorf("GetBool b: got %v, %v", v, err)
	}
	if v, err := GetBool(config, "missing", true); err != nil || !v {
		t.Errorf("GetBool missing: got %v, %v", v, err)
	}
	var ce *ConfigError
	if _, err := GetBool(config, "bad", false); !errors.As(err, &ce) || ce.Value != "maybe" {
		t.Errorf("GetBool bad: got %v", err)
	}
}

func TestGetInt(t *testing.T) {
	config := map[string]string{"db": "15", "bad": "abc"}

	if v, err := GetInt(config, "db", 0); err != nil || v != 15 {
		t.Errorf("GetInt = %d, %v", v, err)
	}
	if v, err := GetInt(config, "missing", 99); err != nil || v != 99 {
		t.Errorf("GetInt missing = %d, %v", v, err)
	}
	if _, err := GetInt(config, "bad", 0); err == nil {
		t.Error("GetInt bad: expected error")
	}
}

func TestGetDuration(t *testing.T) {
	config := map[string]string{"dur": "1m30s", "secs": "10", "bad": "soon"}

	if v, err := GetDuration(config, "dur", 0); err != nil || v != 90*time.Second {
		t.Errorf("GetDuration dur = %v, %v", v, err)
	}
	if v, err := GetDuration(config, "secs", 0); err != nil || v != 10*time.Second {
		t.Errorf("GetDuration secs = %v, %v", v, err)
	}
	if v, err := GetDuration(config, "missing", time.Minute); err != nil || v != time.Minute {
		t.Errorf("GetDuration missing = %v, %v", v, err)
	}
	if _, err := GetDuration(config, "bad", 0); err == nil {
		t.Error("GetDuration bad: expected error")
	}
}

func TestGetFileMode(t *testing.T) {
	tests := []struct {
		value   string
		want    fs.FileMode
		wantErr bool
	}{
		{"0600", 0o600, false},
		{"644", 0o644, false},
		{"", 0o640, false},
		{"rw", 0, true},
		{"0999", 0, true},
		{"01777", 0, true},
	}
	for _, tt := range tests {
		got, err := GetFileMode(map[string]string{"perm": tt.value}, "perm", 0o640)
		if (err != nil) != tt.wantErr {
			t.Errorf("GetFileMode(%q) error = %v", tt.value, err)
			continue
		}
		if got != tt.want {
			t.Errorf("GetFileMode(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestExpandPath(t *testing.T) {
	if got := ExpandPath("/a/b/../c"); got != "/a/c" {
		t.Errorf("ExpandPath = %q", got)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}
	if got, want := ExpandPath("~/.idb/companions"), filepath.Join(home, ".idb/companions"); got != want {
		t.Errorf("ExpandPath ~ = %q, want %q", got, want)
	}
}

func TestMergeConfig(t *testing.T) {
	defaults := map[string]string{"path": "~/.idb", "sync": "true"}
	got := MergeConfig(defaults, map[string]string{"path": "/tmp/x"})

	if got["path"] != "/tmp/x" || got["sync"] != "true" {
		t.Errorf("MergeConfig = %v", got)
	}
	if defaults["path"] != "~/.idb" {
		t.Error("MergeConfig mutated dst")
	}
	if len(MergeConfig(nil, nil)) != 0 {
		t.Error("MergeConfig(nil, nil) not empty")
	}
}

func TestConfigErrorString(t *testing.T) {
	tests := []struct {
		err  *ConfigError
		want string
	}{
		{NewConfigError("badger", "", "failed"), "badger: failed"},
		{NewConfigError("fs", "path", "cannot be empty"), "fs: path: cannot be empty"},
		{NewConfigErrorWithValue("redis", "db", "-1", "must be non-negative"), `redis: db="-1": must be non-negative`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestConfigErrorUnwrap(t *testing.T) {
	cause := errors.New("permission denied")
	if !errors.Is(NewConfigErrorWithCause("sqlite", "path", "open failed", cause), cause) {
		t.Error("expected cause to be unwrappable")
	}
	if NewConfigError("fs", "path", "bad").Unwrap() != nil {
		t.Error("Unwrap: expected nil when no cause")
	}
}
