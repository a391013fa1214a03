package storage

import (
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// GetString returns config[key], or defaultValue when the key is absent or empty.
func GetString(config map[string]string, key, defaultValue string) string {
	if v, ok := config[key]; ok && v != "" {
		return v
	}
	return defaultValue
}

// GetBool parses true/false, 1/0 and yes/no, case-insensitively.
func GetBool(config map[string]string, key string, defaultValue bool) (bool, error) {
	v := GetString(config, key, "")
	if v == "" {
		return defaultValue, nil
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, &ConfigError{Field: key, Value: v, Message: "must be a boolean (true/false, 1/0, yes/no)"}
}

// GetInt parses a base-10 integer.
func GetInt(config map[string]string, key string, defaultValue int) (int, error) {
	v := GetString(config, key, "")
	if v == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ConfigError{Field: key, Value: v, Message: "must be an integer", Cause: err}
	}
	return i, nil
}

// GetDuration accepts Go duration strings ("5s", "1m30s") or integer seconds.
func GetDuration(config map[string]string, key string, defaultValue time.Duration) (time.Duration, error) {
	v := GetString(config, key, "")
	if v == "" {
		return defaultValue, nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, &ConfigError{Field: key, Value: v, Message: "must be a duration (e.g., '5s', '1m30s') or integer seconds"}
}

// GetFileMode parses an octal permission string such as "0600".
func GetFileMode(config map[string]string, key string, defaultValue fs.FileMode) (fs.FileMode, error) {
	v := GetString(config, key, "")
	if v == "" {
		return defaultValue, nil
	}
	m, err := strconv.ParseUint(v, 8, 32)
	if err != nil || m > 0o777 {
		return 0, &ConfigError{Field: key, Value: v, Message: "must be an octal permission string (e.g. 0600)", Cause: err}
	}
	return fs.FileMode(m), nil
}

// ExpandPath expands a leading ~/ to the user's home directory and cleans the path.
func ExpandPath(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
		return path
	}
	return filepath.Clean(path)
}

// MergeConfig returns a new map holding dst overlaid with src.
func MergeConfig(dst, src map[string]string) map[string]string {
	result := make(map[string]string, len(dst)+len(src))
	maps.Copy(result, dst)
	maps.Copy(result, src)
	return result
}
