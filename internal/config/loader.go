package config

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "IDB"

// BindFlags registers the global flags on cmd and binds them to v.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	f := cmd.PersistentFlags()

	f.String("config", "", "config file path")
	f.StringP("output", "o", "text", "output format (text, json, markdown)")
	f.String("udid", "", "companion udid")
	f.String("host", "", "companion host (with --udid)")
	f.Int("port", 0, "companion port (with --udid)")
	f.Bool("local", false, "companion runs on this machine (with --udid)")
	f.Int("chunk-size", 0, "transfer chunk size in bytes")
	f.Duration("dial-timeout", 0, "time to wait for the companion connection")
	f.String("registry", "", "companion registry backend")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("log-format", "", "log format (json, text)")
	f.String("log-file", "", "also write logs to this file")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address")

	_ = v.BindPFlag("config_file", f.Lookup("config"))
	_ = v.BindPFlag("output", f.Lookup("output"))
	_ = v.BindPFlag("companion.udid", f.Lookup("udid"))
	_ = v.BindPFlag("companion.host", f.Lookup("host"))
	_ = v.BindPFlag("companion.port", f.Lookup("port"))
	_ = v.BindPFlag("companion.local", f.Lookup("local"))
	_ = v.BindPFlag("transfer.chunk_size", f.Lookup("chunk-size"))
	_ = v.BindPFlag("grpc.dial_timeout", f.Lookup("dial-timeout"))
	_ = v.BindPFlag("registry.backend", f.Lookup("registry"))
	_ = v.BindPFlag("observability.log_level", f.Lookup("log-level"))
	_ = v.BindPFlag("observability.log_format", f.Lookup("log-format"))
	_ = v.BindPFlag("observability.log_file", f.Lookup("log-file"))
	_ = v.BindPFlag("observability.metrics_addr", f.Lookup("metrics-addr"))
}

// Load reads config from flags, env and file. A missing config file is only
// an error when configFile names it explicitly.
func Load(v *viper.Viper, configFile string) (Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultDataDir())
		v.AddConfigPath(filepath.Join("/etc", "idb"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
