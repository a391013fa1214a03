package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/gezibash/idbridge/internal/companion"
	"github.com/gezibash/idbridge/internal/observability"
)

type Config struct {
	DataDir       string              `mapstructure:"data_dir"`
	Companion     CompanionConfig     `mapstructure:"companion"`
	Transfer      TransferConfig      `mapstructure:"transfer"`
	GRPC          GRPCConfig          `mapstructure:"grpc"`
	Registry      RegistryConfig      `mapstructure:"registry"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// CompanionConfig is a static companion entry. When UDID is empty the
// companion is looked up in the registry instead.
type CompanionConfig struct {
	UDID  string `mapstructure:"udid"`
	Host  string `mapstructure:"host"`
	Port  int    `mapstructure:"port"`
	Local bool   `mapstructure:"local"`
}

type TransferConfig struct {
	ChunkSize int `mapstructure:"chunk_size"`
}

type GRPCConfig struct {
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	MaxMsgSize  int           `mapstructure:"max_msg_size"`
}

type RegistryConfig struct {
	Backend string            `mapstructure:"backend"`
	Config  map[string]string `mapstructure:"config"`
}

type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"`
	LogFile        string `mapstructure:"log_file"`
	LogMaxSizeMB   int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups  int    `mapstructure:"log_max_backups"`
	MetricsAddr    string `mapstructure:"metrics_addr"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPProtocol   string `mapstructure:"otlp_protocol"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", Defaults.DataDir)

	// Every key needs a default so AutomaticEnv values reach Unmarshal.
	v.SetDefault("companion.udid", "")
	v.SetDefault("companion.host", Defaults.Host)
	v.SetDefault("companion.port", Defaults.Port)
	v.SetDefault("companion.local", false)

	v.SetDefault("transfer.chunk_size", Defaults.ChunkSize)

	v.SetDefault("grpc.dial_timeout", Defaults.DialTimeout)
	v.SetDefault("grpc.max_msg_size", Defaults.MaxMsgSize)

	v.SetDefault("registry.backend", Defaults.RegistryBackend)

	v.SetDefault("observability.log_level", Defaults.LogLevel)
	v.SetDefault("observability.log_format", Defaults.LogFormat)
	v.SetDefault("observability.log_file", "")
	v.SetDefault("observability.metrics_addr", "")
	v.SetDefault("observability.otlp_endpoint", "")
	v.SetDefault("observability.log_max_size_mb", Defaults.LogMaxSizeMB)
	v.SetDefault("observability.log_max_backups", Defaults.LogMaxBackups)
	v.SetDefault("observability.otlp_protocol", Defaults.OTLPProtocol)
	v.SetDefault("observability.service_name", Defaults.ServiceName)
	v.SetDefault("observability.service_version", "dev")
}

// Static returns the companion named in the config, if any.
func (c Config) Static() (companion.Descriptor, bool) {
	if c.Companion.UDID == "" {
		return companion.Descriptor{}, false
	}
	return companion.Descriptor{
		UDID:    c.Companion.UDID,
		Host:    c.Companion.Host,
		Port:    c.Companion.Port,
		IsLocal: c.Companion.Local,
	}, true
}

// Obs converts the observability section for observability.New.
func (c Config) Obs() observability.ObsConfig {
	o := c.Observability
	return observability.ObsConfig{
		LogLevel:       o.LogLevel,
		LogFormat:      o.LogFormat,
		LogFile:        o.LogFile,
		LogMaxSizeMB:   o.LogMaxSizeMB,
		LogMaxBackups:  o.LogMaxBackups,
		OTLPEndpoint:   o.OTLPEndpoint,
		OTLPProtocol:   o.OTLPProtocol,
		ServiceName:    o.ServiceName,
		ServiceVersion: o.ServiceVersion,
	}
}
