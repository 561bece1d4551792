// Package config loads agentauth CLI settings from a YAML file, AGENTAUTH_*
// environment variables and flags.
package config

import "time"

// Config is the full CLI configuration
type Config struct {
	Agent    AgentConfig    `yaml:"agent" mapstructure:"agent"`
	Verifier VerifierConfig `yaml:"verifier" mapstructure:"verifier"`
	Redis    RedisConfig    `yaml:"redis" mapstructure:"redis"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// AgentConfig identifies the signing agent
type AgentConfig struct {
	ID      string `yaml:"id" mapstructure:"id"`             // agent_id put in tokens
	KeyFile string `yaml:"key_file" mapstructure:"key_file"` // Ed25519 private key, PEM or JWK
}

// VerifierConfig tunes token verification
type VerifierConfig struct {
	MaxClockSkew  time.Duration `yaml:"max_clock_skew" mapstructure:"max_clock_skew"`
	NonceTTL      time.Duration `yaml:"nonce_ttl" mapstructure:"nonce_ttl"`
	MaxSessionTTL time.Duration `yaml:"max_session_ttl" mapstructure:"max_session_ttl"` // 0 means uncapped
}

// RedisConfig points the replay cache at Redis. An empty Addr keeps
// nonces in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`             // debug/info/warn/error
	Format     string `yaml:"format" mapstructure:"format"`           // json/text
	Output     string `yaml:"output" mapstructure:"output"`           // stdout/stderr/file
	FilePath   string `yaml:"file_path" mapstructure:"file_path"`     // used when Output is file
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // rotated files kept
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Caller     bool   `yaml:"caller" mapstructure:"caller"`
}
