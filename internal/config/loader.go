package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/sage-x-project/sage-agentauth-go/pkg/verifier"
)

// DefaultEnvPrefix prefixes environment overrides, e.g. AGENTAUTH_AGENT_ID
const DefaultEnvPrefix = "AGENTAUTH"

// ConfigLoader reads a Config through viper
type ConfigLoader struct {
	configFile string
	envPrefix  string
	viper      *viper.Viper
}

// NewConfigLoader creates a loader. configFile may be empty, in which case
// ./agentauth.yaml is read if present.
func NewConfigLoader(configFile, envPrefix string) *ConfigLoader {
	if envPrefix == "" {
		envPrefix = DefaultEnvPrefix
	}

	return &ConfigLoader{
		configFile: configFile,
		envPrefix:  envPrefix,
		viper:      viper.New(),
	}
}

// Viper exposes the underlying instance so that flags can be bound to keys
func (cl *ConfigLoader) Viper() *viper.Viper {
	return cl.viper
}

// Load reads defaults, the config file, and the environment, in increasing
// order of precedence, and validates the result.
func (cl *ConfigLoader) Load() (*Config, error) {
	cl.viper.SetConfigType("yaml")

	cl.viper.SetEnvPrefix(cl.envPrefix)
	cl.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cl.viper.AutomaticEnv()

	cl.setDefaults()

	if err := cl.loadConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	var config Config
	if err := cl.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// loadConfigFile reads an explicit file, which must exist, or the optional
// agentauth.yaml in the working directory.
func (cl *ConfigLoader) loadConfigFile() error {
	if cl.configFile != "" {
		cl.viper.SetConfigFile(cl.configFile)
		return cl.viper.ReadInConfig()
	}

	cl.viper.SetConfigName("agentauth")
	cl.viper.AddConfigPath(".")

	var notFound viper.ConfigFileNotFoundError
	if err := cl.viper.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return err
	}
	return nil
}

// ConfigFileUsed returns the file that was read, if any
func (cl *ConfigLoader) ConfigFileUsed() string {
	return cl.viper.ConfigFileUsed()
}

func (cl *ConfigLoader) setDefaults() {
	cl.viper.SetDefault("agent.id", "")
	cl.viper.SetDefault("agent.key_file", "")

	cl.viper.SetDefault("verifier.max_clock_skew", verifier.DefaultMaxClockSkew)
	cl.viper.SetDefault("verifier.nonce_ttl", verifier.DefaultNonceTTL)
	cl.viper.SetDefault("verifier.max_session_ttl", 0)

	cl.viper.SetDefault("redis.addr", "")
	cl.viper.SetDefault("redis.password", "")
	cl.viper.SetDefault("redis.db", 0)

	cl.viper.SetDefault("log.level", "warn")
	cl.viper.SetDefault("log.format", "text")
	cl.viper.SetDefault("log.output", "stderr")
	cl.viper.SetDefault("log.file_path", "./logs/agentauth.log")
	cl.viper.SetDefault("log.max_size", 100)
	cl.viper.SetDefault("log.max_backups", 3)
	cl.viper.SetDefault("log.max_age", 28)
	cl.viper.SetDefault("log.compress", true)
	cl.viper.SetDefault("log.caller", false)
}

func validateConfig(config *Config) error {
	if config.Verifier.MaxClockSkew <= 0 {
		return fmt.Errorf("verifier.max_clock_skew must be positive, got %s", config.Verifier.MaxClockSkew)
	}
	if config.Verifier.NonceTTL <= 0 {
		return fmt.Errorf("verifier.nonce_ttl must be positive, got %s", config.Verifier.NonceTTL)
	}
	if config.Verifier.MaxSessionTTL < 0 {
		return fmt.Errorf("verifier.max_session_ttl must not be negative, got %s", config.Verifier.MaxSessionTTL)
	}
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if config.Redis.DB < 0 {
		return fmt.Errorf("redis.db must not be negative, got %d", config.Redis.DB)
	}
	return nil
}

// VerifierOptions converts the verifier section. The nonce store is left
// to the caller.
func (c *Config) VerifierOptions() *verifier.VerifierOptions {
	return &verifier.VerifierOptions{
		MaxClockSkew:  c.Verifier.MaxClockSkew,
		NonceTTL:      c.Verifier.NonceTTL,
		MaxSessionTTL: c.Verifier.MaxSessionTTL,
	}
}
