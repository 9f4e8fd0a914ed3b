package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/aryansondharva/N9NE/internal/credentials"
)

const (
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultRateLimitRPS   = 10.0
	defaultRateLimitBurst = 20
)

// Config aggregates runtime configuration resolved from multiple sources.
type Config struct {
	Port                 string
	LogLevel             string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	PersistCredentials   bool
	KeyringService       string
	// CORSAllowedOrigins lists browser origins permitted to call the API.
	// Empty means cross-origin requests are refused.
	CORSAllowedOrigins []string
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string          `yaml:"port"`
	LogLevel             string          `yaml:"log_level"`
	ShutdownGracePeriod  string          `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string          `yaml:"read_header_timeout"`
	WriteTimeout         string          `yaml:"write_timeout"`
	IdleTimeout          string          `yaml:"idle_timeout"`
	EnableRequestLogging *bool           `yaml:"enable_request_logging"`
	RateLimit            *yamlRateLimit  `yaml:"rate_limit"`
	Credentials          yamlCredentials `yaml:"credentials"`
	CORS                 yamlCORS        `yaml:"cors"`
}

type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

type yamlCORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type yamlCredentials struct {
	Persist        *bool  `yaml:"persist"`
	KeyringService string `yaml:"keyring_service"`
}

// CLIOverrides holds command-line flag overrides. Nil fields were not supplied.
type CLIOverrides struct {
	ConfigFile         string
	Port               *string
	LogLevel           *string
	RateLimitRPS       *float64
	RateLimitBurst     *int
	PersistCredentials *bool
}

// Load resolves configuration with precedence:
// CLI flags > Environment variables > YAML config > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	applyEnvConfig(&cfg)

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		LogLevel:             defaultLogLevel,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		KeyringService:       credentials.DefaultKeyringService,
	}
}

func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	applyDuration(&cfg.ShutdownGracePeriod, yamlCfg.ShutdownGracePeriod)
	applyDuration(&cfg.ReadHeaderTimeout, yamlCfg.ReadHeaderTimeout)
	applyDuration(&cfg.WriteTimeout, yamlCfg.WriteTimeout)
	applyDuration(&cfg.IdleTimeout, yamlCfg.IdleTimeout)

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if rl := yamlCfg.RateLimit; rl != nil {
		if rl.RPS != nil && *rl.RPS >= 0 {
			cfg.RateLimitRPS = *rl.RPS
		}
		if rl.Burst != nil && *rl.Burst >= 0 {
			cfg.RateLimitBurst = *rl.Burst
		}
	}

	if yamlCfg.Credentials.Persist != nil {
		cfg.PersistCredentials = *yamlCfg.Credentials.Persist
	}
	if yamlCfg.Credentials.KeyringService != "" {
		cfg.KeyringService = yamlCfg.Credentials.KeyringService
	}

	if origins := normalizeOrigins(yamlCfg.CORS.AllowedOrigins); len(origins) > 0 {
		cfg.CORSAllowedOrigins = origins
	}
}

func applyDuration(dst *time.Duration, raw string) {
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*dst = d
	}
}

func applyEnvConfig(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	if persist := strings.TrimSpace(os.Getenv("PERSIST_CREDENTIALS")); persist != "" {
		if value, err := strconv.ParseBool(persist); err == nil {
			cfg.PersistCredentials = value
		}
	}

	if service := strings.TrimSpace(os.Getenv("KEYRING_SERVICE")); service != "" {
		cfg.KeyringService = service
	}

	if raw := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); raw != "" {
		cfg.CORSAllowedOrigins = normalizeOrigins(strings.Split(raw, ","))
	}
}

// normalizeOrigins trims entries and their trailing slash, dropping blanks.
func normalizeOrigins(raw []string) []string {
	var origins []string
	for _, origin := range raw {
		origin = strings.TrimSuffix(strings.TrimSpace(origin), "/")
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	if overrides.PersistCredentials != nil {
		cfg.PersistCredentials = *overrides.PersistCredentials
	}
}

func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	if cfg.PersistCredentials && strings.TrimSpace(cfg.KeyringService) == "" {
		return fmt.Errorf("keyring service is required when credential persistence is enabled")
	}
	return nil
}
