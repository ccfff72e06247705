package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"orgmap/pkg/schema"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ORGMAP_"

// Config holds all orgmap configuration
type Config struct {
	Server   ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
	Suggest  SuggestConfig `yaml:"suggest" envPrefix:"SUGGEST_"`
	Mapping  MappingConfig `yaml:"mapping" envPrefix:"MAPPING_"`
	Sessions SessionConfig `yaml:"sessions" envPrefix:"SESSIONS_"`
	Log      LogConfig     `yaml:"log" envPrefix:"LOG_"`
}

// ServerConfig holds configuration for the HTTP API
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR" validate:"required"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" validate:"gte=0"`
}

// SuggestConfig selects and configures the column mapping suggester
type SuggestConfig struct {
	Provider string        `yaml:"provider" env:"PROVIDER" validate:"oneof=genai openai heuristic none"`
	Model    string        `yaml:"model" env:"MODEL"`
	APIKey   string        `yaml:"api_key" env:"API_KEY"`
	BaseURL  string        `yaml:"base_url" env:"BASE_URL" validate:"omitempty,url"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT" validate:"gt=0"`
}

// MappingConfig holds the mapping completeness policy
type MappingConfig struct {
	Required []string `yaml:"required" env:"REQUIRED" envSeparator:","`
}

// SessionConfig holds in-memory session limits
type SessionConfig struct {
	TTL             time.Duration `yaml:"ttl" env:"TTL" validate:"gt=0"`
	JanitorInterval time.Duration `yaml:"janitor_interval" env:"JANITOR_INTERVAL" validate:"gt=0"`
	MaxSessions     int           `yaml:"max_sessions" env:"MAX_SESSIONS" validate:"gt=0"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"FORMAT" validate:"oneof=json console"`
}

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

// Load reads path (a missing file means defaults), applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		loaded, err := LoadFromPath(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrap(err, "reading config file")
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}

	merged := Merge(loaded, DefaultConfig())
	if err := Validate(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// LoadEnv loads the given dotenv files that exist, returning how many were
// read. Variables already set in the process environment win.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// ApplyEnv overrides cfg with ORGMAP_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.Wrap(err, "parsing environment")
	}
	return nil
}

// Validate checks that config values are valid.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	for _, name := range cfg.Mapping.Required {
		if _, ok := schema.ParseField(name); !ok {
			return errors.Wrapf(ErrInvalidConfig, "mapping.required: unknown field %q", name)
		}
	}
	return nil
}

// RequiredFields returns the configured completeness policy.
func (c *Config) RequiredFields() []schema.Field {
	if len(c.Mapping.Required) == 0 {
		return schema.DefaultRequired
	}
	return schema.ParseFields(c.Mapping.Required)
}

// Marshal renders cfg as YAML with the API key redacted.
func Marshal(cfg *Config) ([]byte, error) {
	out := *cfg
	if out.Suggest.APIKey != "" {
		out.Suggest.APIKey = "<redacted>"
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling config")
	}
	return data, nil
}
