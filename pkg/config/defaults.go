package config

import (
	"slices"
	"time"

	"orgmap/pkg/schema"
)

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	required := make([]string, len(schema.DefaultRequired))
	for i, f := range schema.DefaultRequired {
		required[i] = string(f)
	}
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"*"},
			MaxUploadBytes:  10 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Suggest: SuggestConfig{
			Provider: "heuristic",
			Timeout:  30 * time.Second,
		},
		Mapping: MappingConfig{
			Required: required,
		},
		Sessions: SessionConfig{
			TTL:             30 * time.Minute,
			JanitorInterval: time.Minute,
			MaxSessions:     1000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	return &Config{
		Server:   mergeServerConfig(loaded.Server, defaults.Server),
		Suggest:  mergeSuggestConfig(loaded.Suggest, defaults.Suggest),
		Mapping:  mergeMappingConfig(loaded.Mapping, defaults.Mapping),
		Sessions: mergeSessionConfig(loaded.Sessions, defaults.Sessions),
		Log:      mergeLogConfig(loaded.Log, defaults.Log),
	}
}

func mergeServerConfig(loaded, defaults ServerConfig) ServerConfig {
	return ServerConfig{
		Addr:            pick(loaded.Addr, defaults.Addr),
		AllowedOrigins:  pickSlice(loaded.AllowedOrigins, defaults.AllowedOrigins),
		MaxUploadBytes:  pick(loaded.MaxUploadBytes, defaults.MaxUploadBytes),
		ShutdownTimeout: pick(loaded.ShutdownTimeout, defaults.ShutdownTimeout),
	}
}

func mergeSuggestConfig(loaded, defaults SuggestConfig) SuggestConfig {
	return SuggestConfig{
		Provider: pick(loaded.Provider, defaults.Provider),
		Model:    pick(loaded.Model, defaults.Model),
		APIKey:   pick(loaded.APIKey, defaults.APIKey),
		BaseURL:  pick(loaded.BaseURL, defaults.BaseURL),
		Timeout:  pick(loaded.Timeout, defaults.Timeout),
	}
}

// An empty required list keeps the default policy.
func mergeMappingConfig(loaded, defaults MappingConfig) MappingConfig {
	return MappingConfig{Required: pickSlice(loaded.Required, defaults.Required)}
}

func mergeSessionConfig(loaded, defaults SessionConfig) SessionConfig {
	return SessionConfig{
		TTL:             pick(loaded.TTL, defaults.TTL),
		JanitorInterval: pick(loaded.JanitorInterval, defaults.JanitorInterval),
		MaxSessions:     pick(loaded.MaxSessions, defaults.MaxSessions),
	}
}

func mergeLogConfig(loaded, defaults LogConfig) LogConfig {
	return LogConfig{
		Level:  pick(loaded.Level, defaults.Level),
		Format: pick(loaded.Format, defaults.Format),
	}
}

func pick[T comparable](loaded, def T) T {
	var zero T
	if loaded != zero {
		return loaded
	}
	return def
}

func pickSlice(loaded, def []string) []string {
	if len(loaded) > 0 {
		return slices.Clone(loaded)
	}
	return slices.Clone(def)
}
