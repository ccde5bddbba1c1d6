package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidationError describes one invalid configuration value.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateBuildConfig(&config.Source, &config.Build); err != nil {
		return fmt.Errorf("build config: %w", err)
	}

	if err := validateDevelopmentConfig(&config.Development); err != nil {
		return fmt.Errorf("development config: %w", err)
	}

	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return &ValidationError{Field: "server.port", Value: config.Port,
			Message: fmt.Sprintf("port %d is not in valid range 0-65535", config.Port)}
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\", " "}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return &ValidationError{Field: "server.host", Value: config.Host,
					Message: fmt.Sprintf("host contains dangerous character: %q", char)}
			}
		}
	}

	return nil
}

// validateBuildConfig checks the source and output directories. The output
// directory is removed by clean builds, so it must never be, or contain, the
// source directory.
func validateBuildConfig(source *SourceConfig, config *BuildConfig) error {
	if strings.TrimSpace(source.Dir) == "" {
		return &ValidationError{Field: "source.dir", Value: source.Dir, Message: "source directory is required"}
	}
	if strings.TrimSpace(config.Output) == "" {
		return &ValidationError{Field: "build.output", Value: config.Output, Message: "output directory is required"}
	}
	if config.Workers < 0 {
		return &ValidationError{Field: "build.workers", Value: config.Workers, Message: "workers must not be negative"}
	}

	src, err := filepath.Abs(source.Dir)
	if err != nil {
		return fmt.Errorf("resolving source directory: %w", err)
	}
	out, err := filepath.Abs(config.Output)
	if err != nil {
		return fmt.Errorf("resolving output directory: %w", err)
	}

	if src == out {
		return &ValidationError{Field: "build.output", Value: config.Output,
			Message: "output directory must differ from the source directory"}
	}
	if rel, err := filepath.Rel(out, src); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return &ValidationError{Field: "build.output", Value: config.Output,
			Message: "output directory must not contain the source directory"}
	}

	return nil
}

func validateDevelopmentConfig(config *DevelopmentConfig) error {
	if config.Debounce < 0 {
		return &ValidationError{Field: "development.debounce", Value: config.Debounce,
			Message: "debounce must not be negative"}
	}
	return nil
}

func validateLogConfig(config *LogConfig) error {
	switch strings.ToLower(config.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Field: "log.level", Value: config.Level,
			Message: "log level must be one of debug, info, warn, error"}
	}

	switch config.Format {
	case "text", "json":
	default:
		return &ValidationError{Field: "log.format", Value: config.Format,
			Message: "log format must be text or json"}
	}
	return nil
}
