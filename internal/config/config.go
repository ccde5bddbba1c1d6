// Package config provides configuration management for htmlssg using Viper
// for loading from files, environment variables and command-line flags.
//
// Values are read with the precedence flags > HTMLSSG_<SECTION>_<KEY>
// environment variables > .htmlssg.yml > defaults. The config file itself can
// be chosen with --config or HTMLSSG_CONFIG_FILE.
package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/htmlssg/htmlssg/internal/logging"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "HTMLSSG"
	// ConfigFileEnv names the variable that selects a config file.
	ConfigFileEnv = "HTMLSSG_CONFIG_FILE"
	// DefaultConfigName is the config file searched for in the working
	// directory, without extension.
	DefaultConfigName = ".htmlssg"
	// DefaultConfigFile is the file scaffolded by init.
	DefaultConfigFile = DefaultConfigName + ".yml"
)

type Config struct {
	Source      SourceConfig      `mapstructure:"source" yaml:"source"`
	Build       BuildConfig       `mapstructure:"build" yaml:"build"`
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Development DevelopmentConfig `mapstructure:"development" yaml:"development"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
}

type SourceConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

type BuildConfig struct {
	Output  string `mapstructure:"output" yaml:"output"`
	Workers int    `mapstructure:"workers" yaml:"workers"`
	Clean   bool   `mapstructure:"clean" yaml:"clean"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	// Open launches the default browser once the server is listening.
	Open bool `mapstructure:"open" yaml:"open"`
}

type DevelopmentConfig struct {
	Watch      bool          `mapstructure:"watch" yaml:"watch"`
	LiveReload bool          `mapstructure:"live_reload" yaml:"live_reload"`
	Debounce   time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers default values on v. Values already set by a file,
// the environment or a flag take precedence.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source.dir", ".")
	v.SetDefault("build.output", "./dist")
	v.SetDefault("build.workers", runtime.NumCPU())
	v.SetDefault("build.clean", false)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.open", false)
	v.SetDefault("development.watch", true)
	v.SetDefault("development.live_reload", true)
	v.SetDefault("development.debounce", "300ms")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Init points v at the config file and enables environment overrides. The
// file is cfgFile when given, else $HTMLSSG_CONFIG_FILE, else .htmlssg.yml
// in the working directory. Only an explicitly named file must exist. It
// returns the file actually read, if any.
func Init(v *viper.Viper, cfgFile string) (string, error) {
	explicit := true
	switch {
	case cfgFile != "":
		v.SetConfigFile(cfgFile)
	case os.Getenv(ConfigFileEnv) != "":
		v.SetConfigFile(os.Getenv(ConfigFileEnv))
	default:
		explicit = false
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(DefaultConfigName)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(newKeyReplacer())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

func newKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	cfg, err := LoadFrom(viper.New())
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Build.Workers == 0 {
		config.Build.Workers = runtime.NumCPU()
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Address returns the host:port the dev server listens on.
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LoggerConfig converts the log section into a logger configuration writing
// to out.
func (c *LogConfig) LoggerConfig(out io.Writer) (*logging.LoggerConfig, error) {
	level, err := logging.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	return &logging.LoggerConfig{
		Level:  level,
		Format: c.Format,
		Output: out,
	}, nil
}
