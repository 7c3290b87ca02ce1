package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	relayhttp "github.com/sagarc03/relay/http"
	"github.com/sagarc03/relay/static"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for relay.
type Config struct {
	HTTP            *relayhttp.ServerConfig `mapstructure:"http" validate:"excluded_with=HTTPS"`
	HTTPS           *relayhttp.ServerConfig `mapstructure:"https"`
	Views           ViewsConfig             `mapstructure:"views"`
	Metrics         MetricsConfig           `mapstructure:"metrics"`
	Log             LogConfig               `mapstructure:"log"`
	ShutdownTimeout time.Duration           `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// ViewsConfig points at a view document file and mounts its views.
type ViewsConfig struct {
	File string `mapstructure:"file"`
	// Routes maps GET paths to view names.
	Routes map[string]string `mapstructure:"routes" validate:"dive,keys,startswith=/,endkeys,required"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"omitempty,startswith=/"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// Transport returns the listener settings in the form the transport takes.
func (c *Config) Transport() relayhttp.Config {
	return relayhttp.Config{HTTP: c.HTTP, HTTPS: c.HTTPS}
}

// Server returns whichever of HTTP and HTTPS is set.
func (c *Config) Server() *relayhttp.ServerConfig {
	if c.HTTPS != nil {
		return c.HTTPS
	}
	return c.HTTP
}

// Default listener used when neither http nor https is configured.
const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 3000
)

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"views":      "views.file",
	"metrics":    "metrics.enabled",
}

// serverKeys are bound to the environment under both http and https.
// Viper only sees environment variables for keys it already knows.
var serverKeys = []string{
	"listen.host",
	"listen.port",
	"listen.path",
	"server.read_timeout",
	"server.read_header_timeout",
	"server.write_timeout",
	"server.idle_timeout",
	"server.max_header_bytes",
	"server.cert_file",
	"server.key_file",
	"static.url",
	"static.root",
	"static.max_age",
	"static.index",
	"static.dotfiles",
	"cors.enabled",
	"cors.allowed_origins",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey, ok := flagToViperKey[f.Name]
		if !ok {
			return
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// applyServerFlags overrides the active listener with --host, --port,
// --socket, --static-root and --static-url.
func applyServerFlags(cfg *Config, flags *pflag.FlagSet) error {
	srv := cfg.Server()

	if f := flags.Lookup("host"); f != nil && f.Changed {
		srv.Listen.Host = f.Value.String()
	}
	if f := flags.Lookup("port"); f != nil && f.Changed {
		port, err := flags.GetInt("port")
		if err != nil {
			return fmt.Errorf("port flag: %w", err)
		}
		srv.Listen.Port = port
	}
	if f := flags.Lookup("socket"); f != nil && f.Changed {
		srv.Listen.Path = f.Value.String()
	}

	if f := flags.Lookup("static-root"); f != nil && f.Changed {
		if srv.Static == nil {
			srv.Static = &static.Config{}
		}
		srv.Static.Root = f.Value.String()
	}
	if f := flags.Lookup("static-url"); f != nil && f.Changed && srv.Static != nil {
		srv.Static.URL = f.Value.String()
	}
	return nil
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("views.file", "")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("shutdown_timeout", "30s")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFiles[0], err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("merge config file %s: %w", cf, err)
			}
		}
	} else {
		v.SetConfigName("relay")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, block := range []string{"http", "https"} {
		for _, key := range serverKeys {
			_ = v.BindEnv(block + "." + key)
		}
	}

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.HTTP == nil && cfg.HTTPS == nil {
		cfg.HTTP = &relayhttp.ServerConfig{
			Listen: relayhttp.ListenConfig{Host: DefaultHost, Port: DefaultPort},
		}
	}

	if flags != nil {
		if err := applyServerFlags(&cfg, flags); err != nil {
			return nil, err
		}
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
