package http

import (
	"crypto/tls"
	"time"

	"github.com/sagarc03/relay/static"
)

// Config selects the protocol the transport listens with. Exactly one of
// HTTP and HTTPS must be set.
type Config struct {
	HTTP  *ServerConfig `mapstructure:"http"`
	HTTPS *ServerConfig `mapstructure:"https"`
}

// ServerConfig configures one listener.
type ServerConfig struct {
	Listen ListenConfig   `mapstructure:"listen"`
	Server ServerOptions  `mapstructure:"server"`
	Static *static.Config `mapstructure:"static"`
	CORS   CORSConfig     `mapstructure:"cors"`
}

// ListenConfig is either a TCP host/port pair or a unix socket path.
// Path wins when both are set.
type ListenConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Path string `mapstructure:"path"`
}

// ServerOptions are passed through to http.Server.
type ServerOptions struct {
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes" validate:"gte=0"`

	// CertFile and KeyFile are loaded for HTTPS unless TLSConfig is set.
	CertFile  string      `mapstructure:"cert_file"`
	KeyFile   string      `mapstructure:"key_file"`
	TLSConfig *tls.Config `mapstructure:"-" validate:"-"`
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}
