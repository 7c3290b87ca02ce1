// Package config provides configuration loading and validation for relay.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (RELAY_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"relay.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	t, err := http.New(cfg.Transport(), bus.New(), nil)
//
// # Environment Variables
//
// Config keys map to environment variables with the RELAY_ prefix:
//   - log.level → RELAY_LOG_LEVEL
//   - http.listen.port → RELAY_HTTP_LISTEN_PORT
//   - https.server.cert_file → RELAY_HTTPS_SERVER_CERT_FILE
//
// # Configuration Structure
//
// The Config struct contains:
//   - HTTP or HTTPS: listen address, server options, static files and CORS
//   - Views: view document file and path to view mounts
//   - Metrics: Prometheus exposition
//   - Log: level and format
//   - ShutdownTimeout: how long serve waits for in-flight requests
//
// When neither http nor https is configured, relay listens on 0.0.0.0:3000.
package config
