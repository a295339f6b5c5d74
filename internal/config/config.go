package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Error policies for per-datagram receive/send failures
const (
	ErrorPolicyContinue = "continue"
	ErrorPolicyFail     = "fail"
)

// Built-in defaults
const (
	DefaultBindAddress     = "0.0.0.0"
	DefaultUDPPort         = 10000
	DefaultMaxDatagramSize = 1024

	// Largest payload that fits in a single IPv4 UDP datagram
	MaxUDPPayloadSize = 65507
)

// Config represents the complete service configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains UDP server configuration
type ServerConfig struct {
	UDPPort         int    `yaml:"udp_port"`
	BindAddress     string `yaml:"bind_address"`
	MaxDatagramSize int    `yaml:"max_datagram_size"`
	ReadBufferSize  int    `yaml:"read_buffer_size"` // socket SO_RCVBUF, 0 keeps the OS default
	ErrorPolicy     string `yaml:"error_policy"`
}

// HTTPConfig contains monitoring API configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			UDPPort:         DefaultUDPPort,
			BindAddress:     DefaultBindAddress,
			MaxDatagramSize: DefaultMaxDatagramSize,
			ErrorPolicy:     ErrorPolicyContinue,
		},
		HTTP: HTTPConfig{
			Port:    9100,
			Address: "127.0.0.1",
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads the configuration file, overlays it on Default and validates the result.
// An empty path returns the validated defaults.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs validation of every section
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	// 0 asks the OS for an ephemeral port
	if s.UDPPort < 0 || s.UDPPort > 65535 {
		return fmt.Errorf("udp_port must be between 0 and 65535, got %d", s.UDPPort)
	}

	if s.BindAddress == "" {
		return fmt.Errorf("bind_address cannot be empty")
	}

	if s.MaxDatagramSize < 1 || s.MaxDatagramSize > MaxUDPPayloadSize {
		return fmt.Errorf("max_datagram_size must be between 1 and %d bytes, got %d",
			MaxUDPPayloadSize, s.MaxDatagramSize)
	}

	if s.ReadBufferSize < 0 {
		return fmt.Errorf("read_buffer_size cannot be negative, got %d", s.ReadBufferSize)
	}

	switch s.ErrorPolicy {
	case ErrorPolicyContinue, ErrorPolicyFail:
	default:
		return fmt.Errorf("error_policy must be '%s' or '%s', got '%s'",
			ErrorPolicyContinue, ErrorPolicyFail, s.ErrorPolicy)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	// Output is stdout, stderr or a file path; anything non-empty is accepted
	return nil
}

// Address returns the UDP listen address in host:port form
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.UDPPort)
}

// FailFast reports whether per-datagram errors should stop the server
func (s *ServerConfig) FailFast() bool {
	return s.ErrorPolicy == ErrorPolicyFail
}
