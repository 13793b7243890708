package subwire

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/subwire/types"
	"github.com/nsqio/go-nsq"
	"gopkg.in/yaml.v3"
)

// Config is the subscription configuration of a Listener.
//
// A Listener stores its own copy at construction time; changing the value afterwards
// has no effect on it. All duration fields accept Go duration strings like "30s" in YAML.
type Config struct {
	// DataHost is the host of the data service (nsqd). Required.
	// Must be a bare host name or IP without scheme, path or port.
	DataHost string `yaml:"dataHost"`

	// DataHTTPPort is the administrative HTTP port of the data service. Required.
	// Topic and channel creation requests are sent here.
	DataHTTPPort int `yaml:"dataHttpPort"`

	// DataTCPPort is the subscription port of the data service. Required.
	DataTCPPort int `yaml:"dataTcpPort"`

	// LookupHost is the host of the lookup service (nsqlookupd). Required.
	LookupHost string `yaml:"lookupHost"`

	// LookupPort is the HTTP port of the lookup service. Required.
	LookupPort int `yaml:"lookupPort"`

	// Topic is the topic to subscribe to. Required.
	Topic string `yaml:"topic"`

	// Channel is the channel on the topic. Required.
	Channel string `yaml:"channel"`

	// MessageTimeout is the per-message processing timeout handed to the broker client.
	// Zero keeps the broker client's default.
	MessageTimeout time.Duration `yaml:"messageTimeout"`

	// AutoCreate skips topic and channel creation; the caller asserts both exist
	// or that the broker creates them on first use.
	AutoCreate bool `yaml:"autoCreate"`

	// Protocol is the scheme of the administrative endpoint, "http" or "https".
	// Default: "http"
	Protocol string `yaml:"protocol"`

	// AdminTimeout bounds a single creation request.
	// Default: 10 seconds
	AdminTimeout time.Duration `yaml:"adminTimeout"`

	// MaxInFlight is the number of messages the broker may push before acknowledgement.
	// Default: 1
	MaxInFlight int `yaml:"maxInFlight"`

	// MaxAttempts is the delivery count after which a message is discarded.
	// Default: 5
	MaxAttempts int `yaml:"maxAttempts"`
}

// DefaultConfig returns a Config with the optional fields set to their defaults.
//
// Required fields are left empty.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		Protocol:     "http",
		AdminTimeout: 10 * time.Second,
		MaxInFlight:  1,
		MaxAttempts:  5,
	}
}

// SetDefaults fills in missing optional values with their defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Protocol == "" {
		cfg.Protocol = defaults.Protocol
	}
	if cfg.AdminTimeout == 0 {
		cfg.AdminTimeout = defaults.AdminTimeout
	}
	if cfg.MaxInFlight == 0 {
		cfg.MaxInFlight = defaults.MaxInFlight
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	// Note: MessageTimeout of 0 is valid (broker client default), so we don't apply one
}

// ParseConfig decodes a YAML document into a Config and applies defaults.
//
// The result is not validated; NewListener validates it, or call Validate explicitly.
//
// Parameters:
//   - data: YAML document
//
// Returns:
//   - Config: Decoded configuration with defaults applied
//   - error: Decoding error
//
// Example:
//
//	cfg, err := subwire.ParseConfig([]byte("dataHost: nsqd\ntopic: orders\n"))
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	SetDefaults(&cfg)

	return cfg, nil
}

// LoadConfig reads and decodes a YAML configuration file.
//
// Parameters:
//   - path: File path
//
// Returns:
//   - Config: Decoded configuration with defaults applied
//   - error: Read or decoding error
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	return ParseConfig(data)
}

// Validate checks every configuration constraint.
//
// All violations are collected, so the returned error lists every problem at once.
//
// Returns:
//   - error: *ConfigurationError listing the violations, nil if valid
func (cfg *Config) Validate() error {
	violations := validate(*cfg)
	if len(violations) == 0 {
		return nil
	}

	return &ConfigurationError{Violations: violations}
}

// ValidateWithWarnings logs warnings for valid but risky values.
//
// This is called after Validate() in NewListener() to provide operator guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if cfg.MessageTimeout > 0 && cfg.MessageTimeout < time.Second {
		logger.Warn(
			"MessageTimeout is very short, messages may be redelivered while still in process",
			"messageTimeout", cfg.MessageTimeout,
			"recommended", "1s or higher",
		)
	}

	if !cfg.AutoCreate && cfg.Protocol == "http" && !isLoopback(cfg.DataHost) {
		logger.Warn(
			"administrative requests use plain http against a remote host",
			"dataHost", cfg.DataHost,
			"protocol", cfg.Protocol,
		)
	}
}

// Target derives the broker subscription target.
//
// Returns:
//   - types.Target: Target with data and lookup addresses joined as host:port
func (cfg *Config) Target() types.Target {
	return types.Target{
		Topic:          cfg.Topic,
		Channel:        cfg.Channel,
		DataAddress:    net.JoinHostPort(cfg.DataHost, strconv.Itoa(cfg.DataTCPPort)),
		LookupAddress:  net.JoinHostPort(cfg.LookupHost, strconv.Itoa(cfg.LookupPort)),
		MessageTimeout: cfg.MessageTimeout,
		MaxInFlight:    cfg.MaxInFlight,
		MaxAttempts:    cfg.MaxAttempts,
	}
}

// violationSet accumulates violations in insertion order, dropping duplicates.
type violationSet struct {
	items []Violation
	seen  map[Violation]struct{}
}

func (s *violationSet) add(field, reason string) {
	v := Violation{Field: field, Reason: reason}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

// validate returns every violated constraint of cfg in field order.
func validate(cfg Config) []Violation {
	set := &violationSet{seen: make(map[Violation]struct{})}

	checkHost(set, "dataHost", cfg.DataHost)
	checkPort(set, "dataHttpPort", cfg.DataHTTPPort)
	checkPort(set, "dataTcpPort", cfg.DataTCPPort)
	checkHost(set, "lookupHost", cfg.LookupHost)
	checkPort(set, "lookupPort", cfg.LookupPort)

	switch {
	case cfg.Topic == "":
		set.add("topic", "is required")
	case !nsq.IsValidTopicName(cfg.Topic):
		set.add("topic", "must be 1-64 characters of [.a-zA-Z0-9_-] with an optional #ephemeral suffix")
	}

	switch {
	case cfg.Channel == "":
		set.add("channel", "is required")
	case !nsq.IsValidChannelName(cfg.Channel):
		set.add("channel", "must be 1-64 characters of [.a-zA-Z0-9_-] with an optional #ephemeral suffix")
	}

	if cfg.MessageTimeout < 0 {
		set.add("messageTimeout", "must not be negative")
	}

	if cfg.Protocol != "" && cfg.Protocol != "http" && cfg.Protocol != "https" {
		set.add("protocol", "must be http or https")
	}

	if cfg.AdminTimeout < 0 {
		set.add("adminTimeout", "must not be negative")
	}
	if cfg.MaxInFlight < 0 {
		set.add("maxInFlight", "must not be negative")
	}
	if cfg.MaxAttempts < 0 {
		set.add("maxAttempts", "must not be negative")
	}

	return set.items
}

func checkHost(set *violationSet, field, host string) {
	if host == "" {
		set.add(field, "is required")
		return
	}

	if strings.Contains(host, "://") {
		set.add(field, "must not include a scheme")
		return
	}
	if strings.ContainsAny(host, "/?#") {
		set.add(field, "must not include a path")
	}
	if strings.ContainsAny(host, " \t\r\n") {
		set.add(field, "must not contain whitespace")
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		set.add(field, "must not include a port")
	}
}

func checkPort(set *violationSet, field string, port int) {
	if port == 0 {
		set.add(field, "is required")
		return
	}

	if port < 1 || port > 65535 {
		set.add(field, "must be between 1 and 65535")
	}
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}

	ip := net.ParseIP(host)

	return ip != nil && ip.IsLoopback()
}
