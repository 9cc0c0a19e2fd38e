package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the corriente bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Serial    SerialConfig    `yaml:"serial"`
	Channels  []ChannelConfig `yaml:"channels"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	TLS       MQTTTLSConfig       `yaml:"tls"`
	QoS       int                 `yaml:"qos"`
	KeepAlive int                 `yaml:"keepalive"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
//
// URI carries the full broker address including scheme, e.g.
// "ssl://broker.hivemq.cloud:8883" or "tcp://localhost:1883".
type MQTTBrokerConfig struct {
	URI      string `yaml:"uri"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTTLSConfig contains the transport trust anchor.
//
// CAFile points at a PEM certificate used to verify the broker's identity.
// There is intentionally no skip-verify or hostname-override knob: a broker
// that does not present a certificate chaining to this anchor is rejected.
type MQTTTLSConfig struct {
	CAFile string `yaml:"ca_file"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
// Delays are in seconds; the backoff doubles from InitialDelay up to MaxDelay.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// SerialConfig contains serial port settings for the sensor link.
type SerialConfig struct {
	Device      string `yaml:"device"`
	BaudRate    int    `yaml:"baud_rate"`
	ReadTimeout int    `yaml:"read_timeout"` // seconds, bounded read
	BufferSize  int    `yaml:"buffer_size"`
}

// ChannelConfig describes one logical measurement channel.
//
// The channel set is fixed at startup; the order channels appear in the
// config is the order they are published each cycle.
type ChannelConfig struct {
	Name   string  `yaml:"name"`
	Source string  `yaml:"source"` // "serial" or "synthetic"
	Min    float64 `yaml:"min"`    // synthetic only
	Max    float64 `yaml:"max"`    // synthetic only
}

// Channel source values.
const (
	SourceSerial    = "serial"
	SourceSynthetic = "synthetic"
)

// SchedulerConfig contains the publication cycle settings.
type SchedulerConfig struct {
	Interval int `yaml:"interval"` // seconds between cycles
}

// InfluxDBConfig contains InfluxDB connection settings for the optional
// local telemetry mirror.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// allowedBrokerSchemes lists URI schemes accepted for the broker address.
// ssl/tls require a trust anchor; tcp/mqtt are for local development brokers.
var allowedBrokerSchemes = map[string]bool{
	"ssl":  true,
	"tls":  true,
	"tcp":  true,
	"mqtt": true,
}

// Load reads configuration from a YAML file and applies environment variable
// overrides.
//
// Environment variables follow the pattern CORRIENTE_SECTION_KEY,
// for example: CORRIENTE_MQTT_URI, CORRIENTE_SERIAL_DEVICE.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
//
// Channel defaults match the deployed sensor installation: one physical
// phase on the serial link plus two synthetic demo phases.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				URI:      "tcp://localhost:1883",
				ClientID: "corriente-bridge",
			},
			QoS:       1,
			KeepAlive: 30,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Serial: SerialConfig{
			Device:      "/dev/ttyUSB0",
			BaudRate:    115200,
			ReadTimeout: 1,
			BufferSize:  1024,
		},
		Channels: []ChannelConfig{
			{Name: "Cocina", Source: SourceSerial},
			{Name: "Sala", Source: SourceSynthetic, Min: 1.0, Max: 1.5},
			{Name: "Garage", Source: SourceSynthetic, Min: 2.6, Max: 2.9},
		},
		Scheduler: SchedulerConfig{
			Interval: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: CORRIENTE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("CORRIENTE_MQTT_URI"); v != "" {
		cfg.MQTT.Broker.URI = v
	}
	if v := os.Getenv("CORRIENTE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("CORRIENTE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("CORRIENTE_MQTT_CA_FILE"); v != "" {
		cfg.MQTT.TLS.CAFile = v
	}

	// Serial
	if v := os.Getenv("CORRIENTE_SERIAL_DEVICE"); v != "" {
		cfg.Serial.Device = v
	}

	// InfluxDB
	if v := os.Getenv("CORRIENTE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Validation failures are the only hard-abort error class in the bridge:
// the process must not enter the publish loop with a broken configuration.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Broker URI must parse and carry a supported scheme
	u, err := url.Parse(c.MQTT.Broker.URI)
	if err != nil {
		errs = append(errs, fmt.Sprintf("mqtt.broker.uri is not a valid URI: %v", err))
	} else {
		if !allowedBrokerSchemes[u.Scheme] {
			errs = append(errs, fmt.Sprintf("mqtt.broker.uri scheme %q is not supported (ssl, tls, tcp, mqtt)", u.Scheme))
		}
		if u.Host == "" {
			errs = append(errs, "mqtt.broker.uri is missing a host")
		}
		// Encrypted transport requires a trust anchor
		if (u.Scheme == "ssl" || u.Scheme == "tls") && c.MQTT.TLS.CAFile == "" {
			errs = append(errs, "mqtt.tls.ca_file is required for ssl/tls broker URIs")
		}
	}

	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.KeepAlive <= 0 {
		errs = append(errs, "mqtt.keepalive must be positive")
	}
	if c.MQTT.Reconnect.InitialDelay <= 0 || c.MQTT.Reconnect.MaxDelay < c.MQTT.Reconnect.InitialDelay {
		errs = append(errs, "mqtt.reconnect delays must satisfy 0 < initial_delay <= max_delay")
	}

	// Serial validation
	if c.Serial.Device == "" {
		errs = append(errs, "serial.device is required")
	}
	if c.Serial.BaudRate <= 0 {
		errs = append(errs, "serial.baud_rate must be positive")
	}
	if c.Serial.ReadTimeout <= 0 {
		errs = append(errs, "serial.read_timeout must be positive")
	}
	if c.Serial.BufferSize <= 0 {
		errs = append(errs, "serial.buffer_size must be positive")
	}

	// Channel validation: fixed set, exactly one serial channel, names
	// must be usable as a topic segment.
	if len(c.Channels) == 0 {
		errs = append(errs, "at least one channel is required")
	}
	serialChannels := 0
	seen := make(map[string]bool, len(c.Channels))
	for i, ch := range c.Channels {
		if ch.Name == "" {
			errs = append(errs, fmt.Sprintf("channels[%d].name is required", i))
		} else if strings.ContainsAny(ch.Name, "/+#") {
			errs = append(errs, fmt.Sprintf("channels[%d].name %q must not contain MQTT topic separators or wildcards", i, ch.Name))
		}
		if ch.Name != "" && seen[ch.Name] {
			errs = append(errs, fmt.Sprintf("channels[%d].name %q is duplicated", i, ch.Name))
		}
		seen[ch.Name] = true

		switch ch.Source {
		case SourceSerial:
			serialChannels++
		case SourceSynthetic:
			if ch.Min > ch.Max {
				errs = append(errs, fmt.Sprintf("channels[%d] (%s): min must not exceed max", i, ch.Name))
			}
		default:
			errs = append(errs, fmt.Sprintf("channels[%d].source must be %q or %q", i, SourceSerial, SourceSynthetic))
		}
	}
	if serialChannels != 1 {
		errs = append(errs, "exactly one channel must have source: serial")
	}

	// Scheduler validation
	if c.Scheduler.Interval <= 0 {
		errs = append(errs, "scheduler.interval must be positive")
	}

	// InfluxDB validation (only when enabled)
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// SerialChannel returns the single channel with source "serial".
// Validate guarantees exactly one exists.
func (c *Config) SerialChannel() ChannelConfig {
	for _, ch := range c.Channels {
		if ch.Source == SourceSerial {
			return ch
		}
	}
	return ChannelConfig{}
}

// GetReadTimeout returns the serial read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Serial.ReadTimeout) * time.Second
}

// GetInterval returns the scheduler cycle interval as a Duration.
func (c *Config) GetInterval() time.Duration {
	return time.Duration(c.Scheduler.Interval) * time.Second
}

// GetKeepAlive returns the MQTT keepalive interval as a Duration.
func (c *Config) GetKeepAlive() time.Duration {
	return time.Duration(c.MQTT.KeepAlive) * time.Second
}
