package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/casagrid/corriente-bridge/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time for a single connection attempt.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment
	// before the pending publication is reported failed.
	defaultPublishTimeout = 5 * time.Second

	// defaultSubscribeTimeout is the maximum time to wait for a subscribe
	// or unsubscribe to complete.
	defaultSubscribeTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// buildClientOptions creates paho MQTT options from bridge config.
//
// This configures:
//   - Broker URI (ssl://, tls://, tcp://, or mqtt://, validated by config)
//   - Client ID for identification
//   - Authentication credentials (if provided)
//   - Keepalive from config (the broker drops dead connections after 1.5x)
//   - Auto-reconnect with exponential backoff, delegated entirely to the
//     transport layer: initial retry delay doubles up to the configured
//     ceiling. The Client surfaces transitions but runs no backoff loop.
//   - TLS verification against the trust anchor (if supplied)
func buildClientOptions(cfg config.MQTTConfig, tlsConfig *tls.Config) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(cfg.Broker.URI)

	// Client identification
	opts.SetClientID(cfg.Broker.ClientID)

	// Authentication (if credentials provided)
	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Clean session: no persistent session state on the broker, pending
	// publications do not survive restarts
	opts.SetCleanSession(true)

	// Auto-reconnect with exponential backoff
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	// Connection timeout for each individual attempt
	opts.SetConnectTimeout(defaultConnectTimeout)

	// Keepalive - the broker uses this to detect dead connections
	opts.SetKeepAlive(time.Duration(cfg.KeepAlive) * time.Second)

	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}

	return opts
}

// buildTLSConfig constructs the TLS configuration from the trust anchor.
//
// The broker's certificate chain must verify against the supplied CA
// certificate. There is no hostname override and no skip-verify path:
// a failure here is a configuration error and fatal at startup.
//
// Returns nil (and no error) when no trust anchor is configured, which
// config validation only permits for unencrypted development brokers.
func buildTLSConfig(cfg config.MQTTTLSConfig) (*tls.Config, error) {
	if cfg.CAFile == "" {
		return nil, nil
	}

	pem, err := os.ReadFile(cfg.CAFile)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrInvalidCA, cfg.CAFile, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("%w: no certificates found in %s", ErrInvalidCA, cfg.CAFile)
	}

	return &tls.Config{
		MinVersion: tlsMinVersion,
		RootCAs:    pool,
	}, nil
}
