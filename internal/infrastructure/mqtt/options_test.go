package mqtt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/casagrid/corriente-bridge/internal/infrastructure/config"
)

// writeTestCA writes a self-signed CA certificate PEM to a temp file.
func writeTestCA(t *testing.T) string {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test-broker-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("creating certificate: %v", err)
	}

	path := filepath.Join(t.TempDir(), "ca.pem")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating PEM file: %v", err)
	}
	defer f.Close()

	if err := pem.Encode(f, &pem.Block{Type: "CERTIFICATE", Bytes: der}); err != nil {
		t.Fatalf("encoding PEM: %v", err)
	}

	return path
}

func testMQTTConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			URI:      "ssl://broker.example.com:8883",
			ClientID: "corriente-test",
		},
		Auth: config.MQTTAuthConfig{
			Username: "bridge",
			Password: "secret",
		},
		QoS:       1,
		KeepAlive: 30,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     60,
		},
	}
}

// =============================================================================
// TLS Trust Anchor Tests
// =============================================================================

func TestBuildTLSConfig_ValidCA(t *testing.T) {
	caPath := writeTestCA(t)

	tlsCfg, err := buildTLSConfig(config.MQTTTLSConfig{CAFile: caPath})
	if err != nil {
		t.Fatalf("buildTLSConfig() error = %v", err)
	}

	if tlsCfg == nil {
		t.Fatal("buildTLSConfig() returned nil config for valid CA")
	}

	if tlsCfg.RootCAs == nil {
		t.Error("RootCAs not populated from trust anchor")
	}

	if tlsCfg.InsecureSkipVerify {
		t.Error("InsecureSkipVerify must never be set")
	}

	if tlsCfg.ServerName != "" {
		t.Errorf("ServerName = %q, want no hostname override", tlsCfg.ServerName)
	}
}

func TestBuildTLSConfig_NoAnchor(t *testing.T) {
	tlsCfg, err := buildTLSConfig(config.MQTTTLSConfig{})
	if err != nil {
		t.Fatalf("buildTLSConfig() error = %v", err)
	}

	if tlsCfg != nil {
		t.Error("buildTLSConfig() without anchor should return nil config")
	}
}

func TestBuildTLSConfig_MissingFile(t *testing.T) {
	_, err := buildTLSConfig(config.MQTTTLSConfig{CAFile: "/nonexistent/ca.pem"})
	if !errors.Is(err, ErrInvalidCA) {
		t.Errorf("buildTLSConfig() error = %v, want ErrInvalidCA", err)
	}
}

func TestBuildTLSConfig_GarbagePEM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, []byte("not a certificate"), 0600); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	_, err := buildTLSConfig(config.MQTTTLSConfig{CAFile: path})
	if !errors.Is(err, ErrInvalidCA) {
		t.Errorf("buildTLSConfig() error = %v, want ErrInvalidCA", err)
	}
}

// =============================================================================
// Client Options Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testMQTTConfig()

	opts := buildClientOptions(cfg, nil)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://broker.example.com:8883" {
		t.Errorf("Servers = %v, want [ssl://broker.example.com:8883]", opts.Servers)
	}

	if opts.ClientID != "corriente-test" {
		t.Errorf("ClientID = %q, want %q", opts.ClientID, "corriente-test")
	}

	if opts.Username != "bridge" {
		t.Errorf("Username = %q, want %q", opts.Username, "bridge")
	}

	if opts.KeepAlive != 30 {
		t.Errorf("KeepAlive = %d, want 30", opts.KeepAlive)
	}

	if !opts.AutoReconnect {
		t.Error("AutoReconnect should be enabled (backoff is the transport's job)")
	}

	if !opts.ConnectRetry {
		t.Error("ConnectRetry should be enabled")
	}

	if opts.ConnectRetryInterval != 1*time.Second {
		t.Errorf("ConnectRetryInterval = %v, want 1s", opts.ConnectRetryInterval)
	}

	if opts.MaxReconnectInterval != 60*time.Second {
		t.Errorf("MaxReconnectInterval = %v, want 60s", opts.MaxReconnectInterval)
	}

	if !opts.CleanSession {
		t.Error("CleanSession should be set: pending state must not survive restarts")
	}
}

func TestBuildClientOptions_NoCredentials(t *testing.T) {
	cfg := testMQTTConfig()
	cfg.Auth = config.MQTTAuthConfig{}

	opts := buildClientOptions(cfg, nil)

	if opts.Username != "" {
		t.Errorf("Username = %q, want empty for anonymous access", opts.Username)
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	caPath := writeTestCA(t)

	tlsCfg, err := buildTLSConfig(config.MQTTTLSConfig{CAFile: caPath})
	if err != nil {
		t.Fatalf("buildTLSConfig() error = %v", err)
	}

	opts := buildClientOptions(testMQTTConfig(), tlsCfg)

	if opts.TLSConfig == nil {
		t.Fatal("TLSConfig not applied to client options")
	}

	if opts.TLSConfig.RootCAs == nil {
		t.Error("TLSConfig.RootCAs not carried through")
	}
}
