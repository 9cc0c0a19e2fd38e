// Corriente Bridge - Current Telemetry Publisher
//
// This is the main entry point for the corriente bridge. The bridge reads
// current measurements from a serial-attached sensor, merges them with
// synthetic demonstration channels, and publishes each channel's readings
// as JSON telemetry to an MQTT broker over TLS.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casagrid/corriente-bridge/internal/infrastructure/config"
	"github.com/casagrid/corriente-bridge/internal/infrastructure/influxdb"
	"github.com/casagrid/corriente-bridge/internal/infrastructure/logging"
	"github.com/casagrid/corriente-bridge/internal/infrastructure/mqtt"
	"github.com/casagrid/corriente-bridge/internal/infrastructure/serial"
	"github.com/casagrid/corriente-bridge/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting corriente bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the serial sensor link. A missing device is fatal: without the
	// sensor there is nothing worth running.
	port, err := serial.Open(cfg.Serial)
	if err != nil {
		return fmt.Errorf("opening serial port: %w", err)
	}
	defer func() {
		log.Info("closing serial port")
		if closeErr := port.Close(); closeErr != nil {
			log.Error("error closing serial port", "error", closeErr)
		}
	}()
	log.Info("serial port open",
		"device", cfg.Serial.Device,
		"baud_rate", cfg.Serial.BaudRate,
	)

	// Start the MQTT session. Connect returns immediately; the session
	// establishes (and re-establishes) in the background, reporting
	// through the event stream. Only configuration-class failures, such
	// as an unreadable trust anchor, abort startup here.
	session, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("starting MQTT session: %w", err)
	}
	defer func() {
		log.Info("closing MQTT session")
		if closeErr := session.Close(); closeErr != nil {
			log.Error("error closing MQTT session", "error", closeErr)
		}
	}()
	session.SetLogger(log.With("component", "mqtt"))
	log.Info("MQTT session starting",
		"broker", cfg.MQTT.Broker.URI,
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Connect to InfluxDB (optional local telemetry mirror)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Assemble the telemetry pipeline
	source := telemetry.NewRandomSource(time.Now().UnixNano())
	mux := telemetry.NewMultiplexer(cfg.Channels, source, nil)

	publisher := telemetry.NewPublisher(session, byte(cfg.MQTT.QoS))
	publisher.SetLogger(log.With("component", "publisher"))
	if influxClient != nil {
		publisher.SetMirror(influxClient)
	}

	scheduler := telemetry.NewScheduler(telemetry.SchedulerOptions{
		Port:        port,
		Multiplexer: mux,
		Publisher:   publisher,
		Events:      session.Events(),
		Interval:    cfg.GetInterval(),
		BufferSize:  cfg.Serial.BufferSize,
	})
	scheduler.SetLogger(log.With("component", "scheduler"))

	log.Info("initialisation complete, entering publish loop",
		"channels", len(cfg.Channels),
		"interval", cfg.GetInterval(),
	)

	// Run until the shutdown signal arrives
	if err := scheduler.Run(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	log.Info("shutdown signal received, cleaning up",
		"dropped_readings", publisher.Dropped(),
	)

	// Deferred Close() calls will run in reverse order:
	// 1. InfluxDB (if enabled)
	// 2. MQTT session
	// 3. Serial port

	log.Info("corriente bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses CORRIENTE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("CORRIENTE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections once the session has
// had a chance to establish. Used by deployment smoke tests.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - session: MQTT session to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, session *mqtt.Client, influxClient *influxdb.Client) error {
	if err := session.HealthCheck(ctx); err != nil {
		if errors.Is(err, mqtt.ErrNotConnected) {
			return fmt.Errorf("mqtt session not yet established: %w", err)
		}
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
