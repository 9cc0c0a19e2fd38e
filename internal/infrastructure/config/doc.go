// Package config handles loading and validating corriente bridge configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (broker password, InfluxDB token) should be set via
//     environment variables rather than committed to the config file
//   - The config file should have restricted permissions (0600)
//   - The TLS trust anchor (mqtt.tls.ca_file) is mandatory for encrypted
//     broker URIs; there is no way to disable verification
//
// Performance Characteristics:
//   - Configuration is loaded once at startup
//   - No runtime overhead after initial load
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.MQTT.Broker.URI)
package config
