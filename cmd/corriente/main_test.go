package main

import (
	"context"
	"errors"
	"testing"

	"github.com/casagrid/corriente-bridge/internal/infrastructure/mqtt"
)

func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("CORRIENTE_CONFIG", "")

	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	t.Setenv("CORRIENTE_CONFIG", "/etc/corriente/config.yaml")

	if got := getConfigPath(); got != "/etc/corriente/config.yaml" {
		t.Errorf("getConfigPath() = %q, want env override", got)
	}
}

func TestHealthCheck_SessionNotEstablished(t *testing.T) {
	session := &mqtt.Client{}

	err := healthCheck(context.Background(), session, nil)
	if !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("healthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheck_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := healthCheck(ctx, &mqtt.Client{}, nil)
	if err == nil {
		t.Error("healthCheck() with cancelled context should fail")
	}
}

func TestRun_MissingConfig(t *testing.T) {
	t.Setenv("CORRIENTE_CONFIG", "/nonexistent/config.yaml")

	if err := run(context.Background()); err == nil {
		t.Error("run() with missing config should fail")
	}
}
