package config

import (
	"os"
	"testing"
	"time"

	"hla-gateway/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"GATEWAY_PORT", "GATEWAY_DB", "GATEWAY_FEDERATION", "GATEWAY_FEDERATE",
		"GATEWAY_SITE_ID", "GATEWAY_APP_ID", "GATEWAY_TICK"} {
		t.Setenv(k, "")
	}

	s := Load()
	if s.Port != "8080" {
		t.Errorf("Port = %q, want 8080", s.Port)
	}
	if s.DBPath != "hla-gateway.db" {
		t.Errorf("DBPath = %q", s.DBPath)
	}
	if s.Federation != "" {
		t.Errorf("Federation = %q, want empty", s.Federation)
	}
	if s.Federate != "hla-gateway" {
		t.Errorf("Federate = %q", s.Federate)
	}
	if s.SiteID != 1 || s.AppID != 1 {
		t.Errorf("SiteID/AppID = %d/%d, want 1/1", s.SiteID, s.AppID)
	}
	if s.Tick != 50*time.Millisecond {
		t.Errorf("Tick = %v, want 50ms", s.Tick)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GATEWAY_PORT", "9090")
	t.Setenv("GATEWAY_FEDERATION", "TrainingFed")
	t.Setenv("GATEWAY_SITE_ID", "12")
	t.Setenv("GATEWAY_APP_ID", "70000") // overflows uint16
	t.Setenv("GATEWAY_TICK", "20ms")

	s := Load()
	if s.Port != "9090" || s.Federation != "TrainingFed" {
		t.Errorf("Port/Federation = %q/%q", s.Port, s.Federation)
	}
	if s.SiteID != 12 {
		t.Errorf("SiteID = %d, want 12", s.SiteID)
	}
	if s.AppID != 1 {
		t.Errorf("AppID = %d, want fallback 1", s.AppID)
	}
	if s.Tick != 20*time.Millisecond {
		t.Errorf("Tick = %v, want 20ms", s.Tick)
	}

	t.Setenv("GATEWAY_TICK", "-5s")
	if s := Load(); s.Tick != 50*time.Millisecond {
		t.Errorf("negative Tick = %v, want fallback", s.Tick)
	}
}
