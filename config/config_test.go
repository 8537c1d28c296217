package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()

	cfg := Load()

	if cfg.DBHost != "localhost" || cfg.DBPort != "3306" {
		t.Errorf("unexpected database defaults: %s:%s", cfg.DBHost, cfg.DBPort)
	}
	if cfg.OcrServiceURL != "http://localhost:8000/scan/price-tag" {
		t.Errorf("unexpected ocr service default: %s", cfg.OcrServiceURL)
	}
	if cfg.CvServiceURL != "http://localhost:8001/detect/fake-product" {
		t.Errorf("unexpected cv service default: %s", cfg.CvServiceURL)
	}
	if cfg.SweepInterval != time.Hour {
		t.Errorf("unexpected sweep interval default: %v", cfg.SweepInterval)
	}
	if cfg.MaxWorkers != 4 {
		t.Errorf("unexpected max workers default: %d", cfg.MaxWorkers)
	}
	if cfg.TrustedProxies != nil {
		t.Errorf("expected no trusted proxies by default, got %v", cfg.TrustedProxies)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	os.Clearenv()
	os.Setenv("SWEEP_INTERVAL", "15m")
	os.Setenv("MAX_WORKERS", "8")
	os.Setenv("SCAN_TIMEOUT", "5s")
	os.Setenv("TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2")
	defer os.Clearenv()

	cfg := Load()

	if cfg.SweepInterval != 15*time.Minute {
		t.Errorf("expected sweep interval 15m, got %v", cfg.SweepInterval)
	}
	if cfg.MaxWorkers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.MaxWorkers)
	}
	if cfg.ScanTimeout != 5*time.Second {
		t.Errorf("expected scan timeout 5s, got %v", cfg.ScanTimeout)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[1] != "10.0.0.2" {
		t.Errorf("unexpected trusted proxies: %v", cfg.TrustedProxies)
	}
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("SWEEP_INTERVAL", "not-a-duration")
	os.Setenv("MAX_WORKERS", "not-a-number")
	defer os.Clearenv()

	cfg := Load()

	if cfg.SweepInterval != time.Hour {
		t.Errorf("expected default sweep interval, got %v", cfg.SweepInterval)
	}
	if cfg.MaxWorkers != 4 {
		t.Errorf("expected default max workers, got %d", cfg.MaxWorkers)
	}
}
