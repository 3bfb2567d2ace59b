package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bankroll.Initial != 100 {
		t.Errorf("initial bankroll = %v, want 100", cfg.Bankroll.Initial)
	}
	if cfg.Bankroll.KellyMultiplier != 0.25 {
		t.Errorf("kelly multiplier = %v, want 0.25", cfg.Bankroll.KellyMultiplier)
	}
	if cfg.Bankroll.AutoBet == nil || !*cfg.Bankroll.AutoBet {
		t.Error("auto_bet should default to true")
	}
	if len(cfg.Detection.Sports) == 0 {
		t.Error("default sports missing")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
gateway:
  base_url: http://gw:9000
detection:
  min_ev: 2.5
  sports:
    - name: Football
      key: soccer_epl
      markets: [h2h, totals]
    - name: Hockey
      key: icehockey_nhl
      disabled: true
bankroll:
  initial: 500
  auto_bet: false
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.BaseURL != "http://gw:9000" {
		t.Errorf("base url = %s", cfg.Gateway.BaseURL)
	}
	if cfg.Detection.MinEV != 2.5 {
		t.Errorf("min ev = %v", cfg.Detection.MinEV)
	}
	if cfg.Bankroll.Initial != 500 {
		t.Errorf("initial = %v", cfg.Bankroll.Initial)
	}
	if cfg.Bankroll.AutoBet == nil || *cfg.Bankroll.AutoBet {
		t.Error("auto_bet false in file must survive defaulting")
	}
	if got := cfg.EnabledSports(); len(got) != 1 || got[0].Key != "soccer_epl" {
		t.Errorf("enabled sports = %+v", got)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ODDSEDGE_GATEWAY_URL", "http://env:1234")
	t.Setenv("ODDSEDGE_MIN_EV", "3.0")
	t.Setenv("ODDSEDGE_AUTO_BET", "false")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.BaseURL != "http://env:1234" {
		t.Errorf("base url = %s", cfg.Gateway.BaseURL)
	}
	if cfg.Detection.MinEV != 3.0 {
		t.Errorf("min ev = %v", cfg.Detection.MinEV)
	}
	if cfg.Bankroll.AutoBet == nil || *cfg.Bankroll.AutoBet {
		t.Error("env auto_bet=false not applied")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, _ := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	cfg.Bankroll.KellyMultiplier = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("kelly multiplier > 1 should fail validation")
	}

	cfg, _ = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	cfg.Detection.Sports = []Sport{{Name: "NoKey"}}
	if err := cfg.Validate(); err == nil {
		t.Error("sport without key should fail validation")
	}
}
