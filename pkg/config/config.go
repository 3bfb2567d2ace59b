// Package config holds all application configuration, loaded from a
// YAML file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Sport maps a target book sport to its reference feed key and the
// market families scanned for it.
type Sport struct {
	Name     string   `yaml:"name"`
	Key      string   `yaml:"key"` // reference feed sport key, e.g. "soccer_france_ligue_one"
	Markets  []string `yaml:"markets"`
	Disabled bool     `yaml:"disabled"`
}

// Config holds all application configuration.
type Config struct {
	Gateway struct {
		BaseURL   string  `yaml:"base_url"`
		RateLimit float64 `yaml:"rate_limit"`
	} `yaml:"gateway"`
	Server struct {
		Listen string `yaml:"listen"`
	} `yaml:"server"`
	Detection struct {
		MinEV    float64 `yaml:"min_ev"` // EV% floor for surfacing candidates
		MinScore float64 `yaml:"min_score"`
		Sports   []Sport `yaml:"sports"`
	} `yaml:"detection"`
	Bankroll struct {
		Initial         float64 `yaml:"initial"`
		KellyMultiplier float64 `yaml:"kelly_multiplier"`
		MaxStakePct     float64 `yaml:"max_stake_pct"`
		MinStake        float64 `yaml:"min_stake"`
		MinEVToBet      float64 `yaml:"min_ev_to_bet"`
		MinBooksToBet   int     `yaml:"min_books_to_bet"`
		AutoBet         *bool   `yaml:"auto_bet"`
		LedgerFile      string  `yaml:"ledger_file"`
	} `yaml:"bankroll"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("ODDSEDGE_GATEWAY_URL"); v != "" {
		cfg.Gateway.BaseURL = v
	}
	if v := os.Getenv("ODDSEDGE_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("ODDSEDGE_MIN_EV"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Detection.MinEV = f
		}
	}
	if v := os.Getenv("ODDSEDGE_INITIAL_BANKROLL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Bankroll.Initial = f
		}
	}
	if v := os.Getenv("ODDSEDGE_AUTO_BET"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Bankroll.AutoBet = &b
		}
	}
	if v := os.Getenv("ODDSEDGE_LEDGER_FILE"); v != "" {
		cfg.Bankroll.LedgerFile = v
	}
	if v := os.Getenv("ODDSEDGE_REFRESH_CRON"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("ODDSEDGE_SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("ODDSEDGE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = "http://localhost:8765"
	}
	if c.Gateway.RateLimit == 0 {
		c.Gateway.RateLimit = 2.0
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Detection.MinEV == 0 {
		c.Detection.MinEV = 1.0
	}
	if c.Detection.MinScore == 0 {
		c.Detection.MinScore = 0.55
	}
	if len(c.Detection.Sports) == 0 {
		c.Detection.Sports = []Sport{
			{Name: "Football", Key: "soccer_france_ligue_one", Markets: []string{"h2h", "totals", "btts"}},
			{Name: "Tennis", Key: "tennis_atp", Markets: []string{"h2h"}},
			{Name: "Basketball", Key: "basketball_nba", Markets: []string{"h2h"}},
		}
	}
	if c.Bankroll.Initial == 0 {
		c.Bankroll.Initial = 100
	}
	if c.Bankroll.KellyMultiplier == 0 {
		c.Bankroll.KellyMultiplier = 0.25
	}
	if c.Bankroll.MaxStakePct == 0 {
		c.Bankroll.MaxStakePct = 0.05
	}
	if c.Bankroll.MinStake == 0 {
		c.Bankroll.MinStake = 0.10
	}
	if c.Bankroll.MinEVToBet == 0 {
		c.Bankroll.MinEVToBet = 1.0
	}
	if c.Bankroll.MinBooksToBet == 0 {
		c.Bankroll.MinBooksToBet = 3
	}
	if c.Bankroll.AutoBet == nil {
		autoBet := true
		c.Bankroll.AutoBet = &autoBet
	}
	if c.Bankroll.LedgerFile == "" {
		c.Bankroll.LedgerFile = "data/bankroll.json"
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 */30 * * * *" // every 30 minutes
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all fields are within range.
func (c *Config) Validate() error {
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway.base_url is required")
	}
	if c.Detection.MinEV < 0 {
		return fmt.Errorf("detection.min_ev must not be negative")
	}
	if c.Bankroll.Initial <= 0 {
		return fmt.Errorf("bankroll.initial must be positive")
	}
	if c.Bankroll.KellyMultiplier <= 0 || c.Bankroll.KellyMultiplier > 1 {
		return fmt.Errorf("bankroll.kelly_multiplier must be in (0, 1]")
	}
	if c.Bankroll.MaxStakePct <= 0 || c.Bankroll.MaxStakePct > 1 {
		return fmt.Errorf("bankroll.max_stake_pct must be in (0, 1]")
	}
	for _, s := range c.Detection.Sports {
		if s.Name == "" || s.Key == "" {
			return fmt.Errorf("detection.sports entries need name and key")
		}
	}
	return nil
}

// EnabledSports returns the sports to scan.
func (c *Config) EnabledSports() []Sport {
	out := make([]Sport, 0, len(c.Detection.Sports))
	for _, s := range c.Detection.Sports {
		if !s.Disabled {
			out = append(out, s)
		}
	}
	return out
}
