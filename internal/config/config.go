// engine/internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	MalformedDrop = "drop"
	MalformedFail = "fail"

	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderStub   = "stub"

	asOfLayout = "2006-01-02"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Data struct {
		Clients         string `yaml:"clients" json:"clients"`
		GroupAssignment string `yaml:"group_assignment" json:"group_assignment"`
		InternalRef     string `yaml:"internal_ref" json:"internal_ref"`
		MasterComplist  string `yaml:"master_complist" json:"master_complist"`
		Concessions     string `yaml:"concessions" json:"concessions"`
		CompDetails     string `yaml:"comp_details" json:"comp_details"`
		UnitHistoryDir  string `yaml:"unit_history_dir" json:"unit_history_dir"`
	} `yaml:"data" json:"data"`

	Window struct {
		Days int    `yaml:"days" json:"days"`
		AsOf string `yaml:"as_of" json:"as_of"` // YYYY-MM-DD; empty pins the startup date
	} `yaml:"window" json:"window"`

	Availability struct {
		MalformedLayout string `yaml:"malformed_layout" json:"malformed_layout"` // drop | fail
	} `yaml:"availability" json:"availability"`

	LLM struct {
		Provider          string `yaml:"provider" json:"provider"` // openai | azure | stub
		Model             string `yaml:"model" json:"model"`
		Endpoint          string `yaml:"endpoint" json:"endpoint"`
		APIVersion        string `yaml:"api_version" json:"api_version"`
		Deployment        string `yaml:"deployment" json:"deployment"`
		TimeoutSeconds    int    `yaml:"timeout_seconds" json:"timeout_seconds"`
		RequestsPerMinute int    `yaml:"requests_per_minute" json:"requests_per_minute"`
		KeyringAccount    string `yaml:"keyring_account" json:"keyring_account"`
	} `yaml:"llm" json:"llm"`

	Prompts struct {
		Path string `yaml:"path" json:"path"`
	} `yaml:"prompts" json:"prompts"`

	Audit struct {
		Enabled       bool `yaml:"enabled" json:"enabled"`
		RetentionDays int  `yaml:"retention_days" json:"retention_days"`
	} `yaml:"audit" json:"audit"`

	Log struct {
		Level string `yaml:"level" json:"level"`
		Color bool   `yaml:"color" json:"color"`
	} `yaml:"log" json:"log"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Port == 0 {
		cfg.App.Port = 38472
	}
	if cfg.Window.Days == 0 {
		cfg.Window.Days = 7
	}
	if cfg.Availability.MalformedLayout == "" {
		cfg.Availability.MalformedLayout = MalformedDrop
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderOpenAI
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o"
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 120
	}
	if cfg.LLM.KeyringAccount == "" {
		cfg.LLM.KeyringAccount = "leasingedge:llm:" + cfg.LLM.Provider
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// AsOf returns the pinned "current date" all recency filtering is measured
// from. now is only consulted when window.as_of is empty.
func (c Config) AsOf(now func() time.Time) (time.Time, error) {
	raw := strings.TrimSpace(c.Window.AsOf)
	if raw == "" {
		t := now()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(asOfLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("window.as_of %q: %w", raw, err)
	}
	return t, nil
}

// ResolvePath makes relative data paths relative to the data dir.
func (c Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.App.DataDir == "" {
		return p
	}
	return filepath.Join(c.App.DataDir, p)
}
