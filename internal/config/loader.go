package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a mend configuration from the given YAML file path.
// After parsing, it fills in defaults for fields the file doesn't set.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches for a mend config in standard locations and loads the
// first one found. Search order: ./mend.yaml, ~/.mend/config.yaml
func LoadDefault() (*Config, error) {
	candidates := []string{"mend.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".mend", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return nil, fmt.Errorf("no mend config found (searched: %v)", candidates)
}

// applyDefaults fills in defaults for optional fields.
func applyDefaults(cfg *Config) {
	if cfg.Build.Command == "" {
		cfg.Build.Command = "mvn clean verify"
	}
	if cfg.Build.AnalysisCommand == "" {
		cfg.Build.AnalysisCommand = "mvn pmd:check"
	}
	if cfg.Build.Timeout == "" {
		cfg.Build.Timeout = "20m"
	}
	if cfg.Reports.SurefireDir == "" {
		cfg.Reports.SurefireDir = filepath.Join("target", "surefire-reports")
	}
	if cfg.Reports.JacocoReport == "" {
		cfg.Reports.JacocoReport = filepath.Join("target", "jacoco-report", "jacoco.xml")
	}
	if cfg.Reports.PMDReport == "" {
		cfg.Reports.PMDReport = filepath.Join("target", "pmd.xml")
	}
	if cfg.Generator.Timeout == "" {
		cfg.Generator.Timeout = "10m"
	}
	if cfg.Git.Remote == "" {
		cfg.Git.Remote = "origin"
	}
	if cfg.Git.BaseBranch == "" {
		cfg.Git.BaseBranch = "main"
	}
	if cfg.Git.PRTitle == "" {
		cfg.Git.PRTitle = "Automated build and coverage remediation"
	}
	if cfg.Git.PushRetries <= 0 {
		cfg.Git.PushRetries = 3
	}
	if cfg.Guard.MaxPasses <= 0 {
		cfg.Guard.MaxPasses = 25
	}
	if cfg.Guard.StagnationThreshold <= 0 {
		cfg.Guard.StagnationThreshold = 3
	}
	if cfg.Web.Port <= 0 {
		cfg.Web.Port = 8713
	}
}
