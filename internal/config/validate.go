package config

import (
	"fmt"
	"time"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a Config for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	if cfg.Project.Dir == "" {
		errs = append(errs, ValidationError{Field: "project.dir", Message: "is required"})
	}
	if cfg.Generator.Command == "" {
		errs = append(errs, ValidationError{Field: "generator.command", Message: "is required"})
	}

	for _, d := range []struct {
		field string
		value string
	}{
		{"build.timeout", cfg.Build.Timeout},
		{"generator.timeout", cfg.Generator.Timeout},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(d.value); err != nil {
			errs = append(errs, ValidationError{
				Field:   d.field,
				Message: fmt.Sprintf("invalid duration %q", d.value),
			})
		}
	}

	if cfg.Guard.MaxPasses < 1 {
		errs = append(errs, ValidationError{
			Field:   "guard.max_passes",
			Message: "must be at least 1",
		})
	}
	if cfg.Guard.StagnationThreshold < 2 {
		errs = append(errs, ValidationError{
			Field:   "guard.stagnation_threshold",
			Message: "must be at least 2",
		})
	}

	if cfg.Git.CreatePR && cfg.Git.BaseBranch == "" {
		errs = append(errs, ValidationError{
			Field:   "git.base_branch",
			Message: "is required when create_pr is set",
		})
	}

	return errs
}

// BuildTimeout returns the parsed build timeout, or the fallback when unset
// or malformed.
func (c *Config) BuildTimeout(fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(c.Build.Timeout); err == nil && d > 0 {
		return d
	}
	return fallback
}

// GeneratorTimeout returns the parsed generator timeout, or the fallback
// when unset or malformed.
func (c *Config) GeneratorTimeout(fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(c.Generator.Timeout); err == nil && d > 0 {
		return d
	}
	return fallback
}
