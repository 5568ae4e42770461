// Package config provides configuration management for the Prop Edge engine.
package config

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/prop-edge/internal/models"
)

var sportLabelPattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("sport", validateSportLabel)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateSportLabel validates short sport labels (NFL, NBA, ...)
func validateSportLabel(fl validator.FieldLevel) bool {
	return sportLabelPattern.MatchString(fl.Field().String())
}

// validateCrossField runs checks spanning more than one section.
func validateCrossField(cfg *Config) error {
	if cfg.Cache.Backend == "redis" && cfg.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required when cache.backend is redis")
	}

	w := cfg.Engine.Simulation
	if w.SampleCount <= 0 {
		return fmt.Errorf("engine.simulation.sample_count: %w", models.ErrInvalidSampleSize)
	}
	if sum := w.WeightAverage + w.WeightAdverse + w.WeightFavorable; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("engine.simulation mixture weights must sum to 1, got %.3f", sum)
	}

	for i, t := range cfg.Engine.Tiers {
		if i == 0 {
			continue
		}
		prev := cfg.Engine.Tiers[i-1]
		if t.MinEV > prev.MinEV || t.MinCover > prev.MinCover {
			return fmt.Errorf("engine.tiers must be ordered strictest-first; rung %d loosens nothing", i)
		}
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable message
func formatValidationErrors(errs validator.ValidationErrors) error {
	msg := "configuration validation failed:"
	for _, e := range errs {
		msg += fmt.Sprintf(" field '%s' failed rule '%s';", e.Namespace(), e.Tag())
	}
	return fmt.Errorf("%s", msg)
}
