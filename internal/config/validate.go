package config

import (
	"strings"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

// Validation errors for configuration fields.
var (
	// ErrInvalidPort indicates default_port is outside 1..65535.
	ErrInvalidPort = errors.New("default_port must be between 1 and 65535")

	// ErrInvalidAttempts indicates max_port_attempts is not positive.
	ErrInvalidAttempts = errors.New("max_port_attempts must be >= 1")

	// ErrInvalidDuration indicates a negative duration.
	ErrInvalidDuration = errors.New("duration must not be negative")

	// ErrInvalidPath indicates a path value is malformed.
	ErrInvalidPath = errors.New("invalid path")
)

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	if cfg.DefaultPort < 1 || cfg.DefaultPort > 65535 {
		errs = append(errs, ErrInvalidPort)
	}
	if cfg.MaxPortAttempts < 1 {
		errs = append(errs, ErrInvalidAttempts)
	}
	if cfg.GracePeriod < 0 {
		errs = append(errs, &FieldError{Field: "grace_period", Err: ErrInvalidDuration})
	}
	if cfg.SettleDelay < 0 {
		errs = append(errs, &FieldError{Field: "settle_delay", Err: ErrInvalidDuration})
	}
	if cfg.DataDir == "" || strings.ContainsRune(cfg.DataDir, '\x00') {
		errs = append(errs, &FieldError{Field: "data_dir", Err: ErrInvalidPath})
	}
	if strings.ContainsRune(cfg.LogDir, '\x00') {
		errs = append(errs, &FieldError{Field: "log_dir", Err: ErrInvalidPath})
	}

	return errs
}

// FieldError represents an error for a specific configuration field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
