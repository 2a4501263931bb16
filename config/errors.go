package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrMissing marks a required configuration value that is not set.
var ErrMissing = errors.New("required value not set")

// ConfigurationError reports a missing or malformed configuration value.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %v", e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func missingError(keys ...string) error {
	slices.Sort(keys)
	return &ConfigurationError{Key: strings.Join(keys, ", "), Err: ErrMissing}
}
