package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingRequired indicates a required environment variable is unset or empty
	ErrMissingRequired = errors.New("missing required environment variable")

	// ErrInvalidValue indicates a setting could not be parsed or is out of range
	ErrInvalidValue = errors.New("invalid configuration value")
)

// MissingEnvError lists every required variable that was not set.
type MissingEnvError struct {
	Names []string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("%v: %s. Create a .env file based on .env.example and set %s.",
		ErrMissingRequired, strings.Join(e.Names, ", "), strings.Join(e.Names, ", "))
}

func (e *MissingEnvError) Unwrap() error {
	return ErrMissingRequired
}

// ValueError wraps a parse or range failure with the offending key.
type ValueError struct {
	Key   string
	Value string
	Err   error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *ValueError) Unwrap() error {
	return e.Err
}

func newValueError(key, value string, err error) *ValueError {
	if err == nil {
		err = ErrInvalidValue
	} else if !errors.Is(err, ErrInvalidValue) {
		err = fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return &ValueError{Key: key, Value: value, Err: err}
}
