package main

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned (wrapped in EmptyInputError) when there are no trials to summarize
var ErrEmptyInput = errors.New("no ending capitals to summarize")

// ConfigurationError reports a missing, malformed or structurally invalid configuration value
type ConfigurationError struct {
	Field   string
	Message string
}

func (e ConfigurationError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Message
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// EmptyInputError is returned when a summary is requested over zero trials
type EmptyInputError struct {
	Portfolio string
}

func (e EmptyInputError) Error() string {
	if e.Portfolio == "" {
		return ErrEmptyInput.Error()
	}
	return fmt.Sprintf("%s: %s", e.Portfolio, ErrEmptyInput.Error())
}

func (e EmptyInputError) Unwrap() error {
	return ErrEmptyInput
}
