package errors

import (
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// FileOpenError indicates a required file or directory is missing or unreadable
type FileOpenError struct {
	Path string
	Err  error
}

func (e FileOpenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error opening '%s': %v", e.Path, e.Err)
	}
	return fmt.Sprintf("error opening '%s': no such file or directory", e.Path)
}

func (e FileOpenError) Unwrap() error {
	return e.Err
}

// ConnectorError indicates an external certificate source is unknown,
// unreachable, or returned malformed data
type ConnectorError struct {
	Connector string
	Op        string // Operation: "create", "list", "cache"
	Err       error
}

func (e ConnectorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connector '%s' %s failed: %v", e.Connector, e.Op, e.Err)
	}
	return fmt.Sprintf("connector '%s' %s failed", e.Connector, e.Op)
}

func (e ConnectorError) Unwrap() error {
	return e.Err
}

// UnknownIdentityError indicates an identity name is not present in the
// trust store after all load steps completed
type UnknownIdentityError struct {
	UID string
}

func (e UnknownIdentityError) Error() string {
	return fmt.Sprintf("identity '%s' is not in the identity database", e.UID)
}

// UnknownRecipientError indicates a resolved recipient has no entry in the
// trust store
type UnknownRecipientError struct {
	Recipient string
}

func (e UnknownRecipientError) Error() string {
	return fmt.Sprintf("recipient '%s' is not in the identity database", e.Recipient)
}

// GroupDefinitionError indicates a referenced group has no definition in the
// configuration
type GroupDefinitionError struct {
	Group string
}

func (e GroupDefinitionError) Error() string {
	return fmt.Sprintf("group '%s' is not defined in the configuration", e.Group)
}

// NullRecipientError indicates an empty recipient name survived resolution
type NullRecipientError struct{}

func (e NullRecipientError) Error() string {
	return "empty recipient name in recipient list"
}

// PasswordIOError indicates a password record could not be read or written
type PasswordIOError struct {
	Name string
	Err  error
}

func (e PasswordIOError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("password '%s': %v", e.Name, e.Err)
	}
	return fmt.Sprintf("password '%s' not found", e.Name)
}

func (e PasswordIOError) Unwrap() error {
	return e.Err
}

// JSONArgumentError indicates a JSON-valued argument could not be parsed
type JSONArgumentError struct {
	Argument string
	Err      error
}

func (e JSONArgumentError) Error() string {
	return fmt.Sprintf("argument '%s' is not valid JSON: %v", e.Argument, e.Err)
}

func (e JSONArgumentError) Unwrap() error {
	return e.Err
}
