// Package errors provides structured error handling for Lantern.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes used by the CLI.
const (
	ExitSuccess  = 0 // Successful execution
	ExitGeneral  = 1 // General/unknown error
	ExitInput    = 2 // Invalid input
	ExitAuth     = 3 // Authentication failed
	ExitNotFound = 4 // Resource not found
	ExitState    = 5 // Precondition not met (engine not started, wallet not initialized)
)

// LanternError is the structured error type for Lantern.
type LanternError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *LanternError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *LanternError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for LanternError.
func (e *LanternError) Is(target error) bool {
	var t *LanternError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &LanternError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &LanternError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrAuthentication = &LanternError{
		Code:     "AUTHENTICATION_FAILED",
		Message:  "authentication failed",
		ExitCode: ExitAuth,
	}

	// ErrAuthCooldown is returned when a load attempt lands inside the
	// cooldown window that follows a failed authentication.
	ErrAuthCooldown = &LanternError{
		Code:     "AUTH_COOLDOWN",
		Message:  "authentication is cooling down after a recent failure",
		ExitCode: ExitAuth,
	}

	// Engine lifecycle errors.
	ErrEngineNotStarted = &LanternError{
		Code:     "ENGINE_NOT_STARTED",
		Message:  "engine is not started",
		ExitCode: ExitState,
	}

	ErrEngineStartFailed = &LanternError{
		Code:     "ENGINE_START_FAILED",
		Message:  "engine failed to start",
		ExitCode: ExitGeneral,
	}

	ErrEngineCallFailed = &LanternError{
		Code:     "ENGINE_CALL_FAILED",
		Message:  "engine call failed",
		ExitCode: ExitGeneral,
	}

	ErrNoResult = &LanternError{
		Code:     "NO_RESULT",
		Message:  "engine call returned no result",
		ExitCode: ExitGeneral,
	}

	// Wallet-specific errors.
	ErrWalletNotFound = &LanternError{
		Code:     "WALLET_NOT_FOUND",
		Message:  "wallet not found",
		ExitCode: ExitNotFound,
	}

	ErrWalletExists = &LanternError{
		Code:     "WALLET_EXISTS",
		Message:  "wallet already exists",
		ExitCode: ExitInput,
	}

	ErrWalletNotInitialized = &LanternError{
		Code:     "WALLET_NOT_INITIALIZED",
		Message:  "wallet is not initialized",
		ExitCode: ExitState,
	}

	ErrInvalidMnemonic = &LanternError{
		Code:     "INVALID_MNEMONIC",
		Message:  "invalid mnemonic phrase",
		ExitCode: ExitInput,
	}

	// ErrDecryptionFailed is the quarantine-triggering error: credential
	// material for the wallet could not be decrypted. Consumers should offer
	// "wipe and recreate" rather than "retry" when they see this code.
	ErrDecryptionFailed = &LanternError{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong key or corrupted credentials",
		ExitCode: ExitAuth,
	}

	// Secure store errors.
	ErrStoreUnavailable = &LanternError{
		Code:     "STORE_UNAVAILABLE",
		Message:  "secure credential store is unavailable or misconfigured",
		ExitCode: ExitGeneral,
	}

	ErrVaultCorrupted = &LanternError{
		Code:     "VAULT_CORRUPTED",
		Message:  "credential vault file is corrupted",
		ExitCode: ExitGeneral,
	}

	// Config-specific errors.
	ErrConfigNotFound = &LanternError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &LanternError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &LanternError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown config key",
		ExitCode: ExitInput,
	}
)

// New creates a new LanternError with the given code and message.
func New(code, message string) *LanternError {
	return &LanternError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var le *LanternError
	if errors.As(err, &le) {
		return &LanternError{
			Code:       le.Code,
			Message:    fmt.Sprintf("%s: %s", msg, le.Message),
			Details:    le.Details,
			Suggestion: le.Suggestion,
			Cause:      err,
			ExitCode:   le.ExitCode,
		}
	}

	return &LanternError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var le *LanternError
	if errors.As(err, &le) {
		return &LanternError{
			Code:       le.Code,
			Message:    le.Message,
			Details:    details,
			Suggestion: le.Suggestion,
			Cause:      le.Cause,
			ExitCode:   le.ExitCode,
		}
	}

	return &LanternError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var le *LanternError
	if errors.As(err, &le) {
		return &LanternError{
			Code:       le.Code,
			Message:    le.Message,
			Details:    le.Details,
			Suggestion: suggestion,
			Cause:      le.Cause,
			ExitCode:   le.ExitCode,
		}
	}

	return &LanternError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var le *LanternError
	if errors.As(err, &le) {
		return le.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var le *LanternError
	if errors.As(err, &le) {
		return le.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
