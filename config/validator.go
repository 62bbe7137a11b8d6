// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"fmt"
	"os"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Level   string // "error", "warning", "info"
}

// ValidateConfiguration validates the entire configuration
func ValidateConfiguration(cfg *Config) []ValidationError {
	var errors []ValidationError

	if cfg.Identity != nil {
		errors = append(errors, validateIdentityConfig(cfg.Identity)...)
	}

	if cfg.Transport != nil {
		errors = append(errors, validateTransportConfig(cfg.Transport)...)
	}

	if cfg.Handshake != nil {
		errors = append(errors, validateHandshakeConfig(cfg.Handshake)...)
	}

	if cfg.Session != nil {
		errors = append(errors, validateSessionConfig(cfg.Session)...)
	}

	if cfg.Audit != nil {
		errors = append(errors, validateAuditConfig(cfg.Audit)...)
	}

	errors = append(errors, validateEnvironment(cfg.Environment)...)

	return errors
}

// validateIdentityConfig validates the long-term signing key configuration
func validateIdentityConfig(cfg *IdentityConfig) []ValidationError {
	var errors []ValidationError

	switch cfg.KeyType {
	case "", "rsa-2048", "ed25519", "secp256k1":
	default:
		errors = append(errors, ValidationError{
			Field:   "Identity.KeyType",
			Message: fmt.Sprintf("unknown key type %q (expected rsa-2048, ed25519, or secp256k1)", cfg.KeyType),
			Level:   "error",
		})
	}

	if cfg.KeyPath == "" {
		errors = append(errors, ValidationError{
			Field:   "Identity.KeyPath",
			Message: "identity key path should be set so the key persists across restarts",
			Level:   "warning",
		})
	}

	return errors
}

// validateTransportConfig validates how chand listens for and dials peers
func validateTransportConfig(cfg *TransportConfig) []ValidationError {
	var errors []ValidationError

	switch cfg.Kind {
	case "", "tcp", "ws":
	default:
		errors = append(errors, ValidationError{
			Field:   "Transport.Kind",
			Message: fmt.Sprintf("unknown transport kind %q (expected tcp or ws)", cfg.Kind),
			Level:   "error",
		})
	}

	if cfg.DialTimeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "Transport.DialTimeout",
			Message: "dial timeout cannot be negative",
			Level:   "error",
		})
	}

	return errors
}

// validateHandshakeConfig validates the handshake timeout/retry policy
func validateHandshakeConfig(cfg *HandshakeConfig) []ValidationError {
	var errors []ValidationError

	if cfg.Timeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "Handshake.Timeout",
			Message: "handshake timeout cannot be negative",
			Level:   "error",
		})
	}

	if cfg.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "Handshake.MaxRetries",
			Message: "max retries cannot be negative",
			Level:   "error",
		})
	}

	if cfg.RetryBackoff < 0 {
		errors = append(errors, ValidationError{
			Field:   "Handshake.RetryBackoff",
			Message: "retry backoff cannot be negative",
			Level:   "error",
		})
	}

	return errors
}

// validateSessionConfig validates session bookkeeping limits
func validateSessionConfig(cfg *SessionConfig) []ValidationError {
	var errors []ValidationError

	if cfg.MaxSessions < 0 {
		errors = append(errors, ValidationError{
			Field:   "Session.MaxSessions",
			Message: "max sessions cannot be negative",
			Level:   "error",
		})
	}

	if cfg.MaxIdleTime < 0 {
		errors = append(errors, ValidationError{
			Field:   "Session.MaxIdleTime",
			Message: "max idle time cannot be negative",
			Level:   "error",
		})
	}

	return errors
}

// validateAuditConfig validates the Postgres audit trail configuration
func validateAuditConfig(cfg *AuditConfig) []ValidationError {
	var errors []ValidationError

	if cfg.Enabled && cfg.DSN == "" {
		errors = append(errors, ValidationError{
			Field:   "Audit.DSN",
			Message: "audit logging is enabled but no DSN is configured",
			Level:   "error",
		})
	}

	return errors
}

// validateEnvironment validates environment settings
func validateEnvironment(env string) []ValidationError {
	var errors []ValidationError

	validEnvs := []string{"local", "development", "staging", "production"}
	env = strings.ToLower(env)

	valid := false
	for _, v := range validEnvs {
		if env == v {
			valid = true
			break
		}
	}

	if !valid {
		errors = append(errors, ValidationError{
			Field:   "Environment",
			Message: fmt.Sprintf("invalid environment: %s (valid: %v)", env, validEnvs),
			Level:   "error",
		})
	}

	if env == "production" {
		errors = append(errors, ValidationError{
			Field:   "Environment",
			Message: "running in production mode - ensure --peer-key pinning and --audit-dsn are configured",
			Level:   "info",
		})
	}

	return errors
}

// ValidateFile validates a configuration file
func ValidateFile(path string) ([]ValidationError, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", path)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return ValidateConfiguration(cfg), nil
}

// PrintValidationErrors prints validation errors in a formatted way
func PrintValidationErrors(errors []ValidationError) {
	if len(errors) == 0 {
		fmt.Println("configuration is valid")
		return
	}

	var errorCount, warningCount, infoCount int
	for _, e := range errors {
		switch e.Level {
		case "error":
			errorCount++
		case "warning":
			warningCount++
		case "info":
			infoCount++
		}
	}

	fmt.Printf("configuration validation found %d errors, %d warnings, %d info messages\n\n",
		errorCount, warningCount, infoCount)

	for _, e := range errors {
		if e.Level == "error" {
			fmt.Printf("ERROR: %s - %s\n", e.Field, e.Message)
		}
	}
	for _, e := range errors {
		if e.Level == "warning" {
			fmt.Printf("WARNING: %s - %s\n", e.Field, e.Message)
		}
	}
	for _, e := range errors {
		if e.Level == "info" {
			fmt.Printf("INFO: %s - %s\n", e.Field, e.Message)
		}
	}
}
