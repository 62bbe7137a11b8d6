// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import "testing"

func TestValidateConfigurationEmptyConfigIsValid(t *testing.T) {
	cfg := &Config{Environment: "development"}
	errors := ValidateConfiguration(cfg)
	for _, e := range errors {
		if e.Level == "error" {
			t.Errorf("unexpected error-level finding on empty config: %s - %s", e.Field, e.Message)
		}
	}
}

func TestValidateConfigurationRejectsUnknownKeyType(t *testing.T) {
	cfg := &Config{
		Environment: "development",
		Identity:    &IdentityConfig{KeyType: "rsa-512"},
	}
	errors := ValidateConfiguration(cfg)
	found := false
	for _, e := range errors {
		if e.Field == "Identity.KeyType" && e.Level == "error" {
			found = true
		}
	}
	if !found {
		t.Error("expected an error-level finding for an unknown Identity.KeyType")
	}
}

func TestValidateConfigurationRejectsAuditEnabledWithoutDSN(t *testing.T) {
	cfg := &Config{
		Environment: "development",
		Audit:       &AuditConfig{Enabled: true},
	}
	errors := ValidateConfiguration(cfg)
	found := false
	for _, e := range errors {
		if e.Field == "Audit.DSN" && e.Level == "error" {
			found = true
		}
	}
	if !found {
		t.Error("expected an error-level finding when Audit.Enabled is true but DSN is empty")
	}
}

func TestValidateConfigurationRejectsUnknownEnvironment(t *testing.T) {
	errors := validateEnvironment("nonsense")
	found := false
	for _, e := range errors {
		if e.Field == "Environment" && e.Level == "error" {
			found = true
		}
	}
	if !found {
		t.Error("expected an error-level finding for an unrecognized environment")
	}
}
