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

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testConnectConfigYAML = `
environment: development
transport:
  dial_timeout: 5s
identity:
  key_type: secp256k1
  key_path: from-config.pem
logging:
  level: error
`

func TestApplyConnectConfigFillsUnsetFlags(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(testConnectConfigYAML), 0o644); err != nil {
		t.Fatalf("write config.yaml: %v", err)
	}

	connectFlags.configDir = dir
	connectFlags.identityPath = "chanctl_identity.pem"
	connectFlags.peerKeyType = "rsa-2048"
	connectFlags.dialTimeout = 10 * time.Second
	connectFlags.logLevel = "warn"

	if err := applyConnectConfig(connectCmd); err != nil {
		t.Fatalf("applyConnectConfig: %v", err)
	}

	if connectFlags.identityPath != "from-config.pem" {
		t.Errorf("identityPath = %q, want %q", connectFlags.identityPath, "from-config.pem")
	}
	if connectFlags.peerKeyType != "secp256k1" {
		t.Errorf("peerKeyType = %q, want %q", connectFlags.peerKeyType, "secp256k1")
	}
	if connectFlags.dialTimeout != 5*time.Second {
		t.Errorf("dialTimeout = %v, want %v", connectFlags.dialTimeout, 5*time.Second)
	}
	if connectFlags.logLevel != "error" {
		t.Errorf("logLevel = %q, want %q", connectFlags.logLevel, "error")
	}
}

func TestApplyConnectConfigRespectsExplicitFlag(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(testConnectConfigYAML), 0o644); err != nil {
		t.Fatalf("write config.yaml: %v", err)
	}

	connectFlags.configDir = dir
	if err := connectCmd.Flags().Set("peer-key-type", "ed25519"); err != nil {
		t.Fatalf("set --peer-key-type: %v", err)
	}
	defer func() {
		_ = connectCmd.Flags().Set("peer-key-type", "rsa-2048")
		connectCmd.Flags().Lookup("peer-key-type").Changed = false
	}()

	if err := applyConnectConfig(connectCmd); err != nil {
		t.Fatalf("applyConnectConfig: %v", err)
	}
	if connectFlags.peerKeyType != "ed25519" {
		t.Errorf("peerKeyType = %q, want the explicitly-set %q to survive config loading", connectFlags.peerKeyType, "ed25519")
	}
}
