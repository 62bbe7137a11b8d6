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
)

const testServeConfigYAML = `
environment: development
transport:
  listen_addr: ":9443"
identity:
  key_type: ed25519
  key_path: from-config.pem
audit:
  enabled: true
  dsn: "postgres://example/db"
logging:
  level: debug
`

func TestApplyServeConfigFillsUnsetFlags(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(testServeConfigYAML), 0o644); err != nil {
		t.Fatalf("write config.yaml: %v", err)
	}

	serveFlags.configDir = dir
	serveFlags.listenAddr = ":8443"
	serveFlags.identityPath = "chand_identity.pem"
	serveFlags.peerKeyType = "rsa-2048"
	serveFlags.auditDSN = ""
	serveFlags.logLevel = "info"

	if err := applyServeConfig(serveCmd); err != nil {
		t.Fatalf("applyServeConfig: %v", err)
	}

	if serveFlags.listenAddr != ":9443" {
		t.Errorf("listenAddr = %q, want %q", serveFlags.listenAddr, ":9443")
	}
	if serveFlags.identityPath != "from-config.pem" {
		t.Errorf("identityPath = %q, want %q", serveFlags.identityPath, "from-config.pem")
	}
	if serveFlags.peerKeyType != "ed25519" {
		t.Errorf("peerKeyType = %q, want %q", serveFlags.peerKeyType, "ed25519")
	}
	if serveFlags.auditDSN != "postgres://example/db" {
		t.Errorf("auditDSN = %q, want %q", serveFlags.auditDSN, "postgres://example/db")
	}
	if serveFlags.logLevel != "debug" {
		t.Errorf("logLevel = %q, want %q", serveFlags.logLevel, "debug")
	}
}

func TestApplyServeConfigRespectsExplicitFlag(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(testServeConfigYAML), 0o644); err != nil {
		t.Fatalf("write config.yaml: %v", err)
	}

	serveFlags.configDir = dir
	if err := serveCmd.Flags().Set("listen", ":1234"); err != nil {
		t.Fatalf("set --listen: %v", err)
	}
	defer func() {
		_ = serveCmd.Flags().Set("listen", ":8443")
		serveCmd.Flags().Lookup("listen").Changed = false
	}()

	if err := applyServeConfig(serveCmd); err != nil {
		t.Fatalf("applyServeConfig: %v", err)
	}
	if serveFlags.listenAddr != ":1234" {
		t.Errorf("listenAddr = %q, want the explicitly-set %q to survive config loading", serveFlags.listenAddr, ":1234")
	}
}
