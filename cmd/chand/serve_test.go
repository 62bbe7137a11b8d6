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
	"testing"

	"github.com/bramblewire/securelink/internal/logger"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logger.Level
	}{
		{"debug", logger.DebugLevel},
		{"DEBUG", logger.DebugLevel},
		{"warn", logger.WarnLevel},
		{"error", logger.ErrorLevel},
		{"info", logger.InfoLevel},
		{"", logger.InfoLevel},
		{"nonsense", logger.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHealthPort(t *testing.T) {
	tests := []struct {
		addr    string
		want    int
		wantErr bool
	}{
		{":8080", 8080, false},
		{"0.0.0.0:9090", 9090, false},
		{"localhost:8081", 8081, false},
		{"not-an-addr", 0, true},
	}
	for _, tt := range tests {
		got, err := healthPort(tt.addr)
		if tt.wantErr {
			if err == nil {
				t.Errorf("healthPort(%q) expected error, got none", tt.addr)
			}
			continue
		}
		if err != nil {
			t.Errorf("healthPort(%q) unexpected error: %v", tt.addr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("healthPort(%q) = %d, want %d", tt.addr, got, tt.want)
		}
	}
}
