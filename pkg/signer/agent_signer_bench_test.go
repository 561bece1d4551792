// Copyright (C) 2025 SAGE-X Project
//
// This file is part of sage-agentauth-go.
//
// sage-agentauth-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// sage-agentauth-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with sage-agentauth-go.  If not, see <https://www.gnu.org/licenses/>.

package signer

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/sage-x-project/sage-agentauth-go/pkg/bodyhash"
)

// Benchmark request token signing
func BenchmarkSignAgentRequest(b *testing.B) {
	key, _ := newTestKey(b)
	s := NewDefaultAgentSigner(nil)
	body := bodyhash.Text(`{"task":"benchmark"}`)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.SignAgentRequest(key, "agent-bench", "tasks:write", "POST", "/v1/tasks", body)
	}
}

// Benchmark handshake token building
func BenchmarkBuildHandshakeRequest(b *testing.B) {
	key, _ := newTestKey(b)
	s := NewDefaultAgentSigner(nil)
	scopes := []string{"read", "write", "tasks:send"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.BuildHandshakeRequest(key, "agent-bench", scopes)
	}
}

// Benchmark the package-level path, which parses the PEM key on every call
func BenchmarkSignAgentRequestPEM(b *testing.B) {
	_, priv, _ := ed25519.GenerateKey(rand.Reader)
	material := pemBytes(b, priv)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = SignAgentRequest(material, "agent-bench", "read", "GET", "/v1/resource", bodyhash.Absent())
	}
}
