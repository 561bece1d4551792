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

package claims

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Algorithm is the only JWS algorithm used by agent tokens. It is a
	// protocol constant, not an option.
	Algorithm = "EdDSA"

	// TokenType is the "typ" header value.
	TokenType = "JWT"

	// DefaultSessionTTL is the session lifetime requested by a handshake
	// when the caller does not choose one, in seconds.
	DefaultSessionTTL = 300
)

// AgentRequestClaims is the signed payload of a per-request token.
// Field order is the serialization order.
type AgentRequestClaims struct {
	AgentID  string `json:"agent_id"`
	Scope    string `json:"scope"`
	Nonce    string `json:"nonce"`
	TS       int64  `json:"ts"`
	Method   string `json:"method"`
	Path     string `json:"path"`
	BodyHash string `json:"body_hash"`

	// Only iat and exp are ever set, and only when a token lifetime is
	// configured on the signer.
	jwt.RegisteredClaims
}

// HandshakeClaims is the signed payload of a session negotiation token.
type HandshakeClaims struct {
	AgentID         string   `json:"agent_id"`
	Nonce           string   `json:"nonce"`
	TS              int64    `json:"ts"`
	RequestedScopes []string `json:"requested_scopes"`
	SessionTTL      int      `json:"session_ttl_s"`

	jwt.RegisteredClaims
}

// Time returns the claim timestamp as a time.Time.
func (c *AgentRequestClaims) Time() time.Time {
	return time.UnixMilli(c.TS)
}

// Time returns the claim timestamp as a time.Time.
func (c *HandshakeClaims) Time() time.Time {
	return time.UnixMilli(c.TS)
}

// SessionDuration returns the requested session lifetime.
func (c *HandshakeClaims) SessionDuration() time.Duration {
	return time.Duration(c.SessionTTL) * time.Second
}

// Timestamp converts t to the millisecond timestamp carried in "ts".
func Timestamp(t time.Time) int64 {
	return t.UnixMilli()
}

// DecodeUnverified parses the claims of token into dst without checking
// the signature. It is meant for logging and inspection only; anything
// that makes an authorization decision must go through a verifier.
func DecodeUnverified(token string, dst jwt.Claims) (map[string]any, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, dst)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return parsed.Header, nil
}
