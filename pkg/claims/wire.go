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

import "time"

// HandshakeEnvelope is the JSON body posted to a handshake endpoint. The
// unsigned fields repeat what the token carries and must match it.
type HandshakeEnvelope struct {
	AgentID         string   `json:"agent_id"`
	HandshakeJWS    string   `json:"handshake_req_jws"`
	RequestedScopes []string `json:"requested_scopes"`
	Nonce           string   `json:"nonce"`
	Timestamp       int64    `json:"timestamp"`
}

// SessionProposal is what a service offers in return for a valid handshake.
type SessionProposal struct {
	SessionID      string    `json:"session_id"`
	ExpiresAt      time.Time `json:"expires_at"`
	AcceptedScopes []string  `json:"accepted_scopes"`
}

// HandshakeResponse wraps a proposal, or the reason none was made.
type HandshakeResponse struct {
	Valid           bool             `json:"valid"`
	Reason          string           `json:"reason,omitempty"`
	SessionProposal *SessionProposal `json:"session_proposal,omitempty"`
}

// HTTP conventions shared by clients and services.
const (
	// AuthScheme prefixes the token in the Authorization header:
	// "Authorization: Agent <token>".
	AuthScheme = "Agent"

	HeaderAgentID        = "X-Agent-ID"
	HeaderAgentNonce     = "X-Agent-Nonce"
	HeaderAgentTimestamp = "X-Agent-Timestamp"
)
