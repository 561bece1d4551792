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
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentRequestClaims_WireFormat(t *testing.T) {
	c := AgentRequestClaims{
		AgentID:  "agent-1",
		Scope:    "payments:write",
		Nonce:    "n",
		TS:       1700000000000,
		Method:   "POST",
		Path:     "/v1/pay",
		BodyHash: "abc",
	}

	out, err := json.Marshal(&c)
	require.NoError(t, err)

	// Field names and order are fixed; unset registered claims are omitted.
	assert.Equal(t,
		`{"agent_id":"agent-1","scope":"payments:write","nonce":"n","ts":1700000000000,"method":"POST","path":"/v1/pay","body_hash":"abc"}`,
		string(out))
}

func TestHandshakeClaims_WireFormat(t *testing.T) {
	c := HandshakeClaims{
		AgentID:         "agent-1",
		Nonce:           "n",
		TS:              1700000000000,
		RequestedScopes: []string{"write", "read", "write"},
		SessionTTL:      300,
	}

	out, err := json.Marshal(&c)
	require.NoError(t, err)

	assert.Equal(t,
		`{"agent_id":"agent-1","nonce":"n","ts":1700000000000,"requested_scopes":["write","read","write"],"session_ttl_s":300}`,
		string(out))
}

func TestRegisteredClaims_OnlyWhenSet(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := AgentRequestClaims{
		AgentID: "agent-1",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(2 * time.Minute)),
		},
	}

	out, err := json.Marshal(&c)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, float64(1700000000), m["iat"])
	assert.Equal(t, float64(1700000120), m["exp"])
	assert.NotContains(t, m, "iss")
	assert.NotContains(t, m, "aud")
}

func TestTimestampHelpers(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, int64(1700000000123), Timestamp(at))

	c := HandshakeClaims{TS: 1700000000123, SessionTTL: 90}
	assert.True(t, c.Time().Equal(at))
	assert.Equal(t, 90*time.Second, c.SessionDuration())
}

func TestDecodeUnverified(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &HandshakeClaims{
		AgentID:         "agent-1",
		RequestedScopes: []string{"read"},
		SessionTTL:      60,
	})
	signed, err := tok.SignedString([]byte("not-used-for-decoding"))
	require.NoError(t, err)

	var got HandshakeClaims
	header, err := DecodeUnverified(signed, &got)
	require.NoError(t, err)
	assert.Equal(t, "HS256", header["alg"])
	assert.Equal(t, "agent-1", got.AgentID)
	assert.Equal(t, []string{"read"}, got.RequestedScopes)

	_, err = DecodeUnverified("not-a-token", &got)
	assert.Error(t, err)
}
