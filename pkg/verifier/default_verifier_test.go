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

package verifier

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/sage-agentauth-go/pkg/bodyhash"
	"github.com/sage-x-project/sage-agentauth-go/pkg/claims"
	"github.com/sage-x-project/sage-agentauth-go/pkg/keys"
	"github.com/sage-x-project/sage-agentauth-go/pkg/signer"
)

const testAgent = "agent-123"

type fixture struct {
	clock    *testClock
	priv     ed25519.PrivateKey
	key      *keys.Ed25519Key
	resolver *StaticKeyResolver
	signer   *signer.DefaultAgentSigner
	verifier *DefaultAgentVerifier
}

func newFixture(t *testing.T, opts *VerifierOptions) *fixture {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := keys.FromEd25519(priv)
	require.NoError(t, err)

	clock := newTestClock()
	if opts == nil {
		opts = &VerifierOptions{}
	}
	opts.NowFunc = clock.Now

	resolver := NewStaticKeyResolver(map[string]ed25519.PublicKey{testAgent: pub})
	return &fixture{
		clock:    clock,
		priv:     priv,
		key:      key,
		resolver: resolver,
		signer:   signer.NewDefaultAgentSigner(&signer.SignerOptions{NowFunc: clock.Now}),
		verifier: NewDefaultAgentVerifier(resolver, opts),
	}
}

func (f *fixture) signRequest(t *testing.T, method, path string, body bodyhash.Body) string {
	t.Helper()
	signed, err := f.signer.SignAgentRequest(f.key, testAgent, "orders:write", method, path, body)
	require.NoError(t, err)
	return signed.Token
}

func (f *fixture) handshake(t *testing.T, scopes []string, opts ...signer.HandshakeOption) (*signer.SignedToken, *claims.HandshakeEnvelope) {
	t.Helper()
	signed, err := f.signer.BuildHandshakeRequest(f.key, testAgent, scopes, opts...)
	require.NoError(t, err)
	return signed, &claims.HandshakeEnvelope{
		AgentID:         testAgent,
		HandshakeJWS:    signed.Token,
		RequestedScopes: scopes,
		Nonce:           signed.Nonce,
		Timestamp:       signed.Timestamp,
	}
}

func TestVerifyAgentRequest_Valid(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	body := bodyhash.Text(`{"qty":1}`)

	token := f.signRequest(t, "POST", "/v1/orders", body)

	c, err := f.verifier.VerifyAgentRequest(ctx, token, "POST", "/v1/orders", body)
	require.NoError(t, err)
	assert.Equal(t, testAgent, c.AgentID)
	assert.Equal(t, "orders:write", c.Scope)
	assert.Equal(t, "POST", c.Method)
	assert.Equal(t, "/v1/orders", c.Path)
}

func TestVerifyAgentRequest_AbsentBody(t *testing.T) {
	f := newFixture(t, nil)
	token := f.signRequest(t, "GET", "/v1/resource", bodyhash.Absent())

	// an empty received body is the absent body
	c, err := f.verifier.VerifyAgentRequest(context.Background(), token, "get", "/v1/resource", bodyhash.FromBytes(nil))
	require.NoError(t, err)
	assert.Equal(t, bodyhash.EmptyBodyHash, c.BodyHash)
}

func TestVerifyAgentRequest_Replay(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	token := f.signRequest(t, "GET", "/v1/resource", bodyhash.Absent())

	_, err := f.verifier.VerifyAgentRequest(ctx, token, "GET", "/v1/resource", bodyhash.Absent())
	require.NoError(t, err)

	_, err = f.verifier.VerifyAgentRequest(ctx, token, "GET", "/v1/resource", bodyhash.Absent())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNonceReplay)
	assert.Equal(t, "nonce_replay", Reason(err))
}

func TestVerifyAgentRequest_Freshness(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		wantErr bool
	}{
		{"at the edge of the window", DefaultMaxClockSkew, false},
		{"past the window", DefaultMaxClockSkew + time.Millisecond, true},
		{"signed in the future", -(DefaultMaxClockSkew + time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			token := f.signRequest(t, "GET", "/", bodyhash.Absent())
			f.clock.Advance(tt.advance)

			_, err := f.verifier.VerifyAgentRequest(context.Background(), token, "GET", "/", bodyhash.Absent())
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrStaleTimestamp)
			assert.Equal(t, "timestamp_out_of_window", Reason(err))
		})
	}
}

func TestVerifyAgentRequest_Mismatch(t *testing.T) {
	body := bodyhash.Text(`{"qty":1}`)

	tests := []struct {
		name   string
		method string
		path   string
		body   bodyhash.Body
	}{
		{"method", "PUT", "/v1/orders", body},
		{"path", "POST", "/v1/orders/2", body},
		{"body", "POST", "/v1/orders", bodyhash.Text(`{"qty":2}`)},
		{"missing body", "POST", "/v1/orders", bodyhash.Absent()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			ctx := context.Background()
			token := f.signRequest(t, "POST", "/v1/orders", body)

			_, err := f.verifier.VerifyAgentRequest(ctx, token, tt.method, tt.path, tt.body)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrRequestMismatch)
			assert.Equal(t, "payload_mismatch", Reason(err))

			// the rejected attempt did not burn the nonce
			_, err = f.verifier.VerifyAgentRequest(ctx, token, "POST", "/v1/orders", body)
			assert.NoError(t, err)
		})
	}
}

func TestVerifyAgentRequest_Signature(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	token := f.signRequest(t, "GET", "/", bodyhash.Absent())

	t.Run("tampered signature", func(t *testing.T) {
		last := token[len(token)-2:]
		replacement := "AA"
		if last == replacement {
			replacement = "BB"
		}
		tampered := token[:len(token)-2] + replacement

		_, err := f.verifier.VerifyAgentRequest(ctx, tampered, "GET", "/", bodyhash.Absent())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidSignature) || errors.Is(err, ErrMalformedToken))
	})

	t.Run("tampered claims", func(t *testing.T) {
		parts := strings.Split(token, ".")
		c := &claims.AgentRequestClaims{}
		_, err := claims.DecodeUnverified(token, c)
		require.NoError(t, err)
		c.Scope = "admin"
		forged, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, c).SigningString()
		require.NoError(t, err)
		forged = forged + "." + parts[2]

		_, err = f.verifier.VerifyAgentRequest(ctx, forged, "GET", "/", bodyhash.Absent())
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("key of another agent", func(t *testing.T) {
		other, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		v := NewDefaultAgentVerifier(NewStaticKeyResolver(map[string]ed25519.PublicKey{testAgent: other}),
			&VerifierOptions{NowFunc: f.clock.Now})

		_, err = v.VerifyAgentRequest(ctx, token, "GET", "/", bodyhash.Absent())
		assert.ErrorIs(t, err, ErrInvalidSignature)
		assert.Equal(t, "invalid_signature", Reason(err))
	})

	t.Run("hmac token", func(t *testing.T) {
		hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims.AgentRequestClaims{
			AgentID: testAgent, Scope: "read", Nonce: "n", TS: f.clock.Now().UnixMilli(),
			Method: "GET", Path: "/", BodyHash: bodyhash.EmptyBodyHash,
		}).SignedString([]byte("shared-secret"))
		require.NoError(t, err)

		_, err = f.verifier.VerifyAgentRequest(ctx, hs, "GET", "/", bodyhash.Absent())
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}

func TestVerifyAgentRequest_TokenErrors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.verifier.VerifyAgentRequest(ctx, "", "GET", "/", bodyhash.Absent())
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = f.verifier.VerifyAgentRequest(ctx, "not.a.jws", "GET", "/", bodyhash.Absent())
	assert.ErrorIs(t, err, ErrMalformedToken)
	assert.Equal(t, "malformed_token", Reason(err))
}

func TestVerifyAgentRequest_UnknownAgent(t *testing.T) {
	f := newFixture(t, nil)
	v := NewDefaultAgentVerifier(NewStaticKeyResolver(nil), &VerifierOptions{NowFunc: f.clock.Now})
	token := f.signRequest(t, "GET", "/", bodyhash.Absent())

	_, err := v.VerifyAgentRequest(context.Background(), token, "GET", "/", bodyhash.Absent())
	assert.ErrorIs(t, err, ErrUnknownAgent)
	assert.Equal(t, "public_key_missing", Reason(err))
}

func TestVerifyAgentRequest_MissingClaims(t *testing.T) {
	f := newFixture(t, nil)
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, &claims.AgentRequestClaims{
		AgentID: testAgent, Method: "GET", Path: "/", BodyHash: bodyhash.EmptyBodyHash,
	}).SignedString(f.priv)
	require.NoError(t, err)

	_, err = f.verifier.VerifyAgentRequest(context.Background(), token, "GET", "/", bodyhash.Absent())
	assert.ErrorIs(t, err, ErrMissingClaim)
}

func TestVerifyAgentRequest_LowercaseMethodClaim(t *testing.T) {
	f := newFixture(t, nil)
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, &claims.AgentRequestClaims{
		AgentID: testAgent, Scope: "read", Nonce: "n-1", TS: f.clock.Now().UnixMilli(),
		Method: "get", Path: "/", BodyHash: bodyhash.EmptyBodyHash,
	}).SignedString(f.priv)
	require.NoError(t, err)

	_, err = f.verifier.VerifyAgentRequest(context.Background(), token, "GET", "/", bodyhash.Absent())
	assert.ErrorIs(t, err, ErrRequestMismatch)
	assert.Equal(t, "payload_mismatch", Reason(err))
}

func TestVerifyAgentRequest_Expired(t *testing.T) {
	f := newFixture(t, &VerifierOptions{MaxClockSkew: 10 * time.Minute})
	s := signer.NewDefaultAgentSigner(&signer.SignerOptions{
		NowFunc:         f.clock.Now,
		RequestLifetime: signer.DefaultRequestLifetime,
	})
	signed, err := s.SignAgentRequest(f.key, testAgent, "read", "GET", "/", bodyhash.Absent())
	require.NoError(t, err)

	f.clock.Advance(signer.DefaultRequestLifetime + 10*time.Minute + time.Second)

	_, err = f.verifier.VerifyAgentRequest(context.Background(), signed.Token, "GET", "/", bodyhash.Absent())
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyAgentRequest_RedisNonceStore(t *testing.T) {
	rdb := newFakeRedis()
	f := newFixture(t, &VerifierOptions{NonceStore: NewRedisNonceStore(rdb)})
	ctx := context.Background()

	signed, err := f.signer.SignAgentRequest(f.key, testAgent, "read", "GET", "/", bodyhash.Absent())
	require.NoError(t, err)

	_, err = f.verifier.VerifyAgentRequest(ctx, signed.Token, "GET", "/", bodyhash.Absent())
	require.NoError(t, err)
	assert.Contains(t, rdb.keys, NonceKey(testAgent, signed.Nonce))

	_, err = f.verifier.VerifyAgentRequest(ctx, signed.Token, "GET", "/", bodyhash.Absent())
	assert.ErrorIs(t, err, ErrNonceReplay)

	rdb.err = errors.New("connection refused")
	other := f.signRequest(t, "GET", "/", bodyhash.Absent())
	_, err = f.verifier.VerifyAgentRequest(ctx, other, "GET", "/", bodyhash.Absent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record nonce")
}

func TestVerifyAgentRequest_ContextCancellation(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.verifier.VerifyAgentRequest(ctx, "x", "GET", "/", bodyhash.Absent())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifyHandshake_Valid(t *testing.T) {
	f := newFixture(t, &VerifierOptions{Random: bytes.NewReader(bytes.Repeat([]byte{0xab}, 16))})
	_, env := f.handshake(t, []string{"write", "read"})

	result, err := f.verifier.VerifyHandshake(context.Background(), env)
	require.NoError(t, err)

	assert.Equal(t, testAgent, result.Claims.AgentID)
	assert.Equal(t, 300, result.Claims.SessionTTL)

	p := result.Proposal
	assert.Equal(t, "sess_abababababab", p.SessionID)
	assert.Equal(t, []string{"write", "read"}, p.AcceptedScopes)
	assert.True(t, p.ExpiresAt.Equal(f.clock.Now().Add(300*time.Second)))
}

func TestVerifyHandshake_SessionID(t *testing.T) {
	f := newFixture(t, nil)
	_, env := f.handshake(t, []string{"read"})

	result, err := f.verifier.VerifyHandshake(context.Background(), env)
	require.NoError(t, err)
	assert.Regexp(t, `^sess_[0-9a-f]{12}$`, result.Proposal.SessionID)
}

func TestVerifyHandshake_EnvelopeMismatch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*claims.HandshakeEnvelope)
	}{
		{"agent id", func(e *claims.HandshakeEnvelope) { e.AgentID = "agent-999" }},
		{"nonce", func(e *claims.HandshakeEnvelope) { e.Nonce = "other" }},
		{"timestamp", func(e *claims.HandshakeEnvelope) { e.Timestamp++ }},
		{"scope order", func(e *claims.HandshakeEnvelope) { e.RequestedScopes = []string{"write", "read"} }},
		{"extra scope", func(e *claims.HandshakeEnvelope) { e.RequestedScopes = []string{"read", "write", "admin"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			_, env := f.handshake(t, []string{"read", "write"})
			env.RequestedScopes = append([]string(nil), env.RequestedScopes...)
			tt.mutate(env)

			_, err := f.verifier.VerifyHandshake(context.Background(), env)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrHandshakeMismatch)
			assert.Equal(t, "handshake_invalid", Reason(err))
		})
	}
}

func TestVerifyHandshake_Replay(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, env := f.handshake(t, []string{"read"})

	_, err := f.verifier.VerifyHandshake(ctx, env)
	require.NoError(t, err)

	_, err = f.verifier.VerifyHandshake(ctx, env)
	assert.ErrorIs(t, err, ErrNonceReplay)
}

func TestVerifyHandshake_Stale(t *testing.T) {
	f := newFixture(t, nil)
	_, env := f.handshake(t, []string{"read"})
	f.clock.Advance(2 * time.Minute)

	_, err := f.verifier.VerifyHandshake(context.Background(), env)
	assert.ErrorIs(t, err, ErrStaleTimestamp)
}

func TestVerifyHandshake_MaxSessionTTL(t *testing.T) {
	f := newFixture(t, &VerifierOptions{MaxSessionTTL: time.Minute})
	_, env := f.handshake(t, []string{"read"}, signer.WithSessionTTL(3600))

	result, err := f.verifier.VerifyHandshake(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, 3600, result.Claims.SessionTTL)
	assert.True(t, result.Proposal.ExpiresAt.Equal(f.clock.Now().Add(time.Minute)))
}

func TestVerifyHandshake_NonPositiveTTL(t *testing.T) {
	f := newFixture(t, nil)
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, &claims.HandshakeClaims{
		AgentID:         testAgent,
		Nonce:           "n-1",
		TS:              f.clock.Now().UnixMilli(),
		RequestedScopes: []string{"read"},
		SessionTTL:      0,
	}).SignedString(f.priv)
	require.NoError(t, err)

	_, err = f.verifier.VerifyHandshakeToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidSessionTTL)
}

func TestVerifyHandshake_MissingToken(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.verifier.VerifyHandshake(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = f.verifier.VerifyHandshake(context.Background(), &claims.HandshakeEnvelope{AgentID: testAgent})
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestVerifyHandshakeToken(t *testing.T) {
	f := newFixture(t, nil)
	signed, _ := f.handshake(t, []string{"read", "write"}, signer.WithSessionTTL(120))

	result, err := f.verifier.VerifyHandshakeToken(context.Background(), signed.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{"read", "write"}, result.Proposal.AcceptedScopes)
	assert.True(t, result.Proposal.ExpiresAt.Equal(f.clock.Now().Add(120*time.Second)))
}

func TestReason(t *testing.T) {
	assert.Equal(t, "verification_failed", Reason(errors.New("boom")))
	assert.Equal(t, "verification_failed", Reason(nil))
	assert.Equal(t, "session_ttl_invalid", Reason(ErrInvalidSessionTTL))
}
