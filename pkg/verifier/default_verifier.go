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
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sage-x-project/sage-agentauth-go/pkg/bodyhash"
	"github.com/sage-x-project/sage-agentauth-go/pkg/claims"
)

const (
	// DefaultMaxClockSkew is the accepted distance between "ts" and the
	// verifier clock.
	DefaultMaxClockSkew = 60 * time.Second

	// DefaultNonceTTL is how long a nonce stays in the replay cache. It must
	// outlive the skew window on both sides.
	DefaultNonceTTL = 120 * time.Second

	sessionIDPrefix = "sess_"
)

// DefaultAgentVerifier verifies EdDSA agent tokens
type DefaultAgentVerifier struct {
	resolver      PublicKeyResolver
	nonces        NonceStore
	maxSkew       time.Duration
	nonceTTL      time.Duration
	maxSessionTTL time.Duration
	now           func() time.Time
	random        io.Reader
	logger        *logrus.Entry
}

// NewDefaultAgentVerifier creates a verifier. nil options use the defaults
// and an in-memory nonce store.
func NewDefaultAgentVerifier(resolver PublicKeyResolver, opts *VerifierOptions) *DefaultAgentVerifier {
	v := &DefaultAgentVerifier{
		resolver: resolver,
		maxSkew:  DefaultMaxClockSkew,
		nonceTTL: DefaultNonceTTL,
		now:      time.Now,
		random:   rand.Reader,
		logger:   logrus.WithField("component", "verifier"),
	}
	if opts != nil {
		if opts.MaxClockSkew > 0 {
			v.maxSkew = opts.MaxClockSkew
		}
		if opts.NonceTTL > 0 {
			v.nonceTTL = opts.NonceTTL
		}
		if opts.NowFunc != nil {
			v.now = opts.NowFunc
		}
		if opts.Random != nil {
			v.random = opts.Random
		}
		v.maxSessionTTL = opts.MaxSessionTTL
		v.nonces = opts.NonceStore
	}
	if v.nonces == nil {
		v.nonces = NewMemoryNonceStore(v.now)
	}
	return v
}

// WithLogger replaces the logger used for rejections.
func (v *DefaultAgentVerifier) WithLogger(logger *logrus.Entry) *DefaultAgentVerifier {
	v.logger = logger
	return v
}

// VerifyAgentRequest verifies a per-request token.
// Checks run in this order: signature, required claims, freshness,
// request binding, nonce. A token that fails earlier never consumes its nonce.
func (v *DefaultAgentVerifier) VerifyAgentRequest(ctx context.Context, token, method, path string, body bodyhash.Body) (*claims.AgentRequestClaims, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	c := &claims.AgentRequestClaims{}
	if err := v.parse(ctx, token, c, func() string { return c.AgentID }); err != nil {
		return nil, v.reject(c.AgentID, err)
	}

	if c.Nonce == "" || c.Scope == "" || c.TS == 0 {
		return nil, v.reject(c.AgentID, fmt.Errorf("%w: agent_id, scope, nonce and ts are required", ErrMissingClaim))
	}
	if err := v.checkFreshness(c.TS); err != nil {
		return nil, v.reject(c.AgentID, err)
	}

	// the claim is always an uppercase verb; only the received method is normalized
	if c.Method != strings.ToUpper(method) {
		return nil, v.reject(c.AgentID, fmt.Errorf("%w: method %q, token %q", ErrRequestMismatch, method, c.Method))
	}
	if c.Path != path {
		return nil, v.reject(c.AgentID, fmt.Errorf("%w: path %q, token %q", ErrRequestMismatch, path, c.Path))
	}
	bodyHash, err := bodyhash.Hash(body)
	if err != nil {
		return nil, v.reject(c.AgentID, fmt.Errorf("%w: %v", ErrRequestMismatch, err))
	}
	if c.BodyHash != bodyHash {
		return nil, v.reject(c.AgentID, fmt.Errorf("%w: body hash differs", ErrRequestMismatch))
	}

	if err := v.consumeNonce(ctx, c.AgentID, c.Nonce); err != nil {
		return nil, v.reject(c.AgentID, err)
	}

	v.logger.WithFields(logrus.Fields{
		"agent_id": c.AgentID,
		"scope":    c.Scope,
		"method":   c.Method,
		"path":     c.Path,
	}).Debug("agent request verified")

	return c, nil
}

// VerifyHandshakeToken verifies a handshake token on its own.
func (v *DefaultAgentVerifier) VerifyHandshakeToken(ctx context.Context, token string) (*HandshakeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	c := &claims.HandshakeClaims{}
	if err := v.parse(ctx, token, c, func() string { return c.AgentID }); err != nil {
		return nil, v.reject(c.AgentID, err)
	}
	return v.acceptHandshake(ctx, c)
}

// VerifyHandshake verifies a handshake envelope.
func (v *DefaultAgentVerifier) VerifyHandshake(ctx context.Context, env *claims.HandshakeEnvelope) (*HandshakeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if env == nil || env.HandshakeJWS == "" {
		return nil, v.reject("", ErrMissingToken)
	}

	c := &claims.HandshakeClaims{}
	if err := v.parse(ctx, env.HandshakeJWS, c, func() string { return c.AgentID }); err != nil {
		return nil, v.reject(env.AgentID, err)
	}

	if c.AgentID != env.AgentID || c.Nonce != env.Nonce || c.TS != env.Timestamp || !sameScopes(c.RequestedScopes, env.RequestedScopes) {
		return nil, v.reject(c.AgentID, ErrHandshakeMismatch)
	}
	return v.acceptHandshake(ctx, c)
}

func (v *DefaultAgentVerifier) acceptHandshake(ctx context.Context, c *claims.HandshakeClaims) (*HandshakeResult, error) {
	if c.Nonce == "" || c.TS == 0 || len(c.RequestedScopes) == 0 {
		return nil, v.reject(c.AgentID, fmt.Errorf("%w: agent_id, nonce, ts and requested_scopes are required", ErrMissingClaim))
	}
	if c.SessionTTL <= 0 {
		return nil, v.reject(c.AgentID, fmt.Errorf("%w: got %d", ErrInvalidSessionTTL, c.SessionTTL))
	}
	if err := v.checkFreshness(c.TS); err != nil {
		return nil, v.reject(c.AgentID, err)
	}
	if err := v.consumeNonce(ctx, c.AgentID, c.Nonce); err != nil {
		return nil, v.reject(c.AgentID, err)
	}

	sessionID, err := v.newSessionID()
	if err != nil {
		return nil, err
	}

	ttl := c.SessionDuration()
	if v.maxSessionTTL > 0 && ttl > v.maxSessionTTL {
		v.logger.WithFields(logrus.Fields{
			"agent_id":  c.AgentID,
			"requested": ttl,
			"granted":   v.maxSessionTTL,
		}).Info("session ttl capped")
		ttl = v.maxSessionTTL
	}

	accepted := make([]string, len(c.RequestedScopes))
	copy(accepted, c.RequestedScopes)

	proposal := &claims.SessionProposal{
		SessionID:      sessionID,
		ExpiresAt:      v.now().Add(ttl).UTC(),
		AcceptedScopes: accepted,
	}

	v.logger.WithFields(logrus.Fields{
		"agent_id":   c.AgentID,
		"session_id": sessionID,
		"scopes":     accepted,
	}).Debug("handshake accepted")

	return &HandshakeResult{Claims: c, Proposal: proposal}, nil
}

// parse verifies the signature of token and decodes it into dst. agentID
// reads the decoded agent_id once claims are populated.
func (v *DefaultAgentVerifier) parse(ctx context.Context, token string, dst jwt.Claims, agentID func() string) error {
	if token == "" {
		return ErrMissingToken
	}
	if v.resolver == nil {
		return fmt.Errorf("%w: no key resolver configured", ErrUnknownAgent)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{claims.Algorithm}),
		jwt.WithTimeFunc(v.now),
		jwt.WithLeeway(v.maxSkew),
	)

	_, err := parser.ParseWithClaims(token, dst, func(*jwt.Token) (interface{}, error) {
		id := agentID()
		if id == "" {
			return nil, fmt.Errorf("%w: agent_id", ErrMissingClaim)
		}
		pub, err := v.resolver.ResolvePublicKey(ctx, id)
		if err != nil {
			return nil, err
		}
		edPub, ok := pub.(ed25519.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: agent %s has a %T key", ErrUnknownAgent, id, pub)
		}
		return edPub, nil
	})
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrMissingClaim), errors.Is(err, ErrUnknownAgent):
		return err
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}

func (v *DefaultAgentVerifier) checkFreshness(ts int64) error {
	skew := v.now().Sub(time.UnixMilli(ts))
	if skew < 0 {
		skew = -skew
	}
	if skew > v.maxSkew {
		return fmt.Errorf("%w: skew %s exceeds %s", ErrStaleTimestamp, skew, v.maxSkew)
	}
	return nil
}

func (v *DefaultAgentVerifier) consumeNonce(ctx context.Context, agentID, nonce string) error {
	fresh, err := v.nonces.Remember(ctx, agentID, nonce, v.nonceTTL)
	if err != nil {
		return fmt.Errorf("failed to record nonce: %w", err)
	}
	if !fresh {
		return fmt.Errorf("%w: %s", ErrNonceReplay, nonce)
	}
	return nil
}

// newSessionID returns "sess_" followed by 12 random hex characters
func (v *DefaultAgentVerifier) newSessionID() (string, error) {
	id, err := uuid.NewRandomFromReader(v.random)
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return sessionIDPrefix + strings.ReplaceAll(id.String(), "-", "")[:12], nil
}

func (v *DefaultAgentVerifier) reject(agentID string, err error) error {
	v.logger.WithFields(logrus.Fields{
		"agent_id": agentID,
		"reason":   Reason(err),
	}).WithError(err).Warn("agent token rejected")
	return err
}

func sameScopes(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
