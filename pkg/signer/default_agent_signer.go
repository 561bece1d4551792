package signer

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sage-x-project/sage-agentauth-go/pkg/bodyhash"
	"github.com/sage-x-project/sage-agentauth-go/pkg/claims"
	"github.com/sage-x-project/sage-agentauth-go/pkg/keys"
)

// DefaultAgentSigner implements AgentSigner with EdDSA compact JWS tokens.
// It holds no mutable state and is safe for concurrent use.
type DefaultAgentSigner struct {
	now               func() time.Time
	random            io.Reader
	requestLifetime   time.Duration
	handshakeLifetime time.Duration
}

// NewDefaultAgentSigner creates a signer. nil options use the system clock
// and crypto/rand.
func NewDefaultAgentSigner(opts *SignerOptions) *DefaultAgentSigner {
	s := &DefaultAgentSigner{
		now:    time.Now,
		random: rand.Reader,
	}
	if opts == nil {
		return s
	}
	if opts.NowFunc != nil {
		s.now = opts.NowFunc
	}
	if opts.Random != nil {
		s.random = opts.Random
	}
	s.requestLifetime = opts.RequestLifetime
	s.handshakeLifetime = opts.HandshakeLifetime
	return s
}

// SignAgentRequest signs a token bound to one HTTP request
func (s *DefaultAgentSigner) SignAgentRequest(key keys.SigningKey, agentID, scope, method, path string, body bodyhash.Body) (*SignedToken, error) {
	// Validate inputs
	if agentID == "" {
		return nil, inputErr("agent_id", ErrEmptyAgentID)
	}
	if scope == "" {
		return nil, inputErr("scope", ErrEmptyScope)
	}
	if method == "" {
		return nil, inputErr("method", ErrEmptyMethod)
	}
	if path == "" {
		return nil, inputErr("path", ErrEmptyPath)
	}

	bodyHash, err := bodyhash.Hash(body)
	if err != nil {
		return nil, inputErr("body", err)
	}

	nonce, err := s.newNonce()
	if err != nil {
		return nil, err
	}
	issuedAt := s.now()

	c := &claims.AgentRequestClaims{
		AgentID:          agentID,
		Scope:            scope,
		Nonce:            nonce,
		TS:               claims.Timestamp(issuedAt),
		Method:           strings.ToUpper(method),
		Path:             path,
		BodyHash:         bodyHash,
		RegisteredClaims: registeredClaims(issuedAt, s.requestLifetime),
	}

	token, err := sign(key, c)
	if err != nil {
		return nil, err
	}

	return &SignedToken{Token: token, Nonce: nonce, Timestamp: c.TS}, nil
}

// BuildHandshakeRequest signs a session negotiation token
func (s *DefaultAgentSigner) BuildHandshakeRequest(key keys.SigningKey, agentID string, requestedScopes []string, opts ...HandshakeOption) (*SignedToken, error) {
	cfg := handshakeConfig{sessionTTL: claims.DefaultSessionTTL}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Validate inputs
	if agentID == "" {
		return nil, inputErr("agent_id", ErrEmptyAgentID)
	}
	if len(requestedScopes) == 0 {
		return nil, inputErr("requested_scopes", ErrNoRequestedScopes)
	}
	for i, scope := range requestedScopes {
		if scope == "" {
			return nil, inputErr(fmt.Sprintf("requested_scopes[%d]", i), ErrEmptyScope)
		}
	}
	if cfg.sessionTTL <= 0 {
		return nil, inputErr("session_ttl_s", fmt.Errorf("%w: got %d", ErrInvalidSessionTTL, cfg.sessionTTL))
	}

	nonce, err := s.newNonce()
	if err != nil {
		return nil, err
	}
	issuedAt := s.now()

	// Copy so later caller mutation cannot change what was signed.
	scopes := make([]string, len(requestedScopes))
	copy(scopes, requestedScopes)

	c := &claims.HandshakeClaims{
		AgentID:          agentID,
		Nonce:            nonce,
		TS:               claims.Timestamp(issuedAt),
		RequestedScopes:  scopes,
		SessionTTL:       cfg.sessionTTL,
		RegisteredClaims: registeredClaims(issuedAt, s.handshakeLifetime),
	}

	token, err := sign(key, c)
	if err != nil {
		return nil, err
	}

	return &SignedToken{Token: token, Nonce: nonce, Timestamp: c.TS}, nil
}

// newNonce returns a random (version 4) UUID string
func (s *DefaultAgentSigner) newNonce() (string, error) {
	id, err := uuid.NewRandomFromReader(s.random)
	if err != nil {
		return "", signingErr(fmt.Errorf("failed to generate nonce: %w", err))
	}
	return id.String(), nil
}

// registeredClaims returns iat/exp when a lifetime is configured
func registeredClaims(issuedAt time.Time, lifetime time.Duration) jwt.RegisteredClaims {
	if lifetime <= 0 {
		return jwt.RegisteredClaims{}
	}
	return jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(lifetime)),
	}
}

// sign serializes c and signs it with key as a compact JWS
func sign(key keys.SigningKey, c jwt.Claims) (string, error) {
	if key == nil {
		return "", signingErr(keys.ErrNilKey)
	}
	if alg := key.Algorithm(); alg != claims.Algorithm {
		return "", signingErr(fmt.Errorf("%w: key signs with %q", keys.ErrUnsupportedKey, alg))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, c)

	signingInput, err := token.SigningString()
	if err != nil {
		return "", signingErr(fmt.Errorf("failed to encode claims: %w", err))
	}

	signature, err := key.Sign([]byte(signingInput))
	if err != nil {
		return "", signingErr(err)
	}

	return signingInput + "." + token.EncodeSegment(signature), nil
}
