package verifier

import (
	"context"
	"crypto"
	"io"
	"time"

	"github.com/sage-x-project/sage-agentauth-go/pkg/bodyhash"
	"github.com/sage-x-project/sage-agentauth-go/pkg/claims"
)

// AgentVerifier checks agent tokens on the receiving side
type AgentVerifier interface {
	// VerifyAgentRequest verifies a per-request token against the request
	// that carried it. method, path and body are what was actually received.
	VerifyAgentRequest(ctx context.Context, token, method, path string, body bodyhash.Body) (*claims.AgentRequestClaims, error)

	// VerifyHandshakeToken verifies a bare handshake token and proposes a session.
	VerifyHandshakeToken(ctx context.Context, token string) (*HandshakeResult, error)

	// VerifyHandshake verifies a handshake envelope. The unsigned envelope
	// fields must agree with the signed claims.
	VerifyHandshake(ctx context.Context, env *claims.HandshakeEnvelope) (*HandshakeResult, error)
}

// PublicKeyResolver finds the public key registered for an agent
type PublicKeyResolver interface {
	// ResolvePublicKey returns the agent's Ed25519 public key, or an error
	// wrapping ErrUnknownAgent when none is registered.
	ResolvePublicKey(ctx context.Context, agentID string) (crypto.PublicKey, error)
}

// NonceStore is the replay cache
type NonceStore interface {
	// Remember records nonce for agentID for ttl. It reports false when the
	// pair was already recorded and has not expired.
	Remember(ctx context.Context, agentID, nonce string, ttl time.Duration) (bool, error)
}

// HandshakeResult is a verified handshake
type HandshakeResult struct {
	Claims   *claims.HandshakeClaims
	Proposal *claims.SessionProposal
}

// VerifierOptions configures a DefaultAgentVerifier
type VerifierOptions struct {
	// MaxClockSkew bounds |now - ts|. Defaults to DefaultMaxClockSkew.
	MaxClockSkew time.Duration

	// NonceTTL is how long nonces are remembered. Defaults to DefaultNonceTTL.
	NonceTTL time.Duration

	// MaxSessionTTL caps granted sessions when non-zero. Longer requests
	// are granted the cap.
	MaxSessionTTL time.Duration

	// NowFunc supplies the clock. If nil, time.Now is used.
	NowFunc func() time.Time

	// Random supplies session id entropy. If nil, crypto/rand.Reader is used.
	Random io.Reader

	// NonceStore defaults to a new MemoryNonceStore.
	NonceStore NonceStore
}
