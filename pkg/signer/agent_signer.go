package signer

import (
	"io"
	"time"

	"github.com/sage-x-project/sage-agentauth-go/pkg/bodyhash"
	"github.com/sage-x-project/sage-agentauth-go/pkg/keys"
)

const (
	// DefaultRequestLifetime is a typical exp window for request tokens.
	// Use it with SignerOptions.RequestLifetime.
	DefaultRequestLifetime = 2 * time.Minute

	// DefaultHandshakeLifetime is a typical exp window for handshake tokens.
	DefaultHandshakeLifetime = 5 * time.Minute
)

// AgentSigner builds signed agent tokens
type AgentSigner interface {
	// SignAgentRequest signs a token bound to one HTTP request.
	// The zero bodyhash.Body means "no body".
	SignAgentRequest(key keys.SigningKey, agentID, scope, method, path string, body bodyhash.Body) (*SignedToken, error)

	// BuildHandshakeRequest signs a session negotiation token.
	// Scopes are signed in the order given.
	BuildHandshakeRequest(key keys.SigningKey, agentID string, requestedScopes []string, opts ...HandshakeOption) (*SignedToken, error)
}

// SignedToken is the result of a signing call
type SignedToken struct {
	// Token is the compact JWS
	Token string `json:"token"`

	// Nonce is the nonce embedded in the claims
	Nonce string `json:"nonce"`

	// Timestamp is the embedded "ts", milliseconds since the Unix epoch
	Timestamp int64 `json:"timestamp"`
}

// SignerOptions configures a DefaultAgentSigner
type SignerOptions struct {
	// NowFunc supplies the clock. If nil, time.Now is used.
	NowFunc func() time.Time

	// Random supplies nonce entropy. If nil, crypto/rand.Reader is used.
	// Replacing it outside of tests removes replay protection.
	Random io.Reader

	// RequestLifetime adds iat/exp to request tokens when non-zero.
	RequestLifetime time.Duration

	// HandshakeLifetime adds iat/exp to handshake tokens when non-zero.
	HandshakeLifetime time.Duration
}

// HandshakeOption adjusts a single handshake
type HandshakeOption func(*handshakeConfig)

type handshakeConfig struct {
	sessionTTL int
}

// WithSessionTTL requests a session lifetime in seconds. Zero and negative
// values are rejected, never replaced by the default.
func WithSessionTTL(seconds int) HandshakeOption {
	return func(c *handshakeConfig) {
		c.sessionTTL = seconds
	}
}
