package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sage-x-project/sage-agentauth-go/pkg/bodyhash"
	"github.com/sage-x-project/sage-agentauth-go/pkg/claims"
	"github.com/sage-x-project/sage-agentauth-go/pkg/verifier"
)

type contextKey string

const agentClaimsKey contextKey = "agent_claims"

// GinClaimsKey is the gin.Context key holding the verified claims
const GinClaimsKey = "agent_claims"

// DefaultMaxBodyBytes bounds the body read for hashing
const DefaultMaxBodyBytes int64 = 10 << 20

// ErrorHandler handles verification errors
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// AgentAuthMiddleware provides HTTP middleware for agent token verification
type AgentAuthMiddleware struct {
	verifier     verifier.AgentVerifier
	errorHandler ErrorHandler
	optional     bool
	maxBodyBytes int64
	logger       *logrus.Entry
}

// NewAgentAuthMiddleware creates middleware backed by a DefaultAgentVerifier
// with default options
func NewAgentAuthMiddleware(resolver verifier.PublicKeyResolver) *AgentAuthMiddleware {
	return NewAgentAuthMiddlewareWithVerifier(verifier.NewDefaultAgentVerifier(resolver, nil))
}

// NewAgentAuthMiddlewareWithVerifier creates middleware with a custom verifier
func NewAgentAuthMiddlewareWithVerifier(v verifier.AgentVerifier) *AgentAuthMiddleware {
	return &AgentAuthMiddleware{
		verifier:     v,
		errorHandler: defaultErrorHandler,
		optional:     false,
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       logrus.WithField("component", "agent-auth"),
	}
}

// SetErrorHandler sets a custom error handler
func (m *AgentAuthMiddleware) SetErrorHandler(handler ErrorHandler) {
	m.errorHandler = handler
}

// SetOptional sets whether verification is optional.
// If true, requests without an agent token pass through without claims.
// A token that is present is always verified.
func (m *AgentAuthMiddleware) SetOptional(optional bool) {
	m.optional = optional
}

// SetMaxBodyBytes bounds the request body the middleware reads
func (m *AgentAuthMiddleware) SetMaxBodyBytes(n int64) {
	m.maxBodyBytes = n
}

// Wrap wraps an HTTP handler with agent token verification
func (m *AgentAuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip verification for OPTIONS requests (CORS preflight)
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		c, err := m.authenticate(w, r)
		if err != nil {
			m.errorHandler(w, r, err)
			return
		}
		if c != nil {
			r = r.WithContext(context.WithValue(r.Context(), agentClaimsKey, c))
		}

		next.ServeHTTP(w, r)
	})
}

// Gin returns the middleware as a gin handler. Verified claims are stored
// under GinClaimsKey and in the request context.
func (m *AgentAuthMiddleware) Gin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method == http.MethodOptions {
			ctx.Next()
			return
		}

		c, err := m.authenticate(ctx.Writer, ctx.Request)
		if err != nil {
			ctx.AbortWithStatusJSON(StatusCode(err), newRejection(err))
			return
		}
		if c != nil {
			ctx.Set(GinClaimsKey, c)
			ctx.Request = ctx.Request.WithContext(context.WithValue(ctx.Request.Context(), agentClaimsKey, c))
		}

		ctx.Next()
	}
}

// authenticate verifies the token on r. It returns nil claims and no error
// for an unsigned request in optional mode. The body is always restored.
func (m *AgentAuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request) (*claims.AgentRequestClaims, error) {
	token, err := ExtractToken(r.Header)
	if err != nil {
		if errors.Is(err, verifier.ErrMissingToken) && m.optional {
			return nil, nil
		}
		return nil, err
	}

	// Read body to preserve it for handler
	var bodyBytes []byte
	if r.Body != nil {
		reader := io.Reader(r.Body)
		if m.maxBodyBytes > 0 {
			reader = http.MaxBytesReader(w, r.Body, m.maxBodyBytes)
		}
		bodyBytes, err = io.ReadAll(reader)
		r.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
	}
	r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	c, err := m.verifier.VerifyAgentRequest(r.Context(), token, r.Method, r.URL.Path, bodyhash.FromBytes(bodyBytes))
	if err != nil {
		return nil, err
	}

	if id := r.Header.Get(claims.HeaderAgentID); id != "" && id != c.AgentID {
		return nil, fmt.Errorf("%w: %s header %q, token %q", verifier.ErrRequestMismatch, claims.HeaderAgentID, id, c.AgentID)
	}

	m.logger.WithFields(logrus.Fields{
		"agent_id": c.AgentID,
		"scope":    c.Scope,
	}).Debug("request authenticated")

	return c, nil
}

// ExtractToken returns the token from "Authorization: Agent <token>"
func ExtractToken(h http.Header) (string, error) {
	auth := h.Get("Authorization")
	if auth == "" {
		return "", verifier.ErrMissingToken
	}
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, claims.AuthScheme) || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: expected %q authorization scheme", verifier.ErrMalformedToken, claims.AuthScheme)
	}
	return strings.TrimSpace(token), nil
}

// GetAgentClaimsFromContext extracts the verified claims from request context
func GetAgentClaimsFromContext(ctx context.Context) (*claims.AgentRequestClaims, bool) {
	c, ok := ctx.Value(agentClaimsKey).(*claims.AgentRequestClaims)
	return c, ok
}

// GetAgentClaimsFromGin extracts the verified claims from a gin context
func GetAgentClaimsFromGin(ctx *gin.Context) (*claims.AgentRequestClaims, bool) {
	v, ok := ctx.Get(GinClaimsKey)
	if !ok {
		return nil, false
	}
	c, ok := v.(*claims.AgentRequestClaims)
	return c, ok
}

// StatusCode maps a verification error to an HTTP status
func StatusCode(err error) int {
	switch {
	case errors.Is(err, verifier.ErrNonceReplay):
		return http.StatusConflict
	case errors.Is(err, verifier.ErrUnknownAgent):
		return http.StatusNotFound
	case verifier.Reason(err) == "verification_failed":
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnauthorized
	}
}

// defaultErrorHandler writes {"valid":false,"reason":...}
func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, StatusCode(err), newRejection(err))
}

// Rejection is the JSON body of a refused request
type Rejection struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

func newRejection(err error) Rejection {
	return Rejection{Valid: false, Reason: verifier.Reason(err)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
