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

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sage-x-project/sage-agentauth-go/pkg/bodyhash"
	"github.com/sage-x-project/sage-agentauth-go/pkg/claims"
	"github.com/sage-x-project/sage-agentauth-go/pkg/keys"
	"github.com/sage-x-project/sage-agentauth-go/pkg/signer"
)

// ErrHandshakeRejected is returned by Handshake when the service answers
// with valid=false.
var ErrHandshakeRejected = errors.New("handshake rejected")

// AgentClient is an HTTP client that signs every request with an agent token
type AgentClient struct {
	agentID    string
	key        keys.SigningKey
	signer     signer.AgentSigner
	httpClient *http.Client
}

// NewAgentClient creates a new agent client.
// If httpClient is nil, http.DefaultClient is used
func NewAgentClient(agentID string, key keys.SigningKey, httpClient *http.Client) *AgentClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &AgentClient{
		agentID:    agentID,
		key:        key,
		signer:     signer.NewDefaultAgentSigner(nil),
		httpClient: httpClient,
	}
}

// WithSigner replaces the signer, e.g. one with a fixed clock
func (c *AgentClient) WithSigner(s signer.AgentSigner) *AgentClient {
	c.signer = s
	return c
}

// Do signs req for scope and executes it. The token binds req.Method, the
// request path ("/" when the URL has none) and the body; the body is
// buffered and restored.
func (c *AgentClient) Do(ctx context.Context, req *http.Request, scope string) (*http.Response, error) {
	// Check context first
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	signed, err := c.signer.SignAgentRequest(c.key, c.agentID, scope, req.Method, requestPath(req), bodyhash.FromBytes(body))
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}
	SetAuthHeaders(req.Header, c.agentID, signed)

	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	return resp, nil
}

// requestPath is the path the server will see for req. net/http sends "/"
// for a URL with an empty path.
func requestPath(req *http.Request) string {
	if req.URL.Path == "" {
		return "/"
	}
	return req.URL.Path
}

// Post sends a signed POST request with a JSON body
func (c *AgentClient) Post(ctx context.Context, url, scope string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return c.Do(ctx, req, scope)
}

// Get sends a signed GET request
func (c *AgentClient) Get(ctx context.Context, url, scope string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}

	return c.Do(ctx, req, scope)
}

// Handshake posts a signed handshake envelope to url and returns the
// session the service proposes.
func (c *AgentClient) Handshake(ctx context.Context, url string, scopes []string, opts ...signer.HandshakeOption) (*claims.SessionProposal, error) {
	signed, err := c.signer.BuildHandshakeRequest(c.key, c.agentID, scopes, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build handshake: %w", err)
	}

	payload, err := json.Marshal(claims.HandshakeEnvelope{
		AgentID:         c.agentID,
		HandshakeJWS:    signed.Token,
		RequestedScopes: scopes,
		Nonce:           signed.Nonce,
		Timestamp:       signed.Timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal handshake envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create handshake request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	var out claims.HandshakeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode handshake response (status %d): %w", resp.StatusCode, err)
	}
	if !out.Valid || out.SessionProposal == nil {
		return nil, fmt.Errorf("%w: %s (status %d)", ErrHandshakeRejected, out.Reason, resp.StatusCode)
	}

	return out.SessionProposal, nil
}

// AgentID returns the agent id tokens are issued for
func (c *AgentClient) AgentID() string {
	return c.agentID
}

// SigningKey returns the signing key
func (c *AgentClient) SigningKey() keys.SigningKey {
	return c.key
}

// SetAuthHeaders sets Authorization and the informational X-Agent-* headers
// for a signed token.
func SetAuthHeaders(h http.Header, agentID string, signed *signer.SignedToken) {
	h.Set("Authorization", claims.AuthScheme+" "+signed.Token)
	h.Set(claims.HeaderAgentID, agentID)
	h.Set(claims.HeaderAgentNonce, signed.Nonce)
	h.Set(claims.HeaderAgentTimestamp, strconv.FormatInt(signed.Timestamp, 10))
}
