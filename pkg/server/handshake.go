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

package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sage-x-project/sage-agentauth-go/pkg/claims"
	"github.com/sage-x-project/sage-agentauth-go/pkg/verifier"
)

// HandshakeHandler serves the handshake endpoint: it accepts a
// claims.HandshakeEnvelope and answers with a claims.HandshakeResponse.
type HandshakeHandler struct {
	verifier     verifier.AgentVerifier
	maxBodyBytes int64
	logger       *logrus.Entry
}

// NewHandshakeHandler creates a HandshakeHandler
func NewHandshakeHandler(v verifier.AgentVerifier) *HandshakeHandler {
	return &HandshakeHandler{
		verifier:     v,
		maxBodyBytes: 1 << 20,
		logger:       logrus.WithField("component", "handshake"),
	}
}

// ServeHTTP implements http.Handler.
func (h *HandshakeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status, resp := h.handle(w, r)
	writeJSON(w, status, resp)
}

// Gin adapts the handler for a gin router
func (h *HandshakeHandler) Gin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status, resp := h.handle(ctx.Writer, ctx.Request)
		ctx.JSON(status, resp)
	}
}

func (h *HandshakeHandler) handle(w http.ResponseWriter, r *http.Request) (int, claims.HandshakeResponse) {
	if r.Method != http.MethodPost {
		return http.StatusMethodNotAllowed, claims.HandshakeResponse{Reason: "method_not_allowed"}
	}

	env, err := decodeEnvelope(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		h.logger.WithError(err).Debug("bad handshake body")
		return http.StatusBadRequest, claims.HandshakeResponse{Reason: "invalid_request"}
	}

	result, err := h.verifier.VerifyHandshake(r.Context(), env)
	if err != nil {
		return StatusCode(err), claims.HandshakeResponse{Reason: verifier.Reason(err)}
	}

	return http.StatusOK, claims.HandshakeResponse{Valid: true, SessionProposal: result.Proposal}
}

func decodeEnvelope(body io.Reader) (*claims.HandshakeEnvelope, error) {
	// unknown fields are ignored
	var env claims.HandshakeEnvelope
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode handshake envelope: %w", err)
	}
	if env.AgentID == "" || env.HandshakeJWS == "" || env.Nonce == "" || env.RequestedScopes == nil {
		return nil, fmt.Errorf("handshake envelope is incomplete")
	}
	return &env, nil
}
