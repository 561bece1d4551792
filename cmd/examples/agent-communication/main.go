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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sage-x-project/sage/pkg/agent/did"
	sagekeys "github.com/sage-x-project/sage/pkg/agent/crypto/keys"

	"github.com/sage-x-project/sage-agentauth-go/pkg/client"
	"github.com/sage-x-project/sage-agentauth-go/pkg/keys"
	"github.com/sage-x-project/sage-agentauth-go/pkg/server"
	"github.com/sage-x-project/sage-agentauth-go/pkg/signer"
	"github.com/sage-x-project/sage-agentauth-go/pkg/verifier"
)

// TaskRequest represents a task sent between agents
type TaskRequest struct {
	TaskID      string `json:"task_id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// TaskResponse represents a task response
type TaskResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
	AgentID string `json:"agent_id"`
}

// registry simulates blockchain DID resolution
type registry struct {
	keys map[did.AgentDID]interface{}
}

func (r *registry) ResolveAllPublicKeys(ctx context.Context, agentDID did.AgentDID) ([]did.AgentKey, error) {
	return nil, nil
}

func (r *registry) ResolvePublicKeyByType(ctx context.Context, agentDID did.AgentDID, keyType did.KeyType) (interface{}, error) {
	if key, ok := r.keys[agentDID]; ok && keyType == did.KeyTypeEd25519 {
		return key, nil
	}
	return nil, fmt.Errorf("no %s key for %s", keyType, agentDID)
}

// This example runs a service agent and a client agent in one process.
// The client performs a handshake, sends a signed task, and replays it.
func main() {
	fmt.Println("=== Agent Communication Example ===")
	ctx := context.Background()

	// Step 1: Client agent identity
	kp, err := sagekeys.GenerateEd25519KeyPair()
	if err != nil {
		log.Fatalf("Failed to generate key pair: %v", err)
	}
	key, err := keys.FromKeyPair(kp)
	if err != nil {
		log.Fatalf("Failed to wrap key pair: %v", err)
	}
	clientDID := did.AgentDID("did:sage:ethereum:0xAAAA1234567890abcdef1234567890abcdef1234")
	fmt.Printf("\nStep 1: Client agent %s\n", clientDID)

	// Step 2: Service agent resolves keys through the DID registry
	reg := &registry{keys: map[did.AgentDID]interface{}{clientDID: kp.PublicKey()}}
	v := verifier.NewDefaultAgentVerifier(verifier.NewDIDKeyResolver(reg), nil)

	baseURL, shutdown, err := startServiceAgent(v)
	if err != nil {
		log.Fatalf("Failed to start service agent: %v", err)
	}
	defer shutdown()
	fmt.Printf("Step 2: Service agent listening on %s\n", baseURL)

	c := client.NewAgentClient(string(clientDID), key, nil)

	// Step 3: Handshake
	proposal, err := c.Handshake(ctx, baseURL+"/handshake/verify", []string{"tasks:write"}, signer.WithSessionTTL(600))
	if err != nil {
		log.Fatalf("Handshake failed: %v", err)
	}
	fmt.Printf("Step 3: Session %s until %s, scopes %v\n", proposal.SessionID, proposal.ExpiresAt.Format("15:04:05"), proposal.AcceptedScopes)

	// Step 4: Signed task
	task, _ := json.Marshal(TaskRequest{
		TaskID:      "task-001",
		Type:        "data_analysis",
		Description: "Analyze customer sentiment from recent reviews",
		Priority:    "high",
	})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/tasks", bytes.NewReader(task))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(ctx, req, "tasks:write")
	if err != nil {
		log.Fatalf("Task request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	fmt.Printf("Step 4: %d %s\n", resp.StatusCode, bytes.TrimSpace(body))

	// Step 5: Replay the exact same request, token included
	replay, _ := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/tasks", bytes.NewReader(task))
	replay.Header = req.Header.Clone()
	resp, err = http.DefaultClient.Do(replay)
	if err != nil {
		log.Fatalf("Replay failed: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	fmt.Printf("Step 5: replay rejected with %d %s\n", resp.StatusCode, bytes.TrimSpace(body))

	fmt.Println("\n=== Example completed successfully! ===")
}

// startServiceAgent serves the handshake endpoint and a protected /tasks
// route on a random local port.
func startServiceAgent(v verifier.AgentVerifier) (string, func(), error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.POST("/handshake/verify", server.NewHandshakeHandler(v).Gin())

	protected := router.Group("/", server.NewAgentAuthMiddlewareWithVerifier(v).Gin())
	protected.POST("/tasks", func(ctx *gin.Context) {
		c, _ := server.GetAgentClaimsFromGin(ctx)
		var task TaskRequest
		if err := ctx.ShouldBindJSON(&task); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, TaskResponse{
			TaskID:  task.TaskID,
			Status:  "accepted",
			Message: "queued with priority " + task.Priority,
			AgentID: c.AgentID,
		})
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}
	srv := &http.Server{Handler: router}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("service agent stopped: %v", err)
		}
	}()

	return "http://" + ln.Addr().String(), func() { _ = srv.Close() }, nil
}
