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

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"sync/atomic"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2aclient"
	"github.com/sage-x-project/sage/pkg/agent/did"
	"github.com/sirupsen/logrus"

	"github.com/sage-x-project/sage-agentauth-go/pkg/bodyhash"
	"github.com/sage-x-project/sage-agentauth-go/pkg/client"
	"github.com/sage-x-project/sage-agentauth-go/pkg/keys"
	"github.com/sage-x-project/sage-agentauth-go/pkg/signer"
)

// agentCardScope is passed to the ScopeFunc for agent card retrieval
const agentCardScope = "agent/card"

// ScopeFunc maps a JSON-RPC method name to the scope signed into the token
type ScopeFunc func(rpcMethod string) string

// MethodScope uses the JSON-RPC method name as the scope
func MethodScope(rpcMethod string) string {
	return rpcMethod
}

// TransportOption configures an AgentHTTPTransport
type TransportOption func(*AgentHTTPTransport)

// WithScopeFunc sets how scopes are derived from JSON-RPC methods
func WithScopeFunc(f ScopeFunc) TransportOption {
	return func(t *AgentHTTPTransport) {
		t.scope = f
	}
}

// WithSigner replaces the token signer
func WithSigner(s signer.AgentSigner) TransportOption {
	return func(t *AgentHTTPTransport) {
		t.signer = s
	}
}

// AgentHTTPTransport implements a2aclient.Transport for HTTP/JSON-RPC 2.0
// and signs every request with an agent token.
//
// Each call is POSTed to <baseURL>/rpc. The token binds the HTTP method,
// the path and the exact JSON-RPC body, and carries the scope chosen by the
// transport's ScopeFunc.
type AgentHTTPTransport struct {
	baseURL    string
	agentID    did.AgentDID
	key        keys.SigningKey
	signer     signer.AgentSigner
	scope      ScopeFunc
	httpClient *http.Client
	nextID     atomic.Int64
	logger     *logrus.Entry
}

// NewAgentHTTPTransport creates a new agent-authenticated HTTP transport.
//
// Parameters:
//   - baseURL: The base URL of the A2A agent (e.g., "https://agent.example.com")
//   - agentID: Your agent's DID, used as the token's agent_id
//   - key: Your agent's Ed25519 signing key
//   - httpClient: Optional HTTP client (nil to use http.DefaultClient)
func NewAgentHTTPTransport(
	baseURL string,
	agentID did.AgentDID,
	key keys.SigningKey,
	httpClient *http.Client,
	opts ...TransportOption,
) a2aclient.Transport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	t := &AgentHTTPTransport{
		baseURL:    baseURL,
		agentID:    agentID,
		key:        key,
		signer:     signer.NewDefaultAgentSigner(nil),
		scope:      MethodScope,
		httpClient: httpClient,
		logger: logrus.WithFields(logrus.Fields{
			"component": "transport",
			"agent_id":  string(agentID),
		}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ========================================
// JSON-RPC 2.0 Helper Methods
// ========================================

type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      int64  `json:"id"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonRPCError   `json:"error,omitempty"`
	ID      any             `json:"id"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *jsonRPCError) Error() string {
	return fmt.Sprintf("JSON-RPC error %d: %s", e.Code, e.Message)
}

// newRPCRequest builds a signed POST of a JSON-RPC request to <baseURL>/rpc
func (t *AgentHTTPTransport) newRPCRequest(ctx context.Context, method string, params any) (*http.Request, error) {
	body, err := json.Marshal(jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      t.nextID.Add(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON-RPC request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/rpc", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := t.sign(req, t.scope(method), body); err != nil {
		return nil, err
	}
	return req, nil
}

// sign attaches an agent token for req, whose body is body
func (t *AgentHTTPTransport) sign(req *http.Request, scope string, body []byte) error {
	signed, err := t.signer.SignAgentRequest(t.key, string(t.agentID), scope, req.Method, req.URL.Path, bodyhash.FromBytes(body))
	if err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}
	client.SetAuthHeaders(req.Header, string(t.agentID), signed)

	t.logger.WithFields(logrus.Fields{
		"scope": scope,
		"nonce": signed.Nonce,
	}).Debug("signed request")
	return nil
}

// call makes a signed JSON-RPC 2.0 call and returns the raw result
func (t *AgentHTTPTransport) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	req, err := t.newRPCRequest(ctx, method, params)
	if err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), string(respBody))
	}

	var rpcResp jsonRPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON-RPC response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	return rpcResp.Result, nil
}

// callInto makes a call and decodes its result into out
func callInto[T any](ctx context.Context, t *AgentHTTPTransport, method string, params any) (*T, error) {
	result, err := t.call(ctx, method, params)
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(result, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s result: %w", method, err)
	}
	return &out, nil
}

// ========================================
// A2A Protocol Methods (a2aclient.Transport interface)
// ========================================

// GetTask implements the 'tasks/get' protocol method.
func (t *AgentHTTPTransport) GetTask(ctx context.Context, query *a2a.TaskQueryParams) (*a2a.Task, error) {
	return callInto[a2a.Task](ctx, t, "tasks/get", query)
}

// CancelTask implements the 'tasks/cancel' protocol method.
func (t *AgentHTTPTransport) CancelTask(ctx context.Context, id *a2a.TaskIDParams) (*a2a.Task, error) {
	return callInto[a2a.Task](ctx, t, "tasks/cancel", id)
}

// SendMessage implements the 'message/send' protocol method (non-streaming).
func (t *AgentHTTPTransport) SendMessage(ctx context.Context, message *a2a.MessageSendParams) (a2a.SendMessageResult, error) {
	result, err := t.call(ctx, "message/send", message)
	if err != nil {
		return nil, err
	}
	return decodeSendResult(result)
}

// decodeSendResult tells a Message ("messageId") from a Task ("id")
func decodeSendResult(result json.RawMessage) (a2a.SendMessageResult, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	if _, ok := raw["messageId"]; ok {
		var msg a2a.Message
		if err := json.Unmarshal(result, &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal Message: %w", err)
		}
		return &msg, nil
	}

	if _, ok := raw["id"]; ok {
		var task a2a.Task
		if err := json.Unmarshal(result, &task); err != nil {
			return nil, fmt.Errorf("failed to unmarshal Task: %w", err)
		}
		return &task, nil
	}

	return nil, fmt.Errorf("result is neither Task nor Message")
}

// ResubscribeToTask implements the 'tasks/resubscribe' protocol method over SSE.
func (t *AgentHTTPTransport) ResubscribeToTask(ctx context.Context, id *a2a.TaskIDParams) iter.Seq2[a2a.Event, error] {
	return t.callSSE(ctx, "tasks/resubscribe", id)
}

// SendStreamingMessage implements the 'message/stream' protocol method over SSE.
func (t *AgentHTTPTransport) SendStreamingMessage(ctx context.Context, message *a2a.MessageSendParams) iter.Seq2[a2a.Event, error] {
	return t.callSSE(ctx, "message/stream", message)
}

// GetTaskPushConfig implements the 'tasks/pushNotificationConfig/get' protocol method.
func (t *AgentHTTPTransport) GetTaskPushConfig(ctx context.Context, params *a2a.GetTaskPushConfigParams) (*a2a.TaskPushConfig, error) {
	return callInto[a2a.TaskPushConfig](ctx, t, "tasks/pushNotificationConfig/get", params)
}

// ListTaskPushConfig implements the 'tasks/pushNotificationConfig/list' protocol method.
func (t *AgentHTTPTransport) ListTaskPushConfig(ctx context.Context, params *a2a.ListTaskPushConfigParams) ([]*a2a.TaskPushConfig, error) {
	configs, err := callInto[[]*a2a.TaskPushConfig](ctx, t, "tasks/pushNotificationConfig/list", params)
	if err != nil {
		return nil, err
	}
	return *configs, nil
}

// SetTaskPushConfig implements the 'tasks/pushNotificationConfig/set' protocol method.
func (t *AgentHTTPTransport) SetTaskPushConfig(ctx context.Context, config *a2a.TaskPushConfig) (*a2a.TaskPushConfig, error) {
	return callInto[a2a.TaskPushConfig](ctx, t, "tasks/pushNotificationConfig/set", config)
}

// DeleteTaskPushConfig implements the 'tasks/pushNotificationConfig/delete' protocol method.
func (t *AgentHTTPTransport) DeleteTaskPushConfig(ctx context.Context, params *a2a.DeleteTaskPushConfigParams) error {
	_, err := t.call(ctx, "tasks/pushNotificationConfig/delete", params)
	return err
}

// GetAgentCard fetches the card from the well-known URL with a signed GET.
func (t *AgentHTTPTransport) GetAgentCard(ctx context.Context) (*a2a.AgentCard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/.well-known/agent-card.json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if err := t.sign(req, t.scope(agentCardScope), nil); err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var card a2a.AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("failed to decode agent card: %w", err)
	}

	return &card, nil
}

// Destroy cleans up resources (HTTP client doesn't need cleanup).
func (t *AgentHTTPTransport) Destroy() error {
	return nil
}
