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

// Package transport provides an agent-authenticated transport for a2a-go.
//
// This package implements the a2aclient.Transport interface for
// HTTP/JSON-RPC 2.0 and attaches an agent token to every request.
//
// # Usage
//
//	key, _ := keys.LoadFile("agent.pem")
//	client, err := transport.NewAgentAuthenticatedClient(
//	    ctx,
//	    did.AgentDID("did:sage:ethereum:0x..."),
//	    key,
//	    targetAgentCard,
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Destroy()
//
//	task, err := client.SendMessage(ctx, message)
//
// For more control, use the factory option directly:
//
//	client, err := a2aclient.NewFromCard(
//	    ctx,
//	    agentCard,
//	    transport.WithAgentHTTPTransport(myDID, key, nil,
//	        transport.WithScopeFunc(func(method string) string {
//	            return "a2a:" + method
//	        }),
//	    ),
//	    a2aclient.WithInterceptors(loggingInterceptor),
//	)
//
// # Architecture
//
//	a2aclient.Client (a2a-go)
//	    └─→ CallInterceptors
//	        └─→ AgentHTTPTransport
//	            └─→ HTTP/JSON-RPC 2.0 + Authorization: Agent <token>
//	                └─→ Network
//
// # Protocol Support
//
//   - GetTask, CancelTask
//   - SendMessage, SendStreamingMessage (via SSE)
//   - ResubscribeToTask (via SSE)
//   - GetTaskPushConfig, ListTaskPushConfig, SetTaskPushConfig, DeleteTaskPushConfig
//   - GetAgentCard
//   - ListTasks (A2A v0.4.0 tasks/list, on *AgentHTTPTransport)
//
// # Tokens
//
// Each request gets a fresh token signed over POST, /rpc and the SHA-256
// of the JSON-RPC body. The scope is the JSON-RPC method name unless a
// ScopeFunc is configured. The agent card GET is signed with the scope
// returned for "agent/card".
package transport
