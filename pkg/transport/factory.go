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
	"context"
	"net/http"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2aclient"
	"github.com/sage-x-project/sage/pkg/agent/did"

	"github.com/sage-x-project/sage-agentauth-go/pkg/keys"
)

// WithAgentHTTPTransport returns a FactoryOption that enables the
// agent-authenticated HTTP/JSON-RPC 2.0 transport for a2a-go clients.
//
// Example:
//
//	client, err := a2aclient.NewFromCard(
//	    ctx,
//	    agentCard,
//	    transport.WithAgentHTTPTransport(myDID, myKey, nil),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Destroy()
//
//	// Every request carries an agent token
//	task, err := client.SendMessage(ctx, message)
func WithAgentHTTPTransport(
	agentID did.AgentDID,
	key keys.SigningKey,
	httpClient *http.Client,
	opts ...TransportOption,
) a2aclient.FactoryOption {
	return a2aclient.WithTransport(
		a2a.TransportProtocolJSONRPC,
		a2aclient.TransportFactoryFn(func(ctx context.Context, url string, card *a2a.AgentCard) (a2aclient.Transport, error) {
			return NewAgentHTTPTransport(url, agentID, key, httpClient, opts...), nil
		}),
	)
}

// NewAgentAuthenticatedClient creates an a2a-go client for card whose
// requests are signed with key.
//
// This is equivalent to:
//
//	a2aclient.NewFromCard(ctx, card, WithAgentHTTPTransport(agentID, key, nil))
func NewAgentAuthenticatedClient(
	ctx context.Context,
	agentID did.AgentDID,
	key keys.SigningKey,
	card *a2a.AgentCard,
) (*a2aclient.Client, error) {
	return a2aclient.NewFromCard(
		ctx,
		card,
		WithAgentHTTPTransport(agentID, key, nil),
	)
}

// NewAgentAuthenticatedClientWithInterceptors is like
// NewAgentAuthenticatedClient with call interceptors.
func NewAgentAuthenticatedClientWithInterceptors(
	ctx context.Context,
	agentID did.AgentDID,
	key keys.SigningKey,
	card *a2a.AgentCard,
	interceptors ...a2aclient.CallInterceptor,
) (*a2aclient.Client, error) {
	opts := []a2aclient.FactoryOption{
		WithAgentHTTPTransport(agentID, key, nil),
	}
	if len(interceptors) > 0 {
		opts = append(opts, a2aclient.WithInterceptors(interceptors...))
	}
	return a2aclient.NewFromCard(ctx, card, opts...)
}

// NewAgentAuthenticatedClientWithConfig is like NewAgentAuthenticatedClient
// with a custom a2aclient.Config.
func NewAgentAuthenticatedClientWithConfig(
	ctx context.Context,
	agentID did.AgentDID,
	key keys.SigningKey,
	card *a2a.AgentCard,
	config a2aclient.Config,
) (*a2aclient.Client, error) {
	return a2aclient.NewFromCard(
		ctx,
		card,
		a2aclient.WithConfig(config),
		WithAgentHTTPTransport(agentID, key, nil),
	)
}
