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
	"context"
	"fmt"
	"log"

	"github.com/a2aproject/a2a-go/a2a"
	sagekeys "github.com/sage-x-project/sage/pkg/agent/crypto/keys"
	"github.com/sage-x-project/sage/pkg/agent/did"

	"github.com/sage-x-project/sage-agentauth-go/pkg/keys"
	"github.com/sage-x-project/sage-agentauth-go/pkg/transport"
)

func main() {
	fmt.Println("SAGE Agent Auth - Simple Client Example")
	fmt.Println("=======================================")

	ctx := context.Background()

	fmt.Println("\n1. Generating client DID and Ed25519 key pair...")
	kp, err := sagekeys.GenerateEd25519KeyPair()
	if err != nil {
		log.Fatalf("Failed to generate key pair: %v", err)
	}
	key, err := keys.FromKeyPair(kp)
	if err != nil {
		log.Fatalf("Failed to wrap key pair: %v", err)
	}
	clientDID := did.AgentDID("did:sage:ethereum:0x1234567890abcdef1234567890abcdef12345678")
	fmt.Printf("   Client DID: %s\n", clientDID)

	fmt.Println("\n2. Creating agent card for target agent...")
	targetCard := &a2a.AgentCard{
		Name:               "Example Agent",
		Description:        "An example A2A agent",
		URL:                "https://agent.example.com",
		PreferredTransport: a2a.TransportProtocolJSONRPC,
		AdditionalInterfaces: []a2a.AgentInterface{
			{
				Transport: a2a.TransportProtocolJSONRPC,
				URL:       "https://agent.example.com",
			},
		},
	}
	fmt.Printf("   Target Agent: %s\n", targetCard.Name)
	fmt.Printf("   Target URL: %s\n", targetCard.URL)

	fmt.Println("\n3. Creating agent-authenticated A2A client...")
	client, err := transport.NewAgentAuthenticatedClient(ctx, clientDID, key, targetCard)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Destroy()
	fmt.Println("   Every call will carry Authorization: Agent <token>")

	fmt.Println("\n4. Sending message to agent...")
	fmt.Println("   (Note: This will fail without a real A2A server running)")

	message := a2a.NewMessage(
		a2a.MessageRoleUser,
		&a2a.TextPart{Text: "Hello from SAGE Agent Auth!"},
	)
	result, err := client.SendMessage(ctx, &a2a.MessageSendParams{Message: message})
	if err != nil {
		fmt.Printf("   Expected error (no server running): %v\n", err)
		fmt.Println("\nTo test with a real server:")
		fmt.Println("  1. Start an A2A agent that verifies agent tokens")
		fmt.Println("  2. Register this client's public key for its DID")
		fmt.Println("  3. Update targetCard.URL and run again")
		return
	}

	fmt.Printf("   Received response: %+v\n", result)
}
