// Package client provides an HTTP client with automatic agent request signing.
//
// The client package wraps an http.Client so that every outgoing request
// carries an "Authorization: Agent <token>" header. The token is an EdDSA
// compact JWS bound to the request method, path and body hash.
//
// # Features
//
//   - Automatic agent token for every HTTP request
//   - Support for POST, GET, and custom HTTP methods
//   - Fresh nonce and timestamp per request
//   - Session handshake against a service's handshake endpoint
//   - Custom HTTP client injection
//
// # Basic Usage
//
//	key, _ := keys.LoadFile("agent.pem")
//	c := client.NewAgentClient("agent-123", key, nil)
//
//	ctx := context.Background()
//	body := []byte(`{"task": "process"}`)
//	resp, err := c.Post(ctx, "https://agent.example.com/api/task", "tasks:write", body)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer resp.Body.Close()
//
// # Custom Requests
//
//	req, _ := http.NewRequest("PUT", "https://agent.example.com/api/data", body)
//	req.Header.Set("Content-Type", "application/json")
//	resp, err := c.Do(ctx, req, "data:write")
//
// # Handshakes
//
//	proposal, err := c.Handshake(ctx, "https://agent.example.com/handshake/verify",
//	    []string{"orders:read", "orders:write"}, signer.WithSessionTTL(600))
//	if errors.Is(err, client.ErrHandshakeRejected) {
//	    // the error text carries the service's reason code
//	}
//
// # How It Works
//
// Do buffers the request body, hashes it, and signs the claims agent_id,
// scope, nonce, ts, method, path and body_hash. The path is req.URL.Path
// without the query string. Besides Authorization, the X-Agent-ID,
// X-Agent-Nonce and X-Agent-Timestamp headers are set for logging on the
// receiving side; services must only trust the token.
//
// The receiving server verifies the token with the middleware from the
// server package.
//
// # Thread Safety
//
// AgentClient is safe for concurrent use by multiple goroutines.
package client
