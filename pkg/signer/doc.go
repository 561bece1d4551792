// Package signer builds the signed tokens an agent presents to a remote
// service: a per-request token bound to one HTTP call, and a handshake token
// that negotiates a time-bounded session.
//
// Both tokens are EdDSA (Ed25519) compact JWS strings with the header
// {"alg":"EdDSA","typ":"JWT"}.
//
// # Signing a Request
//
// The package-level functions accept PEM or JWK private key bytes:
//
//	pemBytes, _ := os.ReadFile("agent.pem")
//
//	signed, err := signer.SignAgentRequest(pemBytes, "agent-123", "orders:write",
//	    "POST", "/v1/orders", bodyhash.Text(`{"qty":1}`))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	req.Header.Set("Authorization", "Agent "+signed.Token)
//
// The token carries these claims:
//
//	{
//	  "agent_id":  "agent-123",
//	  "scope":     "orders:write",
//	  "nonce":     "6f1c...",
//	  "ts":        1735689600000,
//	  "method":    "POST",
//	  "path":      "/v1/orders",
//	  "body_hash": "<sha256 hex of the body>"
//	}
//
// A request without a body is signed with bodyhash.Absent(), which hashes
// the literal "{}".
//
// # Handshakes
//
// A handshake asks for a session covering a list of scopes:
//
//	signed, err := signer.BuildHandshakeRequest(pemBytes, "agent-123",
//	    []string{"read", "write"}, signer.WithSessionTTL(600))
//
// Scopes are signed in the order given and are never sorted or
// deduplicated. The session TTL defaults to 300 seconds. A zero or negative
// TTL is rejected with an InputError rather than replaced by the default.
//
// # Signer Objects
//
// DefaultAgentSigner takes the clock and the random source as options, and
// accepts any keys.SigningKey, including a SAGE crypto.KeyPair:
//
//	kp, _ := keys.GenerateEd25519KeyPair()
//	key, _ := sagekeys.FromKeyPair(kp)
//
//	s := signer.NewDefaultAgentSigner(&signer.SignerOptions{
//	    NowFunc:         clock.Now,
//	    RequestLifetime: signer.DefaultRequestLifetime,
//	})
//	signed, err := s.SignAgentRequest(key, agentID, scope, "GET", "/v1/resource", bodyhash.Absent())
//
// Setting RequestLifetime or HandshakeLifetime adds "iat" and "exp" claims.
// Without them the claim set is exactly the one shown above.
//
// # Error Handling
//
// Every failure is one of two types:
//
//   - *InputError: an argument is invalid (empty agent id, scope, method or
//     path, no requested scopes, non-positive session TTL, a body with no
//     JSON form). The Field names the argument.
//   - *SigningError: the key material is malformed, does not sign EdDSA, or
//     the signing primitive failed.
//
// Use errors.As, IsInputError or IsSigningError to tell them apart. Nothing
// is retried and no partial token is returned.
//
// # Concurrency
//
// Signing holds no shared mutable state. A DefaultAgentSigner and a key may
// be used from many goroutines at once.
package signer
