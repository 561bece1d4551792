// Package server provides HTTP middleware for agent token verification.
//
// The server package verifies the "Authorization: Agent <token>" header
// produced by package signer on incoming requests, and serves the handshake
// endpoint agents use to open a session.
//
// # Features
//
//   - Agent token verification for net/http and gin
//   - Method, path and body hash binding checked against the received request
//   - Nonce replay rejection through the verifier's NonceStore
//   - Claims propagation through the request context
//   - Optional verification mode (allow unsigned requests)
//   - CORS preflight support (OPTIONS requests)
//   - Custom error handler support
//   - Request body preservation
//   - Handshake endpoint returning a session proposal
//
// # Basic Usage
//
//	resolver := verifier.NewStaticKeyResolver(map[string]ed25519.PublicKey{
//	    "agent-123": pub,
//	})
//	middleware := server.NewAgentAuthMiddleware(resolver)
//
//	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	    c, ok := server.GetAgentClaimsFromContext(r.Context())
//	    if !ok {
//	        http.Error(w, "Unauthorized", http.StatusUnauthorized)
//	        return
//	    }
//	    fmt.Fprintf(w, "Authenticated as %s with scope %s", c.AgentID, c.Scope)
//	})
//
//	http.Handle("/api/", middleware.Wrap(handler))
//
// # Gin
//
//	router := gin.New()
//	router.Use(middleware.Gin())
//	router.GET("/v1/orders", func(ctx *gin.Context) {
//	    c, _ := server.GetAgentClaimsFromGin(ctx)
//	    ctx.JSON(http.StatusOK, gin.H{"agent": c.AgentID})
//	})
//
// # Handshakes
//
//	v := verifier.NewDefaultAgentVerifier(resolver, nil)
//	http.Handle("/handshake/verify", server.NewHandshakeHandler(v))
//
// The handler accepts a claims.HandshakeEnvelope and answers with a
// claims.HandshakeResponse.
//
// # How It Works
//
// For each request the middleware:
//
//  1. Skips verification for OPTIONS requests (CORS preflight)
//  2. Extracts the token from the Authorization header
//  3. Buffers the body, up to SetMaxBodyBytes
//  4. Verifies signature, freshness, method, path, body hash and nonce
//  5. Rejects an X-Agent-ID header that disagrees with the token
//  6. Adds the claims to the request context and calls the next handler
//
// # Error Handling
//
// By default a rejection is written as {"valid":false,"reason":"..."} with
// the status from StatusCode: 409 for a replayed nonce, 404 for an agent
// with no registered key, 413 for an oversized body, 401 otherwise.
//
//	middleware.SetErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
//	    log.Printf("Auth error from %s: %v", r.RemoteAddr, err)
//	    http.Error(w, verifier.Reason(err), http.StatusForbidden)
//	})
//
// # Thread Safety
//
// The middleware and handshake handler are safe for concurrent use once
// configured.
package server
