// Package claims defines the claim sets carried by agent tokens.
//
// Per-request token payload:
//
//	{"agent_id":"...","scope":"...","nonce":"...","ts":1718000000000,
//	 "method":"POST","path":"/v1/resource","body_hash":"<sha256 hex>"}
//
// Handshake token payload:
//
//	{"agent_id":"...","nonce":"...","ts":1718000000000,
//	 "requested_scopes":["read","write"],"session_ttl_s":300}
//
// Both are signed as compact JWS with header {"alg":"EdDSA","typ":"JWT"}.
// "ts" is milliseconds since the Unix epoch.
package claims
