// Package bodyhash turns a request body into the fixed-length digest that
// binds it to an agent request token.
//
// A body is one of three shapes:
//
//	bodyhash.Absent()                      // canonical payload "{}"
//	bodyhash.Text(`{"task":"x"}`)          // payload used verbatim
//	bodyhash.Value(map[string]any{"a": 1}) // payload is its JSON encoding
//
// The digest is lowercase hex SHA-256 over the UTF-8 payload:
//
//	h, err := bodyhash.Hash(bodyhash.Absent())
//	// h == bodyhash.EmptyBodyHash
//
// The "{}" placeholder for an absent body is part of the wire protocol.
// Verifiers recompute the digest from the received body, so an agent must
// send exactly the bytes it hashed.
package bodyhash
