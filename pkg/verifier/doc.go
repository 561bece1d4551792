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

// Package verifier checks agent tokens on the service side.
//
// It is the reference for what a service must do with the tokens built by
// package signer:
//
//  1. Verify the EdDSA signature against the agent's registered public key
//  2. Reject tokens whose "ts" is more than MaxClockSkew away from now
//  3. Reject nonces already seen within NonceTTL
//  4. For request tokens, recompute method, path and body hash from the
//     request actually received and reject on mismatch
//
// # Verifying Requests
//
//	resolver := verifier.NewStaticKeyResolver(map[string]ed25519.PublicKey{
//	    "agent-123": pub,
//	})
//	v := verifier.NewDefaultAgentVerifier(resolver, nil)
//
//	c, err := v.VerifyAgentRequest(ctx, token, r.Method, r.URL.Path, bodyhash.FromBytes(body))
//	if err != nil {
//	    http.Error(w, verifier.Reason(err), http.StatusUnauthorized)
//	    return
//	}
//
// # Handshakes
//
// VerifyHandshake checks the envelope an agent posts to open a session and
// returns a SessionProposal bounded by the requested session_ttl_s and, if
// set, MaxSessionTTL.
//
// # Key Resolution
//
// StaticKeyResolver serves keys from memory. DIDKeyResolver treats the agent
// id as a SAGE DID and asks the DID registry for its Ed25519 key:
//
//	client, _ := ethereum.NewEthereumClientV4(config)
//	v := verifier.NewDefaultAgentVerifier(verifier.NewDIDKeyResolver(client), nil)
//
// # Replay Cache
//
// MemoryNonceStore suits a single process. RedisNonceStore stores
// nonce:<agent_id>:<nonce> with SET NX EX and is shared by every instance
// pointing at the same Redis:
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	v := verifier.NewDefaultAgentVerifier(resolver, &verifier.VerifierOptions{
//	    NonceStore: verifier.NewRedisNonceStore(rdb),
//	})
//
// # Error Handling
//
// Rejections wrap one of the Err* sentinels. Reason maps an error to the
// short code a service reports, such as "nonce_replay" or
// "timestamp_out_of_window".
package verifier
