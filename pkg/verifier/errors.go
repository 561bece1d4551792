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

package verifier

import "errors"

var (
	ErrMissingToken      = errors.New("missing agent token")
	ErrMalformedToken    = errors.New("malformed agent token")
	ErrUnknownAgent      = errors.New("no public key registered for agent")
	ErrInvalidSignature  = errors.New("invalid token signature")
	ErrTokenExpired      = errors.New("token expired")
	ErrMissingClaim      = errors.New("required claim missing")
	ErrStaleTimestamp    = errors.New("timestamp outside the accepted window")
	ErrNonceReplay       = errors.New("nonce already used")
	ErrRequestMismatch   = errors.New("token does not match the request")
	ErrHandshakeMismatch = errors.New("handshake envelope does not match the token")
	ErrInvalidSessionTTL = errors.New("session ttl must be positive")
)

// reasons maps each rejection to the short code services report to callers.
var reasons = []struct {
	err  error
	code string
}{
	{ErrMissingToken, "missing_token"},
	{ErrUnknownAgent, "public_key_missing"},
	{ErrInvalidSignature, "invalid_signature"},
	{ErrTokenExpired, "token_expired"},
	{ErrMissingClaim, "missing_claim"},
	{ErrStaleTimestamp, "timestamp_out_of_window"},
	{ErrNonceReplay, "nonce_replay"},
	{ErrRequestMismatch, "payload_mismatch"},
	{ErrHandshakeMismatch, "handshake_invalid"},
	{ErrInvalidSessionTTL, "session_ttl_invalid"},
	{ErrMalformedToken, "malformed_token"},
}

// Reason returns the rejection code for err, or "verification_failed" when
// err is not a verifier rejection.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.code
		}
	}
	return "verification_failed"
}
