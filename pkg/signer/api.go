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

package signer

import (
	"github.com/sage-x-project/sage-agentauth-go/pkg/bodyhash"
	"github.com/sage-x-project/sage-agentauth-go/pkg/keys"
)

var defaultSigner = NewDefaultAgentSigner(nil)

// SignAgentRequest signs a request token with a PEM or JWK encoded Ed25519
// private key, using the system clock and crypto/rand. Malformed key
// material is reported as a *SigningError.
func SignAgentRequest(privateKey []byte, agentID, scope, method, path string, body bodyhash.Body) (*SignedToken, error) {
	key, err := parseKey(privateKey)
	if err != nil {
		return nil, err
	}
	return defaultSigner.SignAgentRequest(key, agentID, scope, method, path, body)
}

// BuildHandshakeRequest signs a handshake token with a PEM or JWK encoded
// Ed25519 private key. The session TTL defaults to 300 seconds.
func BuildHandshakeRequest(privateKey []byte, agentID string, requestedScopes []string, opts ...HandshakeOption) (*SignedToken, error) {
	key, err := parseKey(privateKey)
	if err != nil {
		return nil, err
	}
	return defaultSigner.BuildHandshakeRequest(key, agentID, requestedScopes, opts...)
}

// HashBody is bodyhash.Hash, re-exported next to the signing functions.
func HashBody(body bodyhash.Body) (string, error) {
	return bodyhash.Hash(body)
}

func parseKey(material []byte) (keys.SigningKey, error) {
	if len(material) == 0 {
		return nil, signingErr(keys.ErrNilKey)
	}
	key, err := keys.Parse(material)
	if err != nil {
		return nil, signingErr(err)
	}
	return key, nil
}
