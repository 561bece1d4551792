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

package keys

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// okpHeader is read before handing the document to go-jose so that a key
// of another type is reported as ErrUnsupportedKey.
type okpHeader struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
}

// encodedEd25519Len is the unpadded base64url length of a 32 byte value
const encodedEd25519Len = 43

func decodeOKP(data []byte) (*jose.JSONWebKey, error) {
	var hdr okpHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	if hdr.Kty != "OKP" || hdr.Crv != "Ed25519" {
		return nil, fmt.Errorf("%w: kty=%q crv=%q", ErrUnsupportedKey, hdr.Kty, hdr.Crv)
	}
	if len(hdr.X) != encodedEd25519Len {
		return nil, fmt.Errorf("%w: invalid \"x\"", ErrMalformedKey)
	}

	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	return &jwk, nil
}

// ParseJWK parses a private OKP/Ed25519 JWK. Both "d" and "x" are required
// and "x" must match the public key derived from "d".
func ParseJWK(data []byte) (*Ed25519Key, error) {
	jwk, err := decodeOKP(data)
	if err != nil {
		return nil, err
	}
	parsed, ok := jwk.Key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: JWK has no private component", ErrMalformedKey)
	}

	// go-jose copies "d" without checking its length; deriving the key
	// from the seed and comparing with "x" catches a truncated "d".
	priv := ed25519.NewKeyFromSeed(parsed.Seed())
	if !bytes.Equal(priv.Public().(ed25519.PublicKey), parsed.Public().(ed25519.PublicKey)) {
		return nil, fmt.Errorf("%w: \"x\" does not match \"d\"", ErrMalformedKey)
	}
	return FromEd25519(priv)
}

// ParsePublicJWK parses the public part of an OKP/Ed25519 JWK.
func ParsePublicJWK(data []byte) (ed25519.PublicKey, error) {
	jwk, err := decodeOKP(data)
	if err != nil {
		return nil, err
	}
	pub, ok := jwk.Public().Key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: JWK has no \"x\"", ErrMalformedKey)
	}
	return pub, nil
}

// PublicJWK renders an Ed25519 public key as a JWK document.
func PublicJWK(pub ed25519.PublicKey) ([]byte, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: ed25519 public key must be %d bytes", ErrMalformedKey, ed25519.PublicKeySize)
	}
	return jose.JSONWebKey{Key: pub}.MarshalJSON()
}
