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
	stdcrypto "crypto"
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sage-x-project/sage/pkg/agent/crypto"

	"github.com/sage-x-project/sage-agentauth-go/pkg/claims"
)

var (
	ErrNilKey         = errors.New("signing key is nil")
	ErrMalformedKey   = errors.New("malformed key material")
	ErrUnsupportedKey = errors.New("key type does not match the EdDSA algorithm")
)

// SigningKey is private key material able to produce EdDSA signatures
// over a JWS signing input.
type SigningKey interface {
	// Algorithm returns the JWS algorithm name the key signs with.
	Algorithm() string

	// Sign signs the JWS signing input (base64url header "." base64url payload).
	Sign(signingInput []byte) ([]byte, error)

	// PublicKey returns the matching public key.
	PublicKey() stdcrypto.PublicKey
}

// Ed25519Key is an in-process Ed25519 private key.
type Ed25519Key struct {
	priv ed25519.PrivateKey
}

// FromEd25519 wraps a raw Ed25519 private key.
func FromEd25519(priv ed25519.PrivateKey) (*Ed25519Key, error) {
	if priv == nil {
		return nil, ErrNilKey
	}
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: ed25519 private key must be %d bytes, got %d",
			ErrMalformedKey, ed25519.PrivateKeySize, len(priv))
	}
	return &Ed25519Key{priv: priv}, nil
}

// ParsePEM parses a PKCS#8 PEM encoded Ed25519 private key.
func ParsePEM(data []byte) (*Ed25519Key, error) {
	key, err := jwt.ParseEdPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrUnsupportedKey, key)
	}
	return FromEd25519(priv)
}

// LoadFile reads a private key from disk. PEM and JWK encodings are
// both accepted.
func LoadFile(path string) (*Ed25519Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return Parse(data)
}

// Parse detects the encoding of data and parses it.
func Parse(data []byte) (*Ed25519Key, error) {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.HasPrefix(trimmed, []byte("-----BEGIN")):
		return ParsePEM(trimmed)
	case bytes.HasPrefix(trimmed, []byte("{")):
		return ParseJWK(trimmed)
	default:
		return nil, fmt.Errorf("%w: expected PEM or JWK", ErrMalformedKey)
	}
}

// Algorithm implements SigningKey.
func (k *Ed25519Key) Algorithm() string {
	return claims.Algorithm
}

// Sign implements SigningKey.
func (k *Ed25519Key) Sign(signingInput []byte) ([]byte, error) {
	if k == nil || k.priv == nil {
		return nil, ErrNilKey
	}
	return jwt.SigningMethodEdDSA.Sign(string(signingInput), k.priv)
}

// PublicKey implements SigningKey.
func (k *Ed25519Key) PublicKey() stdcrypto.PublicKey {
	return k.priv.Public()
}

// KeyPairKey signs with a SAGE key pair, leaving the private key wherever
// the key pair keeps it.
type KeyPairKey struct {
	kp crypto.KeyPair
}

// FromKeyPair adapts a SAGE key pair. Only Ed25519 key pairs are accepted.
func FromKeyPair(kp crypto.KeyPair) (*KeyPairKey, error) {
	if kp == nil {
		return nil, ErrNilKey
	}
	if kp.Type() != crypto.KeyTypeEd25519 {
		return nil, fmt.Errorf("%w: key pair %s has type %v", ErrUnsupportedKey, kp.ID(), kp.Type())
	}
	return &KeyPairKey{kp: kp}, nil
}

// Algorithm implements SigningKey.
func (k *KeyPairKey) Algorithm() string {
	return claims.Algorithm
}

// Sign implements SigningKey.
func (k *KeyPairKey) Sign(signingInput []byte) ([]byte, error) {
	if k == nil || k.kp == nil {
		return nil, ErrNilKey
	}
	sig, err := k.kp.Sign(signingInput)
	if err != nil {
		return nil, err
	}
	if len(sig) != ed25519.SignatureSize {
		return nil, fmt.Errorf("%w: signature is %d bytes", ErrUnsupportedKey, len(sig))
	}
	return sig, nil
}

// PublicKey implements SigningKey.
func (k *KeyPairKey) PublicKey() stdcrypto.PublicKey {
	return k.kp.PublicKey()
}

// ID returns the key pair identifier.
func (k *KeyPairKey) ID() string {
	return k.kp.ID()
}

// ParsePublicPEM parses a PKIX PEM encoded Ed25519 public key.
func ParsePublicPEM(data []byte) (ed25519.PublicKey, error) {
	key, err := jwt.ParseEdPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrUnsupportedKey, key)
	}
	return pub, nil
}

// ParsePublic detects the encoding of a public key and parses it.
func ParsePublic(data []byte) (ed25519.PublicKey, error) {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.HasPrefix(trimmed, []byte("-----BEGIN")):
		return ParsePublicPEM(trimmed)
	case bytes.HasPrefix(trimmed, []byte("{")):
		return ParsePublicJWK(trimmed)
	default:
		return nil, fmt.Errorf("%w: expected PEM or JWK", ErrMalformedKey)
	}
}
