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

package bodyhash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// EmptyPayload is the canonical payload of an absent body. Existing
// verifiers hash exactly these two bytes, not "" and not "null".
const EmptyPayload = "{}"

// EmptyBodyHash is the SHA-256 of EmptyPayload.
const EmptyBodyHash = "44136fa355b3678a1146ad16f7e8649e94fb4fc21fe77e8310c060f61caaff8a"

// ErrNotCanonical is returned when a structured body has no canonical form.
var ErrNotCanonical = errors.New("body has no canonical string form")

type kind int

const (
	kindAbsent kind = iota
	kindText
	kindValue
)

// Body is a request body as seen by the canonicalizer. The zero value is
// an absent body.
type Body struct {
	kind  kind
	text  string
	value any
}

// Absent returns the "no body" sentinel.
func Absent() Body {
	return Body{kind: kindAbsent}
}

// Text returns a body whose canonical form is s, byte for byte.
func Text(s string) Body {
	return Body{kind: kindText, text: s}
}

// Value returns a structured body canonicalized as JSON.
// A nil value is treated as Absent.
func Value(v any) Body {
	if v == nil {
		return Absent()
	}
	return Body{kind: kindValue, value: v}
}

// FromBytes wraps raw HTTP body bytes. Nil or empty bytes are Absent.
func FromBytes(b []byte) Body {
	if len(b) == 0 {
		return Absent()
	}
	return Text(string(b))
}

// ParseJSON decodes a JSON document into a Value body, so that two
// encodings of the same document hash alike. Numbers keep their literal
// form. The document "null" is Absent.
func ParseJSON(data []byte) (Body, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Absent(), fmt.Errorf("%w: %v", ErrNotCanonical, err)
	}
	if dec.More() {
		return Absent(), fmt.Errorf("%w: trailing data after JSON document", ErrNotCanonical)
	}
	return Value(v), nil
}

// IsAbsent reports whether b is the "no body" sentinel.
func (b Body) IsAbsent() bool {
	return b.kind == kindAbsent
}

// Canonical returns the payload string that gets hashed.
func (b Body) Canonical() (string, error) {
	switch b.kind {
	case kindAbsent:
		return EmptyPayload, nil
	case kindText:
		return b.text, nil
	case kindValue:
		return canonicalJSON(b.value)
	default:
		return "", fmt.Errorf("unknown body kind %d", b.kind)
	}
}

// Hash returns the lowercase hex SHA-256 of the body's canonical payload.
func Hash(b Body) (string, error) {
	payload, err := b.Canonical()
	if err != nil {
		return "", err
	}
	return HashString(payload), nil
}

// HashString hashes an already canonical payload.
func HashString(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// canonicalJSON encodes v with sorted map keys and without HTML escaping
// or the encoder's trailing newline.
func canonicalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotCanonical, err)
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
