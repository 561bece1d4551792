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
	"errors"
	"fmt"
)

var (
	ErrEmptyAgentID      = errors.New("agent id cannot be empty")
	ErrEmptyScope        = errors.New("scope cannot be empty")
	ErrEmptyMethod       = errors.New("method cannot be empty")
	ErrEmptyPath         = errors.New("path cannot be empty")
	ErrNoRequestedScopes = errors.New("requested scopes cannot be empty")
	ErrInvalidSessionTTL = errors.New("session ttl must be a positive number of seconds")
)

// InputError reports a caller mistake: the token was not built because an
// argument is invalid. Fix the input and call again.
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// SigningError reports that the key material or the signing primitive
// failed. This usually means a key provisioning problem.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing failed: %s", e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err is or wraps an *InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsSigningError reports whether err is or wraps a *SigningError.
func IsSigningError(err error) bool {
	var se *SigningError
	return errors.As(err, &se)
}

func inputErr(field string, err error) error {
	return &InputError{Field: field, Err: err}
}

func signingErr(err error) error {
	return &SigningError{Err: err}
}
