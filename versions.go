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

// Package agentauth provides version information for sage-agentauth-go and its dependencies.
package agentauth

import "github.com/sage-x-project/sage-agentauth-go/pkg/claims"

const (
	// Version is the current version of sage-agentauth-go
	Version = "0.1.0-dev"

	// TokenAlgorithm is the JWS alg every token is signed with
	TokenAlgorithm = claims.Algorithm

	// A2AProtocolVersion is the A2A Protocol version the transport package speaks
	// See: https://github.com/a2aproject/A2A
	A2AProtocolVersion = "0.4.0"

	// SAGEVersion is the SAGE core version required
	SAGEVersion = "1.3.1"
)

// VersionInfo contains detailed version information
type VersionInfo struct {
	Version            string `json:"version"`
	TokenAlgorithm     string `json:"token_algorithm"`
	A2AProtocolVersion string `json:"a2a_protocol_version"`
	SAGEVersion        string `json:"sage_version"`
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:            Version,
		TokenAlgorithm:     TokenAlgorithm,
		A2AProtocolVersion: A2AProtocolVersion,
		SAGEVersion:        SAGEVersion,
	}
}
