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

package transport

import (
	"context"
	"fmt"

	"github.com/a2aproject/a2a-go/a2a"
)

// MaxListPageSize is the largest page tasks/list accepts
const MaxListPageSize = 100

// ListTasksParams filters a tasks/list call (A2A v0.4.0).
type ListTasksParams struct {
	ContextID string        `json:"contextId,omitempty"`
	Status    a2a.TaskState `json:"status,omitempty"`

	// PageSize is between 1 and MaxListPageSize; zero lets the server pick.
	PageSize  int    `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`

	HistoryLength int `json:"historyLength,omitempty"`

	// LastUpdatedAfter is in milliseconds since epoch.
	LastUpdatedAfter int64 `json:"lastUpdatedAfter,omitempty"`
	IncludeArtifacts bool  `json:"includeArtifacts,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// ListTasksResult is one page of tasks. NextPageToken is empty on the last page.
type ListTasksResult struct {
	Tasks         []*a2a.Task `json:"tasks"`
	TotalSize     int         `json:"totalSize"`
	PageSize      int         `json:"pageSize"`
	NextPageToken string      `json:"nextPageToken"`
}

func (p *ListTasksParams) validate() error {
	if p.PageSize < 0 || p.PageSize > MaxListPageSize {
		return fmt.Errorf("page size must be between 1 and %d, got %d", MaxListPageSize, p.PageSize)
	}
	if p.HistoryLength < 0 {
		return fmt.Errorf("history length must be non-negative, got %d", p.HistoryLength)
	}
	return nil
}

// ListTasks calls tasks/list. It is not part of a2aclient.Transport, so
// callers reach it through the concrete *AgentHTTPTransport.
func (t *AgentHTTPTransport) ListTasks(ctx context.Context, params *ListTasksParams) (*ListTasksResult, error) {
	if params == nil {
		params = &ListTasksParams{}
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return callInto[ListTasksResult](ctx, t, "tasks/list", params)
}
