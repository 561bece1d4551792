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
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/a2aproject/a2a-go/a2a"
)

// readSSEData yields the data payload of each Server-Sent Event in r.
// Multi-line data fields are joined with "\n"; event, id and retry fields
// are ignored.
//
//	event: message
//	data: {"jsonrpc":"2.0","id":1,"result":{...}}
//
//	data: {"jsonrpc":"2.0","id":2,"result":{...}}
func readSSEData(ctx context.Context, r io.Reader) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		reader := bufio.NewReader(r)
		var data bytes.Buffer

		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			line, err := reader.ReadBytes('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				yield(nil, fmt.Errorf("error reading SSE stream: %w", err))
				return
			}
			eof := err != nil
			line = bytes.TrimRight(line, "\r\n")

			// A blank line (or the end of the stream) dispatches the event
			if len(line) == 0 {
				if data.Len() > 0 {
					payload := bytes.Clone(data.Bytes())
					data.Reset()
					if !yield(payload, nil) {
						return
					}
				}
				if eof {
					return
				}
				continue
			}

			field, value, _ := bytes.Cut(line, []byte(":"))
			value = bytes.TrimPrefix(value, []byte(" "))

			if string(field) == "data" {
				if data.Len() > 0 {
					data.WriteByte('\n')
				}
				data.Write(value)
			}

			if eof {
				if data.Len() > 0 {
					yield(bytes.Clone(data.Bytes()), nil)
				}
				return
			}
		}
	}
}

// decodeStreamEvent extracts the A2A event from one SSE data payload. The
// payload is a JSON-RPC response whose result holds exactly one of
// "message", "task", "statusUpdate" or "artifactUpdate".
func decodeStreamEvent(data []byte) (a2a.Event, error) {
	var rpcResp jsonRPCResponse
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, fmt.Errorf("failed to parse SSE JSON-RPC response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("in SSE stream: %w", rpcResp.Error)
	}

	var result map[string]json.RawMessage
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to parse SSE result structure: %w", err)
	}

	var (
		event a2a.Event
		raw   json.RawMessage
	)
	switch {
	case result["message"] != nil:
		event, raw = &a2a.Message{}, result["message"]
	case result["task"] != nil:
		event, raw = &a2a.Task{}, result["task"]
	case result["statusUpdate"] != nil:
		event, raw = &a2a.TaskStatusUpdateEvent{}, result["statusUpdate"]
	case result["artifactUpdate"] != nil:
		event, raw = &a2a.TaskArtifactUpdateEvent{}, result["artifactUpdate"]
	default:
		return nil, fmt.Errorf("unknown SSE event type in result")
	}

	if err := json.Unmarshal(raw, event); err != nil {
		return nil, fmt.Errorf("failed to parse %T from SSE: %w", event, err)
	}
	return event, nil
}

// callSSE makes a signed JSON-RPC call expecting an SSE stream response.
func (t *AgentHTTPTransport) callSSE(ctx context.Context, method string, params any) iter.Seq2[a2a.Event, error] {
	return func(yield func(a2a.Event, error) bool) {
		req, err := t.newRPCRequest(ctx, method, params)
		if err != nil {
			yield(nil, err)
			return
		}
		req.Header.Set("Accept", "text/event-stream")

		resp, err := t.httpClient.Do(req)
		if err != nil {
			yield(nil, fmt.Errorf("HTTP request failed: %w", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			yield(nil, fmt.Errorf("HTTP error: %d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), string(body)))
			return
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
			yield(nil, fmt.Errorf("unexpected Content-Type: %s, expected text/event-stream", ct))
			return
		}

		for data, err := range readSSEData(ctx, resp.Body) {
			if err != nil {
				yield(nil, err)
				return
			}
			event, err := decodeStreamEvent(data)
			if !yield(event, err) {
				return
			}
		}
	}
}
