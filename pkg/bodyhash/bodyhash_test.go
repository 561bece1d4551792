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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_AbsentBody(t *testing.T) {
	h, err := Hash(Absent())
	require.NoError(t, err)
	assert.Equal(t, "44136fa355b3678a1146ad16f7e8649e94fb4fc21fe77e8310c060f61caaff8a", h)
	assert.Equal(t, EmptyBodyHash, h)
	assert.Equal(t, HashString("{}"), h)
}

func TestHash_ZeroValueIsAbsent(t *testing.T) {
	var b Body
	assert.True(t, b.IsAbsent())

	h, err := Hash(b)
	require.NoError(t, err)
	assert.Equal(t, EmptyBodyHash, h)
}

func TestHash_AbsentIsNotEmptyString(t *testing.T) {
	absent, err := Hash(Absent())
	require.NoError(t, err)
	empty, err := Hash(Text(""))
	require.NoError(t, err)

	assert.NotEqual(t, absent, empty)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", empty)
}

func TestHash_Deterministic(t *testing.T) {
	a, err := Hash(Text(`{"task":"test"}`))
	require.NoError(t, err)
	b, err := Hash(Text(`{"task":"test"}`))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestHash_DistinctPayloads(t *testing.T) {
	samples := []string{
		"",
		"{}",
		"{ }",
		"null",
		`{"a":1}`,
		`{"a":2}`,
		`{"a":1,"b":2}`,
		`{"b":2,"a":1}`,
		"hello",
		"Hello",
	}

	seen := make(map[string]string, len(samples))
	for _, s := range samples {
		h, err := Hash(Text(s))
		require.NoError(t, err)
		if prev, dup := seen[h]; dup {
			t.Fatalf("digest collision between %q and %q", prev, s)
		}
		seen[h] = s
	}
}

func TestValue_CanonicalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"sorted map keys", map[string]any{"b": 2, "a": 1}, `{"a":1,"b":2}`},
		{"no html escaping", map[string]string{"q": "<a&b>"}, `{"q":"<a&b>"}`},
		{"slice order kept", []string{"write", "read"}, `["write","read"]`},
		{"struct field order", struct {
			Z string `json:"z"`
			A int    `json:"a"`
		}{"x", 1}, `{"z":"x","a":1}`},
		{"number", 42, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Value(tt.in).Canonical()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValue_MatchesEquivalentText(t *testing.T) {
	fromValue, err := Hash(Value(map[string]any{"task": "test"}))
	require.NoError(t, err)
	fromText, err := Hash(Text(`{"task":"test"}`))
	require.NoError(t, err)

	assert.Equal(t, fromText, fromValue)
}

func TestValue_NilIsAbsent(t *testing.T) {
	assert.True(t, Value(nil).IsAbsent())
}

func TestValue_NotCanonical(t *testing.T) {
	_, err := Hash(Value(make(chan int)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotCanonical)

	_, err = Hash(Value(func() {}))
	assert.ErrorIs(t, err, ErrNotCanonical)
}

func TestFromBytes(t *testing.T) {
	assert.True(t, FromBytes(nil).IsAbsent())
	assert.True(t, FromBytes([]byte{}).IsAbsent())

	b := FromBytes([]byte(`{"x":1}`))
	assert.False(t, b.IsAbsent())
	payload, err := b.Canonical()
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, payload)
}

func BenchmarkHash(b *testing.B) {
	body := Text(`{"task":"benchmark","items":[1,2,3,4,5]}`)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Hash(body)
	}
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"keys sorted", `{"b":1,"a":2}`, `{"a":2,"b":1}`},
		{"whitespace dropped", "{ \"a\" : [1, 2] }\n", `{"a":[1,2]}`},
		{"number literal kept", `{"n":12345678901234567890}`, `{"n":12345678901234567890}`},
		{"html not escaped", `{"q":"<a&b>"}`, `{"q":"<a&b>"}`},
		{"null is absent", `null`, EmptyPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseJSON([]byte(tt.in))
			require.NoError(t, err)
			got, err := b.Canonical()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSON_Invalid(t *testing.T) {
	for _, in := range []string{``, `{`, `{"a":1} {"b":2}`} {
		_, err := ParseJSON([]byte(in))
		assert.ErrorIs(t, err, ErrNotCanonical, "input %q", in)
	}
}
