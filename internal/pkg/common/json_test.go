package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		wantErr  error
	}{
		{
			name:     "fenced with language tag",
			raw:      "```json\n{\"a\":1}\n```",
			expected: `{"a":1}`,
		},
		{
			name:     "fenced without language tag",
			raw:      "```\n{\"a\":1}\n```",
			expected: `{"a":1}`,
		},
		{
			name:     "fence markers inside string values are kept",
			raw:      "```json\n{\"tips\":[\"wrap in ```cloth``` first\"]}\n```",
			expected: "{\"tips\":[\"wrap in ```cloth``` first\"]}",
		},
		{
			name:     "fences on the same line as the object",
			raw:      "```json{\"a\":1}```",
			expected: `{"a":1}`,
		},
		{
			name:     "prose around object",
			raw:      `Sure! {"a":1} hope that helps`,
			expected: `{"a":1}`,
		},
		{
			name:     "already clean",
			raw:      "  {\"a\":{\"b\":2}}\n",
			expected: `{"a":{"b":2}}`,
		},
		{
			// 只取最外層的第一個 { 與最後一個 }
			name:     "two objects sliced outermost",
			raw:      `first {"a":1} then {"b":2} end`,
			expected: `{"a":1} then {"b":2}`,
		},
		{
			name:     "brace inside string value",
			raw:      `note: {"tip":"use } carefully"} ok`,
			expected: `{"tip":"use } carefully"}`,
		},
		{
			name:    "no braces",
			raw:     "I could not find any food in this picture.",
			wantErr: ErrNoJSONFound,
		},
		{
			name:    "closing brace before opening",
			raw:     "} nothing {",
			wantErr: ErrNoJSONFound,
		},
		{
			name:    "empty",
			raw:     "   ",
			wantErr: ErrNoJSONFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestInvalidJSONToken(t *testing.T) {
	var v map[string]any
	err := ParseJSON(`{"name": 사과}`, &v)
	require.Error(t, err)

	token, ok := InvalidJSONToken(err)
	assert.True(t, ok)
	assert.NotEmpty(t, token)
	assert.False(t, IsTruncatedJSON(err))
}

func TestIsTruncatedJSON(t *testing.T) {
	var v map[string]any
	err := ParseJSON(`{"ingredients":[{"name":"사과"`, &v)
	require.Error(t, err)

	assert.True(t, IsTruncatedJSON(err))
	_, ok := InvalidJSONToken(err)
	assert.False(t, ok)
}

func TestParseJSONRejectsTrailingData(t *testing.T) {
	var v map[string]any
	err := ParseJSON(`{"a":1} {"b":2}`, &v)
	assert.Error(t, err)
}

func TestFlexTypes(t *testing.T) {
	type payload struct {
		Count   FlexInt     `json:"count"`
		Score   FlexFloat   `json:"score"`
		Label   FlexString  `json:"label"`
		Items   FlexStrings `json:"items"`
		Missing FlexInt     `json:"missing"`
	}

	tests := []struct {
		name     string
		raw      string
		expected payload
	}{
		{
			name:     "native types",
			raw:      `{"count":3,"score":0.5,"label":"a","items":["x","y"]}`,
			expected: payload{Count: 3, Score: 0.5, Label: "a", Items: FlexStrings{"x", "y"}},
		},
		{
			name:     "numeric strings",
			raw:      `{"count":"4","score":"1.5","label":12,"items":"single"}`,
			expected: payload{Count: 4, Score: 1.5, Label: "12", Items: FlexStrings{"single"}},
		},
		{
			name:     "garbage becomes zero values",
			raw:      `{"count":"many","score":null,"label":{"x":1},"items":{"a":1}}`,
			expected: payload{},
		},
		{
			name:     "float quantity rounds",
			raw:      `{"count":2.6}`,
			expected: payload{Count: 3},
		},
		{
			name:     "mixed array drops blanks",
			raw:      `{"items":["a", 2, "", null, "  "]}`,
			expected: payload{Items: FlexStrings{"a", "2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &got))
			assert.Equal(t, tt.expected, got)
		})
	}
}
