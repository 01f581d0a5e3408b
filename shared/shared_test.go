package shared_test

import (
	"testing"

	"facilitydesk/shared"

	"github.com/stretchr/testify/assert"
)

func TestConvertStringToBool(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *bool
	}{
		{
			name:     "empty string returns nil",
			input:    "",
			expected: nil,
		},
		{
			name:     "valid true string",
			input:    "true",
			expected: boolPtr(true),
		},
		{
			name:     "valid 0 string",
			input:    "0",
			expected: boolPtr(false),
		},
		{
			name:     "invalid string returns nil",
			input:    "yes please",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shared.ConvertStringToBool(tt.input))
		})
	}
}

func TestIsTrue(t *testing.T) {
	assert.True(t, shared.IsTrue("true"))
	assert.True(t, shared.IsTrue("1"))
	assert.False(t, shared.IsTrue("false"))
	assert.False(t, shared.IsTrue(""))
	assert.False(t, shared.IsTrue("maybe"))
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   int64
		wantOK bool
	}{
		{name: "positive", input: "42", want: 42, wantOK: true},
		{name: "padded", input: " 7 ", want: 7, wantOK: true},
		{name: "zero", input: "0", wantOK: false},
		{name: "negative", input: "-3", wantOK: false},
		{name: "not a number", input: "abc", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := shared.ParseID(tt.input)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildCacheKey(t *testing.T) {
	assert.Equal(t, "lock:facility:12", shared.BuildCacheKey("lock", "facility", "12"))
	assert.Equal(t, "limiter:127.0.0.1", shared.BuildCacheKey("limiter", "", "127.0.0.1"))
	assert.Equal(t, "limiter", shared.BuildCacheKey("limiter"))
}

func boolPtr(b bool) *bool {
	return &b
}
