package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"short word", "hello", 1},
		{"sentence", "hello world this is a test", 6},
		{"polish diacritics count as runes", "zażółć gęślą jaźń", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokens(tt.text))
		})
	}
}

func TestEstimateMessageTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateMessageTokens(nil))

	msgs := []ChatMessage{
		{Role: RoleSystem, Content: "hello world this is a test"},
		{Role: RoleUser, Content: "hello"},
	}
	// system: 1 + 6 + 4, user: 1 + 1 + 4
	assert.Equal(t, 17, EstimateMessageTokens(msgs))
}
