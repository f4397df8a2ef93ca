package engine

import "strings"

// perMessageOverhead approximates role markers and separators.
const perMessageOverhead = 4

// EstimateTokens gives a rough token count: ~4 characters per token, with
// whitespace-heavy text counting a little more. Non-empty text is at least 1.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	runes := len([]rune(text))
	ws := strings.Count(text, " ") + strings.Count(text, "\n") + strings.Count(text, "\t")

	estimated := runes/4 + ws/6
	if estimated < 1 {
		return 1
	}
	return estimated
}

// EstimateMessageTokens estimates the prompt size of a message list.
func EstimateMessageTokens(messages []ChatMessage) int {
	total := 0
	for _, m := range messages {
		total += EstimateTokens(string(m.Role)) + EstimateTokens(m.Content) + perMessageOverhead
	}
	return total
}
