// Package budget estimates prompt sizes for chat model requests. Backends use
// different tokenizers, so it applies a conservative character heuristic:
// 1 token ≈ 4 characters.
package budget

import (
	"github.com/cloudwego/eino/schema"
)

const (
	charsPerToken = 4

	// perMessageOverhead approximates the framing tokens each chat message
	// costs in most APIs.
	perMessageOverhead = 4

	// DefaultMaxContextTokens is the input budget a recommendation prompt is
	// expected to stay under. It fits 8k-context models with room for output.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated token count of msgs: role, content,
// and the name and arguments of any tool calls.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		total += perMessageOverhead
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
		for _, tc := range m.ToolCalls {
			total += Estimate(tc.Function.Name)
			total += Estimate(tc.Function.Arguments)
		}
	}
	return total
}
