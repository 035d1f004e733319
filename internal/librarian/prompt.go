package librarian

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/librarian-go/internal/rag"
)

// systemPrompt fixes the librarian persona and the two-step protocol: pick
// one title, then call the summary tool with it.
const systemPrompt = `You are Smart Librarian, a helpful AI that recommends exactly ONE best-fitting book based on the user's interests.
You will receive a list of candidate books (title, short summary, themes).
- Choose ONE title and explain why it fits (2–4 sentences).
- THEN call the tool get_summary_by_title with the exact chosen title.
- After the tool returns, produce a final response including:
    1) A short recommendation (title + brief reasoning)
    2) 'Full summary:' followed by the tool's summary.
Keep it warm and concise.`

// candidateBullets formats candidates one per line as "- {title}: {document}".
func candidateBullets(cands []rag.Candidate) string {
	lines := make([]string, len(cands))
	for i, c := range cands {
		lines[i] = "- " + c.Title() + ": " + c.Text
	}
	return strings.Join(lines, "\n")
}

// initialConversation builds the first-turn input: system prompt, the raw
// interests, then the candidate list.
func initialConversation(query string, cands []rag.Candidate) Conversation {
	return NewConversation(
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("My interests: "+query),
		schema.UserMessage("Candidates:\n"+candidateBullets(cands)),
	)
}
