package conversation

import (
	"fmt"
	"strings"

	"github.com/webcraft-studio/chatbot-platform/internal/knowledge"
	"github.com/webcraft-studio/chatbot-platform/internal/llm"
)

// promptWindow bounds how many transcript messages feed the model.
const promptWindow = 10

// maxPromptTokens caps the estimated prompt size. The system prompt is
// reserved first; transcript messages are dropped oldest-first to fit.
const maxPromptTokens = 3000

// estimateTokens approximates tokens as ceil(len/4). Close enough for budget
// enforcement without a tokenizer dependency.
func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// buildPrompt assembles the system prompt plus the most recent transcript
// window, oldest first, trimmed to the token budget.
func buildPrompt(businessContext string, messages []Message) []llm.ChatMessage {
	system := llm.ChatMessage{Role: llm.ChatRoleSystem, Content: businessContext}

	window := messages
	if len(window) > promptWindow {
		window = window[len(window)-promptWindow:]
	}

	budget := maxPromptTokens - estimateTokens(system.Content)
	// Walk newest-first so the most recent turns survive trimming.
	kept := make([]llm.ChatMessage, 0, len(window))
	for i := len(window) - 1; i >= 0; i-- {
		cost := estimateTokens(window[i].Content)
		if cost > budget {
			break
		}
		budget -= cost
		kept = append(kept, llm.ChatMessage{Role: window[i].Role, Content: window[i].Content})
	}

	prompt := make([]llm.ChatMessage, 0, len(kept)+1)
	prompt = append(prompt, system)
	for i := len(kept) - 1; i >= 0; i-- {
		prompt = append(prompt, kept[i])
	}
	return prompt
}

// buildBusinessContext renders the persona system prompt, enriched with the
// top knowledge match's curated copy and the other matched topics so the model
// can address everything the message touched.
func buildBusinessContext(businessName, supportEmail string, matches []knowledge.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the website assistant for %s, a web design studio for small businesses.\n", businessName)
	b.WriteString("Be friendly, concise, and practical. Answer questions about services, pricing, timelines, and process.\n")
	b.WriteString("Encourage visitors to share their name and email so the team can follow up, but never be pushy.\n")
	fmt.Fprintf(&b, "If you cannot help, point the visitor to %s.\n", supportEmail)

	if len(matches) > 0 && matches[0].Entry.Response != "" {
		fmt.Fprintf(&b, "\nThe visitor's message matches the %q topic. Ground your answer in this approved copy:\n%s\n", matches[0].Intent, matches[0].Entry.Response)
	}
	if len(matches) > 1 {
		related := make([]string, 0, len(matches)-1)
		for _, m := range matches[1:] {
			related = append(related, m.Intent)
		}
		fmt.Fprintf(&b, "The message also touches these topics: %s.\n", strings.Join(related, ", "))
	}
	return b.String()
}
