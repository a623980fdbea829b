package llm

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is the provider-neutral message representation handed to a
// Client, including system prompts.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamChunk carries one streaming update. Content holds the FULL response
// accumulated so far, not the delta, so consumers can replace their buffer
// wholesale on every callback. On a provider failure the terminal chunk has
// empty Content, Finished set, and Error carrying the failure message.
type StreamChunk struct {
	Content  string `json:"content"`
	Finished bool   `json:"finished"`
	Error    string `json:"error,omitempty"`
}

// ChunkHandler receives streaming updates. Handlers must not retain the chunk
// past the call.
type ChunkHandler func(StreamChunk)

// Client generates assistant replies from conversation history.
type Client interface {
	// GenerateResponse returns the complete reply in one shot.
	GenerateResponse(ctx context.Context, messages []ChatMessage) (string, error)

	// GenerateStreamingResponse invokes onChunk with cumulative partial
	// responses as tokens arrive, ending with exactly one Finished chunk:
	// the final text on success, or an empty-content chunk with Error set
	// before the error is returned. The final full text is returned as well.
	GenerateStreamingResponse(ctx context.Context, messages []ChatMessage, onChunk ChunkHandler) (string, error)
}
