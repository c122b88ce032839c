package assistant

import (
	"context"

	"github.com/nekoverse/nekobot/internal/llm"
	model "github.com/nekoverse/nekobot/internal/model/conversation"
)

// History is the read surface the assembler needs from the chat service.
type History interface {
	Messages(ctx context.Context, chatID string) []model.Message
}

// ContextAssembler turns a chat's stored history into the ordered payload
// for one completion request: persona instruction, then every non-system
// stored turn, then the new user turn. History is unbounded; long chats
// grow the request with them.
type ContextAssembler struct {
	history      History
	systemPrompt string
}

func NewContextAssembler(history History, systemPrompt string) *ContextAssembler {
	return &ContextAssembler{history: history, systemPrompt: systemPrompt}
}

// BuildRequest assembles the completion payload for chatID plus the
// incoming user text. The result is ready to hand to the llm client.
func (a *ContextAssembler) BuildRequest(ctx context.Context, chatID, newUserText string) []llm.Message {
	payload := make([]llm.Message, 0, 8)
	payload = append(payload, llm.Message{Role: string(model.RoleSystem), Content: a.systemPrompt})

	for _, msg := range a.history.Messages(ctx, chatID) {
		if msg.Role == model.RoleSystem {
			continue
		}
		payload = append(payload, llm.Message{Role: string(msg.Role), Content: msg.Content})
	}

	return append(payload, llm.Message{Role: string(model.RoleUser), Content: newUserText})
}
