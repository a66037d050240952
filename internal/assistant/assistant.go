// Package assistant answers word lookups from subtitle text through
// a role-prompted LLM call and bills the reported token usage.
package assistant

import (
	"context"
	"fmt"

	"eplayer/internal/llm"
	"eplayer/pkg/log"
)

// Chatter is the LLM surface the assistant needs
type Chatter interface {
	SystemChat(ctx context.Context, systemPrompt, prompt string) (*llm.ChatResponse, error)
}

// Biller settles the token cost of a call against the user ledger
type Biller interface {
	ChargeAssistant(ctx context.Context, inputTokens, outputTokens int) (float64, error)
}

// Reply is one answered lookup with its usage and cost
type Reply struct {
	Text         string
	InputTokens  int
	OutputTokens int
	Cost         float64
}

type Assistant struct {
	chat   Chatter
	biller Biller
}

func New(chat Chatter, biller Biller) *Assistant {
	return &Assistant{
		chat:   chat,
		biller: biller,
	}
}

// Ask sends the prompt under the role's fixed system prompt.
// A failed ledger update is journaled by the biller and does not
// withhold the answer from the user.
func (a *Assistant) Ask(ctx context.Context, role Role, prompt string) (*Reply, error) {
	response, err := a.chat.SystemChat(ctx, role.SystemPrompt(), prompt)
	if err != nil {
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	reply := &Reply{
		Text:         response.Choices[0].Message.Content,
		InputTokens:  response.Usage.PromptTokens,
		OutputTokens: response.Usage.CompletionTokens,
	}

	cost, err := a.biller.ChargeAssistant(ctx, reply.InputTokens, reply.OutputTokens)
	if err != nil {
		log.Error("Failed to bill %s lookup: %v", role, err)
	}
	reply.Cost = cost

	return reply, nil
}
