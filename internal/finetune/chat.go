package finetune

import (
	"context"
	"strings"

	"github.com/aicsr/concierge/internal/providers"
	"github.com/aicsr/concierge/internal/reply"
)

// ChatFallback is the answer when the fine-tuned model cannot be reached.
const ChatFallback = "Sorry, I couldn't process your request."

// Chat answers a conversation with the fine-tuned model. The Answer/Emotion
// system prompt is prepended to messages. Errors never escape: a failed call
// yields the fallback reply, and the error is returned alongside for logging.
func (s *Service) Chat(ctx context.Context, messages []providers.Message) (reply.Reply, error) {
	fallback := reply.Reply{Answer: ChatFallback, Emotion: reply.Neutral}

	model, err := s.Model(ctx)
	if err != nil {
		return fallback, err
	}

	msgs := make([]providers.Message, 0, len(messages)+1)
	msgs = append(msgs, providers.Message{Role: "system", Content: reply.FineTunedSystemPrompt})
	msgs = append(msgs, messages...)

	res, err := s.client.Chat(ctx, &providers.ChatRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: providers.Ptr(0.0),
		Seed:        providers.Ptr(int64(1)),
	})
	if err != nil {
		s.logger.Warn("fine-tuned chat failed", "model", model, "error", err)
		return fallback, err
	}
	if strings.TrimSpace(res.Content) == "" {
		return fallback, providers.ErrEmptyResponse
	}
	return reply.Parse(res.Content, lastUserMessage(messages)), nil
}

func lastUserMessage(msgs []providers.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			return msgs[i].Content
		}
	}
	return ""
}
