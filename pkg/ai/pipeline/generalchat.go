package pipeline

import (
	"context"
	"log"

	"ai-datachat-be/pkg/llm"
)

// PersonaPrompt keeps general replies factual and short. The dashboard
// audience asks quick questions between data queries.
const PersonaPrompt = `You are a helpful assistant. Your job is to answer the user's questions based on the provided conversation history.
Answer as factual as possible but be friendly.
Do not make up an answer. If you don't know the answer, say "I don't know".
Don't be too chatty.`

// ChatResult contains the result of a general chat execution
type ChatResult struct {
	Reply string
}

// GeneralChatPipeline answers conversational turns with the chat model and
// bounded history, without touching the dataset.
type GeneralChatPipeline struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

// NewGeneralChatPipeline creates a new general chat pipeline
func NewGeneralChatPipeline(llmProvider llm.LLMProvider, logger *log.Logger) *GeneralChatPipeline {
	return &GeneralChatPipeline{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Execute runs the chat model with the persona, recent history and the
// current question.
func (p *GeneralChatPipeline) Execute(ctx context.Context, question string, history []llm.Message) (*ChatResult, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    "system",
		Content: PersonaPrompt,
	})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: question,
	})

	p.logger.Printf("[CHAT] Executing with %d messages (incl. history)", len(messages))

	response, err := p.llmProvider.Chat(ctx, messages)
	if err != nil {
		p.logger.Printf("[CHAT] LLM error: %v", err)
		return nil, err
	}

	return &ChatResult{Reply: response}, nil
}
