package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ai-datachat-be/pkg/llm"
)

// ReformulationResult carries the effective query plus bookkeeping about how
// it was derived.
type ReformulationResult struct {
	Query         string // Self-contained restatement, or the original on fallback
	OriginalQuery string
	ContextWindow int // Number of history messages considered
}

// Reformulator rewrites follow-up questions into self-contained ones using
// recent conversation history, so the data pipeline never sees dangling
// references like "that data".
type Reformulator struct {
	llmProvider llm.LLMProvider
	window      int
	logger      *log.Logger
}

// NewReformulator creates a reformulator considering at most window history
// messages. A non-positive window disables history and passes questions
// through unchanged.
func NewReformulator(llmProvider llm.LLMProvider, window int, logger *log.Logger) *Reformulator {
	return &Reformulator{
		llmProvider: llmProvider,
		window:      window,
		logger:      logger,
	}
}

const reformulationPromptTemplate = `Given the conversation history and a follow-up question, rewrite the follow-up question so it is fully self-contained. Resolve references like "that data" or "the same" using the history. Return only the rewritten question, nothing else.

History:
%s

Follow-up question: %s

Rewritten question:`

// Reformulate produces the effective query for the data pipeline. It never
// fails: on any model error or empty reply the original question is used.
// The history slice is read, never mutated.
func (r *Reformulator) Reformulate(ctx context.Context, question string, history []llm.Message) ReformulationResult {
	result := ReformulationResult{
		Query:         question,
		OriginalQuery: question,
		ContextWindow: 0,
	}

	if r.window <= 0 || len(history) == 0 {
		return result
	}

	window := history
	if len(window) > r.window {
		window = window[len(window)-r.window:]
	}
	result.ContextWindow = len(window)

	lines := make([]string, len(window))
	for i, msg := range window {
		lines[i] = fmt.Sprintf("%s: %s", msg.Role, msg.Content)
	}
	prompt := fmt.Sprintf(reformulationPromptTemplate, strings.Join(lines, "\n"), question)

	reply, err := r.llmProvider.Generate(ctx, prompt)
	if err != nil {
		r.logger.Printf("[REFORMULATE] Falling back to original question: %v", err)
		return result
	}

	rewritten := strings.TrimSpace(reply)
	if rewritten == "" {
		r.logger.Printf("[REFORMULATE] Empty reply, falling back to original question")
		return result
	}

	r.logger.Printf("[REFORMULATE] %q -> %q (window %d)", question, rewritten, result.ContextWindow)
	result.Query = rewritten
	return result
}
