package history

import (
	"strings"
	"sync"

	"ai-datachat-be/pkg/llm"
)

// EmptyConversation is rendered when no rounds have been recorded yet.
const EmptyConversation = "The conversation has just begun."

// Round is one completed (question, answer) exchange.
type Round struct {
	Question string
	Answer   string
}

// Buffer keeps the most recent conversation rounds for prompt context.
// It is a FIFO bounded at maxRounds: appending beyond capacity evicts the
// oldest round. Each session owns exactly one Buffer.
type Buffer struct {
	mu        sync.RWMutex
	rounds    []Round
	maxRounds int
}

func NewBuffer(maxRounds int) *Buffer {
	if maxRounds <= 0 {
		maxRounds = 5
	}
	return &Buffer{
		rounds:    make([]Round, 0, maxRounds),
		maxRounds: maxRounds,
	}
}

// Append records a completed round, evicting the oldest when full.
func (b *Buffer) Append(question, answer string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rounds = append(b.rounds, Round{Question: question, Answer: answer})
	if len(b.rounds) > b.maxRounds {
		b.rounds = b.rounds[1:]
	}
}

// Len returns the number of retained rounds.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rounds)
}

// Rounds returns a copy of the retained rounds in chronological order.
func (b *Buffer) Rounds() []Round {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Round, len(b.rounds))
	copy(out, b.rounds)
	return out
}

// Render produces the "conversation so far" block injected into prompts:
// one "User: q\nAI: a" paragraph per round, oldest first.
func (b *Buffer) Render() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.rounds) == 0 {
		return EmptyConversation
	}

	parts := make([]string, len(b.rounds))
	for i, r := range b.rounds {
		parts[i] = "User: " + r.Question + "\nAI: " + r.Answer
	}
	return strings.Join(parts, "\n")
}

// LastMessages returns up to k of the most recent rounds flattened into
// role-tagged messages, oldest first. Questions become user messages and
// answers become assistant messages.
func (b *Buffer) LastMessages(k int) []llm.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	start := 0
	if k >= 0 && len(b.rounds) > k {
		start = len(b.rounds) - k
	}

	messages := make([]llm.Message, 0, (len(b.rounds)-start)*2)
	for _, r := range b.rounds[start:] {
		messages = append(messages,
			llm.Message{Role: "user", Content: r.Question},
			llm.Message{Role: "assistant", Content: r.Answer},
		)
	}
	return messages
}
