package graph

import (
	"ai-datachat-be/pkg/ai/router"
	"ai-datachat-be/pkg/llm"
)

// Node identifies a processing step in the conversation graph.
type Node string

const (
	NodeRouter      Node = "ROUTER"
	NodeGeneralChat Node = "GENERAL_CHAT"
	NodeReformulate Node = "REFORMULATE"
	NodeDataQuery   Node = "DATA_QUERY"
	NodeEnd         Node = "END"
)

// ConversationState is the shared state threaded through one graph pass.
// Nodes mutate it in sequence; nothing outside the graph writes to it while
// a pass is running.
//
// When Invoke starts, the last message is the newest user turn. When the
// pass ends, the last message is the answer.
type ConversationState struct {
	Messages          []llm.Message
	Decision          router.Decision
	OriginalQuery     string
	ReformulatedQuery string
	ContextWindow     int
}

// Answer returns the content of the final message, the reply produced by the
// terminal node.
func (s *ConversationState) Answer() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1].Content
}

func (s *ConversationState) clone() *ConversationState {
	if s == nil {
		return nil
	}
	messages := make([]llm.Message, len(s.Messages))
	copy(messages, s.Messages)
	return &ConversationState{
		Messages:          messages,
		Decision:          s.Decision,
		OriginalQuery:     s.OriginalQuery,
		ReformulatedQuery: s.ReformulatedQuery,
		ContextWindow:     s.ContextWindow,
	}
}
