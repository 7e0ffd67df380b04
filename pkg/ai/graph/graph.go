package graph

import (
	"context"
	"fmt"
	"log"

	"ai-datachat-be/pkg/ai/pipeline"
	"ai-datachat-be/pkg/ai/router"
	"ai-datachat-be/pkg/llm"
)

// Graph wires the router, general chat, reformulation and data query stages
// into a single-pass state machine. Each incoming message walks the graph
// exactly once: no cycles, no retries.
//
// START -> router -> general_chat -> END
//                 -> reformulate -> data_query -> END
type Graph struct {
	policy       router.Policy
	generalChat  *pipeline.GeneralChatPipeline
	reformulator *pipeline.Reformulator
	dataAgent    pipeline.DataAgent
	checkpointer Checkpointer
	logger       *log.Logger
}

// NewGraph assembles the conversation graph. The reformulator and
// checkpointer are optional; a nil reformulator routes data questions
// straight to execution, a nil checkpointer disables cross-call memory.
func NewGraph(
	policy router.Policy,
	generalChat *pipeline.GeneralChatPipeline,
	reformulator *pipeline.Reformulator,
	dataAgent pipeline.DataAgent,
	checkpointer Checkpointer,
	logger *log.Logger,
) *Graph {
	return &Graph{
		policy:       policy,
		generalChat:  generalChat,
		reformulator: reformulator,
		dataAgent:    dataAgent,
		checkpointer: checkpointer,
		logger:       logger,
	}
}

// Invoke runs one pass for the newest user turn and returns the terminal
// state, whose last message is the answer.
//
// Callers that manage their own history pass it in; when history is empty
// and a checkpointer is configured, the thread's saved state is restored
// instead. Model and execution failures are folded into the answer text,
// so an error return means a bug in the graph itself, not a bad turn.
func (g *Graph) Invoke(ctx context.Context, threadID, question string, history []llm.Message) (*ConversationState, error) {
	state := g.initialState(threadID, history)
	state.Messages = append(state.Messages, llm.Message{Role: "user", Content: question})
	state.OriginalQuery = question

	node := NodeRouter
	for node != NodeEnd {
		next, err := g.step(ctx, node, question, state)
		if err != nil {
			return nil, err
		}
		node = next
	}

	if g.checkpointer != nil && threadID != "" {
		g.checkpointer.Save(threadID, state)
	}

	return state, nil
}

func (g *Graph) initialState(threadID string, history []llm.Message) *ConversationState {
	if len(history) == 0 && g.checkpointer != nil && threadID != "" {
		if saved, found := g.checkpointer.Load(threadID); found {
			return saved
		}
	}

	messages := make([]llm.Message, len(history))
	copy(messages, history)
	return &ConversationState{Messages: messages}
}

// step executes one node and returns the next one. The node set is closed;
// hitting the default arm means the graph wiring itself is broken.
func (g *Graph) step(ctx context.Context, node Node, question string, state *ConversationState) (Node, error) {
	switch node {
	case NodeRouter:
		route := g.policy.Route(question)
		state.Decision = route.Decision
		g.logger.Printf("[GRAPH] Decision: %s", route.Decision)

		if route.Decision == router.DecisionDataQuery {
			state.OriginalQuery = route.Query
			if g.reformulator != nil {
				return NodeReformulate, nil
			}
			return NodeDataQuery, nil
		}
		return NodeGeneralChat, nil

	case NodeGeneralChat:
		prior := state.Messages[:len(state.Messages)-1]
		result, err := g.generalChat.Execute(ctx, question, prior)
		if err != nil {
			g.logger.Printf("[GRAPH] General chat failed: %v", err)
			g.appendAnswer(state, fmt.Sprintf("Error: %v", err))
			return NodeEnd, nil
		}
		g.appendAnswer(state, result.Reply)
		return NodeEnd, nil

	case NodeReformulate:
		prior := state.Messages[:len(state.Messages)-1]
		result := g.reformulator.Reformulate(ctx, state.OriginalQuery, prior)
		state.OriginalQuery = result.OriginalQuery
		state.ReformulatedQuery = result.Query
		state.ContextWindow = result.ContextWindow
		return NodeDataQuery, nil

	case NodeDataQuery:
		effective := state.ReformulatedQuery
		if effective == "" {
			effective = state.OriginalQuery
		}
		answer := g.dataAgent.Ask(ctx, effective)
		g.appendAnswer(state, answer)
		return NodeEnd, nil

	default:
		return NodeEnd, fmt.Errorf("unknown graph node: %s", node)
	}
}

func (g *Graph) appendAnswer(state *ConversationState, answer string) {
	state.Messages = append(state.Messages, llm.Message{Role: "assistant", Content: answer})
}
