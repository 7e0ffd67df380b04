package graph

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"ai-datachat-be/pkg/ai/pipeline"
	"ai-datachat-be/pkg/ai/router"
	"ai-datachat-be/pkg/dataset"
	"ai-datachat-be/pkg/llm"
	"ai-datachat-be/pkg/query"
)

// providerStub answers Chat and Generate with fixed replies so the path a
// message took is observable from the answer alone. Call counters let tests
// check that one Invoke visits each node at most once.
type providerStub struct {
	chatReply string
	chatErr   error
	genReply  string
	genErr    error
	chatCalls int
	genCalls  int
}

func (s *providerStub) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (string, error) {
	s.chatCalls++
	return s.chatReply, s.chatErr
}

func (s *providerStub) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	s.genCalls++
	return s.genReply, s.genErr
}

var _ llm.LLMProvider = &providerStub{}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestGraph(t *testing.T, policy router.Policy, provider llm.LLMProvider, cp Checkpointer) *Graph {
	t.Helper()

	ds, err := dataset.FromRecords(
		[]string{"Pathogen"},
		[][]string{{"A"}, {"B"}, {"A"}},
	)
	if err != nil {
		t.Fatalf("build dataset: %v", err)
	}

	logger := discardLogger()
	translator := query.NewSQLTranslator(provider, ds.Describe(), logger)
	executor := query.NewExecutor(ds, 5*time.Second, logger)

	return NewGraph(
		policy,
		pipeline.NewGeneralChatPipeline(provider, logger),
		pipeline.NewReformulator(provider, 5, logger),
		pipeline.NewDataQueryPipeline(translator, executor, logger),
		cp,
		logger,
	)
}

func prefixPolicy(t *testing.T) router.Policy {
	t.Helper()
	policy, err := router.NewPolicy(router.PolicyPrefix)
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	return policy
}

func TestInvokeGeneralChatPath(t *testing.T) {
	provider := &providerStub{chatReply: "chat path reply", genReply: "SELECT 1"}
	g := newTestGraph(t, prefixPolicy(t), provider, nil)

	state, err := g.Invoke(context.Background(), "t1", "hello there", nil)
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if state.Decision != router.DecisionGeneralChat {
		t.Errorf("Decision = %s, want %s", state.Decision, router.DecisionGeneralChat)
	}
	if state.Answer() != "chat path reply" {
		t.Errorf("Answer = %q, want chat reply", state.Answer())
	}
	if len(state.Messages) != 2 {
		t.Errorf("Messages = %d, want user turn plus answer", len(state.Messages))
	}
	if provider.chatCalls != 1 || provider.genCalls != 0 {
		t.Errorf("calls = %d chat / %d generate, want exactly one chat call", provider.chatCalls, provider.genCalls)
	}
}

func TestInvokeDataQueryPath(t *testing.T) {
	provider := &providerStub{
		chatReply: "should not be used",
		genReply:  "SELECT COUNT(DISTINCT Pathogen) FROM df",
	}
	g := newTestGraph(t, prefixPolicy(t), provider, nil)

	state, err := g.Invoke(context.Background(), "t1", "csv: how many distinct pathogens?", nil)
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if state.Decision != router.DecisionDataQuery {
		t.Errorf("Decision = %s, want %s", state.Decision, router.DecisionDataQuery)
	}
	if state.Answer() != "2" {
		t.Errorf("Answer = %q, want %q", state.Answer(), "2")
	}
	if state.OriginalQuery != "how many distinct pathogens?" {
		t.Errorf("OriginalQuery = %q, marker should be stripped", state.OriginalQuery)
	}
	if state.ContextWindow != 0 {
		t.Errorf("ContextWindow = %d, want 0 for empty history", state.ContextWindow)
	}
	// Empty history skips reformulation, so the only Generate call is the
	// translation itself, and general chat is never consulted.
	if provider.chatCalls != 0 || provider.genCalls != 1 {
		t.Errorf("calls = %d chat / %d generate, want exactly one generate call", provider.chatCalls, provider.genCalls)
	}
}

func TestInvokeReformulationWindow(t *testing.T) {
	// The stub returns the same text for every Generate call, so the
	// reformulated query flows into translation and still executes.
	provider := &providerStub{genReply: "SELECT COUNT(*) FROM df"}
	g := newTestGraph(t, prefixPolicy(t), provider, nil)

	history := []llm.Message{
		{Role: "user", Content: "show me the data"},
		{Role: "assistant", Content: "here it is"},
	}
	state, err := g.Invoke(context.Background(), "t1", "csv: and for cholera?", history)
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if state.ContextWindow != 2 {
		t.Errorf("ContextWindow = %d, want 2", state.ContextWindow)
	}
	if state.ReformulatedQuery != "SELECT COUNT(*) FROM df" {
		t.Errorf("ReformulatedQuery = %q", state.ReformulatedQuery)
	}
	if state.OriginalQuery != "and for cholera?" {
		t.Errorf("OriginalQuery = %q", state.OriginalQuery)
	}
	if state.Answer() != "3" {
		t.Errorf("Answer = %q, want %q", state.Answer(), "3")
	}
	// One reformulation plus one translation, each visited once.
	if provider.genCalls != 2 {
		t.Errorf("genCalls = %d, want 2", provider.genCalls)
	}
}

func TestInvokeFoldsChatFailureIntoAnswer(t *testing.T) {
	provider := &providerStub{chatErr: errors.New("model offline")}
	g := newTestGraph(t, prefixPolicy(t), provider, nil)

	state, err := g.Invoke(context.Background(), "t1", "hello", nil)
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if !strings.HasPrefix(state.Answer(), "Error:") {
		t.Errorf("Answer = %q, want folded error text", state.Answer())
	}
}

func TestInvokeCheckpointMemory(t *testing.T) {
	provider := &providerStub{chatReply: "reply"}
	cp := NewMemoryCheckpointer(time.Minute)
	g := newTestGraph(t, prefixPolicy(t), provider, cp)

	if _, err := g.Invoke(context.Background(), "thread-a", "first turn", nil); err != nil {
		t.Fatalf("first Invoke: %v", err)
	}
	state, err := g.Invoke(context.Background(), "thread-a", "second turn", nil)
	if err != nil {
		t.Fatalf("second Invoke: %v", err)
	}
	if len(state.Messages) != 4 {
		t.Errorf("Messages = %d, want both turns restored from checkpoint", len(state.Messages))
	}

	// Other threads start fresh.
	other, err := g.Invoke(context.Background(), "thread-b", "hello", nil)
	if err != nil {
		t.Fatalf("other Invoke: %v", err)
	}
	if len(other.Messages) != 2 {
		t.Errorf("Messages = %d, want a fresh thread", len(other.Messages))
	}
}

func TestCheckpointerIsolation(t *testing.T) {
	cp := NewMemoryCheckpointer(time.Minute)
	state := &ConversationState{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	}
	cp.Save("t", state)

	// Mutating the saved-from or loaded state must not leak into the store.
	state.Messages[0].Content = "changed"
	loaded, found := cp.Load("t")
	if !found {
		t.Fatal("checkpoint not found")
	}
	if loaded.Messages[0].Content != "hi" {
		t.Errorf("checkpoint shares memory with caller: %q", loaded.Messages[0].Content)
	}

	loaded.Messages[0].Content = "changed again"
	reloaded, _ := cp.Load("t")
	if reloaded.Messages[0].Content != "hi" {
		t.Errorf("checkpoint shares memory with loader: %q", reloaded.Messages[0].Content)
	}

	cp.Clear("t")
	if _, found := cp.Load("t"); found {
		t.Error("checkpoint survived Clear")
	}
}
