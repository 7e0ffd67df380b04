package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"ai-datachat-be/pkg/dataset"
	"ai-datachat-be/pkg/llm"
	"ai-datachat-be/pkg/query"
)

type providerStub struct {
	reply        string
	err          error
	calls        int
	lastMessages []llm.Message
	lastPrompt   string
}

func (s *providerStub) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (string, error) {
	s.calls++
	s.lastMessages = messages
	return s.reply, s.err
}

func (s *providerStub) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	return s.reply, s.err
}

var _ llm.LLMProvider = &providerStub{}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestGeneralChatMessageOrder(t *testing.T) {
	provider := &providerStub{reply: "Hi there!"}
	chat := NewGeneralChatPipeline(provider, discardLogger())

	history := []llm.Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
	}
	result, err := chat.Execute(context.Background(), "how are you?", history)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.Reply != "Hi there!" {
		t.Errorf("Reply = %q", result.Reply)
	}

	msgs := provider.lastMessages
	if len(msgs) != 4 {
		t.Fatalf("sent %d messages, want 4", len(msgs))
	}
	if msgs[0].Role != "system" || !strings.Contains(msgs[0].Content, "helpful assistant") {
		t.Errorf("first message is not the persona: %+v", msgs[0])
	}
	if msgs[1].Content != "hello" || msgs[2].Content != "hi" {
		t.Errorf("history not preserved in order: %+v", msgs[1:3])
	}
	if msgs[3].Role != "user" || msgs[3].Content != "how are you?" {
		t.Errorf("last message is not the question: %+v", msgs[3])
	}
}

func TestGeneralChatPropagatesError(t *testing.T) {
	wantErr := errors.New("model offline")
	chat := NewGeneralChatPipeline(&providerStub{err: wantErr}, discardLogger())

	if _, err := chat.Execute(context.Background(), "hi", nil); !errors.Is(err, wantErr) {
		t.Fatalf("Execute error = %v, want %v", err, wantErr)
	}
}

func TestReformulateEmptyHistorySkipsModel(t *testing.T) {
	provider := &providerStub{reply: "should not be used"}
	ref := NewReformulator(provider, 5, discardLogger())

	result := ref.Reformulate(context.Background(), "how many rows?", nil)
	if result.Query != "how many rows?" {
		t.Errorf("Query = %q, want original", result.Query)
	}
	if result.OriginalQuery != "how many rows?" {
		t.Errorf("OriginalQuery = %q", result.OriginalQuery)
	}
	if result.ContextWindow != 0 {
		t.Errorf("ContextWindow = %d, want 0", result.ContextWindow)
	}
	if provider.calls != 0 {
		t.Errorf("model called %d times for empty history", provider.calls)
	}
}

func TestReformulateWindowBound(t *testing.T) {
	provider := &providerStub{reply: "rewritten question"}
	ref := NewReformulator(provider, 3, discardLogger())

	history := []llm.Message{
		{Role: "user", Content: "oldest turn"},
		{Role: "assistant", Content: "answer one"},
		{Role: "user", Content: "middle turn"},
		{Role: "assistant", Content: "answer two"},
		{Role: "user", Content: "newest turn"},
	}
	result := ref.Reformulate(context.Background(), "and the same for cholera?", history)

	if result.ContextWindow != 3 {
		t.Errorf("ContextWindow = %d, want 3", result.ContextWindow)
	}
	if result.Query != "rewritten question" {
		t.Errorf("Query = %q", result.Query)
	}
	if strings.Contains(provider.lastPrompt, "oldest turn") {
		t.Error("prompt contains history beyond the window")
	}
	if !strings.Contains(provider.lastPrompt, "newest turn") {
		t.Error("prompt missing the most recent history")
	}
	if len(history) != 5 || history[0].Content != "oldest turn" || history[4].Content != "newest turn" {
		t.Error("Reformulate mutated the caller's history")
	}
}

func TestReformulateFallsBackOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		provider *providerStub
	}{
		{name: "model error", provider: &providerStub{err: errors.New("timeout")}},
		{name: "empty reply", provider: &providerStub{reply: "   "}},
	}

	history := []llm.Message{{Role: "user", Content: "context"}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := NewReformulator(tt.provider, 5, discardLogger())
			result := ref.Reformulate(context.Background(), "original question", history)
			if result.Query != "original question" {
				t.Errorf("Query = %q, want fallback to original", result.Query)
			}
			if result.ContextWindow != 1 {
				t.Errorf("ContextWindow = %d, want 1", result.ContextWindow)
			}
		})
	}
}

type translatorStub struct {
	statement string
	err       error
}

func (s *translatorStub) Translate(ctx context.Context, question string) (string, error) {
	return s.statement, s.err
}

func newTestExecutor(t *testing.T) *query.Executor {
	t.Helper()
	ds, err := dataset.FromRecords(
		[]string{"Pathogen"},
		[][]string{{"A"}, {"B"}, {"A"}},
	)
	if err != nil {
		t.Fatalf("build dataset: %v", err)
	}
	return query.NewExecutor(ds, 5*time.Second, discardLogger())
}

func TestDataQueryDistinctPathogens(t *testing.T) {
	agent := NewDataQueryPipeline(
		&translatorStub{statement: "SELECT COUNT(DISTINCT Pathogen) FROM df"},
		newTestExecutor(t),
		discardLogger(),
	)

	if got := agent.Ask(context.Background(), "how many distinct pathogens?"); got != "2" {
		t.Errorf("Ask = %q, want %q", got, "2")
	}
}

func TestDataQueryTranslationFailureIsAnswer(t *testing.T) {
	agent := NewDataQueryPipeline(
		&translatorStub{err: errors.New("model returned nothing")},
		newTestExecutor(t),
		discardLogger(),
	)

	got := agent.Ask(context.Background(), "anything")
	if !strings.HasPrefix(got, "Error:") {
		t.Errorf("Ask = %q, want Error prefix", got)
	}
}

func TestDataQueryProseFromModelIsAnswer(t *testing.T) {
	agent := NewDataQueryPipeline(
		&translatorStub{statement: "The answer is probably 2."},
		newTestExecutor(t),
		discardLogger(),
	)

	got := agent.Ask(context.Background(), "anything")
	if !strings.HasPrefix(got, "Error:") {
		t.Errorf("Ask = %q, want Error prefix for non-SQL output", got)
	}
}
