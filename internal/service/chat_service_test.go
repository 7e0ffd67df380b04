package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"ai-datachat-be/internal/constant"
	"ai-datachat-be/internal/dto"
	"ai-datachat-be/internal/repository/memory"
	"ai-datachat-be/pkg/ai/router"
	"ai-datachat-be/pkg/dataset"
	"ai-datachat-be/pkg/llm"
)

type providerStub struct {
	chatReply string
	chatErr   error
	genReply  string
	genErr    error
}

func (p *providerStub) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if p.chatErr != nil {
		return "", p.chatErr
	}
	return p.chatReply, nil
}

func (p *providerStub) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	if p.genErr != nil {
		return "", p.genErr
	}
	return p.genReply, nil
}

type publisherStub struct {
	published [][]byte
}

func (ps *publisherStub) Publish(ctx context.Context, payload []byte) error {
	ps.published = append(ps.published, payload)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func newTestService(t *testing.T, provider llm.LLMProvider) (IChatService, *memory.SessionRepository, *publisherStub) {
	t.Helper()

	ds, err := dataset.FromRecords(
		[]string{"Pathogen", "Cases"},
		[][]string{
			{"Campylobacter", "12"},
			{"Rotavirus", "7"},
			{"Campylobacter", "3"},
		},
	)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}

	repo := memory.NewSessionRepository(5)
	publisher := &publisherStub{}
	svc := NewChatService(
		repo,
		provider,
		ds,
		router.NewPrefixPolicy(router.DefaultPrefix),
		publisher,
		nil,
		nopLogger{},
		5*time.Second,
		5*time.Second,
		5,
		5,
	)
	return svc, repo, publisher
}

func TestSendMessageGeneralChat(t *testing.T) {
	provider := &providerStub{chatReply: "Hi! How can I help?"}
	svc, _, publisher := newTestService(t, provider)

	resp, err := svc.SendMessage(context.Background(), "alpha", &dto.SendMessageRequest{Message: "Hello there"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.Type != "bot" {
		t.Errorf("response type = %q, want %q", resp.Type, "bot")
	}
	if resp.Content != "Hi! How can I help?" {
		t.Errorf("response content = %q", resp.Content)
	}
	if len(publisher.published) != 0 {
		t.Errorf("general chat queued %d audit records, want 0", len(publisher.published))
	}

	records, err := svc.GetMessages(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("timeline length = %d, want 3 (welcome, user, bot)", len(records))
	}
	if records[0].Content != constant.WelcomeMessage || records[0].Type != "bot" {
		t.Errorf("first record = %+v, want welcome greeting", records[0])
	}
	if records[1].Type != "user" || records[1].Content != "Hello there" {
		t.Errorf("second record = %+v, want the user message", records[1])
	}
	if records[2].Id != resp.Id {
		t.Errorf("third record id = %q, want %q", records[2].Id, resp.Id)
	}
}

func TestSendMessageDataQueryPublishesAudit(t *testing.T) {
	provider := &providerStub{genReply: "SELECT COUNT(DISTINCT Pathogen) FROM df"}
	svc, _, publisher := newTestService(t, provider)

	resp, err := svc.SendMessage(context.Background(), "beta", &dto.SendMessageRequest{Message: "csv: how many distinct pathogens?"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.Content != "2" {
		t.Errorf("answer = %q, want %q", resp.Content, "2")
	}

	if len(publisher.published) != 1 {
		t.Fatalf("audit records queued = %d, want 1", len(publisher.published))
	}
	var record dto.PublishQARecordMessage
	if err := json.Unmarshal(publisher.published[0], &record); err != nil {
		t.Fatalf("unmarshal audit record: %v", err)
	}
	if record.SessionId != "beta" {
		t.Errorf("audit session = %q, want %q", record.SessionId, "beta")
	}
	if record.Question != "csv: how many distinct pathogens?" {
		t.Errorf("audit question = %q", record.Question)
	}
	if record.Answer != "2" {
		t.Errorf("audit answer = %q, want %q", record.Answer, "2")
	}
}

func TestSendMessageModelFailureIsAnswer(t *testing.T) {
	provider := &providerStub{chatErr: context.DeadlineExceeded}
	svc, _, _ := newTestService(t, provider)

	resp, err := svc.SendMessage(context.Background(), "gamma", &dto.SendMessageRequest{Message: "Hello"})
	if err != nil {
		t.Fatalf("SendMessage returned error for model failure: %v", err)
	}
	if !strings.HasPrefix(resp.Content, "Error:") {
		t.Errorf("answer = %q, want Error: prefix", resp.Content)
	}
}

func TestGetMessagesCreatesSessionWithWelcome(t *testing.T) {
	provider := &providerStub{}
	svc, repo, _ := newTestService(t, provider)

	records, err := svc.GetMessages(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("timeline length = %d, want 1", len(records))
	}
	if records[0].Content != constant.WelcomeMessage {
		t.Errorf("content = %q, want welcome greeting", records[0].Content)
	}
	if repo.Count() != 1 {
		t.Errorf("session count = %d, want 1", repo.Count())
	}
}

func TestDeleteSessionLifecycle(t *testing.T) {
	provider := &providerStub{chatReply: "sure"}
	svc, repo, _ := newTestService(t, provider)
	ctx := context.Background()

	if _, err := svc.SendMessage(ctx, "doomed", &dto.SendMessageRequest{Message: "hi"}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if err := svc.DeleteSession(ctx, "doomed"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, ok := repo.Get("doomed"); ok {
		t.Error("session still present after delete")
	}

	err := svc.DeleteSession(ctx, "doomed")
	if err == nil || err.Error() != constant.ErrSessionNotFound {
		t.Errorf("second delete error = %v, want %q", err, constant.ErrSessionNotFound)
	}

	// Re-access recreates the session from scratch
	records, err := svc.GetMessages(ctx, "doomed")
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("recreated timeline length = %d, want 1", len(records))
	}
}

func TestListSessions(t *testing.T) {
	provider := &providerStub{chatReply: "ok"}
	svc, _, _ := newTestService(t, provider)
	ctx := context.Background()

	for _, id := range []string{"c-session", "a-session", "b-session"} {
		if _, err := svc.SendMessage(ctx, id, &dto.SendMessageRequest{Message: "hi"}); err != nil {
			t.Fatalf("SendMessage(%s): %v", id, err)
		}
	}

	list, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if list.ActiveSessions != 3 {
		t.Errorf("active sessions = %d, want 3", list.ActiveSessions)
	}
	want := []string{"a-session", "b-session", "c-session"}
	for i, id := range want {
		if list.Sessions[i] != id {
			t.Fatalf("sessions = %v, want %v", list.Sessions, want)
		}
	}
}

func TestHistoryKeepsLastFiveRounds(t *testing.T) {
	provider := &providerStub{chatReply: "noted"}
	svc, repo, _ := newTestService(t, provider)
	ctx := context.Background()

	questions := []string{"one", "two", "three", "four", "five", "six", "seven"}
	for _, q := range questions {
		if _, err := svc.SendMessage(ctx, "bounded", &dto.SendMessageRequest{Message: q}); err != nil {
			t.Fatalf("SendMessage(%s): %v", q, err)
		}
	}

	session, ok := repo.Get("bounded")
	if !ok {
		t.Fatal("session missing")
	}
	if session.History.Len() != 5 {
		t.Errorf("history rounds = %d, want 5", session.History.Len())
	}
	rounds := session.History.Rounds()
	if rounds[0].Question != "three" {
		t.Errorf("oldest retained question = %q, want %q", rounds[0].Question, "three")
	}
	if rounds[4].Question != "seven" {
		t.Errorf("newest retained question = %q, want %q", rounds[4].Question, "seven")
	}

	// The full timeline is unbounded: welcome + 7 exchanges
	if session.Len() != 15 {
		t.Errorf("timeline length = %d, want 15", session.Len())
	}
}

func TestHealth(t *testing.T) {
	provider := &providerStub{}
	svc, _, _ := newTestService(t, provider)

	health := svc.Health(context.Background())
	if health.Status != constant.HealthStatusOK {
		t.Errorf("status = %q, want %q", health.Status, constant.HealthStatusOK)
	}
	if health.Message != constant.HealthMessage {
		t.Errorf("message = %q, want %q", health.Message, constant.HealthMessage)
	}
}
