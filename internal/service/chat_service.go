package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"ai-datachat-be/internal/constant"
	"ai-datachat-be/internal/dto"
	"ai-datachat-be/internal/pkg/logger"
	"ai-datachat-be/pkg/ai/graph"
	"ai-datachat-be/pkg/ai/pipeline"
	"ai-datachat-be/pkg/ai/router"
	"ai-datachat-be/pkg/dataset"
	"ai-datachat-be/pkg/events"
	"ai-datachat-be/pkg/llm"
	pktNats "ai-datachat-be/pkg/nats"
	"ai-datachat-be/pkg/query"
	"ai-datachat-be/pkg/store"

	"github.com/google/uuid"
)

// IChatService defines the conversational service interface
type IChatService interface {
	SendMessage(ctx context.Context, sessionId string, request *dto.SendMessageRequest) (*dto.MessageResponse, error)
	GetMessages(ctx context.Context, sessionId string) ([]*dto.MessageResponse, error)
	DeleteSession(ctx context.Context, sessionId string) error
	ListSessions(ctx context.Context) (*dto.SessionListResponse, error)
	Health(ctx context.Context) *dto.HealthResponse
}

// chatService coordinates the conversation graph and session bookkeeping
type chatService struct {
	sessionStore     store.SessionStore
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	sysLogger        logger.ILogger
	llmTimeout       time.Duration
	historyWindow    int
	chatLogger       *log.Logger

	// Domain components
	conversationGraph *graph.Graph
}

// NewChatService creates the chat service with all domain components
func NewChatService(
	sessionStore store.SessionStore,
	llmProvider llm.LLMProvider,
	ds *dataset.Dataset,
	policy router.Policy,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	sysLogger logger.ILogger,
	llmTimeout time.Duration,
	queryTimeout time.Duration,
	historyWindow int,
	reformulationWindow int,
) IChatService {

	chatLogger := initChatLogger()

	translator := query.NewSQLTranslator(llmProvider, ds.Describe(), chatLogger)
	executor := query.NewExecutor(ds, queryTimeout, chatLogger)
	dataAgent := pipeline.NewDataQueryPipeline(translator, executor, chatLogger)
	generalChat := pipeline.NewGeneralChatPipeline(llmProvider, chatLogger)
	reformulator := pipeline.NewReformulator(llmProvider, reformulationWindow, chatLogger)

	// History comes from the session store on every call; a graph checkpoint
	// here would resurrect cleared sessions.
	conversationGraph := graph.NewGraph(policy, generalChat, reformulator, dataAgent, nil, chatLogger)

	return &chatService{
		sessionStore:      sessionStore,
		publisherService:  publisherService,
		eventPublisher:    eventPublisher,
		sysLogger:         sysLogger,
		llmTimeout:        llmTimeout,
		historyWindow:     historyWindow,
		chatLogger:        chatLogger,
		conversationGraph: conversationGraph,
	}
}

func initChatLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_chat.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-CHAT] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

// SendMessage processes a user message and returns the bot's reply record.
// Model and query failures come back as answer text, never as an error.
func (cs *chatService) SendMessage(ctx context.Context, sessionId string, request *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	session, created := cs.sessionStore.GetOrCreate(sessionId)
	if created {
		cs.seedWelcome(session)
	}

	now := time.Now()
	if request.Timestamp != nil {
		now = *request.Timestamp
	}
	session.Append(store.MessageRecord{
		ID:        uuid.NewString(),
		Type:      store.MessageTypeUser,
		Content:   request.Message,
		Timestamp: now,
	})

	callCtx, cancel := context.WithTimeout(ctx, cs.llmTimeout)
	defer cancel()

	started := time.Now()
	state, err := cs.conversationGraph.Invoke(callCtx, sessionId, request.Message, session.History.LastMessages(cs.historyWindow))
	elapsed := time.Since(started)

	var answer string
	decision := ""
	if err != nil {
		cs.chatLogger.Printf("[CHAT] Graph invocation failed for session %s: %v", sessionId, err)
		answer = fmt.Sprintf("Error: %v", err)
	} else {
		answer = state.Answer()
		decision = string(state.Decision)
	}

	botRecord := store.MessageRecord{
		ID:        uuid.NewString(),
		Type:      store.MessageTypeBot,
		Content:   answer,
		Timestamp: time.Now(),
	}
	session.Append(botRecord)
	session.History.Append(request.Message, answer)
	cs.sessionStore.Save(session)

	cs.sysLogger.Info("CHAT", "Message answered", map[string]interface{}{
		"session_id": sessionId,
		"decision":   decision,
		"elapsed_ms": elapsed.Milliseconds(),
	})

	// Publish Event for Notification System
	if cs.eventPublisher != nil {
		evt := events.NewMessagePosted(sessionId, botRecord.ID, botRecord.Type)
		// We log error but don't fail the request as notification is auxiliary
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish MESSAGE_POSTED event: %v\n", err)
		}
	}

	if state != nil && state.Decision == router.DecisionDataQuery {
		cs.recordDataAnswer(ctx, sessionId, request.Message, answer, elapsed)
	}

	return &dto.MessageResponse{
		Id:        botRecord.ID,
		Type:      botRecord.Type,
		Content:   botRecord.Content,
		Timestamp: botRecord.Timestamp,
	}, nil
}

// GetMessages returns the session timeline, creating the session with its
// welcome greeting on first access.
func (cs *chatService) GetMessages(ctx context.Context, sessionId string) ([]*dto.MessageResponse, error) {
	session, created := cs.sessionStore.GetOrCreate(sessionId)
	if created {
		cs.seedWelcome(session)
	}

	records := session.Snapshot()
	response := make([]*dto.MessageResponse, 0, len(records))
	for _, r := range records {
		response = append(response, &dto.MessageResponse{
			Id:        r.ID,
			Type:      r.Type,
			Content:   r.Content,
			Timestamp: r.Timestamp,
		})
	}
	return response, nil
}

// DeleteSession drops the session and all its records
func (cs *chatService) DeleteSession(ctx context.Context, sessionId string) error {
	if !cs.sessionStore.Delete(sessionId) {
		return errors.New(constant.ErrSessionNotFound)
	}

	cs.sysLogger.Info("CHAT", "Session deleted", map[string]interface{}{
		"session_id": sessionId,
	})

	if cs.eventPublisher != nil {
		evt := events.NewSessionDeleted(sessionId)
		// We log error but don't fail the request as notification is auxiliary
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish SESSION_DELETED event: %v\n", err)
		}
	}
	return nil
}

// ListSessions reports the ids of all live sessions
func (cs *chatService) ListSessions(ctx context.Context) (*dto.SessionListResponse, error) {
	ids := cs.sessionStore.List()
	sort.Strings(ids)
	return &dto.SessionListResponse{
		ActiveSessions: len(ids),
		Sessions:       ids,
	}, nil
}

// Health reports service liveness
func (cs *chatService) Health(ctx context.Context) *dto.HealthResponse {
	return &dto.HealthResponse{
		Status:  constant.HealthStatusOK,
		Message: constant.HealthMessage,
	}
}

// seedWelcome posts the greeting as the first bot record of a new session
func (cs *chatService) seedWelcome(session *store.Session) {
	session.Append(store.MessageRecord{
		ID:        uuid.NewString(),
		Type:      store.MessageTypeBot,
		Content:   constant.WelcomeMessage,
		Timestamp: time.Now(),
	})

	cs.sysLogger.Info("CHAT", "Session created", map[string]interface{}{
		"session_id": session.ID,
	})
}

// recordDataAnswer queues the answered data question for the audit trail and
// fans it out as an event.
func (cs *chatService) recordDataAnswer(ctx context.Context, sessionId, question, answer string, elapsed time.Duration) {
	payload := dto.PublishQARecordMessage{
		SessionId: sessionId,
		Question:  question,
		Answer:    answer,
		ElapsedMs: elapsed.Milliseconds(),
	}
	msgJson, err := json.Marshal(payload)
	if err != nil {
		cs.chatLogger.Printf("[CHAT] Failed to marshal audit record: %v", err)
		return
	}
	// The audit trail is observability, not part of answering, so a failed
	// publish is logged instead of failing the request.
	if err := cs.publisherService.Publish(ctx, msgJson); err != nil {
		cs.chatLogger.Printf("[CHAT] Failed to queue audit record: %v", err)
	}

	if cs.eventPublisher != nil {
		evt := events.NewDataQuestionAnswered(sessionId, question, answer, elapsed)
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish DATA_QUESTION_ANSWERED event: %v\n", err)
		}
	}
}
