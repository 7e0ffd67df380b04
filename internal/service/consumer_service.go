// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ai-datachat-be/internal/dto"
	"ai-datachat-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	auditPath   string
	auditLogger logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	auditPath string,
	auditLogger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		auditPath:   auditPath,
		auditLogger: auditLogger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload dto.PublishQARecordMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		cs.auditLogger.Error("AUDIT", "Failed to unmarshal audit message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.auditLogger.Info("AUDIT", "Recording answered data question", map[string]interface{}{
		"session_id": payload.SessionId,
		"elapsed_ms": payload.ElapsedMs,
	})

	if err := cs.appendRecord(&payload); err != nil {
		cs.auditLogger.Error("AUDIT", "Failed to append audit record", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Nack() // Nack for retriable errors
		return
	}

	msg.Ack()
}

func (cs *consumerService) appendRecord(payload *dto.PublishQARecordMessage) error {
	if dir := filepath.Dir(cs.auditPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(cs.auditPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}
	if fi.Size() == 0 {
		if _, err := f.WriteString("timestamp\tsession_id\tquestion\tanswer\telapsed_ms\n"); err != nil {
			return err
		}
	}

	line := fmt.Sprintf("%s\t%s\t%s\t%s\t%d\n",
		time.Now().Format(time.RFC3339),
		tsvField(payload.SessionId),
		tsvField(payload.Question),
		tsvField(payload.Answer),
		payload.ElapsedMs,
	)
	_, err = f.WriteString(line)
	return err
}

// tsvField flattens tabs and newlines so one record stays one line.
func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
