// FILE: internal/service/consumer_service_test.go
package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ai-datachat-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// waitForLines polls the audit file until it holds at least want lines.
// The consumer appends from its own goroutine, so the test has to wait.
func waitForLines(t *testing.T, path string, want int) []string {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil {
			lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
			if len(lines) >= want {
				return lines
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("audit file %s did not reach %d lines in time", path, want)
	return nil
}

func publishRecord(t *testing.T, publisher IPublisherService, record dto.PublishQARecordMessage) {
	t.Helper()

	payload, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	if err := publisher.Publish(context.Background(), payload); err != nil {
		t.Fatalf("publish record: %v", err)
	}
}

func TestConsumerAppendsAuditRecords(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	auditPath := filepath.Join(t.TempDir(), "audit", "qa_audit.tsv")

	consumer := NewConsumerService(pubSub, "qa.audit.test", auditPath, nopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := consumer.Consume(ctx); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	publisher := NewPublisherService("qa.audit.test", pubSub)
	publishRecord(t, publisher, dto.PublishQARecordMessage{
		SessionId: "s1",
		Question:  "how many rows",
		Answer:    "107",
		ElapsedMs: 42,
	})
	publishRecord(t, publisher, dto.PublishQARecordMessage{
		SessionId: "s2",
		Question:  "tab\there",
		Answer:    "line\nbreak",
		ElapsedMs: 7,
	})

	lines := waitForLines(t, auditPath, 3)

	if lines[0] != "timestamp\tsession_id\tquestion\tanswer\telapsed_ms" {
		t.Errorf("header = %q", lines[0])
	}

	first := strings.Split(lines[1], "\t")
	if len(first) != 5 {
		t.Fatalf("record fields = %d, want 5: %q", len(first), lines[1])
	}
	if _, err := time.Parse(time.RFC3339, first[0]); err != nil {
		t.Errorf("timestamp %q not RFC3339: %v", first[0], err)
	}
	if first[1] != "s1" || first[2] != "how many rows" || first[3] != "107" || first[4] != "42" {
		t.Errorf("record = %q", lines[1])
	}

	// Tabs and newlines inside fields must not break the one-line-per-record shape.
	second := strings.Split(lines[2], "\t")
	if len(second) != 5 {
		t.Fatalf("record fields = %d, want 5: %q", len(second), lines[2])
	}
	if second[2] != "tab here" || second[3] != "line break" {
		t.Errorf("flattened record = %q", lines[2])
	}
}

func TestConsumerSkipsMalformedPayload(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	auditPath := filepath.Join(t.TempDir(), "qa_audit.tsv")

	consumer := NewConsumerService(pubSub, "qa.audit.test", auditPath, nopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := consumer.Consume(ctx); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	publisher := NewPublisherService("qa.audit.test", pubSub)
	if err := publisher.Publish(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("publish garbage: %v", err)
	}
	publishRecord(t, publisher, dto.PublishQARecordMessage{
		SessionId: "s1",
		Question:  "still working?",
		Answer:    "yes",
		ElapsedMs: 1,
	})

	// The malformed payload is acked without a record, so the valid one
	// lands directly after the header.
	lines := waitForLines(t, auditPath, 2)
	if !strings.Contains(lines[1], "s1\tstill working?\tyes\t1") {
		t.Errorf("record = %q, want the valid payload only", lines[1])
	}
}
