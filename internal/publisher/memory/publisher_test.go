package memory

import (
	"context"
	"errors"
	"testing"
)

func TestPublisherStoresMessages(t *testing.T) {
	t.Parallel()

	pub := New()
	id1, err := pub.Publish(context.Background(), "audit-runs", map[string]string{"run_id": "a"})
	if err != nil || id1 != "memory-1" {
		t.Fatalf("unexpected publish result id=%s err=%v", id1, err)
	}
	id2, err := pub.Publish(context.Background(), "audit-alerts", "payload")
	if err != nil || id2 != "memory-2" {
		t.Fatalf("unexpected publish result id=%s err=%v", id2, err)
	}

	msgs := pub.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Topic != "audit-runs" || msgs[1].Topic != "audit-alerts" {
		t.Fatalf("topics not recorded correctly: %+v", msgs)
	}

	msgs[0].Topic = "modified"
	if pub.Messages()[0].Topic == "modified" {
		t.Fatal("expected Messages() to return a copy")
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestPublisherErr(t *testing.T) {
	t.Parallel()

	pub := New()
	pub.Err = errors.New("unavailable")
	if _, err := pub.Publish(context.Background(), "audit-runs", "x"); err == nil {
		t.Fatal("expected publish error")
	}
	if len(pub.Messages()) != 0 {
		t.Fatal("failed publishes must not be recorded")
	}
}
