package app

import (
	"testing"

	"quiz-session-service/internal/domain"
)

func TestProgressHubDropsStaleUpdates(t *testing.T) {
	hub := NewProgressHub()
	ch, cancel := hub.Subscribe("s1", domain.SessionProgress{SessionID: "s1", Event: domain.EventSnapshot})

	// Overflow the buffer without reading; the newest update must survive.
	for i := 1; i <= 20; i++ {
		hub.Publish(domain.SessionProgress{SessionID: "s1", Event: domain.EventAnswered, AnsweredCount: i})
	}
	hub.Publish(domain.SessionProgress{SessionID: "other", AnsweredCount: 99})

	var last domain.SessionProgress
	for len(ch) > 0 {
		last = <-ch
	}
	if last.AnsweredCount != 20 {
		t.Fatalf("expected latest update to be kept, got %d", last.AnsweredCount)
	}

	if hub.Subscribers("s1") != 1 {
		t.Fatalf("expected one subscriber")
	}
	cancel()
	cancel()
	if hub.Subscribers("s1") != 0 {
		t.Fatalf("expected subscriber removed")
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}
}
