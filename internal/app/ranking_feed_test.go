package app

import (
	"testing"

	"edustop-service/internal/domain"
)

func TestRankingFeedDeliversToSubscribers(t *testing.T) {
	feed := NewRankingFeed()
	ch, cancel := feed.Subscribe()
	defer cancel()

	feed.Publish(domain.RewardEvent{UserID: "u1", Delta: 2, Ranking: 2})

	ev := <-ch
	if ev.UserID != "u1" || ev.Ranking != 2 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestRankingFeedDropsStaleEventsForSlowSubscribers(t *testing.T) {
	feed := NewRankingFeed()
	ch, cancel := feed.Subscribe()
	defer cancel()

	for i := 1; i <= 20; i++ {
		feed.Publish(domain.RewardEvent{UserID: "u1", Ranking: i})
	}

	var last domain.RewardEvent
	for len(ch) > 0 {
		last = <-ch
	}
	if last.Ranking != 20 {
		t.Fatalf("expected newest event to survive, got %+v", last)
	}
}

func TestRankingFeedCancelClosesChannel(t *testing.T) {
	feed := NewRankingFeed()
	ch, cancel := feed.Subscribe()
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
	if feed.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", feed.Subscribers())
	}
	feed.Publish(domain.RewardEvent{UserID: "u1"})
}
