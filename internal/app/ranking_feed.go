package app

import (
	"sync"

	"edustop-service/internal/domain"
)

// RankingFeed fans reward events out to in-process subscribers.
type RankingFeed struct {
	mu          sync.Mutex
	subscribers map[chan domain.RewardEvent]struct{}
}

func NewRankingFeed() *RankingFeed {
	return &RankingFeed{subscribers: make(map[chan domain.RewardEvent]struct{})}
}

// Subscribe returns a channel of reward events.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *RankingFeed) Subscribe() (<-chan domain.RewardEvent, func()) {
	ch := make(chan domain.RewardEvent, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber without blocking. A subscriber
// whose buffer is full loses its oldest pending event.
func (f *RankingFeed) Publish(ev domain.RewardEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (f *RankingFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}
