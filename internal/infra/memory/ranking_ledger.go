package memory

import (
	"context"
	"sort"
	"sync"

	"edustop-service/internal/domain"
)

// RankingLedger is an in-memory implementation of app.RankingLedger.
type RankingLedger struct {
	mu    sync.Mutex
	users map[string]*rankedUser
}

type rankedUser struct {
	username string
	ranking  int
}

func NewRankingLedger() *RankingLedger {
	return &RankingLedger{users: make(map[string]*rankedUser)}
}

// AddUser registers a user with a starting score.
func (l *RankingLedger) AddUser(userID, username string, ranking int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users[userID] = &rankedUser{username: username, ranking: ranking}
}

func (l *RankingLedger) IncrementRanking(_ context.Context, userID string, delta int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	u, ok := l.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	u.ranking += delta
	return u.ranking, nil
}

func (l *RankingLedger) Ranking(_ context.Context, offset, limit int) ([]domain.RankingEntry, error) {
	l.mu.Lock()
	entries := make([]domain.RankingEntry, 0, len(l.users))
	for id, u := range l.users {
		entries = append(entries, domain.RankingEntry{UserID: id, Username: u.username, Ranking: u.ranking})
	}
	l.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Ranking != entries[j].Ranking {
			return entries[i].Ranking > entries[j].Ranking
		}
		return entries[i].Username < entries[j].Username
	})
	for i := range entries {
		entries[i].Position = i + 1
	}

	if offset < 0 || limit <= 0 || offset >= len(entries) {
		return []domain.RankingEntry{}, nil
	}
	end := offset + limit
	if end > len(entries) || end < offset {
		end = len(entries)
	}
	return entries[offset:end], nil
}

// Score returns the user's current ranking.
func (l *RankingLedger) Score(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if u, ok := l.users[userID]; ok {
		return u.ranking
	}
	return 0
}
