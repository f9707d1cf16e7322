package memory

import (
	"context"
	"errors"
	"testing"

	"edustop-service/internal/domain"
)

func TestRankingLedgerOrdersAndPages(t *testing.T) {
	ledger := NewRankingLedger()
	ledger.AddUser("u1", "carol", 5)
	ledger.AddUser("u2", "alice", 9)
	ledger.AddUser("u3", "bob", 5)

	entries, err := ledger.Ranking(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if len(entries) != 2 || entries[0].Username != "bob" || entries[0].Position != 2 || entries[1].Username != "carol" {
		t.Fatalf("unexpected page %+v", entries)
	}
}

func TestRankingLedgerRejectsBadWindow(t *testing.T) {
	ledger := NewRankingLedger()
	ledger.AddUser("u1", "alice", 1)

	cases := []struct {
		name          string
		offset, limit int
	}{
		{"negative offset", -4611686018427387904, 15},
		{"zero limit", 0, 0},
		{"offset past end", 10, 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := ledger.Ranking(context.Background(), tc.offset, tc.limit)
			if err != nil {
				t.Fatalf("ranking: %v", err)
			}
			if len(entries) != 0 {
				t.Fatalf("expected empty page, got %+v", entries)
			}
		})
	}
}

func TestRankingLedgerIncrement(t *testing.T) {
	ledger := NewRankingLedger()
	ledger.AddUser("u1", "alice", 1)

	got, err := ledger.IncrementRanking(context.Background(), "u1", 2)
	if err != nil || got != 3 {
		t.Fatalf("expected ranking 3, got %d (%v)", got, err)
	}
	if _, err := ledger.IncrementRanking(context.Background(), "ghost", 2); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
