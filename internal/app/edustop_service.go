package app

import (
	"context"
	"fmt"
	"math"

	"edustop-service/internal/domain"
	"edustop-service/internal/geo"
)

// DefaultSearchRadiusKm is used when a search does not name a radius.
const DefaultSearchRadiusKm = 3.0

// EduStopService exposes read access to EduStops.
type EduStopService struct {
	stops EduStopRepository
}

func NewEduStopService(stops EduStopRepository) *EduStopService {
	return &EduStopService{stops: stops}
}

// Get returns domain.ErrTargetNotFound for unknown ids.
func (s *EduStopService) Get(ctx context.Context, id string) (domain.EduStop, error) {
	return s.stops.GetEduStop(ctx, id)
}

// Search lists the stops within radiusKm of center, nearest first.
func (s *EduStopService) Search(ctx context.Context, center domain.Coordinate, radiusKm float64) ([]domain.EduStop, error) {
	if err := geo.Validate(center); err != nil {
		return nil, err
	}
	if math.IsNaN(radiusKm) || radiusKm <= 0 {
		return nil, fmt.Errorf("%w: radius %v", domain.ErrInvalidCoordinates, radiusKm)
	}
	stops, err := s.stops.SearchEduStops(ctx, center, radiusKm)
	if err != nil {
		return nil, err
	}
	if stops == nil {
		stops = []domain.EduStop{}
	}
	return stops, nil
}

// RankingService serves the user ranking and its live feed.
type RankingService struct {
	ledger RankingLedger
	feed   *RankingFeed
}

const (
	DefaultRankingPageSize = 15
	MaxRankingPageSize     = 100
)

func NewRankingService(ledger RankingLedger, feed *RankingFeed) *RankingService {
	return &RankingService{ledger: ledger, feed: feed}
}

// Page returns one page of the ranking, highest score first.
func (s *RankingService) Page(ctx context.Context, page, size int) ([]domain.RankingEntry, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultRankingPageSize
	}
	if size > MaxRankingPageSize {
		size = MaxRankingPageSize
	}
	// Pages whose offset would overflow lie past every user.
	if page > math.MaxInt/size-1 {
		return []domain.RankingEntry{}, nil
	}
	entries, err := s.ledger.Ranking(ctx, page*size, size)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.RankingEntry{}
	}
	return entries, nil
}

// Subscribe streams reward events. The caller must invoke cancel.
func (s *RankingService) Subscribe() (<-chan domain.RewardEvent, func()) {
	return s.feed.Subscribe()
}
