package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"edustop-service/internal/domain"
	"edustop-service/internal/geo"
	"github.com/rs/zerolog"
)

// EduStopRepository resolves EduStops (Postgres, cache, in-memory, etc).
type EduStopRepository interface {
	GetEduStop(ctx context.Context, id string) (domain.EduStop, error)
	SearchEduStops(ctx context.Context, center domain.Coordinate, radiusKm float64) ([]domain.EduStop, error)
}

// TaskPool exposes the stored tasks by count and offset.
type TaskPool interface {
	CountTasks(ctx context.Context) (int, error)
	TaskAtOffset(ctx context.Context, offset int) (domain.Task, error)
}

// TokenStore keeps issued tasks under single-use, expiring tokens.
type TokenStore interface {
	Issue(ctx context.Context, issued domain.IssuedTask) (string, error)
	// Consume returns the payload and removes it in one step.
	Consume(ctx context.Context, token string) (domain.IssuedTask, error)
}

// RateLimiter caps task issuance per EduStop within a window.
type RateLimiter interface {
	// TryConsume atomically takes one slot, reporting false when none is left.
	TryConsume(ctx context.Context, key string) (bool, error)
	// Release gives back a slot taken by TryConsume.
	Release(ctx context.Context, key string) error
}

// RankingLedger owns the users' ranking scores.
type RankingLedger interface {
	IncrementRanking(ctx context.Context, userID string, delta int) (int, error)
	Ranking(ctx context.Context, offset, limit int) ([]domain.RankingEntry, error)
}

// TaskSettings are the tunables of task issuance.
type TaskSettings struct {
	Window       time.Duration
	RadiusMeters float64
	Reward       int
}

// DefaultTaskSettings mirror the production configuration.
func DefaultTaskSettings() TaskSettings {
	return TaskSettings{
		Window:       20 * time.Minute,
		RadiusMeters: 100,
		Reward:       2,
	}
}

// TaskPicker selects a task uniformly at random.
type TaskPicker struct {
	pool TaskPool
	intn func(n int) int
}

func NewTaskPicker(pool TaskPool) *TaskPicker {
	return &TaskPicker{pool: pool, intn: rand.Intn}
}

// NewTaskPickerWithRand is test-only for deterministic offsets.
func NewTaskPickerWithRand(pool TaskPool, intn func(n int) int) *TaskPicker {
	return &TaskPicker{pool: pool, intn: intn}
}

// Pick returns domain.ErrNoTasksAvailable when the pool is empty.
func (p *TaskPicker) Pick(ctx context.Context) (domain.Task, error) {
	count, err := p.pool.CountTasks(ctx)
	if err != nil {
		return domain.Task{}, err
	}
	if count == 0 {
		return domain.Task{}, domain.ErrNoTasksAvailable
	}
	return p.pool.TaskAtOffset(ctx, p.intn(count))
}

// TaskService issues EduStop tasks and verifies the answers.
type TaskService struct {
	stops    EduStopRepository
	picker   *TaskPicker
	tokens   TokenStore
	limiter  RateLimiter
	ledger   RankingLedger
	feed     *RankingFeed
	gate     geo.Gate
	settings TaskSettings
	now      func() time.Time
	log      zerolog.Logger
}

// TaskServiceDeps groups the collaborators of TaskService.
type TaskServiceDeps struct {
	EduStops EduStopRepository
	Tasks    TaskPool
	Tokens   TokenStore
	Limiter  RateLimiter
	Ledger   RankingLedger
	Feed     *RankingFeed
}

func NewTaskService(deps TaskServiceDeps, settings TaskSettings, log zerolog.Logger) *TaskService {
	feed := deps.Feed
	if feed == nil {
		feed = NewRankingFeed()
	}
	return &TaskService{
		stops:    deps.EduStops,
		picker:   NewTaskPicker(deps.Tasks),
		tokens:   deps.Tokens,
		limiter:  deps.Limiter,
		ledger:   deps.Ledger,
		feed:     feed,
		gate:     geo.NewGate(settings.RadiusMeters),
		settings: settings,
		now:      time.Now,
		log:      log.With().Str("component", "task_service").Logger(),
	}
}

// WithPicker replaces the task picker; used by tests.
func (s *TaskService) WithPicker(p *TaskPicker) *TaskService {
	s.picker = p
	return s
}

// RequestTask issues a random task for the EduStop if the caller stands
// close enough and the stop has not used up its quota.
func (s *TaskService) RequestTask(ctx context.Context, eduStopID string, caller domain.Coordinate) (domain.TaskTicket, error) {
	stop, err := s.stops.GetEduStop(ctx, eduStopID)
	if err != nil {
		return domain.TaskTicket{}, err
	}

	if err := s.gate.Check(caller, stop.Position()); err != nil {
		return domain.TaskTicket{}, err
	}

	ok, err := s.limiter.TryConsume(ctx, eduStopID)
	if err != nil {
		return domain.TaskTicket{}, err
	}
	if !ok {
		return domain.TaskTicket{}, domain.ErrLimitExceeded
	}

	task, err := s.picker.Pick(ctx)
	if err != nil {
		s.release(ctx, eduStopID)
		return domain.TaskTicket{}, err
	}

	token, err := s.tokens.Issue(ctx, domain.IssuedTask{
		EduStopID: eduStopID,
		TaskID:    task.ID,
		IssuedAt:  s.now().UTC(),
		Questions: task.Questions,
	})
	if err != nil {
		s.release(ctx, eduStopID)
		return domain.TaskTicket{}, err
	}

	s.log.Debug().
		Str("edustop_id", eduStopID).
		Str("task_id", task.ID).
		Msg("task issued")

	return domain.TaskTicket{
		TaskID:      task.ID,
		Content:     contentOf(task),
		AccessToken: token,
		TTLMinutes:  int(s.settings.Window / time.Minute),
	}, nil
}

// VerifyTask consumes the token and checks every answer. The user is
// rewarded only when all questions match.
func (s *TaskService) VerifyTask(ctx context.Context, token, userID string, answers []domain.AnswerSubmission) (domain.VerificationResult, error) {
	issued, err := s.tokens.Consume(ctx, token)
	if err != nil {
		return domain.VerificationResult{}, err
	}

	result := domain.VerificationResult{
		Verified:  VerifySubmission(issued.Questions, answers),
		EduStopID: issued.EduStopID,
		TaskID:    issued.TaskID,
	}
	if !result.Verified {
		return result, nil
	}

	ranking, err := s.ledger.IncrementRanking(ctx, userID, s.settings.Reward)
	if err != nil {
		s.log.Error().Err(err).
			Str("user_id", userID).
			Str("task_id", issued.TaskID).
			Msg("reward failed after verified task")
		return domain.VerificationResult{}, fmt.Errorf("reward user: %w", err)
	}

	s.feed.Publish(domain.RewardEvent{
		UserID:  userID,
		Delta:   s.settings.Reward,
		Ranking: ranking,
		At:      s.now().UTC(),
	})
	s.log.Info().
		Str("user_id", userID).
		Str("edustop_id", issued.EduStopID).
		Int("ranking", ranking).
		Msg("task verified")
	return result, nil
}

func (s *TaskService) release(ctx context.Context, eduStopID string) {
	if err := s.limiter.Release(ctx, eduStopID); err != nil {
		s.log.Warn().Err(err).Str("edustop_id", eduStopID).Msg("release rate limit slot")
	}
}

func contentOf(task domain.Task) domain.TaskContent {
	questions := make([]domain.Question, len(task.Questions))
	for i, q := range task.Questions {
		questions[i] = q.Redacted()
	}
	return domain.TaskContent{
		Subject:     task.Subject,
		Title:       task.Title,
		Description: task.Description,
		Questions:   questions,
		Sources:     task.Sources,
	}
}
