package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"edustop-service/internal/app"
	"edustop-service/internal/domain"
	"edustop-service/internal/infra/postgres"
	infraredis "edustop-service/internal/infra/redis"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var stopPosition = domain.Coordinate{Latitude: 52.2297, Longitude: 21.0122}

func TestTaskLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisAddr, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seed(t, ctx, pgURL, fixtures())

	log := zerolog.Nop()
	pool, err := postgres.NewPool(ctx, pgURL, log)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	client, err := infraredis.NewClient(ctx, infraredis.Options{Addr: redisAddr}, log)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer client.Close()

	settings := app.DefaultTaskSettings()
	stops := infraredis.NewEduStopCache(client, postgres.NewEduStopRepository(pool), 5*time.Minute)
	ledger := postgres.NewRankingLedger(pool)
	service := app.NewTaskService(app.TaskServiceDeps{
		EduStops: stops,
		Tasks:    postgres.NewTaskPool(pool),
		Tokens:   infraredis.NewTokenStore(client, settings.Window),
		Limiter:  infraredis.NewRateLimiter(client, 5, settings.Window),
		Ledger:   ledger,
	}, settings, log)

	var tickets []domain.TaskTicket
	for i := 0; i < 5; i++ {
		ticket, err := service.RequestTask(ctx, "stop-1", stopPosition)
		if err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
		tickets = append(tickets, ticket)
	}
	if _, err := service.RequestTask(ctx, "stop-1", stopPosition); !errors.Is(err, domain.ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}

	answers := []domain.AnswerSubmission{{QuestionID: "q1", Answers: []string{"56"}}}
	result, err := service.VerifyTask(ctx, tickets[0].AccessToken, "u1", answers)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.Verified || result.TaskID != "task-1" {
		t.Fatalf("unexpected verification %+v", result)
	}
	if _, err := service.VerifyTask(ctx, tickets[0].AccessToken, "u1", answers); !errors.Is(err, domain.ErrInvalidOrExpiredToken) {
		t.Fatalf("expected replay to fail, got %v", err)
	}

	ranking, err := app.NewRankingService(ledger, app.NewRankingFeed()).Page(ctx, 0, 10)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if len(ranking) != 2 || ranking[0].UserID != "u1" || ranking[0].Ranking != 7 {
		t.Fatalf("expected alice leading with 7, got %+v", ranking)
	}

	found, err := app.NewEduStopService(stops).Search(ctx, domain.Coordinate{Latitude: 52.23, Longitude: 21.01}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].ID != "stop-1" {
		t.Fatalf("expected stop-1 within 1km, got %+v", found)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "edu", "POSTGRES_PASSWORD": "edupass", "POSTGRES_DB": "edustops"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://edu:edupass@%s:%s/edustops?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port()), func() {
		_ = container.Terminate(ctx)
	}
}

func seed(t *testing.T, ctx context.Context, dsn string, f postgres.Fixtures) {
	t.Helper()
	db := postgres.OpenBun(dsn)
	defer db.Close()

	if _, err := postgres.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := postgres.Seed(ctx, db, f); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func fixtures() postgres.Fixtures {
	return postgres.Fixtures{
		EduStops: []domain.EduStop{
			{ID: "stop-1", Name: "Old Town", Latitude: stopPosition.Latitude, Longitude: stopPosition.Longitude},
			{ID: "stop-2", Name: "Riverside", Latitude: 52.30, Longitude: 21.10},
		},
		Tasks: []domain.Task{{
			ID:      "task-1",
			Subject: domain.SubjectMath,
			Title:   "Times tables",
			Questions: []domain.Question{
				{ID: "q1", Kind: domain.QuestionOpen, Content: "What is 7 * 8?", Answers: []string{"56"}},
			},
		}},
		Users: []postgres.FixtureUser{
			{ID: "u1", Username: "alice", Ranking: 5},
			{ID: "u2", Username: "bob", Ranking: 6},
		},
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
