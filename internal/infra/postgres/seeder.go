package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"edustop-service/internal/domain"
	"edustop-service/internal/infra/postgres/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"gopkg.in/yaml.v3"
)

// Fixtures is the YAML document accepted by the seed command.
type Fixtures struct {
	EduStops []domain.EduStop `yaml:"edustops"`
	Tasks    []domain.Task    `yaml:"tasks"`
	Users    []FixtureUser    `yaml:"users"`
}

// FixtureUser is a seeded account.
type FixtureUser struct {
	ID       string `yaml:"id"`
	Username string `yaml:"username"`
	Ranking  int    `yaml:"ranking"`
}

type edustopRow struct {
	bun.BaseModel `bun:"table:edustops"`

	ID        string  `bun:"id,pk"`
	Name      string  `bun:"name"`
	Latitude  float64 `bun:"latitude"`
	Longitude float64 `bun:"longitude"`
}

type taskRow struct {
	bun.BaseModel `bun:"table:tasks"`

	ID   string          `bun:"id,pk"`
	Data json.RawMessage `bun:"data,type:jsonb"`
}

type userRow struct {
	bun.BaseModel `bun:"table:users"`

	ID       string `bun:"id,pk"`
	Username string `bun:"username"`
	Ranking  int    `bun:"ranking"`
}

// LoadFixtures reads a fixtures YAML file.
func LoadFixtures(path string) (Fixtures, error) {
	var f Fixtures
	data, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := f.Validate(); err != nil {
		return f, err
	}
	return f, nil
}

// Validate checks that choice questions carry options and open ones do not.
func (f Fixtures) Validate() error {
	for _, t := range f.Tasks {
		for _, q := range t.Questions {
			switch {
			case q.HasOptions() && len(q.Options) == 0:
				return fmt.Errorf("task %s question %s: %s question without options", t.ID, q.ID, q.Kind)
			case !q.HasOptions() && len(q.Options) > 0:
				return fmt.Errorf("task %s question %s: %s question with options", t.ID, q.ID, q.Kind)
			}
		}
	}
	return nil
}

// OpenBun opens a bun handle over the pgdriver connector.
func OpenBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, err
	}
	return migrator.Migrate(ctx)
}

// Seed upserts the fixtures in one transaction.
func Seed(ctx context.Context, db *bun.DB, f Fixtures) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if len(f.EduStops) > 0 {
			rows := make([]edustopRow, len(f.EduStops))
			for i, s := range f.EduStops {
				rows[i] = edustopRow{ID: s.ID, Name: s.Name, Latitude: s.Latitude, Longitude: s.Longitude}
			}
			if _, err := tx.NewInsert().Model(&rows).
				On("CONFLICT (id) DO UPDATE").
				Set("name = EXCLUDED.name").
				Set("latitude = EXCLUDED.latitude").
				Set("longitude = EXCLUDED.longitude").
				Exec(ctx); err != nil {
				return fmt.Errorf("seed edustops: %w", err)
			}
		}

		if len(f.Tasks) > 0 {
			rows := make([]taskRow, len(f.Tasks))
			for i, t := range f.Tasks {
				data, err := json.Marshal(t)
				if err != nil {
					return fmt.Errorf("encode task %s: %w", t.ID, err)
				}
				rows[i] = taskRow{ID: t.ID, Data: data}
			}
			if _, err := tx.NewInsert().Model(&rows).
				On("CONFLICT (id) DO UPDATE").
				Set("data = EXCLUDED.data").
				Exec(ctx); err != nil {
				return fmt.Errorf("seed tasks: %w", err)
			}
		}

		if len(f.Users) > 0 {
			rows := make([]userRow, len(f.Users))
			for i, u := range f.Users {
				rows[i] = userRow{ID: u.ID, Username: u.Username, Ranking: u.Ranking}
			}
			if _, err := tx.NewInsert().Model(&rows).
				On("CONFLICT (id) DO UPDATE").
				Set("username = EXCLUDED.username").
				Exec(ctx); err != nil {
				return fmt.Errorf("seed users: %w", err)
			}
		}
		return nil
	})
}
