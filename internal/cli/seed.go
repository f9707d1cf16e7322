package cli

import (
	"fmt"

	"edustop-service/internal/config"
	"edustop-service/internal/infra/postgres"
	"edustop-service/internal/logger"
	"github.com/spf13/cobra"
)

// NewSeedCmd loads EduStops, tasks and users from a YAML fixture into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert fixtures into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.Setup(cfg.Log.Level, cfg.Log.Format)
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			fixtures, err := postgres.LoadFixtures(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
				return err
			}
			db := postgres.OpenBun(cfg.Postgres.URL)
			defer db.Close()
			if err := postgres.Seed(ctx, db, fixtures); err != nil {
				return err
			}

			log.Info().
				Int("edustops", len(fixtures.EduStops)).
				Int("tasks", len(fixtures.Tasks)).
				Int("users", len(fixtures.Users)).
				Msg("fixtures seeded")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "config/fixtures.yaml", "path to YAML fixtures")
	return cmd
}
