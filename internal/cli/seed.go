package cli

import (
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"quiz-session-service/internal/config"
	"quiz-session-service/internal/infra/memory"
	pgstore "quiz-session-service/internal/infra/postgres"
)

// NewSeedCmd imports a JSON document into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import a JSON seed document into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.Storage.SeedPath
			}
			if file == "" {
				return fmt.Errorf("no seed file given")
			}
			doc, err := memory.LoadDocument(file)
			if err != nil {
				return err
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := pgstore.NewStore(pool).Import(cmd.Context(), doc); err != nil {
				return err
			}
			log.Printf("imported %d users, %d categories, %d questions from %s",
				len(doc.Users), len(doc.Categories), len(doc.Questions), file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "seed document (defaults to storage.seed_path)")
	return cmd
}
