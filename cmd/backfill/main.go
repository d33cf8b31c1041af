package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/meridianhr/payroll-backend-go/internal/config"
	"github.com/meridianhr/payroll-backend-go/internal/pkg/database"
	"github.com/meridianhr/payroll-backend-go/internal/pkg/functionalrole"
	"github.com/meridianhr/payroll-backend-go/internal/repository/postgresql"
)

// One-time migration: infer functional_role from position titles for
// accounts provisioned before the column existed. After this has run, the
// approval chain relies on the explicit column and the phrase matching is
// only a fallback.
func main() {
	dryRun := flag.Bool("dry-run", false, "report inferred roles without writing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	userRepo := postgresql.NewUserRepository(db)
	ctx := context.Background()

	users, err := userRepo.ListWithoutFunctionalRole(ctx)
	if err != nil {
		logger.Error("failed to list users", slog.Any("error", err))
		os.Exit(1)
	}

	var inferred, skipped int
	for _, u := range users {
		fr, ok := functionalrole.Infer(u.Position)
		if !ok {
			skipped++
			continue
		}

		logger.Info("inferred functional role",
			slog.String("user_id", u.ID),
			slog.String("position", u.Position),
			slog.String("functional_role", string(fr)),
			slog.Bool("dry_run", *dryRun),
		)

		if !*dryRun {
			if err := userRepo.UpdateFunctionalRole(ctx, u.ID, fr); err != nil {
				logger.Error("failed to update functional role", slog.String("user_id", u.ID), slog.Any("error", err))
				continue
			}
		}
		inferred++
	}

	logger.Info("backfill complete",
		slog.Int("total", len(users)),
		slog.Int("inferred", inferred),
		slog.Int("skipped", skipped),
	)
}
