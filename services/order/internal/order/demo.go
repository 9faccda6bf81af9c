package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/appetiteclub/tableside/pkg/ticket"
)

// ApplyDemoSeeds fills the kitchen and service queues with a few tables in
// different stages of their meal.
func ApplyDemoSeeds(ctx context.Context, repo TicketRepo, db *mongo.Database, logger apt.Logger) error {
	if db == nil {
		return errors.New("database is required for demo seeding")
	}

	tracker := seed.NewMongoTracker(db)

	logger.Info("Applying demo order seeds")
	if err := seed.Apply(ctx, tracker, DemoSeeds(repo, logger), ticket.DemoSeedApplication); err != nil {
		return err
	}
	logger.Info("Demo order seeds applied successfully")
	return nil
}

func DemoSeeds(repo TicketRepo, logger apt.Logger) []seed.Seed {
	return []seed.Seed{
		{
			ID:          ticket.DemoSeedID,
			Description: "Create demo tickets across kitchen, service and paid history",
			Run: func(ctx context.Context) error {
				return SeedDemoTickets(ctx, repo, time.Now().UTC(), logger)
			},
		},
	}
}

// SeedDemoTickets writes the demo tickets through the repository.
func SeedDemoTickets(ctx context.Context, repo TicketRepo, now time.Time, logger apt.Logger) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	tickets, err := ticket.DemoTickets(now)
	if err != nil {
		return err
	}

	for _, t := range tickets {
		if err := repo.Create(ctx, t); err != nil {
			return fmt.Errorf("create demo ticket for table %d: %w", t.TableID, err)
		}
		logger.Debug("demo ticket created", "table_id", t.TableID, "status", t.Status)
	}

	logger.Info("Demo tickets created successfully")
	return nil
}

func DemoSeedingFunc(seedCtx context.Context, repo TicketRepo, db *mongo.Database, logger apt.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		logger.Info("Starting demo order seeding in background")
		go func() {
			if err := ApplyDemoSeeds(seedCtx, repo, db, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Demo order seeds failed: %v", err)
			} else if err == nil {
				logger.Info("Demo order seeding completed successfully")
			}
		}()
		return nil
	}
}
