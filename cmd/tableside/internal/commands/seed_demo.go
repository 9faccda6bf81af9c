package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt/seed"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/appetiteclub/tableside/pkg/ticket"
)

// SeedDemo fills the order database with the demo tables. It shares the
// seed id and tracker with the order service, so the tickets are inserted
// at most once whichever of the two runs first.
func SeedDemo(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("seed-demo")
	dbName := fs.String("db", "tableside_order", "order database name")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	env.Logger.Info("Starting demo seeding process...")

	client, err := env.connectMongo(ctx)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	db := client.Database(*dbName)
	seeds := []seed.Seed{
		{
			ID:          ticket.DemoSeedID,
			Description: "Create demo tickets across kitchen, service and paid history",
			Run: func(ctx context.Context) error {
				return insertDemoTickets(ctx, db.Collection("orders"), env.Now().UTC())
			},
		},
	}

	if err := seed.Apply(ctx, seed.NewMongoTracker(db), seeds, ticket.DemoSeedApplication); err != nil {
		return fmt.Errorf("seed demo tickets: %w", err)
	}

	env.Logger.Info("Demo seeding completed successfully")
	return nil
}

func insertDemoTickets(ctx context.Context, orders *mongo.Collection, now time.Time) error {
	tickets, err := ticket.DemoTickets(now)
	if err != nil {
		return err
	}

	docs := make([]interface{}, 0, len(tickets))
	for _, t := range tickets {
		docs = append(docs, t)
	}
	if _, err := orders.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert demo tickets: %w", err)
	}
	return nil
}
