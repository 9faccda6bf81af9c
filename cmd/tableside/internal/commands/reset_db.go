package commands

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

var allDatabases = []string{
	"tableside_order",
	"tableside_menu",
	"tableside_guest",
}

// ResetDB drops every tableside database - USE WITH CAUTION
func ResetDB(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("reset-db")
	confirm := fs.Bool("yes", false, "confirm dropping every database")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if !*confirm {
		return errors.New("refusing to drop databases without --yes")
	}

	env.Logger.Infof("⚠️  DANGER: This will drop ALL tableside databases!")

	client, err := env.connectMongo(ctx)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	for _, dbName := range allDatabases {
		env.Logger.Info("Dropping database", "database", dbName)
		result := client.Database(dbName).RunCommand(ctx, bson.D{{Key: "dropDatabase", Value: 1}})
		if result.Err() != nil {
			env.Logger.Infof("⚠️  Failed to drop database %s (may not exist): %v", dbName, result.Err())
			continue
		}
		env.Logger.Info("Database dropped", "database", dbName)
	}

	env.Logger.Info("All databases have been dropped")
	return nil
}
