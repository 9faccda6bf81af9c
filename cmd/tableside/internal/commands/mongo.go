package commands

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/appetiteclub/tableside/pkg/mongodb"
)

func (e *Env) connectMongo(ctx context.Context) (*mongo.Client, error) {
	client, err := mongodb.Connect(ctx, e.Config.GetStringOrDef("db.mongo.url", mongodb.DefaultURL))
	if err != nil {
		return nil, err
	}
	e.Logger.Info("Connected to MongoDB")
	return client, nil
}
