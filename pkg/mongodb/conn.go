package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultURL     = "mongodb://localhost:27017"
	connectTimeout = 10 * time.Second
)

var ErrNotStarted = errors.New("mongo connection not started")

// Conn owns the client of one service and the database it writes to.
// db.mongo.url and db.mongo.name override the defaults.
type Conn struct {
	config    *apt.Config
	logger    apt.Logger
	defaultDB string

	client *mongo.Client
	db     *mongo.Database
}

func NewConn(config *apt.Config, logger apt.Logger, defaultDB string) *Conn {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Conn{config: config, logger: logger, defaultDB: defaultDB}
}

func (c *Conn) Start(ctx context.Context) error {
	url := DefaultURL
	name := c.defaultDB
	if c.config != nil {
		url = c.config.GetStringOrDef("db.mongo.url", DefaultURL)
		name = c.config.GetStringOrDef("db.mongo.name", c.defaultDB)
	}

	client, err := Connect(ctx, url)
	if err != nil {
		return err
	}

	c.client = client
	c.db = client.Database(name)
	c.logger.Info("connected to mongodb", "database", name)
	return nil
}

func (c *Conn) Stop(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("cannot disconnect from mongodb: %w", err)
	}
	c.client = nil
	c.logger.Info("disconnected from mongodb", "database", c.db.Name())
	return nil
}

// Ping reports whether the database is still reachable.
func (c *Conn) Ping(ctx context.Context) error {
	if c.client == nil {
		return ErrNotStarted
	}
	return c.client.Ping(ctx, nil)
}

func (c *Conn) Database() *mongo.Database {
	return c.db
}

// Connect dials url and fails unless the server answers a ping.
func Connect(ctx context.Context, url string) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(url).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("cannot ping mongodb: %w", err)
	}
	return client, nil
}
