package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/tableside/pkg/mongodb"
	"github.com/appetiteclub/tableside/services/menu/internal/menu"
)

// menuOrder is both the listing sort and the index that serves it.
var menuOrder = bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}}

func byID(id uuid.UUID) bson.M {
	return bson.M{"_id": id.String()}
}

// MenuItemRepo implements the menu.MenuItemRepo interface using MongoDB.
// It owns its connection so it can be handed to apt as a lifecycle hook.
type MenuItemRepo struct {
	conn       *mongodb.Conn
	collection *mongo.Collection
}

func NewMenuItemRepo(config *apt.Config, logger apt.Logger) *MenuItemRepo {
	return &MenuItemRepo{conn: mongodb.NewConn(config, logger, "tableside_menu")}
}

// Start connects and makes sure the menu listing index exists.
func (r *MenuItemRepo) Start(ctx context.Context) error {
	if err := r.conn.Start(ctx); err != nil {
		return err
	}

	r.collection = r.conn.Database().Collection("menu")
	categoryIndex := mongo.IndexModel{
		Keys: menuOrder,
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, categoryIndex); err != nil {
		return fmt.Errorf("cannot create category index: %w", err)
	}
	return nil
}

func (r *MenuItemRepo) Stop(ctx context.Context) error {
	return r.conn.Stop(ctx)
}

func (r *MenuItemRepo) GetDatabase() *mongo.Database {
	return r.conn.Database()
}

func (r *MenuItemRepo) Create(ctx context.Context, item *menu.MenuItem) error {
	if item == nil {
		return fmt.Errorf("menu item cannot be nil")
	}

	item.EnsureID()

	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("could not create menu item: %w", err)
	}
	return nil
}

// Get returns nil, nil when no item has the given id.
func (r *MenuItemRepo) Get(ctx context.Context, id uuid.UUID) (*menu.MenuItem, error) {
	var item menu.MenuItem
	err := r.collection.FindOne(ctx, byID(id)).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not get menu item %s: %w", id, err)
	}
	return &item, nil
}

// List returns every item grouped by category, then by name.
func (r *MenuItemRepo) List(ctx context.Context) ([]*menu.MenuItem, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(menuOrder))
	if err != nil {
		return nil, fmt.Errorf("could not list menu items: %w", err)
	}

	items := []*menu.MenuItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("could not decode menu items: %w", err)
	}
	return items, nil
}

func (r *MenuItemRepo) Count(ctx context.Context) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("could not count menu items: %w", err)
	}
	return n, nil
}

// Save replaces an existing menu item.
func (r *MenuItemRepo) Save(ctx context.Context, item *menu.MenuItem) error {
	if item == nil {
		return fmt.Errorf("menu item cannot be nil")
	}

	result, err := r.collection.ReplaceOne(ctx, byID(item.GetID()), item)
	if err != nil {
		return fmt.Errorf("could not save menu item: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("menu item %s not found", item.GetID())
	}
	return nil
}

// Delete reports whether a document was removed.
func (r *MenuItemRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, byID(id))
	if err != nil {
		return false, fmt.Errorf("could not delete menu item: %w", err)
	}
	return result.DeletedCount > 0, nil
}
