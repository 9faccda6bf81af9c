package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/tableside/pkg/ticket"
)

type TicketRepo struct {
	collection *mongo.Collection
}

func NewTicketRepo(db *mongo.Database) *TicketRepo {
	return &TicketRepo{
		collection: db.Collection("orders"),
	}
}

// EnsureIndexes creates the indexes the queue and session queries rely on.
func (r *TicketRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "table_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("cannot create order indexes: %w", err)
	}
	return nil
}

func (r *TicketRepo) Create(ctx context.Context, t *ticket.Ticket) error {
	if t == nil {
		return fmt.Errorf("order is nil")
	}

	if _, err := r.collection.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("cannot create order: %w", err)
	}

	return nil
}

func (r *TicketRepo) Get(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error) {
	var t ticket.Ticket
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get order: %w", err)
	}
	return &t, nil
}

func (r *TicketRepo) List(ctx context.Context) ([]*ticket.Ticket, error) {
	return r.find(ctx, bson.M{}, "cannot list orders")
}

func (r *TicketRepo) ListByStatus(ctx context.Context, status string) ([]*ticket.Ticket, error) {
	return r.find(ctx, bson.M{"status": status}, "cannot list orders by status")
}

func (r *TicketRepo) ListByTable(ctx context.Context, tableID int) ([]*ticket.Ticket, error) {
	return r.find(ctx, bson.M{"table_id": tableID}, "cannot list orders by table")
}

func (r *TicketRepo) Save(ctx context.Context, t *ticket.Ticket) error {
	if t == nil {
		return fmt.Errorf("order is nil")
	}

	filter := bson.M{"_id": t.ID}
	update := bson.M{"$set": t}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update order: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("order not found")
	}

	return nil
}

// SaveAll replaces the stored fields of every ticket with one ordered bulk
// write. It stops at the first failed write.
func (r *TicketRepo) SaveAll(ctx context.Context, tickets []*ticket.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(tickets))
	for _, t := range tickets {
		if t == nil {
			return fmt.Errorf("order is nil")
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": t.ID}).
			SetUpdate(bson.M{"$set": t}))
	}

	result, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("cannot update orders: %w", err)
	}
	if result.MatchedCount != int64(len(tickets)) {
		return fmt.Errorf("%d of %d orders not found", int64(len(tickets))-result.MatchedCount, len(tickets))
	}
	return nil
}

func (r *TicketRepo) find(ctx context.Context, filter bson.M, errMsg string) ([]*ticket.Ticket, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errMsg, err)
	}
	defer cursor.Close(ctx)

	var result []*ticket.Ticket
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}

	return result, nil
}
