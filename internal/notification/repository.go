package notification

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"SKCKPortal/pkg/apperror"
)

// Store persists notifications. Insert with an id that already exists fails
// with Conflict; MarkRead on a read notification is a no-op.
type Store interface {
	Insert(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id string) (*Notification, error)
	ListUnread(ctx context.Context, userID string) ([]Notification, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
}

type Repository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{collection: db.Collection("notifications")}
}

func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func notFound() error {
	return apperror.NotFound("Notifikasi tidak ditemukan")
}

func (r *Repository) Insert(ctx context.Context, n *Notification) error {
	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("Notifikasi sudah ada")
		}
		return apperror.StoreUnavailable("insert notification", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Notification, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound()
	}
	var n Notification
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound()
		}
		return nil, apperror.StoreUnavailable("get notification", err)
	}
	return &n, nil
}

func (r *Repository) ListUnread(ctx context.Context, userID string) ([]Notification, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"user_id": userID, "read": false},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, apperror.StoreUnavailable("list unread", err)
	}
	out := []Notification{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperror.StoreUnavailable("list unread", err)
	}
	return out, nil
}

func (r *Repository) MarkRead(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notFound()
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": at}},
	)
	if err != nil {
		return apperror.StoreUnavailable("mark read", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return apperror.StoreUnavailable("mark read", err)
	}
	if n == 0 {
		return notFound()
	}
	return nil
}
