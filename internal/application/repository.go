package application

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

// Store is the application record store. Implementations assign ids and
// timestamps on write and never let a terminal application change again.
type Store interface {
	Insert(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id string) (*Application, error)
	ListByOwner(ctx context.Context, userID string, limit int64) ([]Application, error)
	ListByStatus(ctx context.Context, status Status) ([]Application, error)
	ListByStatuses(ctx context.Context, statuses []Status) ([]Application, error)
	Review(ctx context.Context, id string, t Transition) (*Application, error)
	PendingOutbox(ctx context.Context, limit int64) ([]Application, error)
	MarkOutboxDispatched(ctx context.Context, id string, at time.Time) error
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}

type Repository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{collection: db.Collection("skck_applications"), now: time.Now}
}

func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "reviewed_at", Value: -1}}},
		{Keys: bson.D{{Key: "outbox.dispatched", Value: 1}}},
	})
	return err
}

func notFound() error {
	return apperror.NotFound("Pengajuan tidak ditemukan")
}

func (r *Repository) Insert(ctx context.Context, app *Application) error {
	now := r.now().UTC()
	app.ID = primitive.NilObjectID
	app.CreatedAt = now
	app.UpdatedAt = now
	res, err := r.collection.InsertOne(ctx, app)
	if err != nil {
		return apperror.StoreUnavailable("insert application", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		app.ID = oid
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Application, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound()
	}
	var app Application
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&app); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound()
		}
		return nil, apperror.StoreUnavailable("get application", err)
	}
	return &app, nil
}

func (r *Repository) ListByOwner(ctx context.Context, userID string, limit int64) ([]Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, "list by owner", bson.M{"user_id": userID}, opts)
}

func (r *Repository) ListByStatus(ctx context.Context, status Status) ([]Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.find(ctx, "list by status", bson.M{"status": status}, opts)
}

func (r *Repository) ListByStatuses(ctx context.Context, statuses []Status) ([]Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "reviewed_at", Value: -1}})
	return r.find(ctx, "list by statuses", bson.M{"status": bson.M{"$in": statuses}}, opts)
}

func (r *Repository) PendingOutbox(ctx context.Context, limit int64) ([]Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "reviewed_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, "pending outbox", bson.M{"outbox.dispatched": false}, opts)
}

func (r *Repository) find(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]Application, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperror.StoreUnavailable(op, err)
	}
	apps := []Application{}
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, apperror.StoreUnavailable(op, err)
	}
	return apps, nil
}

// Review applies a terminal transition only while the application is still
// pending. When the precondition fails it reports NotFound or StaleState.
func (r *Repository) Review(ctx context.Context, id string, t Transition) (*Application, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound()
	}

	set := bson.M{
		"status":      t.Status,
		"reviewed_at": t.ReviewedAt,
		"reviewed_by": t.ReviewedBy,
		"updated_at":  t.ReviewedAt,
		"outbox":      t.Outbox,
	}
	if t.Status == StatusRejected {
		set["rejection_reason"] = t.RejectionReason
	}

	var app Application
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": StatusPending},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&app)
	if err == nil {
		return &app, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.StoreUnavailable("review application", err)
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, apperror.StoreUnavailable("review application", err)
	}
	if n == 0 {
		return nil, notFound()
	}
	return nil, apperror.StaleState("Pengajuan sudah diproses, silakan muat ulang")
}

func (r *Repository) MarkOutboxDispatched(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notFound()
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "outbox": bson.M{"$exists": true}},
		bson.M{"$set": bson.M{"outbox.dispatched": true, "outbox.dispatched_at": at}},
	)
	if err != nil {
		return apperror.StoreUnavailable("mark outbox dispatched", err)
	}
	if res.MatchedCount == 0 {
		return notFound()
	}
	return nil
}

func (r *Repository) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperror.StoreUnavailable("count by status", err)
	}
	var rows []struct {
		Status Status `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, apperror.StoreUnavailable("count by status", err)
	}
	counts := map[Status]int64{StatusPending: 0, StatusApproved: 0, StatusRejected: 0}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
