package identity

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"SKCKPortal/pkg/apperror"
)

type Repository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{collection: db.Collection("nik_data")}
}

func (r *Repository) FindByNIK(ctx context.Context, nik string) (*Record, error) {
	var rec Record
	err := r.collection.FindOne(ctx, bson.M{"_id": nik}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("Data NIK tidak ditemukan")
		}
		return nil, apperror.StoreUnavailable("find nik", err)
	}
	return &rec, nil
}

// Upsert replaces the record stored under rec.NIK.
func (r *Repository) Upsert(ctx context.Context, rec Record) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": rec.NIK}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return apperror.StoreUnavailable("upsert nik", err)
	}
	return nil
}
