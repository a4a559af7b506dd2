package config

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type MongoDBClient struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// ConnectMongo dials and pings MongoDB. Used by the server and by skckctl.
func ConnectMongo(ctx context.Context, cfg MongoConfig) (*MongoDBClient, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return &MongoDBClient{Client: client, Database: client.Database(cfg.Database)}, nil
}

func NewMongoDBClient(lc fx.Lifecycle, cfg *Config, log *zap.Logger) (*MongoDBClient, *mongo.Database, error) {
	c, err := ConnectMongo(context.Background(), cfg.Mongo)
	if err != nil {
		return nil, nil, err
	}
	log.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing MongoDB connection")
			return c.Client.Disconnect(ctx)
		},
	})
	return c, c.Database, nil
}
