//go:build integration

// Package mongotest starts a throwaway MongoDB for repository tests.
package mongotest

import (
	"context"
	"strings"
	"testing"
	"time"

	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"

	"SKCKPortal/internal/config"
)

// NewDatabase starts a MongoDB container and returns a database named after
// the test. The container is terminated when the test finishes.
func NewDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	ctx := context.Background()

	container, err := tcmongo.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start mongodb container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate mongodb container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get mongodb connection string: %v", err)
	}

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	client, err := config.ConnectMongo(ctx, config.MongoConfig{
		URI:            uri,
		Database:       name,
		ConnectTimeout: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to connect to mongodb: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Client.Disconnect(ctx)
	})
	return client.Database
}
