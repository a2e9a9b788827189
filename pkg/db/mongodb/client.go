package mongodb

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"secrets-manager-utility/pkg/secrets"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Internal variables for testing
var (
	mongoConnect = mongo.Connect
)

const pingTimeout = 10 * time.Second

// ConnectMongo establishes a connection to MongoDB using the "uri" field of
// the JSON secret secretName, and verifies it with a Ping.
func ConnectMongo(ctx context.Context, src secrets.KeySource, secretName string) (*mongo.Client, error) {
	uri, err := GetMongoURI(ctx, src, secretName)
	if err != nil {
		return nil, err
	}

	client, err := mongoConnect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return client, nil
}

// GetMongoURI returns MONGO_URI when set, otherwise the "uri" field of the secret.
func GetMongoURI(ctx context.Context, src secrets.KeySource, secretName string) (string, error) {
	if uri := strings.TrimSpace(os.Getenv("MONGO_URI")); uri != "" {
		return uri, nil
	}

	uri, err := src.GetKey(ctx, secretName, "uri")
	if err != nil {
		return "", err
	}

	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", fmt.Errorf("secret %s: empty mongodb uri", secretName)
	}
	return uri, nil
}
