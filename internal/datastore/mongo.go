package datastore

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoConfig holds MongoDB connection parameters.
type MongoConfig struct {
	URI      string
	User     string
	Password string
	Database string
}

// Mongo pings a MongoDB deployment.
type Mongo struct {
	client   *mongo.Client
	database string
	log      zerolog.Logger
}

// NewMongo creates a MongoDB client. The driver connects lazily, so this does
// not block on the server. User and Password are applied only when the URI
// carries no credentials of its own.
func NewMongo(cfg MongoConfig, log zerolog.Logger) (*Mongo, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.User != "" && !uriHasCredentials(cfg.URI) {
		opts.SetAuth(options.Credential{
			Username: cfg.User,
			Password: cfg.Password,
		})
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect: %w", err)
	}

	return &Mongo{
		client:   client,
		database: cfg.Database,
		log:      log.With().Str("component", "datastore").Str("backend", "mongodb").Logger(),
	}, nil
}

func (m *Mongo) Name() string { return "mongodb" }

// Ping runs the ping command against the configured database.
func (m *Mongo) Ping(ctx context.Context) error {
	if err := m.client.Database(m.database).RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		m.log.Debug().Err(err).Msg("ping failed")
		return fmt.Errorf("mongodb: ping: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func uriHasCredentials(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	return u.User != nil && u.User.Username() != ""
}
