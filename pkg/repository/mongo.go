package repository

import (
	"context"
	"time"

	"github.com/example/shopdesk/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	client     *mongo.Client
	database   *mongo.Database
	collection string
}

func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &MongoRepository{
		client:     client,
		database:   client.Database(cfg.Database),
		collection: cfg.Collection,
	}, nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// AuditLog records one mutation of a product or an order.
type AuditLog struct {
	ID         string    `bson:"_id,omitempty" json:"id,omitempty"`
	Service    string    `bson:"service" json:"service"`
	Action     string    `bson:"action" json:"action"`
	EntityType string    `bson:"entity_type" json:"entity_type"`
	EntityID   uint64    `bson:"entity_id" json:"entity_id"`
	ActorID    *uint64   `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	Data       bson.M    `bson:"data" json:"data"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

func (m *MongoRepository) CreateAuditLog(ctx context.Context, log *AuditLog) error {
	collection := m.database.Collection(m.collection)
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	_, err := collection.InsertOne(ctx, log)
	return err
}

// GetAuditLogs returns the newest entries for one entity first.
func (m *MongoRepository) GetAuditLogs(ctx context.Context, entityType string, entityID uint64, limit int64) ([]*AuditLog, error) {
	collection := m.database.Collection(m.collection)

	filter := bson.M{"entity_type": entityType, "entity_id": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []*AuditLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}
