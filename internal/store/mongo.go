package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

// collectionDocument is the stored form of one collection
type collectionDocument struct {
	Name      string    `bson:"_id"`
	Records   string    `bson:"records"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoStore keeps each collection as one document keyed by the collection
// name. Records are kept as their JSON text so numbers and key order
// round-trip exactly.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	log    logrus.FieldLogger
}

// MongoOptions configures a MongoStore connection
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

// NewMongoStore connects to MongoDB and verifies the connection
func NewMongoStore(ctx context.Context, opts MongoOptions, log logrus.FieldLogger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
		log:    log,
	}, nil
}

// ReadCollection implements Store
func (s *MongoStore) ReadCollection(ctx context.Context, name string) ([]models.Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, readErr(name, err)
	}

	var doc collectionDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if err := s.WriteCollection(ctx, name, nil); err != nil {
			return nil, err
		}
		return []models.Record{}, nil
	}
	if err != nil {
		return nil, readErr(name, err)
	}

	if doc.Records == "" {
		return []models.Record{}, nil
	}

	records, err := models.DecodeRecords([]byte(doc.Records))
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"collection": name,
			"error":      err,
		}).Warn("Corrupt collection document, resetting to empty")
		if err := s.WriteCollection(ctx, name, nil); err != nil {
			return nil, err
		}
		return []models.Record{}, nil
	}

	return records, nil
}

// Exists implements Store
func (s *MongoStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, readErr(name, err)
	}

	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": name}, options.Count().SetLimit(1))
	if err != nil {
		return false, readErr(name, err)
	}
	return n > 0, nil
}

// WriteCollection implements Store by replacing the collection document
func (s *MongoStore) WriteCollection(ctx context.Context, name string, records []models.Record) error {
	if err := ValidateName(name); err != nil {
		return writeErr(name, err)
	}

	data, err := models.EncodeRecords(records)
	if err != nil {
		return writeErr(name, err)
	}

	doc := collectionDocument{Name: name, Records: string(data), UpdatedAt: time.Now().UTC()}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return writeErr(name, err)
	}
	return nil
}

// Close disconnects the client
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
