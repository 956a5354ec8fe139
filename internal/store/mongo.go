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
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sam-maryland/nfl-playoff-engine/internal/tournament"
)

const tournamentsCollection = "tournaments"

// MongoStore keeps one document per tournament. Appends are a single conditional update
// on the document, which MongoDB applies atomically.
type MongoStore struct {
	Client      *mongo.Client
	Database    *mongo.Database
	Tournaments *mongo.Collection
	logger      *logrus.Logger
}

// NewMongoStore connects to uri and verifies the connection.
func NewMongoStore(ctx context.Context, uri, dbName string, logger *logrus.Logger) (*MongoStore, error) {
	if dbName == "" {
		return nil, fmt.Errorf("mongo database name cannot be empty")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	logger.WithField("database", dbName).Info("Connected to MongoDB")
	return NewMongoStoreFromClient(client, dbName, logger), nil
}

// NewMongoStoreFromClient uses an existing client.
func NewMongoStoreFromClient(client *mongo.Client, dbName string, logger *logrus.Logger) *MongoStore {
	db := client.Database(dbName)
	return &MongoStore{
		Client:      client,
		Database:    db,
		Tournaments: db.Collection(tournamentsCollection),
		logger:      logger,
	}
}

func (s *MongoStore) Create(ctx context.Context, rec Record) error {
	if rec.Events == nil {
		// $push needs an array to append to
		rec.Events = []tournament.Event{}
	}

	_, err := s.Tournaments.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrExists
		}
		return fmt.Errorf("error inserting tournament %s: %w", rec.ID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"tournament_id": rec.ID,
		"version":       rec.Version,
	}).Debug("Stored new tournament")
	return nil
}

func (s *MongoStore) Load(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := s.Tournaments.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("error fetching tournament %s: %w", id, err)
	}
	return rec, nil
}

func (s *MongoStore) Append(ctx context.Context, id string, expectedVersion int, events []tournament.Event) (int, error) {
	if len(events) == 0 {
		return expectedVersion, nil
	}

	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "version", Value: expectedVersion},
	}
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "events", Value: bson.D{{Key: "$each", Value: events}}}}},
		{Key: "$inc", Value: bson.D{{Key: "version", Value: len(events)}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
	}

	res, err := s.Tournaments.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("error appending events to tournament %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		n, err := s.Tournaments.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
		if err != nil {
			return 0, fmt.Errorf("error checking tournament %s: %w", id, err)
		}
		if n == 0 {
			return 0, ErrNotFound
		}
		s.logger.WithFields(logrus.Fields{
			"tournament_id":    id,
			"expected_version": expectedVersion,
		}).Warn("Rejected append on stale tournament version")
		return 0, ErrVersionConflict
	}

	version := expectedVersion + len(events)
	s.logger.WithFields(logrus.Fields{
		"tournament_id": id,
		"events":        len(events),
		"version":       version,
	}).Debug("Appended tournament events")
	return version, nil
}

func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.Tournaments.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing tournaments: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding tournament ids: %w", err)
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}
