package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/nunet/pkg/io"
)

const (
	mongoDatabase   = "nunet"
	mongoCollection = "designs"
)

// MongoStore keeps one document per design in the "nunet.designs"
// collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type designDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Neurons   int       `bson:"neurons"`
	Synapses  int       `bson:"synapses"`
	UpdatedAt time.Time `bson:"updated_at"`
	Payload   []byte    `bson:"payload,omitempty"`
}

// NewMongoStore connects to uri (mongodb://host:port) and verifies the
// connection.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, remote(err)
	}
	coll := client.Database(mongoDatabase).Collection(mongoCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, remote(err)
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Put(ctx context.Context, snap io.Snapshot) error {
	payload, err := encode(snap)
	if err != nil {
		return err
	}
	e := entryOf(snap, time.Now())
	doc := designDoc{
		ID:        e.ID.String(),
		Name:      e.Name,
		Neurons:   e.Neurons,
		Synapses:  e.Synapses,
		UpdatedAt: e.UpdatedAt,
		Payload:   payload,
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return remote(err)
}

func (s *MongoStore) Get(ctx context.Context, id uuid.UUID) (io.Snapshot, error) {
	var doc designDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return io.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return io.Snapshot{}, remote(err)
	}
	snap, err := decode(doc.Payload)
	if err != nil {
		return io.Snapshot{}, fmt.Errorf("decode design %s: %w", id, err)
	}
	return snap, nil
}

func (s *MongoStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return remote(err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]Entry, error) {
	opts := options.Find().
		SetProjection(bson.M{"payload": 0}).
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, remote(err)
	}
	defer cur.Close(ctx)

	var entries []Entry
	for cur.Next(ctx) {
		var doc designDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("design id %q: %w", doc.ID, err)
		}
		entries = append(entries, Entry{
			ID:        id,
			Name:      doc.Name,
			Neurons:   doc.Neurons,
			Synapses:  doc.Synapses,
			UpdatedAt: doc.UpdatedAt.UTC(),
		})
	}
	if err := cur.Err(); err != nil {
		return nil, remote(err)
	}
	return entries, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
