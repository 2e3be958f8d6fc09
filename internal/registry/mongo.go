package registry

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/patchdoc/patchdoc/internal/document"
	"github.com/patchdoc/patchdoc/internal/schema"
)

// Snapshot is the persisted form of a live document: enough to rebuild the
// schema, the value map, and the audit history.
type Snapshot struct {
	ID            string                  `bson:"id"`
	SchemaName    string                  `bson:"schemaName"`
	SchemaVersion int                     `bson:"schemaVersion"`
	Fields        []schema.Field          `bson:"fields"`
	Values        map[string]interface{}  `bson:"values"`
	History       []document.HistoryEntry `bson:"history"`
	UpdatedAt     time.Time               `bson:"updatedAt"`
}

// SnapshotRepo persists document snapshots.
type SnapshotRepo interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, id string) (*Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// MongoSnapshotRepo stores one snapshot per document id, upserted on save.
type MongoSnapshotRepo struct {
	col *mongo.Collection
}

func NewMongoSnapshotRepo(col *mongo.Collection) *MongoSnapshotRepo {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &MongoSnapshotRepo{col: col}
}

func (m *MongoSnapshotRepo) Save(ctx context.Context, snap *Snapshot) error {
	opts := options.Replace().SetUpsert(true)
	_, err := m.col.ReplaceOne(ctx, bson.M{"id": snap.ID}, snap, opts)
	return err
}

func (m *MongoSnapshotRepo) Load(ctx context.Context, id string) (*Snapshot, error) {
	var snap Snapshot
	err := m.col.FindOne(ctx, bson.M{"id": id}).Decode(&snap)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &snap, nil
}

func (m *MongoSnapshotRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
