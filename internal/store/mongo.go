// Package store persists repository snapshots in MongoDB.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/repoatlas/repoatlas/internal/log"
	"github.com/repoatlas/repoatlas/internal/model"
)

// ErrNotFound marks a snapshot lookup that matched nothing.
var ErrNotFound = errors.New("snapshot not found")

const (
	snapshotCollection = "snapshots"
	connectTimeout     = 10 * time.Second
)

// SnapshotStore is the persistence surface the API and CLI depend on.
type SnapshotStore interface {
	Upsert(ctx context.Context, snap model.Snapshot) error
	Get(ctx context.Context, id string) (model.Snapshot, error)
	GetLatest(ctx context.Context, owner, repo string) (model.Snapshot, error)
	ListByRepository(ctx context.Context, owner, repo string) ([]model.Snapshot, error)
	Delete(ctx context.Context, id string) error
	Candidates(ctx context.Context, q CandidateQuery) ([]model.Snapshot, error)
	Close(ctx context.Context) error
}

// CandidateQuery narrows the snapshot set server-side before the search
// layer evaluates version predicates in Go.
type CandidateQuery struct {
	Owner    string
	Topics   []string
	Teams    []string
	HasCD    *bool
	DepNames []string
}

// MongoStore implements SnapshotStore on a MongoDB collection keyed by
// the snapshot ID.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to MongoDB and pings it so configuration
// errors surface at startup, not on the first write.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.Debug("connected to mongodb", "database", database)
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(snapshotCollection),
	}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Upsert writes a snapshot, replacing any previous capture of the same
// commit. Re-snapshotting an unchanged branch is therefore idempotent.
func (s *MongoStore) Upsert(ctx context.Context, snap model.Snapshot) error {
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": snap.ID},
		snap,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot %s: %w", snap.ID, err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (model.Snapshot, error) {
	var snap model.Snapshot
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&snap)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to load snapshot %s: %w", id, err)
	}
	return snap, nil
}

// GetLatest returns the most recently taken snapshot for a repository.
func (s *MongoStore) GetLatest(ctx context.Context, owner, repo string) (model.Snapshot, error) {
	var snap model.Snapshot
	err := s.collection.FindOne(ctx,
		bson.M{"owner": owner, "repository": repo},
		options.FindOne().SetSort(bson.D{{Key: "taken_at", Value: -1}}),
	).Decode(&snap)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Snapshot{}, fmt.Errorf("%w: %s/%s", ErrNotFound, owner, repo)
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to load latest snapshot for %s/%s: %w", owner, repo, err)
	}
	return snap, nil
}

// ListByRepository returns every snapshot of a repository, newest first.
func (s *MongoStore) ListByRepository(ctx context.Context, owner, repo string) ([]model.Snapshot, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"owner": owner, "repository": repo},
		options.Find().SetSort(bson.D{{Key: "taken_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots for %s/%s: %w", owner, repo, err)
	}
	return decodeAll(ctx, cursor)
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Candidates applies the exact-match parts of a search query. Version
// range predicates stay with the caller since they need semver
// semantics Mongo cannot express.
func (s *MongoStore) Candidates(ctx context.Context, q CandidateQuery) ([]model.Snapshot, error) {
	cursor, err := s.collection.Find(ctx, candidateFilter(q),
		options.Find().SetSort(bson.D{{Key: "taken_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot candidates: %w", err)
	}
	return decodeAll(ctx, cursor)
}

func candidateFilter(q CandidateQuery) bson.M {
	filter := bson.M{}
	if q.Owner != "" {
		filter["owner"] = q.Owner
	}
	if len(q.Topics) > 0 {
		filter["metadata.topics"] = bson.M{"$all": q.Topics}
	}
	if len(q.Teams) > 0 {
		filter["teams"] = bson.M{"$all": q.Teams}
	}
	if q.HasCD != nil {
		filter["has_cd"] = *q.HasCD
	}
	if len(q.DepNames) > 0 {
		// Case-insensitive name hit narrows candidates; the search layer
		// still re-checks name and version per filter.
		clauses := make([]bson.M, 0, len(q.DepNames))
		for _, name := range q.DepNames {
			clauses = append(clauses, bson.M{
				"dependencies.name": bson.M{"$regex": "^" + escapeRegex(name) + "$", "$options": "i"},
			})
		}
		filter["$and"] = clauses
	}
	return filter
}

func decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]model.Snapshot, error) {
	defer cursor.Close(ctx)

	var snaps []model.Snapshot
	if err := cursor.All(ctx, &snaps); err != nil {
		return nil, fmt.Errorf("failed to decode snapshots: %w", err)
	}
	return snaps, nil
}

// escapeRegex quotes regex metacharacters in a literal package name.
func escapeRegex(s string) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\', '.', '+', '*', '?', '(', ')', '|', '[', ']', '{', '}', '^', '$':
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
