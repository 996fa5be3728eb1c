// Package mongostore implements a durable state.Base backend on top of the
// MongoDB Go driver v2, grounded on the teacher's
// features/memory/mongo/clients/mongo client wrapper: a narrow collection
// interface behind the concrete *mongo.Collection so the store stays unit
// testable without a live server, the same upsert-via-$set/$setOnInsert
// pattern, and a goa.design/clue/health.Pinger for liveness checks.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"goa.design/clue/health"

	"github.com/lexlapax/rs-llmspell-sub006/core/coreerrors"
	"github.com/lexlapax/rs-llmspell-sub006/core/state"
)

const (
	defaultCollection = "core_state"
	defaultTimeout    = 5 * time.Second
	clientName        = "core-state-mongo"
)

// Options configures a Store.
type Options struct {
	Client     *mongodriver.Client
	Database   string
	Collection string
	Timeout    time.Duration
}

// Store is a MongoDB-backed state.Base implementation. It is safe for
// concurrent use; the underlying *mongo.Client already pools connections.
type Store struct {
	mongo   *mongodriver.Client
	coll    collection
	timeout time.Duration
}

var _ state.Base = (*Store)(nil)
var _ health.Pinger = (*Store)(nil)

// New constructs a Store and ensures its compound unique index exists.
func New(opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("mongostore: client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("mongostore: database name is required")
	}
	collName := opts.Collection
	if collName == "" {
		collName = defaultCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	mcoll := opts.Client.Database(opts.Database).Collection(collName)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	wrapper := mongoCollection{coll: mcoll}
	if err := ensureIndexes(ctx, wrapper); err != nil {
		return nil, err
	}
	return &Store{mongo: opts.Client, coll: wrapper, timeout: timeout}, nil
}

// Name implements health.Pinger.
func (s *Store) Name() string { return clientName }

// Ping implements health.Pinger.
func (s *Store) Ping(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.mongo.Ping(ctx, readpref.Primary())
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

type stateDocument struct {
	ScopeTag      string    `bson:"scope_tag"`
	ScopeID       string    `bson:"scope_id"`
	Key           string    `bson:"key"`
	Value         any       `bson:"value"`
	SchemaVersion uint32    `bson:"schema_version"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func filterFor(scope state.Scope, key string) bson.M {
	return bson.M{"scope_tag": string(scope.Tag), "scope_id": scope.ID, "key": key}
}

func (s *Store) Set(ctx context.Context, scope state.Scope, key string, value any) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"value":      value,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"scope_tag":      string(scope.Tag),
			"scope_id":       scope.ID,
			"key":            key,
			"schema_version": uint32(1),
		},
	}
	_, err := s.coll.UpdateOne(ctx, filterFor(scope, key), update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return coreerrors.Storage("set", "mongo upsert failed", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, scope state.Scope, key string) (state.Entry, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var doc stateDocument
	if err := s.coll.FindOne(ctx, filterFor(scope, key)).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return state.Entry{}, false, nil
		}
		return state.Entry{}, false, coreerrors.Storage("get", "mongo find failed", err)
	}
	return state.Entry{Value: doc.Value, SchemaVersion: doc.SchemaVersion, UpdatedAt: doc.UpdatedAt}, true, nil
}

func (s *Store) Delete(ctx context.Context, scope state.Scope, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.coll.DeleteOne(ctx, filterFor(scope, key)); err != nil {
		return coreerrors.Storage("delete", "mongo delete failed", err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, scope state.Scope, key string) (bool, error) {
	_, ok, err := s.Get(ctx, scope, key)
	return ok, err
}

func (s *Store) ListKeys(ctx context.Context, scope state.Scope) ([]string, error) {
	entries, err := s.GetAllInScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *Store) ClearScope(ctx context.Context, scope state.Scope) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.coll.DeleteMany(ctx, scopeFilter(scope))
	if err != nil {
		return 0, coreerrors.Storage("clear_scope", "mongo delete-many failed", err)
	}
	return int(res), nil
}

func scopeFilter(scope state.Scope) bson.M {
	if scope.Tag == state.ScopeGlobal {
		return bson.M{"scope_tag": string(state.ScopeGlobal)}
	}
	return bson.M{"scope_tag": string(scope.Tag), "scope_id": scope.ID}
}

func (s *Store) GetAllInScope(ctx context.Context, scope state.Scope) (map[string]state.Entry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	cur, err := s.coll.Find(ctx, scopeFilter(scope))
	if err != nil {
		return nil, coreerrors.Storage("get_all_in_scope", "mongo find failed", err)
	}
	defer cur.Close(ctx)
	out := make(map[string]state.Entry)
	for cur.Next(ctx) {
		var doc stateDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, coreerrors.Storage("get_all_in_scope", "mongo decode failed", err)
		}
		out[doc.Key] = state.Entry{Value: doc.Value, SchemaVersion: doc.SchemaVersion, UpdatedAt: doc.UpdatedAt}
	}
	if err := cur.Err(); err != nil {
		return nil, coreerrors.Storage("get_all_in_scope", "mongo cursor failed", err)
	}
	return out, nil
}

func ensureIndexes(ctx context.Context, coll collection) error {
	index := mongodriver.IndexModel{
		Keys:    bson.D{{Key: "scope_tag", Value: 1}, {Key: "scope_id", Value: 1}, {Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err := coll.Indexes().CreateOne(ctx, index)
	return err
}

// collection narrows *mongo.Collection to the operations Store uses, so
// tests can supply a fake without a live server.
type collection interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) singleResult
	UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongodriver.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any) (int64, error)
	DeleteMany(ctx context.Context, filter any) (int64, error)
	Find(ctx context.Context, filter any) (cursor, error)
	Indexes() indexView
}

type indexView interface {
	CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...options.Lister[options.CreateIndexesOptions]) (string, error)
}

type singleResult interface {
	Decode(val any) error
}

type cursor interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	Err() error
	Close(ctx context.Context) error
}

type mongoCollection struct {
	coll *mongodriver.Collection
}

func (c mongoCollection) FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) singleResult {
	return c.coll.FindOne(ctx, filter, opts...)
}

func (c mongoCollection) UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongodriver.UpdateResult, error) {
	return c.coll.UpdateOne(ctx, filter, update, opts...)
}

func (c mongoCollection) DeleteOne(ctx context.Context, filter any) (int64, error) {
	res, err := c.coll.DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (c mongoCollection) DeleteMany(ctx context.Context, filter any) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (c mongoCollection) Find(ctx context.Context, filter any) (cursor, error) {
	return c.coll.Find(ctx, filter)
}

func (c mongoCollection) Indexes() indexView {
	return mongoIndexView{view: c.coll.Indexes()}
}

type mongoIndexView struct {
	view mongodriver.IndexView
}

func (v mongoIndexView) CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...options.Lister[options.CreateIndexesOptions]) (string, error) {
	return v.view.CreateOne(ctx, model, opts...)
}
