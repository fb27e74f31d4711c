// Package mongostore implements the API storage on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/httphub/internal/hub"
	"github.com/artpar/httphub/internal/server"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds the three collections the API uses.
type Store struct {
	client      *mongo.Client
	db          *mongo.Database
	users       *mongo.Collection
	collections *mongo.Collection
	requests    *mongo.Collection
}

// Connect dials uri, pings the primary and ensures indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:      client,
		db:          db,
		users:       db.Collection("users"),
		collections: db.Collection("collections"),
		requests:    db.Collection("requests"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}, {Key: "orgName", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "orgName", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	if _, err := s.collections.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdBy", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create collection indexes: %w", err)
	}
	if _, err := s.requests.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "collection", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create request indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func objectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, server.ErrInvalidID
	}
	return id, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return server.ErrNotFound
	}
	return err
}

// CreateUser inserts an account. The unique index reports name clashes.
func (s *Store) CreateUser(ctx context.Context, u server.UserRecord) (server.UserRecord, error) {
	ts := now()
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Name:      u.Name,
		OrgName:   u.OrgName,
		Password:  u.PasswordHash,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return server.UserRecord{}, server.ErrConflict
		}
		return server.UserRecord{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return doc.record(), nil
}

// FindUserByLogin matches login against name or orgName.
func (s *Store) FindUserByLogin(ctx context.Context, login string) (server.UserRecord, error) {
	filter := bson.M{"$or": bson.A{bson.M{"name": login}, bson.M{"orgName": login}}}
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})

	var doc userDoc
	if err := s.users.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		return server.UserRecord{}, notFound(err)
	}
	return doc.record(), nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (server.UserRecord, error) {
	oid, err := objectID(id)
	if err != nil {
		return server.UserRecord{}, err
	}
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return server.UserRecord{}, notFound(err)
	}
	return doc.record(), nil
}

// UpdateUser changes name, org and optionally the password hash.
func (s *Store) UpdateUser(ctx context.Context, u server.UserRecord) (server.UserRecord, error) {
	oid, err := objectID(u.ID)
	if err != nil {
		return server.UserRecord{}, err
	}
	set := bson.M{"name": u.Name, "orgName": u.OrgName, "updatedAt": now()}
	if u.PasswordHash != "" {
		set["password"] = u.PasswordHash
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDoc
	err = s.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		return server.UserRecord{}, server.ErrConflict
	}
	if err != nil {
		return server.UserRecord{}, notFound(err)
	}
	return doc.record(), nil
}

// CreateCollection inserts an empty collection.
func (s *Store) CreateCollection(ctx context.Context, c hub.Collection) (hub.Collection, error) {
	owner, err := objectID(c.CreatedBy)
	if err != nil {
		return hub.Collection{}, err
	}
	ts := now()
	doc := collectionDoc{
		ID:          primitive.NewObjectID(),
		Name:        c.Name,
		Description: c.Description,
		CreatedBy:   owner,
		Requests:    []primitive.ObjectID{},
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if _, err := s.collections.InsertOne(ctx, doc); err != nil {
		return hub.Collection{}, fmt.Errorf("failed to insert collection: %w", err)
	}
	return doc.model(), nil
}

// ListCollections returns the collections created by userID.
func (s *Store) ListCollections(ctx context.Context, userID string) ([]hub.Collection, error) {
	owner, err := objectID(userID)
	if err != nil {
		return nil, err
	}
	cur, err := s.collections.Find(ctx, bson.M{"createdBy": owner}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find collections: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]hub.Collection, 0)
	for cur.Next(ctx) {
		var doc collectionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode collection: %w", err)
		}
		out = append(out, doc.model())
	}
	return out, cur.Err()
}

// GetCollection returns a collection by id.
func (s *Store) GetCollection(ctx context.Context, id string) (hub.Collection, error) {
	oid, err := objectID(id)
	if err != nil {
		return hub.Collection{}, err
	}
	var doc collectionDoc
	if err := s.collections.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return hub.Collection{}, notFound(err)
	}
	return doc.model(), nil
}

// RenameCollection sets name and description.
func (s *Store) RenameCollection(ctx context.Context, id, name, description string) (hub.Collection, error) {
	oid, err := objectID(id)
	if err != nil {
		return hub.Collection{}, err
	}
	update := bson.M{"$set": bson.M{"name": name, "description": description, "updatedAt": now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc collectionDoc
	if err := s.collections.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return hub.Collection{}, notFound(err)
	}
	return doc.model(), nil
}

// DeleteCollection removes the collection, then its requests.
func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.collections.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	if res.DeletedCount == 0 {
		return server.ErrNotFound
	}
	if _, err := s.requests.DeleteMany(ctx, bson.M{"collection": oid}); err != nil {
		return fmt.Errorf("failed to delete collection requests: %w", err)
	}
	return nil
}

// CreateRequest inserts r and pushes its id onto the collection.
func (s *Store) CreateRequest(ctx context.Context, r hub.SavedRequest) (hub.SavedRequest, error) {
	coll, err := objectID(r.Collection)
	if err != nil {
		return hub.SavedRequest{}, err
	}
	n, err := s.collections.CountDocuments(ctx, bson.M{"_id": coll})
	if err != nil {
		return hub.SavedRequest{}, fmt.Errorf("failed to look up collection: %w", err)
	}
	if n == 0 {
		return hub.SavedRequest{}, server.ErrNotFound
	}

	doc := newRequestDoc(r, coll, now())
	doc.ID = primitive.NewObjectID()
	if _, err := s.requests.InsertOne(ctx, doc); err != nil {
		return hub.SavedRequest{}, fmt.Errorf("failed to insert request: %w", err)
	}
	if _, err := s.collections.UpdateByID(ctx, coll, bson.M{
		"$push": bson.M{"requests": doc.ID},
		"$set":  bson.M{"updatedAt": now()},
	}); err != nil {
		return hub.SavedRequest{}, fmt.Errorf("failed to link request: %w", err)
	}
	return doc.model(), nil
}

// GetRequest returns a saved request by id.
func (s *Store) GetRequest(ctx context.Context, id string) (hub.SavedRequest, error) {
	oid, err := objectID(id)
	if err != nil {
		return hub.SavedRequest{}, err
	}
	var doc requestDoc
	if err := s.requests.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return hub.SavedRequest{}, notFound(err)
	}
	return doc.model(), nil
}

// ListRequests returns the requests of a collection.
func (s *Store) ListRequests(ctx context.Context, collectionID string) ([]hub.SavedRequest, error) {
	coll, err := objectID(collectionID)
	if err != nil {
		return nil, err
	}
	cur, err := s.requests.Find(ctx, bson.M{"collection": coll}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find requests: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]hub.SavedRequest, 0)
	for cur.Next(ctx) {
		var doc requestDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode request: %w", err)
		}
		out = append(out, doc.model())
	}
	return out, cur.Err()
}

// UpdateRequest applies the set fields of patch.
func (s *Store) UpdateRequest(ctx context.Context, id string, patch hub.RequestPatch) (hub.SavedRequest, error) {
	oid, err := objectID(id)
	if err != nil {
		return hub.SavedRequest{}, err
	}
	set := bson.M{"updatedAt": now()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Method != nil {
		set["method"] = *patch.Method
	}
	if patch.URL != nil {
		set["url"] = *patch.URL
	}
	if patch.Headers != nil {
		set["headers"] = docsFromPairs(*patch.Headers)
	}
	if patch.QueryParams != nil {
		set["queryParams"] = docsFromPairs(*patch.QueryParams)
	}
	if patch.Body != nil {
		set["body"] = docFromBody(*patch.Body)
	}
	if patch.Auth != nil {
		set["auth"] = docFromAuth(*patch.Auth)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc requestDoc
	if err := s.requests.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		return hub.SavedRequest{}, notFound(err)
	}
	return doc.model(), nil
}

// DeleteRequest removes r and pulls its id from the collection.
func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	var doc requestDoc
	if err := s.requests.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return notFound(err)
	}
	if !doc.Collection.IsZero() {
		if _, err := s.collections.UpdateByID(ctx, doc.Collection, bson.M{
			"$pull": bson.M{"requests": doc.ID},
			"$set":  bson.M{"updatedAt": now()},
		}); err != nil {
			return fmt.Errorf("failed to unlink request: %w", err)
		}
	}
	return nil
}

var _ server.Store = (*Store)(nil)
