// Package memstore keeps users, collections and saved requests in memory.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/hub"
	"github.com/artpar/httphub/internal/server"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store implements server.Store with maps guarded by one mutex.
type Store struct {
	mu          sync.RWMutex
	users       map[string]server.UserRecord
	collections map[string]hub.Collection
	requests    map[string]hub.SavedRequest
	now         func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:       make(map[string]server.UserRecord),
		collections: make(map[string]hub.Collection),
		requests:    make(map[string]hub.SavedRequest),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func checkID(id string) error {
	if !primitive.IsValidObjectID(id) {
		return server.ErrInvalidID
	}
	return nil
}

// CreateUser stores a new account.
func (s *Store) CreateUser(ctx context.Context, u server.UserRecord) (server.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Name == u.Name && existing.OrgName == u.OrgName {
			return server.UserRecord{}, server.ErrConflict
		}
	}
	now := s.now()
	u.ID = newID()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = u
	return u, nil
}

// FindUserByLogin returns the oldest user whose name or org matches login.
func (s *Store) FindUserByLogin(ctx context.Context, login string) (server.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []server.UserRecord
	for _, u := range s.users {
		if u.Name == login || u.OrgName == login {
			found = append(found, u)
		}
	}
	if len(found) == 0 {
		return server.UserRecord{}, server.ErrNotFound
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found[0], nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (server.UserRecord, error) {
	if err := checkID(id); err != nil {
		return server.UserRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return server.UserRecord{}, server.ErrNotFound
	}
	return u, nil
}

// UpdateUser replaces the profile fields of an existing user.
func (s *Store) UpdateUser(ctx context.Context, u server.UserRecord) (server.UserRecord, error) {
	if err := checkID(u.ID); err != nil {
		return server.UserRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[u.ID]
	if !ok {
		return server.UserRecord{}, server.ErrNotFound
	}
	for id, other := range s.users {
		if id != u.ID && other.Name == u.Name && other.OrgName == u.OrgName {
			return server.UserRecord{}, server.ErrConflict
		}
	}
	current.Name = u.Name
	current.OrgName = u.OrgName
	if u.PasswordHash != "" {
		current.PasswordHash = u.PasswordHash
	}
	current.UpdatedAt = s.now()
	s.users[u.ID] = current
	return current, nil
}

// CreateCollection stores a new, empty collection.
func (s *Store) CreateCollection(ctx context.Context, c hub.Collection) (hub.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c.ID = newID()
	c.Requests = []string{}
	c.CreatedAt, c.UpdatedAt = now, now
	s.collections[c.ID] = c
	return copyCollection(c), nil
}

// ListCollections returns the collections created by userID, oldest first.
func (s *Store) ListCollections(ctx context.Context, userID string) ([]hub.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]hub.Collection, 0)
	for _, c := range s.collections {
		if c.CreatedBy == userID {
			out = append(out, copyCollection(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetCollection returns a collection by id.
func (s *Store) GetCollection(ctx context.Context, id string) (hub.Collection, error) {
	if err := checkID(id); err != nil {
		return hub.Collection{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[id]
	if !ok {
		return hub.Collection{}, server.ErrNotFound
	}
	return copyCollection(c), nil
}

// RenameCollection updates name and description.
func (s *Store) RenameCollection(ctx context.Context, id, name, description string) (hub.Collection, error) {
	if err := checkID(id); err != nil {
		return hub.Collection{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[id]
	if !ok {
		return hub.Collection{}, server.ErrNotFound
	}
	c.Name = name
	c.Description = description
	c.UpdatedAt = s.now()
	s.collections[id] = c
	return copyCollection(c), nil
}

// DeleteCollection removes a collection and its requests.
func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[id]; !ok {
		return server.ErrNotFound
	}
	delete(s.collections, id)
	for rid, r := range s.requests {
		if r.Collection == id {
			delete(s.requests, rid)
		}
	}
	return nil
}

// CreateRequest stores r and links it to its collection.
func (s *Store) CreateRequest(ctx context.Context, r hub.SavedRequest) (hub.SavedRequest, error) {
	if err := checkID(r.Collection); err != nil {
		return hub.SavedRequest{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[r.Collection]
	if !ok {
		return hub.SavedRequest{}, server.ErrNotFound
	}
	now := s.now()
	r.ID = newID()
	r.CreatedAt, r.UpdatedAt = now, now
	s.requests[r.ID] = copyRequest(r)

	c.Requests = append(append([]string{}, c.Requests...), r.ID)
	s.collections[c.ID] = c
	return copyRequest(r), nil
}

// GetRequest returns a saved request by id.
func (s *Store) GetRequest(ctx context.Context, id string) (hub.SavedRequest, error) {
	if err := checkID(id); err != nil {
		return hub.SavedRequest{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return hub.SavedRequest{}, server.ErrNotFound
	}
	return copyRequest(r), nil
}

// ListRequests returns the requests of a collection, oldest first.
func (s *Store) ListRequests(ctx context.Context, collectionID string) ([]hub.SavedRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]hub.SavedRequest, 0)
	for _, r := range s.requests {
		if r.Collection == collectionID {
			out = append(out, copyRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateRequest applies a partial update.
func (s *Store) UpdateRequest(ctx context.Context, id string, patch hub.RequestPatch) (hub.SavedRequest, error) {
	if err := checkID(id); err != nil {
		return hub.SavedRequest{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return hub.SavedRequest{}, server.ErrNotFound
	}
	patch.Apply(&r)
	r.UpdatedAt = s.now()
	s.requests[id] = copyRequest(r)
	return copyRequest(r), nil
}

// DeleteRequest removes r and unlinks it from its collection.
func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return server.ErrNotFound
	}
	delete(s.requests, id)

	if c, ok := s.collections[r.Collection]; ok {
		kept := make([]string, 0, len(c.Requests))
		for _, rid := range c.Requests {
			if rid != id {
				kept = append(kept, rid)
			}
		}
		c.Requests = kept
		s.collections[c.ID] = c
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close(ctx context.Context) error {
	return nil
}

func copyCollection(c hub.Collection) hub.Collection {
	c.Requests = append([]string{}, c.Requests...)
	return c
}

func copyRequest(r hub.SavedRequest) hub.SavedRequest {
	r.Headers = append([]core.KeyValue{}, r.Headers...)
	r.QueryParams = append([]core.KeyValue{}, r.QueryParams...)
	r.Body.FormData = append([]hub.FormField{}, r.Body.FormData...)
	r.Auth = copyAuth(r.Auth)
	return r
}

func copyAuth(a hub.RequestAuth) hub.RequestAuth {
	if a.Basic != nil {
		v := *a.Basic
		a.Basic = &v
	}
	if a.Bearer != nil {
		v := *a.Bearer
		a.Bearer = &v
	}
	if a.OAuth2 != nil {
		v := *a.OAuth2
		a.OAuth2 = &v
	}
	if a.APIKey != nil {
		v := *a.APIKey
		a.APIKey = &v
	}
	return a
}

var _ server.Store = (*Store)(nil)
