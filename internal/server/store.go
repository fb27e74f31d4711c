package server

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/httphub/internal/hub"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique user name is already taken.
	ErrConflict = errors.New("already exists")
	// ErrInvalidID is returned for ids that are not valid object ids.
	ErrInvalidID = errors.New("invalid id")
)

// UserRecord is a stored account, including its password hash.
type UserRecord struct {
	ID           string
	Name         string
	OrgName      string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Public strips the password hash.
func (u UserRecord) Public() hub.User {
	return hub.User{ID: u.ID, Name: u.Name, OrgName: u.OrgName, CreatedAt: u.CreatedAt}
}

// UserStore persists accounts.
type UserStore interface {
	// CreateUser stores u and returns it with ID and timestamps set.
	// ErrConflict if the name and org pair is taken.
	CreateUser(ctx context.Context, u UserRecord) (UserRecord, error)
	// FindUserByLogin matches login against the name or the org name.
	FindUserByLogin(ctx context.Context, login string) (UserRecord, error)
	GetUser(ctx context.Context, id string) (UserRecord, error)
	// UpdateUser replaces name, org and, if non-empty, the password hash.
	UpdateUser(ctx context.Context, u UserRecord) (UserRecord, error)
}

// CollectionStore persists collections.
type CollectionStore interface {
	CreateCollection(ctx context.Context, c hub.Collection) (hub.Collection, error)
	ListCollections(ctx context.Context, userID string) ([]hub.Collection, error)
	GetCollection(ctx context.Context, id string) (hub.Collection, error)
	RenameCollection(ctx context.Context, id, name, description string) (hub.Collection, error)
	// DeleteCollection removes the collection and every request in it.
	DeleteCollection(ctx context.Context, id string) error
}

// RequestStore persists saved requests.
type RequestStore interface {
	// CreateRequest stores r and appends its id to the owning collection.
	CreateRequest(ctx context.Context, r hub.SavedRequest) (hub.SavedRequest, error)
	GetRequest(ctx context.Context, id string) (hub.SavedRequest, error)
	ListRequests(ctx context.Context, collectionID string) ([]hub.SavedRequest, error)
	UpdateRequest(ctx context.Context, id string, patch hub.RequestPatch) (hub.SavedRequest, error)
	// DeleteRequest removes r and pulls its id from the owning collection.
	DeleteRequest(ctx context.Context, id string) error
}

// Store is everything the API needs from storage.
type Store interface {
	UserStore
	CollectionStore
	RequestStore
	Close(ctx context.Context) error
}
