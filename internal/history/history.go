// Package history records the queries users run and the ones they mark as
// favorites, per connection.
package history

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/koustreak/dbchat/internal/errs"
)

// Type separates automatically recorded queries from saved favorites.
type Type string

const (
	TypeHistory  Type = "history"
	TypeFavorite Type = "favorite"
)

// ParseType resolves a case-insensitive type name.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeHistory:
		return TypeHistory, nil
	case TypeFavorite:
		return TypeFavorite, nil
	}
	return "", errs.Newf(errs.ErrKindInvalidInput, "unknown history type %q", s)
}

// Item is one recorded query.
type Item struct {
	ID             string    `json:"id"`
	Query          string    `json:"query"`
	Name           string    `json:"name"`
	ConnectionName string    `json:"connectionName"`
	Type           Type      `json:"type"`
	Tags           string    `json:"tags"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Store persists history items.
type Store interface {
	// Save stores item, assigning its ID and CreatedAt, and returns it.
	Save(ctx context.Context, item Item) (Item, error)

	// List returns the items of type t, newest first. An empty
	// connectionName matches every connection.
	List(ctx context.Context, connectionName string, t Type) ([]Item, error)

	// Delete removes the item with id, whatever its type.
	Delete(ctx context.Context, id string) error

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// checkID rejects anything that is not an ID prepare could have assigned.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errs.Newf(errs.ErrKindInvalidInput, "invalid history id %q", id)
	}
	return nil
}

func notFound(id string) *errs.Error {
	return errs.Newf(errs.ErrKindNotFound, "history item %q not found", id)
}

// prepare validates item and fills the generated fields.
func prepare(item Item, now time.Time) (Item, error) {
	if strings.TrimSpace(item.Query) == "" {
		return item, errs.New(errs.ErrKindInvalidInput, "query is required")
	}
	if item.Type == "" {
		item.Type = TypeHistory
	}
	if _, err := ParseType(string(item.Type)); err != nil {
		return item, err
	}
	if item.Name == "" {
		item.Name = item.Query
	}
	item.ID = uuid.NewString()
	item.CreatedAt = now.UTC()
	return item, nil
}

func matches(item Item, connectionName string, t Type) bool {
	return item.Type == t && (connectionName == "" || item.ConnectionName == connectionName)
}

func newestFirst(items []Item) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
}

// MemoryStore keeps items in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Item
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, item Item) (Item, error) {
	item, err := prepare(item, s.now())
	if err != nil {
		return Item{}, err
	}
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
	return item, nil
}

func (s *MemoryStore) List(_ context.Context, connectionName string, t Type) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Item, 0)
	for i := len(s.items) - 1; i >= 0; i-- {
		if it := s.items[i]; matches(it, connectionName, t) {
			out = append(out, it)
		}
	}
	newestFirst(out)
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return notFound(id)
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
func (s *MemoryStore) Close() error               { return nil }
