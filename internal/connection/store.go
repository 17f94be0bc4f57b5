// Package connection stores the named database connections users pick from.
// The core never persists connections; these stores are the outer layer
// that supplies them.
package connection

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/errs"
)

// Store lists and manages named connections.
type Store interface {
	List(ctx context.Context) ([]database.Connection, error)
	Get(ctx context.Context, name string) (database.Connection, error)
	Add(ctx context.Context, conn database.Connection) error
	Delete(ctx context.Context, name string) error
}

// Validate checks conn and normalizes its engine.
func Validate(conn database.Connection) (database.Connection, error) {
	conn.Name = strings.TrimSpace(conn.Name)
	if conn.Name == "" {
		return conn, errs.New(errs.ErrKindInvalidInput, "connection name is required")
	}
	if strings.TrimSpace(conn.ConnectionString) == "" {
		return conn, errs.New(errs.ErrKindInvalidInput, "connection string is required")
	}
	engine, err := database.ParseEngine(string(conn.Engine))
	if err != nil {
		return conn, err
	}
	conn.Engine = engine
	return conn, nil
}

func notFound(name string) *errs.Error {
	return errs.Newf(errs.ErrKindNotFound, "connection %q not found", name)
}

func sortByName(conns []database.Connection) {
	sort.Slice(conns, func(i, j int) bool { return conns[i].Name < conns[j].Name })
}

// MemoryStore keeps connections in process memory. It is safe for
// concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	conns map[string]database.Connection
}

// NewMemoryStore returns a store seeded with conns.
func NewMemoryStore(conns ...database.Connection) *MemoryStore {
	s := &MemoryStore{conns: make(map[string]database.Connection, len(conns))}
	for _, c := range conns {
		s.conns[c.Name] = c
	}
	return s
}

func (s *MemoryStore) List(context.Context) ([]database.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]database.Connection, 0, len(s.conns))
	for _, c := range s.conns {
		out = append(out, c)
	}
	sortByName(out)
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, name string) (database.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conns[name]
	if !ok {
		return database.Connection{}, notFound(name)
	}
	return c, nil
}

// Add stores conn, replacing any connection with the same name.
func (s *MemoryStore) Add(_ context.Context, conn database.Connection) error {
	conn, err := Validate(conn)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn.Name] = conn
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conns[name]; !ok {
		return notFound(name)
	}
	delete(s.conns, name)
	return nil
}

// Static serves a fixed set of connections, typically from configuration.
// Add and Delete are unsupported.
type Static struct {
	mem *MemoryStore
}

// NewStatic returns a read-only store over conns.
func NewStatic(conns []database.Connection) *Static {
	return &Static{mem: NewMemoryStore(conns...)}
}

func (s *Static) List(ctx context.Context) ([]database.Connection, error) { return s.mem.List(ctx) }

func (s *Static) Get(ctx context.Context, name string) (database.Connection, error) {
	return s.mem.Get(ctx, name)
}

func (s *Static) Add(context.Context, database.Connection) error {
	return errs.New(errs.ErrKindUnsupported, "configured connections are read-only")
}

func (s *Static) Delete(ctx context.Context, name string) error {
	if _, err := s.mem.Get(ctx, name); err != nil {
		return err
	}
	return errs.New(errs.ErrKindUnsupported, "configured connections are read-only")
}

// Chain reads across several stores and writes to the first. On a name
// clash the earlier store wins.
type Chain []Store

func (c Chain) List(ctx context.Context) ([]database.Connection, error) {
	seen := make(map[string]bool)
	var out []database.Connection
	for _, s := range c {
		conns, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, conn := range conns {
			if seen[conn.Name] {
				continue
			}
			seen[conn.Name] = true
			out = append(out, conn)
		}
	}
	sortByName(out)
	return out, nil
}

func (c Chain) Get(ctx context.Context, name string) (database.Connection, error) {
	for _, s := range c {
		conn, err := s.Get(ctx, name)
		if err == nil {
			return conn, nil
		}
		if !errs.IsNotFound(err) {
			return database.Connection{}, err
		}
	}
	return database.Connection{}, notFound(name)
}

func (c Chain) Add(ctx context.Context, conn database.Connection) error {
	if len(c) == 0 {
		return errs.New(errs.ErrKindUnsupported, "no writable connection store")
	}
	return c[0].Add(ctx, conn)
}

// Delete removes name from the first store holding it.
func (c Chain) Delete(ctx context.Context, name string) error {
	for _, s := range c {
		err := s.Delete(ctx, name)
		if err == nil || !errs.IsNotFound(err) {
			return err
		}
	}
	return notFound(name)
}
