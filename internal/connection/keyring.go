package connection

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/99designs/keyring"
	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/errs"
)

// ServiceName is the keyring service connections are stored under.
const ServiceName = "dbchat"

const keyPrefix = "connection:"

// KeyringStore keeps each connection as a JSON item in the OS keyring, so
// connection strings with credentials never touch a plain file.
type KeyringStore struct {
	ring keyring.Keyring
}

// OpenKeyring opens the platform keyring for dbchat.
func OpenKeyring() (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:              ServiceName,
		PassPrefix:               ServiceName,
		WinCredPrefix:            ServiceName,
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindUnsupported, "no usable keyring backend", err)
	}
	return NewKeyringStore(ring), nil
}

// NewKeyringStore wraps an open keyring.
func NewKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

func (s *KeyringStore) List(ctx context.Context) ([]database.Connection, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindPermissionDenied, "failed to list keyring items", err)
	}
	out := make([]database.Connection, 0, len(keys))
	for _, key := range keys {
		if !strings.HasPrefix(key, keyPrefix) {
			continue
		}
		conn, err := s.Get(ctx, strings.TrimPrefix(key, keyPrefix))
		if err != nil {
			return nil, err
		}
		out = append(out, conn)
	}
	sortByName(out)
	return out, nil
}

func (s *KeyringStore) Get(_ context.Context, name string) (database.Connection, error) {
	item, err := s.ring.Get(keyPrefix + name)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return database.Connection{}, notFound(name)
	}
	if err != nil {
		return database.Connection{}, errs.Wrap(errs.ErrKindPermissionDenied, "failed to read keyring item", err)
	}
	var conn database.Connection
	if err := json.Unmarshal(item.Data, &conn); err != nil {
		return database.Connection{}, errs.Wrap(errs.ErrKindInvalidInput, "corrupt keyring item "+name, err)
	}
	return conn, nil
}

func (s *KeyringStore) Add(_ context.Context, conn database.Connection) error {
	conn, err := Validate(conn)
	if err != nil {
		return err
	}
	data, err := json.Marshal(conn)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to encode connection", err)
	}
	err = s.ring.Set(keyring.Item{
		Key:         keyPrefix + conn.Name,
		Data:        data,
		Label:       "dbchat connection " + conn.Name,
		Description: string(conn.Engine) + " connection string",
	})
	if err != nil {
		return errs.Wrap(errs.ErrKindPermissionDenied, "failed to write keyring item", err)
	}
	return nil
}

func (s *KeyringStore) Delete(ctx context.Context, name string) error {
	if _, err := s.Get(ctx, name); err != nil {
		return err
	}
	if err := s.ring.Remove(keyPrefix + name); err != nil {
		return errs.Wrap(errs.ErrKindPermissionDenied, "failed to remove keyring item", err)
	}
	return nil
}
