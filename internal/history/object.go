package history

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"strings"
	"time"

	"github.com/koustreak/dbchat/internal/errs"
	"github.com/koustreak/dbchat/internal/filestore"
)

// ObjectStore keeps each item as a JSON object under <type>/<id>.json in
// an object storage bucket.
type ObjectStore struct {
	store filestore.Store
	now   func() time.Time
}

// NewObjectStore writes items through store.
func NewObjectStore(store filestore.Store) *ObjectStore {
	return &ObjectStore{store: store, now: time.Now}
}

func objectKey(item Item) string {
	return path.Join(string(item.Type), item.ID+".json")
}

func (s *ObjectStore) Save(ctx context.Context, item Item) (Item, error) {
	item, err := prepare(item, s.now())
	if err != nil {
		return Item{}, err
	}
	body, err := json.Marshal(item)
	if err != nil {
		return Item{}, errs.Wrap(errs.ErrKindInvalidInput, "encode history item", err)
	}
	if err := s.store.PutObject(ctx, objectKey(item), bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return Item{}, err
	}
	return item, nil
}

func (s *ObjectStore) List(ctx context.Context, connectionName string, t Type) ([]Item, error) {
	objs, err := s.store.ListObjects(ctx, filestore.ListOptions{Prefix: string(t) + "/", Recursive: true})
	if err != nil {
		return nil, err
	}

	out := make([]Item, 0, len(objs))
	for _, info := range objs {
		if info.IsDir || !strings.HasSuffix(info.Key, ".json") {
			continue
		}
		it, err := s.read(ctx, info.Key)
		if err != nil {
			return nil, err
		}
		if matches(it, connectionName, t) {
			out = append(out, it)
		}
	}
	newestFirst(out)
	return out, nil
}

func (s *ObjectStore) read(ctx context.Context, key string) (Item, error) {
	obj, err := s.store.GetObject(ctx, key)
	if err != nil {
		return Item{}, err
	}
	defer obj.Close()

	var it Item
	if err := json.NewDecoder(obj).Decode(&it); err != nil {
		return Item{}, errs.Wrap(errs.ErrKindQueryFailed, "decode history object "+key, err)
	}
	return it, nil
}

// Delete tries both type prefixes since the key depends on the type and
// removing a missing object is not an error in S3.
func (s *ObjectStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	for _, t := range []Type{TypeHistory, TypeFavorite} {
		key := objectKey(Item{ID: id, Type: t})
		obj, err := s.store.GetObject(ctx, key)
		if errs.IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		obj.Close()
		return s.store.RemoveObject(ctx, key)
	}
	return notFound(id)
}

func (s *ObjectStore) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *ObjectStore) Close() error {
	return s.store.Close()
}
