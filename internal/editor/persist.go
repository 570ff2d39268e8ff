package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	derrors "github.com/Shashank-Shivakumar/Docfly/internal/errors"
	"github.com/Shashank-Shivakumar/Docfly/internal/form"
)

const storageKeyPrefix = "pdf-document-"

// KeyValueStore is the local storage the session is saved to
type KeyValueStore interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Save writes the active document, fields and source bytes included, under
// pdf-document-{id}. It returns the key.
func (s *Store) Save(ctx context.Context, kv KeyValueStore) (string, error) {
	doc := s.Document()
	if doc == nil {
		return "", ErrNoDocument
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", derrors.NewStorageError("save", fmt.Errorf("failed to encode document: %w", err))
	}
	key := doc.StorageKey()
	if err := kv.Put(ctx, key, data); err != nil {
		return "", derrors.NewStorageError("save", err).WithContext(key)
	}
	s.log.Info("Saved document %s (%d fields) to %s", doc.ID, len(doc.Fields), key)
	return key, nil
}

// Restore loads a saved document as a fresh session with empty history
func (s *Store) Restore(ctx context.Context, kv KeyValueStore, id string) (*form.Document, error) {
	key := form.StorageKey(strings.TrimPrefix(id, storageKeyPrefix))
	data, err := kv.Get(ctx, key)
	if err != nil {
		return nil, derrors.NewStorageError("restore", err).WithContext(key)
	}

	var doc form.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, derrors.NewStorageError("restore", fmt.Errorf("failed to decode document: %w", err)).WithContext(key)
	}
	if err := doc.Validate(); err != nil {
		return nil, derrors.NewValidationError("restore", err.Error()).WithContext(key)
	}
	if doc.Fields == nil {
		doc.Fields = []form.Field{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(&doc)
	s.totalPages = 0
	if doc.Pages > 1 {
		s.totalPages = doc.Pages
	}
	return doc.Clone(), nil
}

// ListSaved returns the ids of every saved document
func ListSaved(ctx context.Context, kv KeyValueStore) ([]string, error) {
	keys, err := kv.List(ctx, storageKeyPrefix)
	if err != nil {
		return nil, derrors.NewStorageError("list_saved", err)
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, storageKeyPrefix))
	}
	return ids, nil
}
