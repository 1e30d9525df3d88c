// Package docstore is a small JSON document store: named collections of
// objects loaded from a single JSON file and written back through on every
// mutation. It backs the settings service that fronts it with an API-key
// check.
package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

var ErrUnknownCollection = errors.New("docstore: unknown collection")

// Document is a schemaless JSON object. Every stored document has a string
// "id" field.
type Document = map[string]any

type Store struct {
	mu          sync.RWMutex
	path        string
	collections map[string][]Document
}

// Load reads the database file. A missing file starts an empty store that
// is created on first flush.
func Load(path string) (*Store, error) {
	s := &Store{path: path, collections: map[string][]Document{}}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("docstore: read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.collections); err != nil {
		return nil, fmt.Errorf("docstore: parse %s: %w", path, err)
	}
	return s, nil
}

// Collections lists the known collection names.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.collections))
	for name := range s.collections {
		out = append(out, name)
	}
	return out
}

// List returns all documents in a collection.
func (s *Store) List(collection string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, ok := s.collections[collection]
	if !ok {
		return nil, ErrUnknownCollection
	}
	out := make([]Document, len(docs))
	copy(out, docs)
	return out, nil
}

// Get returns the document with the given id.
func (s *Store) Get(collection, id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.collections[collection] {
		if docID(doc) == id {
			return doc, true
		}
	}
	return nil, false
}

// Insert appends a document, assigning an id when missing, and persists.
func (s *Store) Insert(collection string, doc Document) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if docID(doc) == "" {
		doc["id"] = uuid.NewString()
	}
	s.collections[collection] = append(s.collections[collection], doc)
	if err := s.flushLocked(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Replace swaps the document with the given id and persists.
func (s *Store) Replace(collection, id string, doc Document) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		return nil, ErrUnknownCollection
	}
	for i, existing := range docs {
		if docID(existing) == id {
			doc["id"] = id
			docs[i] = doc
			if err := s.flushLocked(); err != nil {
				return nil, err
			}
			return doc, nil
		}
	}
	return nil, fmt.Errorf("docstore: no document %q in %q", id, collection)
}

// Delete removes the document with the given id and persists.
func (s *Store) Delete(collection, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		return false, ErrUnknownCollection
	}
	for i, existing := range docs {
		if docID(existing) == id {
			s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			if err := s.flushLocked(); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

func docID(doc Document) string {
	switch v := doc["id"].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

// flushLocked writes the store back to disk via a temp file and rename.
func (s *Store) flushLocked() error {
	raw, err := json.MarshalIndent(s.collections, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".db-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
