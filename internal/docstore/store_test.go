package docstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempDB(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.json")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	return path
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(s.Collections()) != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestCRUDRoundTrip(t *testing.T) {
	path := tempDB(t, `{"settings":[{"id":"1","theme":"dark"}]}`)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	docs, err := s.List("settings")
	if err != nil || len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %v (%v)", docs, err)
	}

	created, err := s.Insert("settings", Document{"theme": "light"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("expected generated id")
	}

	if _, ok := s.Get("settings", id); !ok {
		t.Fatalf("expected inserted doc to be readable")
	}

	replaced, err := s.Replace("settings", id, Document{"theme": "solar"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if replaced["theme"] != "solar" || replaced["id"] != id {
		t.Fatalf("unexpected replaced doc: %v", replaced)
	}

	removed, err := s.Delete("settings", "1")
	if err != nil || !removed {
		t.Fatalf("expected delete, got removed=%v err=%v", removed, err)
	}

	// Mutations are written through; a fresh load sees them.
	s2, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	docs, err = s2.List("settings")
	if err != nil || len(docs) != 1 {
		t.Fatalf("expected persisted state, got %v (%v)", docs, err)
	}
	if docs[0]["theme"] != "solar" {
		t.Fatalf("expected persisted replacement, got %v", docs[0])
	}
}

func TestUnknownCollection(t *testing.T) {
	s, err := Load(tempDB(t, `{}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := s.List("nope"); !errors.Is(err, ErrUnknownCollection) {
		t.Fatalf("expected ErrUnknownCollection, got %v", err)
	}
	if _, err := s.Replace("nope", "1", Document{}); !errors.Is(err, ErrUnknownCollection) {
		t.Fatalf("expected ErrUnknownCollection, got %v", err)
	}
}

func TestNumericIDsMatch(t *testing.T) {
	s, err := Load(tempDB(t, `{"settings":[{"id":7,"theme":"dark"}]}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := s.Get("settings", "7"); !ok {
		t.Fatalf("expected numeric id to match its decimal form")
	}
}

func TestFlushWritesValidJSON(t *testing.T) {
	path := tempDB(t, "")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := s.Insert("settings", Document{"k": "v"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected db file, got %v", err)
	}
	var out map[string][]Document
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("expected valid JSON on disk, got %v", err)
	}
}
