package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
)

// Store is the memory store whose document is rewritten to a JSON file after every change.
type Store struct {
	*memory.Store
	path string
}

// Open loads path, or seedPath when path does not exist yet, and keeps path up to date.
func Open(path, seedPath string) (*Store, error) {
	doc, err := loadFirst(path, seedPath)
	if err != nil {
		return nil, err
	}
	s := &Store{Store: memory.NewStoreFromDocument(doc), path: path}
	if err := WriteDocument(path, s.Document()); err != nil {
		return nil, err
	}
	s.SetPersister(func(doc memory.Document) error {
		return WriteDocument(s.path, doc)
	})
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

func loadFirst(paths ...string) (memory.Document, error) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		doc, err := memory.LoadDocument(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return memory.Document{}, fmt.Errorf("load %s: %w", p, err)
		}
		return doc, nil
	}
	return memory.Document{Mode: domain.ModeState{Mode: domain.ModeGame}}, nil
}

// WriteDocument replaces path atomically with the indented JSON form of doc.
func WriteDocument(path string, doc memory.Document) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("encode document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
