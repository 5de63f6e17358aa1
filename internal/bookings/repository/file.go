package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"courtbook/pkg/model"
)

type fileDocument struct {
	Bookings []*model.Booking `json:"bookings"`
}

type fileRepository struct {
	mu   sync.Mutex
	path string
}

// NewFileRepository stores the collection as one JSON document at path.
// Writes go to a temp file in the same directory and are renamed into place.
func NewFileRepository(path string) Repository {
	return &fileRepository{path: path}
}

func (r *fileRepository) Load(ctx context.Context) ([]*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []*model.Booking{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read bookings file: %w", err)
	}
	if len(data) == 0 {
		return []*model.Booking{}, nil
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode bookings file: %w", err)
	}
	if doc.Bookings == nil {
		doc.Bookings = []*model.Booking{}
	}
	return doc.Bookings, nil
}

func (r *fileRepository) Save(ctx context.Context, bookings []*model.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(fileDocument{Bookings: bookings}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode bookings: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create bookings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".bookings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write bookings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync bookings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("failed to replace bookings file: %w", err)
	}
	return nil
}

func (r *fileRepository) Ping(_ context.Context) error {
	dir := filepath.Dir(r.path)
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
