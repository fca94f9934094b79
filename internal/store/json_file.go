package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"storefront/internal/models"
)

// JSONFileStore stores each collection as a separate JSON array on disk.
//
// Layout:
//
//	storage_dir/
//	  services.json   # "services" collection
//	  orders.json     # "orders" collection
type JSONFileStore struct {
	mu  sync.Mutex
	dir string
	log logrus.FieldLogger
}

// NewJSONFileStore creates the storage directory if needed
func NewJSONFileStore(dir string, log logrus.FieldLogger) (*JSONFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "init", Collection: dir, Err: err}
	}
	return &JSONFileStore{dir: dir, log: log}, nil
}

func (s *JSONFileStore) collectionPath(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// ReadCollection implements Store
func (s *JSONFileStore) ReadCollection(_ context.Context, name string) ([]models.Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, readErr(name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.collectionPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			// First access creates the backing file
			if err := s.writeLocked(name, nil); err != nil {
				return nil, err
			}
			return []models.Record{}, nil
		}
		return nil, readErr(name, err)
	}

	if len(data) == 0 {
		return []models.Record{}, nil
	}

	records, err := models.DecodeRecords(data)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"collection": name,
			"error":      err,
		}).Warn("Corrupt collection file, resetting to empty")
		if err := s.writeLocked(name, nil); err != nil {
			return nil, err
		}
		return []models.Record{}, nil
	}

	return records, nil
}

// Exists implements Store
func (s *JSONFileStore) Exists(_ context.Context, name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, readErr(name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.collectionPath(name)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, readErr(name, err)
	}
	return true, nil
}

// WriteCollection implements Store. The array is written to a temporary file
// in the same directory and renamed over the old one.
func (s *JSONFileStore) WriteCollection(_ context.Context, name string, records []models.Record) error {
	if err := ValidateName(name); err != nil {
		return writeErr(name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(name, records)
}

func (s *JSONFileStore) writeLocked(name string, records []models.Record) error {
	data, err := models.EncodeRecords(records)
	if err != nil {
		return writeErr(name, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+"-*.tmp")
	if err != nil {
		return writeErr(name, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return writeErr(name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return writeErr(name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return writeErr(name, err)
	}

	if err := os.Rename(tmpPath, s.collectionPath(name)); err != nil {
		os.Remove(tmpPath)
		return writeErr(name, err)
	}

	return nil
}

// Close implements Store
func (s *JSONFileStore) Close() error {
	return nil
}
