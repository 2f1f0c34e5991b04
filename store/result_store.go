package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"
	"time"

	"github.com/gcbaptista/go-recommendation-blender/internal/errors"
	"github.com/gcbaptista/go-recommendation-blender/model"
)

// ResultStore holds the merged lines of the most recent blend, keyed by the
// external key. Every Replace bumps Version.
type ResultStore struct {
	mu        sync.RWMutex
	lines     map[string][]string
	order     []string // Keys in external-file order
	version   uint64
	updatedAt time.Time
}

// gobResultStoreData is a helper struct for Gob encoding/decoding ResultStore data.
// It excludes the mutex.
type gobResultStoreData struct {
	Lines     map[string][]string
	Order     []string
	Version   uint64
	UpdatedAt time.Time
}

// NewResultStore creates an empty store
func NewResultStore() *ResultStore {
	return &ResultStore{lines: make(map[string][]string)}
}

// Replace swaps in a complete blend result. When a key occurs more than
// once the last line wins, matching a reader that consumes the file top-down.
func (s *ResultStore) Replace(merged []model.MergedLine) uint64 {
	lines := make(map[string][]string, len(merged))
	order := make([]string, 0, len(merged))
	for _, m := range merged {
		if _, seen := lines[m.Key]; !seen {
			order = append(order, m.Key)
		}
		values := make([]string, len(m.Values))
		copy(values, m.Values)
		lines[m.Key] = values
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = lines
	s.order = order
	s.version++
	s.updatedAt = time.Now()
	return s.version
}

// Get returns a copy of the merged values for key
func (s *ResultStore) Get(key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, ok := s.lines[key]
	if !ok {
		return nil, errors.NewKeyNotFoundError(key)
	}
	out := make([]string, len(values))
	copy(out, values)
	return out, nil
}

// Keys returns the stored keys in the order they appeared in the external file
func (s *ResultStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, len(s.order))
	copy(keys, s.order)
	return keys
}

// Lines returns the stored result as merged lines in external order
func (s *ResultStore) Lines() []model.MergedLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.MergedLine, 0, len(s.order))
	for _, key := range s.order {
		values := make([]string, len(s.lines[key]))
		copy(values, s.lines[key])
		out = append(out, model.MergedLine{Key: key, Values: values})
	}
	return out
}

// Len returns the number of keys held
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}

// Version returns the number of Replace calls applied, including those
// restored from a snapshot.
func (s *ResultStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// UpdatedAt returns the time of the last Replace
func (s *ResultStore) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// GobEncode implements the gob.GobEncoder interface for ResultStore.
func (s *ResultStore) GobEncode() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dataToEncode := gobResultStoreData{
		Lines:     s.lines,
		Order:     s.order,
		Version:   s.version,
		UpdatedAt: s.updatedAt,
	}

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(dataToEncode); err != nil {
		return nil, fmt.Errorf("failed to gob encode result store data: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for ResultStore.
func (s *ResultStore) GobDecode(data []byte) error {
	decodedData := gobResultStoreData{}

	buf := bytes.NewBuffer(data)
	decoder := gob.NewDecoder(buf)
	if err := decoder.Decode(&decodedData); err != nil {
		return fmt.Errorf("failed to gob decode result store data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = decodedData.Lines
	s.order = decodedData.Order
	s.version = decodedData.Version
	s.updatedAt = decodedData.UpdatedAt

	if s.lines == nil {
		s.lines = make(map[string][]string)
	}

	return nil
}
