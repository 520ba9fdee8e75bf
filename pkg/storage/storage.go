package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
)

// ErrNotFound is returned when no capture exists under the given id.
var ErrNotFound = errors.New("storage: capture not found")

// Capture is a stored encoded payload together with the schema name it
// was encoded under.
type Capture struct {
	ID        string    `json:"id"`
	Schema    string    `json:"schema"`
	Label     string    `json:"label,omitempty"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// CaptureStore persists captures in a pebble database keyed by ksuid.
type CaptureStore struct {
	db *pebble.DB
}

func NewCaptureStore(path string) (*CaptureStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &CaptureStore{db: db}, nil
}

func (s *CaptureStore) Create(schema, label string, payload []byte) (*Capture, error) {
	id := ksuid.New()
	capture := &Capture{
		ID:        id.String(),
		Schema:    schema,
		Label:     label,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(capture)
	if err != nil {
		return nil, err
	}
	if err := s.db.Set(id.Bytes(), data, pebble.NoSync); err != nil {
		return nil, err
	}

	return capture, nil
}

func (s *CaptureStore) Read(id string) (*Capture, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}

	data, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()

	var capture Capture
	if err := json.Unmarshal(data, &capture); err != nil {
		return nil, fmt.Errorf("corrupt capture %s: %w", id, err)
	}

	return &capture, nil
}

func (s *CaptureStore) Update(capture *Capture) error {
	key, err := parseID(capture.ID)
	if err != nil {
		return err
	}

	// Updates never create.
	_, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	closer.Close()

	data, err := json.Marshal(capture)
	if err != nil {
		return err
	}
	return s.db.Set(key, data, pebble.NoSync)
}

func (s *CaptureStore) Delete(id string) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}

	_, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	closer.Close()

	return s.db.Delete(key, pebble.NoSync)
}

// List returns every capture in id order. ksuid keys carry a creation
// timestamp, so the order is roughly chronological.
func (s *CaptureStore) List() ([]*Capture, error) {
	iter, err := s.db.NewIter(nil)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var captures []*Capture
	for iter.First(); iter.Valid(); iter.Next() {
		var capture Capture
		if err := json.Unmarshal(iter.Value(), &capture); err != nil {
			return nil, fmt.Errorf("corrupt capture %x: %w", iter.Key(), err)
		}
		captures = append(captures, &capture)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	return captures, nil
}

// StoreStats summarizes the store for diagnostics and metrics.
type StoreStats struct {
	Captures     int   `json:"captures"`
	PayloadBytes int64 `json:"payload_bytes"`
}

// Stats walks the store and reports the capture count and total payload
// volume.
func (s *CaptureStore) Stats() (*StoreStats, error) {
	iter, err := s.db.NewIter(nil)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	stats := &StoreStats{}
	for iter.First(); iter.Valid(); iter.Next() {
		var capture Capture
		if err := json.Unmarshal(iter.Value(), &capture); err != nil {
			return nil, fmt.Errorf("corrupt capture %x: %w", iter.Key(), err)
		}
		stats.Captures++
		stats.PayloadBytes += int64(len(capture.Payload))
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *CaptureStore) Close() error {
	return s.db.Close()
}

func parseID(id string) ([]byte, error) {
	k, err := ksuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid capture id %q: %w", id, err)
	}
	return k.Bytes(), nil
}
