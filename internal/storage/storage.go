// /internal/storage/storage.go
package storage

import (
	"context"
	"time"

	"github.com/keshon/datastore"

	"icebreaker/internal/engage"
)

const triggerStateKey = "proactive_trigger_state"

// Storage wraps the JSON-file datastore and adapts it to the engage
// package's DayStore contract. Every SaveDay flushes to disk so a
// restart never forgets how many times we already spoke today.
type Storage struct {
	ds *datastore.DataStore
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(context.Background(), filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// LoadDay returns the persisted daily trigger record, or (nil, nil)
// when none has been written yet.
func (s *Storage) LoadDay() (*engage.DayRecord, error) {
	var rec engage.DayRecord
	exists, err := s.ds.Get(triggerStateKey, &rec)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	if rec.Counts == nil {
		rec.Counts = map[engage.TriggerKind]int{}
	}
	if rec.LastByKind == nil {
		rec.LastByKind = map[engage.TriggerKind]time.Time{}
	}

	return &rec, nil
}

// SaveDay writes the record through to disk immediately.
func (s *Storage) SaveDay(rec *engage.DayRecord) error {
	if err := s.ds.Set(triggerStateKey, rec); err != nil {
		return err
	}
	return s.ds.Flush()
}
