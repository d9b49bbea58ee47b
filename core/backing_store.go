package core

import (
	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"

	"tidalflow/storage"
)

// BackingStore puts a read-through cache of decoded records in front of a
// storage.Backend.
type BackingStore struct {
	backend      storage.Backend
	cacheEnabled bool
	recordCache  *ristretto.Cache
}

func NewBackingStore(backend storage.Backend, cacheEnabled bool) (*BackingStore, error) {
	store := &BackingStore{
		backend:      backend,
		cacheEnabled: cacheEnabled,
	}
	if cacheEnabled {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 1e5,
			MaxCost:     1 << 14,
			BufferItems: 64,
		})
		if err != nil {
			return nil, err
		}
		store.recordCache = cache
	}
	return store, nil
}

func (store *BackingStore) Get(session uuid.UUID, onset float64) (*BreathRecord, error) {
	key := storage.GetKey(session, onset)
	if store.cacheEnabled {
		record, found := store.recordCache.Get(key)
		if found {
			return record.(*BreathRecord), nil
		}
	}
	buf, err := store.backend.Get(session, onset)
	if err != nil {
		return nil, err
	}
	return BytesToBreathRecord(buf)
}

func (store *BackingStore) Put(session uuid.UUID, record *BreathRecord) error {
	buf, err := BreathRecordToBytes(record)
	if err != nil {
		return err
	}
	if err := store.backend.Put(session, record.OnsetTime, buf); err != nil {
		return err
	}
	if store.cacheEnabled {
		store.recordCache.Set(storage.GetKey(session, record.OnsetTime), record, 1)
	}
	return nil
}

func (store *BackingStore) Delete(session uuid.UUID, onset float64) error {
	if store.cacheEnabled {
		store.recordCache.Del(storage.GetKey(session, onset))
	}
	return store.backend.Delete(session, onset)
}

// Range decodes the records with from <= onset < to, in onset order.
func (store *BackingStore) Range(session uuid.UUID, from, to float64) ([]*BreathRecord, error) {
	records := make([]*BreathRecord, 0)
	err := store.backend.IterateRange(session, from, to, func(_ float64, buf []byte) error {
		record, err := BytesToBreathRecord(buf)
		if err != nil {
			return err
		}
		records = append(records, record)
		return nil
	})
	return records, err
}

// DeleteBefore drops records older than before. The cache is cleared
// wholesale since the deleted keys are not known up front.
func (store *BackingStore) DeleteBefore(session uuid.UUID, before float64) (int, error) {
	n, err := store.backend.DeleteBefore(session, before)
	if store.cacheEnabled && n > 0 {
		store.recordCache.Clear()
	}
	return n, err
}

func (store *BackingStore) Close() error {
	if store.cacheEnabled {
		store.recordCache.Close()
	}
	return store.backend.Close()
}
