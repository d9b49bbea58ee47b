package storage

import (
	"encoding/binary"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("record not found")

const keySize = 16 + 8

// EncodeTime maps t onto 8 bytes whose lexical order matches numeric order.
func EncodeTime(t float64) []byte {
	bits := math.Float64bits(t)
	if bits>>63 == 0 {
		bits ^= 1 << 63
	} else {
		bits = ^bits
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, bits)
	return buf
}

func DecodeTime(buf []byte) float64 {
	bits := binary.BigEndian.Uint64(buf)
	if bits>>63 == 1 {
		bits ^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits)
}

// GetKey lays out <16 bytes session ID> <8 bytes ordered onset time>, so a
// session's records iterate in onset order.
func GetKey(session uuid.UUID, onset float64) []byte {
	buf := make([]byte, 0, keySize)
	buf = append(buf, session[:]...)
	return append(buf, EncodeTime(onset)...)
}

func GetSessionFromKey(buf []byte) uuid.UUID {
	var session uuid.UUID
	copy(session[:], buf[:16])
	return session
}

func GetOnsetFromKey(buf []byte) float64 {
	return DecodeTime(buf[16:keySize])
}

// Backend stores encoded breath records per session, keyed by onset time.
type Backend interface {
	Get(session uuid.UUID, onset float64) ([]byte, error)
	Put(session uuid.UUID, onset float64, buf []byte) error
	Delete(session uuid.UUID, onset float64) error
	// IterateRange visits records with from <= onset < to in onset order.
	IterateRange(session uuid.UUID, from, to float64, lambda func(onset float64, buf []byte) error) error
	// DeleteBefore removes every record with onset < before and returns
	// how many were removed.
	DeleteBefore(session uuid.UUID, before float64) (int, error)
	Close() error
}

type InMemoryBackend struct {
	records map[string][]byte
	mu      sync.Mutex
}

func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{
		records: make(map[string][]byte),
	}
}

func (backend *InMemoryBackend) Get(session uuid.UUID, onset float64) ([]byte, error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	buf, ok := backend.records[string(GetKey(session, onset))]
	if !ok {
		return nil, ErrNotFound
	}
	return buf, nil
}

func (backend *InMemoryBackend) Put(session uuid.UUID, onset float64, buf []byte) error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	backend.records[string(GetKey(session, onset))] = buf
	return nil
}

func (backend *InMemoryBackend) Delete(session uuid.UUID, onset float64) error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	delete(backend.records, string(GetKey(session, onset)))
	return nil
}

// sessionKeys returns the session's keys in order. Callers hold mu.
func (backend *InMemoryBackend) sessionKeys(session uuid.UUID) []string {
	keys := make([]string, 0)
	for k := range backend.records {
		if GetSessionFromKey([]byte(k)) == session {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (backend *InMemoryBackend) IterateRange(
	session uuid.UUID,
	from, to float64,
	lambda func(float64, []byte) error) error {

	backend.mu.Lock()
	keys := backend.sessionKeys(session)
	bufs := make([][]byte, len(keys))
	for i, k := range keys {
		bufs[i] = backend.records[k]
	}
	backend.mu.Unlock()

	for i, k := range keys {
		onset := GetOnsetFromKey([]byte(k))
		if onset < from {
			continue
		}
		if onset >= to {
			break
		}
		if err := lambda(onset, bufs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (backend *InMemoryBackend) DeleteBefore(session uuid.UUID, before float64) (int, error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	n := 0
	for _, k := range backend.sessionKeys(session) {
		if GetOnsetFromKey([]byte(k)) >= before {
			break
		}
		delete(backend.records, k)
		n++
	}
	return n, nil
}

func (backend *InMemoryBackend) Close() error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	backend.records = nil
	return nil
}
