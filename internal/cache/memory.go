package cache

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMemoryEntries = 10_000

// ErrStoreClosed is returned once Close has been called on an in-process store.
var ErrStoreClosed = errors.New("cache: store closed")

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryStore implements Store in process. Entries are bounded by an LRU and expire
// individually according to the TTL they were written with.
type MemoryStore struct {
	entries *lru.Cache[string, memoryEntry]
	now     func() time.Time

	mu     sync.Mutex
	closed bool
}

// NewMemoryStore constructs an in-process store holding at most size entries.
func NewMemoryStore(size int) *MemoryStore {
	if size <= 0 {
		size = defaultMemoryEntries
	}
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[string, memoryEntry](size)
	return &MemoryStore{
		entries: entries,
		now:     time.Now,
	}
}

func (s *MemoryStore) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

func (s *MemoryStore) lookup(key string) (memoryEntry, bool) {
	entry, ok := s.entries.Get(key)
	if !ok {
		return memoryEntry{}, false
	}
	if entry.expired(s.now()) {
		s.entries.Remove(key)
		return memoryEntry{}, false
	}
	return entry, true
}

// Get returns a copy of the stored value.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := s.checkOpen(); err != nil {
		return nil, false, err
	}

	entry, ok := s.lookup(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), entry.value...), true, nil
}

// Set stores value. A non-positive ttl keeps the entry until it is evicted.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.entries.Add(key, entry)
	return nil
}

// Delete removes keys, ignoring those that are absent.
func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	for _, key := range keys {
		s.entries.Remove(key)
	}
	return nil
}

// DeletePattern removes every key matching the glob pattern.
func (s *MemoryStore) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, fmt.Errorf("cache: invalid pattern %q: %w", pattern, err)
	}

	var removed int64
	for _, key := range s.entries.Keys() {
		if ok, _ := path.Match(pattern, key); ok {
			if s.entries.Remove(key) {
				removed++
			}
		}
	}
	return removed, nil
}

// IncrementWithTTL increments a counter, starting a new window when the previous one elapsed.
func (s *MemoryStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if window <= 0 {
		window = time.Minute
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, 0, ErrStoreClosed
	}

	now := s.now()
	entry, ok := s.lookup(key)
	if !ok {
		s.entries.Add(key, memoryEntry{value: []byte("1"), expiresAt: now.Add(window)})
		return 1, window, nil
	}

	current, err := strconv.ParseInt(string(entry.value), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("cache: key %q does not hold a counter", key)
	}
	current++
	entry.value = []byte(strconv.FormatInt(current, 10))
	s.entries.Add(key, entry)

	return current, entry.expiresAt.Sub(now), nil
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	count := 0
	now := s.now()
	for _, entry := range s.entries.Values() {
		if !entry.expired(now) {
			count++
		}
	}
	return count
}

// Ping fails once the store is closed.
func (s *MemoryStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.checkOpen()
}

// Close drops all entries.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries.Purge()
	return nil
}
