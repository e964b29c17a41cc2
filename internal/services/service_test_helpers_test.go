package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/bookreview/internal/cache"
	"github.com/charlesng35/bookreview/internal/database/testutil"
)

type catalogFixture struct {
	db      *gorm.DB
	store   cache.Store
	books   *BookService
	reviews *ReviewService
}

func newCatalogFixture(t *testing.T, store cache.Store) *catalogFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	var client *cache.Client
	if store != nil {
		client = cache.NewClient(store, cache.WithTimeout(time.Second))
	}

	books, err := NewBookService(db, client)
	require.NoError(t, err)
	reviews, err := NewReviewService(db, client)
	require.NoError(t, err)

	return &catalogFixture{db: db, store: store, books: books, reviews: reviews}
}

func (f *catalogFixture) cached(t *testing.T, key string) bool {
	t.Helper()
	_, ok, err := f.store.Get(context.Background(), key)
	require.NoError(t, err)
	return ok
}

var errCacheDown = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

// unreachableStore fails every call the way a stopped redis server does.
type unreachableStore struct{}

func (unreachableStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errCacheDown
}

func (unreachableStore) Set(context.Context, string, []byte, time.Duration) error {
	return errCacheDown
}

func (unreachableStore) Delete(context.Context, ...string) error { return errCacheDown }

func (unreachableStore) DeletePattern(context.Context, string) (int64, error) {
	return 0, errCacheDown
}

func (unreachableStore) IncrementWithTTL(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errCacheDown
}

func (unreachableStore) Ping(context.Context) error { return errCacheDown }

func (unreachableStore) Close() error { return nil }

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }
