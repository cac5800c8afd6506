package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/challan-admin/challan-admin/internal/listview"
)

type countingCounter struct {
	n     int
	err   error
	calls atomic.Int32
}

func (c *countingCounter) Count(context.Context) (int, error) {
	c.calls.Add(1)
	return c.n, c.err
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCountsAreCached(t *testing.T) {
	cache, mr := newTestCache(t)
	users := &countingCounter{n: 42}
	records := &countingCounter{n: 7}
	svc := NewService(cache, users, records, nil)

	first, err := svc.Counts(context.Background())
	require.NoError(t, err)
	second, err := svc.Counts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 42, first.Users)
	assert.Equal(t, 7, first.Records)
	assert.Equal(t, first.Users, second.Users)
	assert.EqualValues(t, 1, users.calls.Load())
	assert.EqualValues(t, 1, records.calls.Load())
	assert.True(t, mr.Exists(countsKey))
	assert.Equal(t, time.Minute, mr.TTL(countsKey))
}

func TestRefreshOverwritesCache(t *testing.T) {
	cache, _ := newTestCache(t)
	users := &countingCounter{n: 1}
	records := &countingCounter{n: 1}
	svc := NewService(cache, users, records, nil)

	_, err := svc.Counts(context.Background())
	require.NoError(t, err)

	users.n = 5
	refreshed, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, refreshed.Users)

	got, err := svc.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, got.Users)
}

func TestCountsFailureIsNotCached(t *testing.T) {
	cache, mr := newTestCache(t)
	boom := errors.New("boom")
	svc := NewService(cache, &countingCounter{n: 1}, &countingCounter{err: boom}, nil)

	_, err := svc.Counts(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(countsKey))
}

func TestCountsWithoutRedis(t *testing.T) {
	svc := NewService(NewCache(nil, time.Minute), &countingCounter{n: 3}, &countingCounter{n: 4}, nil)

	got, err := svc.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, got.Users)
	assert.Equal(t, 4, got.Records)
}

func TestTotalOfRequestsSingleEntityPages(t *testing.T) {
	var seen listview.Query
	fetcher := listview.FetchFunc[string](func(_ context.Context, q listview.Query) (listview.PageResult[string], error) {
		seen = q
		return listview.PageResult[string]{Items: []string{"x"}, TotalPages: 128}, nil
	})
	entity := listview.Entity[string]{Name: "things", SortKeys: []string{"name"}, DefaultSort: "name", HasPayment: true}

	n, err := TotalOf[string](fetcher, entity).Count(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 128, n)
	assert.Equal(t, 1, seen.Limit)
	assert.Equal(t, 1, seen.Page)
	assert.Equal(t, listview.StatusAll, seen.Status)
	assert.Equal(t, listview.PaymentAll, seen.Payment)
	assert.Equal(t, listview.SortAsc, seen.SortOrder)
}
