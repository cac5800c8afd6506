// Package dashboard computes the landing page counters.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/challan-admin/challan-admin/internal/listview"
)

// Counts is what the dashboard displays.
type Counts struct {
	Users       int       `json:"users"`
	Records     int       `json:"records"`
	RefreshedAt time.Time `json:"refreshedAt"`
}

// Counter returns the size of one remote collection.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(ctx context.Context) (int, error)

// Count calls f.
func (f CounterFunc) Count(ctx context.Context) (int, error) {
	return f(ctx)
}

// TotalOf counts a collection with a single-entity page request: with a
// limit of one, the server's page count equals the number of entities.
func TotalOf[T any](fetcher listview.Fetcher[T], entity listview.Entity[T]) Counter {
	return CounterFunc(func(ctx context.Context) (int, error) {
		q := listview.Query{
			Inputs:    listview.DefaultInputs(entity),
			SortOrder: listview.SortAsc,
			Limit:     1,
		}
		res, err := fetcher.Fetch(ctx, q)
		if err != nil {
			return 0, fmt.Errorf("dashboard: count %s: %w", entity.Name, err)
		}
		return max(res.TotalPages, 0), nil
	})
}

// Service serves cached counters.
type Service struct {
	cache   *Cache
	users   Counter
	records Counter
	logger  *slog.Logger
	group   singleflight.Group
	now     func() time.Time
}

// NewService builds Service instance.
func NewService(cache *Cache, users, records Counter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{cache: cache, users: users, records: records, logger: logger, now: time.Now}
}

// Counts returns cached counters, computing them on a cache miss. Concurrent
// misses share one computation.
func (s *Service) Counts(ctx context.Context) (Counts, error) {
	res := s.group.DoChan(countsKey, func() (any, error) {
		var out Counts
		err := s.cache.FetchJSON(ctx, countsKey, &out, func(ctx context.Context) (any, error) {
			return s.compute(ctx)
		})
		return out, err
	})
	select {
	case <-ctx.Done():
		return Counts{}, ctx.Err()
	case r := <-res:
		if r.Err != nil {
			return Counts{}, r.Err
		}
		return r.Val.(Counts), nil
	}
}

// Refresh recomputes the counters and overwrites the cache.
func (s *Service) Refresh(ctx context.Context) (Counts, error) {
	counts, err := s.compute(ctx)
	if err != nil {
		return Counts{}, err
	}
	if err := s.cache.StoreJSON(ctx, countsKey, counts); err != nil {
		return Counts{}, fmt.Errorf("dashboard: store counts: %w", err)
	}
	s.logger.Info("dashboard counts refreshed",
		slog.Int("users", counts.Users),
		slog.Int("records", counts.Records))
	return counts, nil
}

func (s *Service) compute(ctx context.Context) (Counts, error) {
	var counts Counts
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.users.Count(ctx)
		counts.Users = n
		return err
	})
	g.Go(func() error {
		n, err := s.records.Count(ctx)
		counts.Records = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Counts{}, err
	}
	counts.RefreshedAt = s.now().UTC()
	return counts, nil
}
