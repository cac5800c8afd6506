// Package liststore persists list controller state in Redis so a login
// session sees the same held page across requests and app instances.
package liststore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/challan-admin/challan-admin/internal/listview"
)

// ErrSuperseded is returned by Save when a newer request was issued for the
// same list after the snapshot's own request.
var ErrSuperseded = errors.New("liststore: snapshot superseded by newer request")

// Store keeps one snapshot per session and entity.
type Store[T any] struct {
	client *redis.Client
	entity string
	ttl    time.Duration
}

// NewStore constructs a Store for one entity collection.
func NewStore[T any](client *redis.Client, entity string, ttl time.Duration) *Store[T] {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store[T]{client: client, entity: entity, ttl: ttl}
}

func (s *Store[T]) stateKey(sessionID string) string {
	return fmt.Sprintf("list:%s:%s", sessionID, s.entity)
}

func (s *Store[T]) seqKey(sessionID string) string {
	return fmt.Sprintf("list:%s:%s:seq", sessionID, s.entity)
}

// Sequencer returns the request sequencer shared by every request of the session.
func (s *Store[T]) Sequencer(sessionID string) listview.Sequencer {
	return &redisSequencer{client: s.client, key: s.seqKey(sessionID), ttl: s.ttl}
}

// Load returns the stored snapshot. ok is false when nothing is stored.
func (s *Store[T]) Load(ctx context.Context, sessionID string) (snap listview.Snapshot[T], ok bool, err error) {
	raw, err := s.client.Get(ctx, s.stateKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, fmt.Errorf("liststore: load %s: %w", s.entity, err)
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return snap, false, fmt.Errorf("liststore: decode %s: %w", s.entity, err)
	}
	return snap, true, nil
}

// Save stores the snapshot unless a request newer than snap.Seq has been
// issued. The check and the write run under WATCH on the sequence key.
func (s *Store[T]) Save(ctx context.Context, sessionID string, snap listview.Snapshot[T]) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("liststore: encode %s: %w", s.entity, err)
	}
	seqKey := s.seqKey(sessionID)
	stateKey := s.stateKey(sessionID)

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		latest, err := tx.Get(ctx, seqKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if latest > snap.Seq {
			return ErrSuperseded
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, stateKey, payload, s.ttl)
			return nil
		})
		return err
	}, seqKey)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSuperseded), errors.Is(err, redis.TxFailedErr):
		return ErrSuperseded
	default:
		return fmt.Errorf("liststore: save %s: %w", s.entity, err)
	}
}

// Discard drops the held page and sequence of the session.
func (s *Store[T]) Discard(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.stateKey(sessionID), s.seqKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("liststore: discard %s: %w", s.entity, err)
	}
	return nil
}

// Controller builds a controller for the session and restores its stored state.
func (s *Store[T]) Controller(ctx context.Context, sessionID string, entity listview.Entity[T], fetcher listview.Fetcher[T], opts listview.Options) (*listview.Controller[T], error) {
	opts.Sequencer = s.Sequencer(sessionID)
	ctrl := listview.NewController(entity, fetcher, opts)
	snap, ok, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if ok {
		ctrl.Restore(snap)
	}
	return ctrl, nil
}

type redisSequencer struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func (r *redisSequencer) Next(ctx context.Context) (uint64, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, r.key)
	pipe.Expire(ctx, r.key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("liststore: next sequence: %w", err)
	}
	return uint64(incr.Val()), nil
}

func (r *redisSequencer) Latest(ctx context.Context) (uint64, error) {
	n, err := r.client.Get(ctx, r.key).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("liststore: latest sequence: %w", err)
	}
	return n, nil
}
