package liststore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/challan-admin/challan-admin/internal/listview"
)

type item struct {
	ID string `json:"id"`
}

func newTestStore(t *testing.T) (*Store[item], *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore[item](client, "items", time.Minute), mr
}

func itemEntity() listview.Entity[item] {
	return listview.Entity[item]{
		Name:        "items",
		SortKeys:    []string{"id"},
		DefaultSort: "id",
		ID:          func(i item) string { return i.ID },
	}
}

func TestSequencerCountsPerSession(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	seqA := store.Sequencer("sess-a")
	latest, err := seqA.Latest(ctx)
	require.NoError(t, err)
	assert.Zero(t, latest)

	n1, err := seqA.Next(ctx)
	require.NoError(t, err)
	n2, err := seqA.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n1)
	assert.Equal(t, uint64(2), n2)

	other, err := store.Sequencer("sess-b").Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), other)

	assert.True(t, mr.TTL("list:sess-a:items:seq") > 0)
}

func TestSaveLoadAndDiscard(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.Load(ctx, "sess")
	require.NoError(t, err)
	assert.False(t, ok)

	seq, err := store.Sequencer("sess").Next(ctx)
	require.NoError(t, err)
	snap := listview.Snapshot[item]{
		Inputs:     listview.Inputs{Status: listview.StatusAll, SortKey: "id", Page: 2},
		Items:      []item{{ID: "a"}, {ID: "b"}},
		TotalPages: 4,
		Loaded:     true,
		Seq:        seq,
	}
	require.NoError(t, store.Save(ctx, "sess", snap))

	got, ok, err := store.Load(ctx, "sess")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap, got)

	require.NoError(t, store.Discard(ctx, "sess"))
	_, ok, err = store.Load(ctx, "sess")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveRejectsSupersededSnapshot(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	seq := store.Sequencer("sess")

	first, err := seq.Next(ctx)
	require.NoError(t, err)
	_, err = seq.Next(ctx)
	require.NoError(t, err)

	err = store.Save(ctx, "sess", listview.Snapshot[item]{Seq: first})
	assert.ErrorIs(t, err, ErrSuperseded)
	_, ok, err := store.Load(ctx, "sess")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestControllerRestoresAcrossRequests(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	fetcher := listview.FetchFunc[item](func(context.Context, listview.Query) (listview.PageResult[item], error) {
		return listview.PageResult[item]{Items: []item{{ID: "x"}}, TotalPages: 1}, nil
	})

	first, err := store.Controller(ctx, "sess", itemEntity(), fetcher, listview.Options{})
	require.NoError(t, err)
	require.NoError(t, first.Refresh(ctx))
	require.NoError(t, store.Save(ctx, "sess", first.Snapshot()))

	second, err := store.Controller(ctx, "sess", itemEntity(), fetcher, listview.Options{})
	require.NoError(t, err)
	assert.Equal(t, first.Items(), second.Items())
	assert.Equal(t, listview.ViewReady, second.State())
}
