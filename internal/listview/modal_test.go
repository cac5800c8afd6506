package listview_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/challan-admin/challan-admin/internal/listview"
)

func loadedController(t *testing.T) *listview.Controller[row] {
	t.Helper()
	backend := &fakeBackend{result: samplePage()}
	ctrl := listview.NewController(rowEntity(true, false), backend, listview.Options{})
	require.NoError(t, ctrl.Refresh(context.Background()))
	return ctrl
}

func TestModalOpenBindsHeldEntity(t *testing.T) {
	ctrl := loadedController(t)
	modal := ctrl.Modal()
	assert.False(t, modal.IsOpen())

	got, err := modal.Open("u3")
	require.NoError(t, err)
	assert.Equal(t, "charlie", got.Name)

	bound, ok := modal.Entity()
	require.True(t, ok)
	assert.Equal(t, "u3", bound.ID)

	modal.Close()
	assert.False(t, modal.IsOpen())

	_, err = modal.Open("nope")
	assert.ErrorIs(t, err, listview.ErrNotFound)
}

func TestToggleRoundTrip(t *testing.T) {
	ctrl := loadedController(t)
	modal := ctrl.Modal()

	_, err := modal.Open("u1")
	require.NoError(t, err)
	updated, err := modal.TogglePrimaryFlag("u1")
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.False(t, modal.IsOpen())

	_, err = modal.TogglePrimaryFlag("u1")
	require.NoError(t, err)
	for _, item := range ctrl.Items() {
		if item.ID == "u1" {
			assert.True(t, item.Active)
		}
	}
}

func TestToggleFailureKeepsModalOpen(t *testing.T) {
	entity := rowEntity(true, false)
	entity.Toggle = func(r *row) error {
		if r.Paid {
			return errors.New("already paid")
		}
		r.Paid = true
		return nil
	}
	backend := &fakeBackend{result: samplePage()}
	ctrl := listview.NewController(entity, backend, listview.Options{})
	require.NoError(t, ctrl.Refresh(context.Background()))

	modal := ctrl.Modal()
	_, err := modal.Open("u2")
	require.NoError(t, err)
	_, err = modal.TogglePrimaryFlag("u2")
	require.NoError(t, err)

	_, err = modal.Open("u2")
	require.NoError(t, err)
	_, err = modal.TogglePrimaryFlag("u2")
	require.Error(t, err)
	assert.True(t, modal.IsOpen())
	assert.Equal(t, "already paid", modal.Error())
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	ctrl := loadedController(t)
	modal := ctrl.Modal()
	_, err := modal.Open("u2")
	require.NoError(t, err)

	var deleted []string
	err = modal.Delete(context.Background(), "u2", func(_ context.Context, id string) error {
		deleted = append(deleted, id)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"u2"}, deleted)
	items := ctrl.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "u1", items[0].ID)
	assert.Equal(t, "u3", items[1].ID)
	assert.False(t, modal.IsOpen())
}

func TestDeleteFailureKeepsModalOpen(t *testing.T) {
	ctrl := loadedController(t)
	modal := ctrl.Modal()
	_, err := modal.Open("u1")
	require.NoError(t, err)

	err = modal.Delete(context.Background(), "u1", func(context.Context, string) error {
		return errors.New("remote: status 500")
	})
	require.Error(t, err)

	assert.Len(t, ctrl.Items(), 3)
	assert.True(t, modal.IsOpen())
	assert.Equal(t, "remote: status 500", modal.Error())
}

func TestDeleteUnknownIDSkipsRemote(t *testing.T) {
	ctrl := loadedController(t)
	called := false
	err := ctrl.Modal().Delete(context.Background(), "ghost", func(context.Context, string) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, listview.ErrNotFound)
	assert.False(t, called)
}
