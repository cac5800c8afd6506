package listview

import (
	"context"
	"fmt"
)

// Modal is the detail view of one held entity. It keeps no data of its own:
// the bound entity is always read from the controller's held page, and its
// actions are applied there.
type Modal[T any] struct {
	c *Controller[T]
}

// Modal returns the detail view attached to the controller.
func (c *Controller[T]) Modal() Modal[T] {
	return Modal[T]{c: c}
}

// Open binds the modal to a held entity. No fetch is made.
func (m Modal[T]) Open(id string) (T, error) {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	var zero T
	idx := m.c.indexLocked(id)
	if idx < 0 {
		return zero, fmt.Errorf("%w: %s %s", ErrNotFound, m.c.entity.Name, id)
	}
	m.c.modalID = id
	m.c.modalErr = ""
	return m.c.items[idx], nil
}

// Close unbinds the modal.
func (m Modal[T]) Close() {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	m.c.closeModalLocked()
}

func (c *Controller[T]) closeModalLocked() {
	c.modalID = ""
	c.modalErr = ""
}

// Entity returns the bound entity. A bound ID that left the held page
// (for example after a refresh) reads as closed.
func (m Modal[T]) Entity() (T, bool) {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	var zero T
	if m.c.modalID == "" {
		return zero, false
	}
	idx := m.c.indexLocked(m.c.modalID)
	if idx < 0 {
		return zero, false
	}
	return m.c.items[idx], true
}

// IsOpen reports whether an entity is bound.
func (m Modal[T]) IsOpen() bool {
	_, ok := m.Entity()
	return ok
}

// Error returns the message of the last failed modal action.
func (m Modal[T]) Error() string {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	return m.c.modalErr
}

// TogglePrimaryFlag applies the entity's toggle to the held page and closes
// the modal. It never contacts the server.
func (m Modal[T]) TogglePrimaryFlag(id string) (T, error) {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	var zero T
	if m.c.entity.Toggle == nil {
		return zero, fmt.Errorf("%w: %s has no toggle action", ErrInvalidFilter, m.c.entity.Name)
	}
	updated, err := m.c.mutateLocked(id, m.c.entity.Toggle)
	if err != nil {
		m.c.modalErr = err.Error()
		return zero, err
	}
	m.c.closeModalLocked()
	return updated, nil
}

// Delete calls del for the entity. On success the entity leaves the held page
// and the modal closes; on failure both stay as they were and the error is
// kept for display inside the modal.
func (m Modal[T]) Delete(ctx context.Context, id string, del func(ctx context.Context, id string) error) error {
	m.c.mu.Lock()
	if m.c.indexLocked(id) < 0 {
		m.c.mu.Unlock()
		return fmt.Errorf("%w: %s %s", ErrNotFound, m.c.entity.Name, id)
	}
	m.c.mu.Unlock()

	if err := del(ctx, id); err != nil {
		m.c.mu.Lock()
		m.c.modalID = id
		m.c.modalErr = err.Error()
		m.c.mu.Unlock()
		m.c.logger.Error("delete entity", "entity", m.c.entity.Name, "id", id, "error", err)
		return err
	}

	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	if err := m.c.removeLocked(id); err != nil {
		return err
	}
	m.c.closeModalLocked()
	return nil
}

// Fail records an error for display in the modal without changing the page.
func (m Modal[T]) Fail(msg string) {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	m.c.modalErr = msg
}
