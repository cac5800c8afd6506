package users

import (
	"context"
	"errors"
	"log/slog"

	"github.com/challan-admin/challan-admin/internal/listview"
	"github.com/challan-admin/challan-admin/internal/liststore"
	"github.com/challan-admin/challan-admin/internal/remote"
	"github.com/challan-admin/challan-admin/internal/shared"
)

// StorePort persists per-session list state.
type StorePort interface {
	Controller(ctx context.Context, sessionID string, entity listview.Entity[User], fetcher listview.Fetcher[User], opts listview.Options) (*listview.Controller[User], error)
	Save(ctx context.Context, sessionID string, snap listview.Snapshot[User]) error
	Discard(ctx context.Context, sessionID string) error
}

// Service binds the users list controller to a login session.
type Service struct {
	store   StorePort
	fetcher listview.Fetcher[User]
	audit   shared.Auditor
	opts    listview.Options
	logger  *slog.Logger
}

// NewService builds Service instance.
func NewService(store StorePort, fetcher listview.Fetcher[User], audit shared.Auditor, opts listview.Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts.Logger = logger
	return &Service{store: store, fetcher: fetcher, audit: audit, opts: opts, logger: logger}
}

// NewFetcher returns the remote users collection.
func NewFetcher(client *remote.Client) listview.Fetcher[User] {
	return remote.NewCollection[User](client, EntityName, remote.UsersPath, "users", RequestBody)
}

// Open restores the session's controller.
func (s *Service) Open(ctx context.Context, sessionID string) (*listview.Controller[User], error) {
	return s.store.Controller(ctx, sessionID, Entity(), s.fetcher, s.opts)
}

// Save persists the controller. A snapshot superseded by a newer request is
// dropped silently.
func (s *Service) Save(ctx context.Context, sessionID string, ctrl *listview.Controller[User]) error {
	err := s.store.Save(ctx, sessionID, ctrl.Snapshot())
	if errors.Is(err, liststore.ErrSuperseded) {
		s.logger.Debug("skip superseded users snapshot", slog.String("session", sessionID))
		return nil
	}
	return err
}

// Discard drops the held page, used when navigating away from the list.
func (s *Service) Discard(ctx context.Context, sessionID string) error {
	return s.store.Discard(ctx, sessionID)
}

// Toggle flips the active flag of a held user and records it in the audit log.
func (s *Service) Toggle(ctx context.Context, ctrl *listview.Controller[User], adminID, id string) (User, error) {
	updated, err := ctrl.Modal().TogglePrimaryFlag(id)
	if err != nil {
		return User{}, err
	}
	if s.audit != nil {
		entry := shared.AuditLog{
			AdminID:  adminID,
			Action:   shared.AuditActionToggleActive,
			Entity:   EntityName,
			EntityID: id,
			Meta:     map[string]any{"active": updated.Active},
		}
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.Warn("audit toggle", slog.String("id", id), slog.Any("error", err))
		}
	}
	return updated, nil
}
