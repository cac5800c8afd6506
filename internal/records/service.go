package records

import (
	"context"
	"errors"
	"log/slog"

	"github.com/challan-admin/challan-admin/internal/listview"
	"github.com/challan-admin/challan-admin/internal/liststore"
	"github.com/challan-admin/challan-admin/internal/remote"
	"github.com/challan-admin/challan-admin/internal/shared"
)

// IdempotencyModule scopes delete submission keys.
const IdempotencyModule = "records.delete"

// StorePort persists per-session list state.
type StorePort interface {
	Controller(ctx context.Context, sessionID string, entity listview.Entity[Record], fetcher listview.Fetcher[Record], opts listview.Options) (*listview.Controller[Record], error)
	Save(ctx context.Context, sessionID string, snap listview.Snapshot[Record]) error
	Discard(ctx context.Context, sessionID string) error
}

// DeleterPort removes records on the remote side.
type DeleterPort interface {
	DeleteRecord(ctx context.Context, id string) error
}

// IdempotencyPort guards against repeated form submissions.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service binds the records list controller to a login session.
type Service struct {
	store   StorePort
	fetcher listview.Fetcher[Record]
	deleter DeleterPort
	idem    IdempotencyPort
	audit   shared.Auditor
	opts    listview.Options
	logger  *slog.Logger
}

// ServiceParams groups Service dependencies.
type ServiceParams struct {
	Store       StorePort
	Fetcher     listview.Fetcher[Record]
	Deleter     DeleterPort
	Idempotency IdempotencyPort
	Audit       shared.Auditor
	Options     listview.Options
	Logger      *slog.Logger
}

// NewService builds Service instance.
func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts := p.Options
	opts.Logger = logger
	return &Service{
		store:   p.Store,
		fetcher: p.Fetcher,
		deleter: p.Deleter,
		idem:    p.Idempotency,
		audit:   p.Audit,
		opts:    opts,
		logger:  logger,
	}
}

// NewFetcher returns the remote records collection.
func NewFetcher(client *remote.Client) listview.Fetcher[Record] {
	return remote.NewCollection[Record](client, EntityName, remote.RecordsPath, "records", RequestBody)
}

// Open restores the session's controller.
func (s *Service) Open(ctx context.Context, sessionID string) (*listview.Controller[Record], error) {
	return s.store.Controller(ctx, sessionID, Entity(), s.fetcher, s.opts)
}

// Save persists the controller. A snapshot superseded by a newer request is
// dropped silently.
func (s *Service) Save(ctx context.Context, sessionID string, ctrl *listview.Controller[Record]) error {
	err := s.store.Save(ctx, sessionID, ctrl.Snapshot())
	if errors.Is(err, liststore.ErrSuperseded) {
		s.logger.Debug("skip superseded records snapshot", slog.String("session", sessionID))
		return nil
	}
	return err
}

// Discard drops the held page, used when navigating away from the list.
func (s *Service) Discard(ctx context.Context, sessionID string) error {
	return s.store.Discard(ctx, sessionID)
}

// MarkPaid marks a held unpaid record as paid. The change stays local to the
// held page.
func (s *Service) MarkPaid(ctx context.Context, ctrl *listview.Controller[Record], adminID, id string) (Record, error) {
	updated, err := ctrl.Modal().TogglePrimaryFlag(id)
	if err != nil {
		return Record{}, err
	}
	s.record(ctx, adminID, shared.AuditActionMarkPaid, id, map[string]any{"amount": updated.Amount})
	return updated, nil
}

// Delete removes a record remotely and from the held page. key makes repeated
// submissions of the same form a no-op; it is released again when the
// remote call fails so the admin can retry.
func (s *Service) Delete(ctx context.Context, ctrl *listview.Controller[Record], adminID, id, key string) error {
	if s.idem != nil && key != "" {
		if err := s.idem.CheckAndInsert(ctx, key, IdempotencyModule); err != nil {
			return err
		}
	}
	if err := ctrl.Modal().Delete(ctx, id, s.deleter.DeleteRecord); err != nil {
		if s.idem != nil && key != "" {
			if relErr := s.idem.Delete(ctx, key); relErr != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", relErr))
			}
		}
		return err
	}
	s.record(ctx, adminID, shared.AuditActionDelete, id, nil)
	return nil
}

func (s *Service) record(ctx context.Context, adminID, action, id string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := shared.AuditLog{AdminID: adminID, Action: action, Entity: EntityName, EntityID: id, Meta: meta}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record action", slog.String("action", action), slog.String("id", id), slog.Any("error", err))
	}
}
