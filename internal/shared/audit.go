package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Audit actions.
const (
	AuditActionToggleActive = "user.toggle_active"
	AuditActionMarkPaid     = "record.mark_paid"
	AuditActionDelete       = "record.delete"
	AuditActionCreateAdmin  = "admin.create"
)

// SystemActor is the admin ID recorded for changes made outside a login
// session, such as the bootstrap account or adminctl.
const SystemActor = "system"

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	AdminID  string
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// Auditor records admin actions.
type Auditor interface {
	Record(ctx context.Context, log AuditLog) error
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	db  Execer
	now func() time.Time
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(db Execer) *AuditLogger {
	return &AuditLogger{db: db, now: time.Now}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	if log.At.IsZero() {
		log.At = l.now().UTC()
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	_, err = l.db.Exec(ctx, `INSERT INTO audit_logs (admin_id, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		log.AdminID, log.Action, log.Entity, log.EntityID, metaJSON, log.At)
	return err
}
