package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	admindomain "github.com/usampac/admin-web/internal/admin/domain"
	"github.com/usampac/admin-web/internal/datastore"
)

const (
	actionInsert = "insert"
	actionUpdate = "update"
	actionDelete = "delete"
)

// Deps are the collaborators shared by the content and review services.
type Deps struct {
	Store    datastore.Store
	Schema   string
	Logger   logrus.FieldLogger
	Audit    AuditLog
	Notifier DecisionNotifier
	Now      func() time.Time
}

// writer funnels every mutation through one place so logging and auditing stay uniform.
type writer struct {
	store  datastore.Store
	schema string
	logger logrus.FieldLogger
	audit  AuditLog
	now    func() time.Time
}

func newWriter(deps Deps) writer {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return writer{store: deps.Store, schema: deps.Schema, logger: logger, audit: deps.Audit, now: now}
}

// save updates the row with id when id is non-blank and inserts payload otherwise.
func (w writer) save(ctx context.Context, table, id string, payload datastore.Record, actor admindomain.Identity) error {
	id = strings.TrimSpace(id)
	action := actionInsert
	var err error
	if id != "" {
		action = actionUpdate
		err = w.store.Update(ctx, datastore.From(w.schema, table).Eq("id", id), payload)
	} else {
		id, err = w.store.Insert(ctx, w.schema, table, payload)
	}
	if err != nil {
		w.logger.WithError(err).WithFields(logrus.Fields{"table": table, "action": action, "id": id}).Error("write failed")
		return fmt.Errorf("%s %s: %w", action, table, err)
	}
	w.record(ctx, actor, action, table, id, nil)
	return nil
}

// deleteByID removes one row. A blank id is ignored.
func (w writer) deleteByID(ctx context.Context, table, id string, actor admindomain.Identity) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	if err := w.store.Delete(ctx, datastore.From(w.schema, table).Eq("id", id)); err != nil {
		w.logger.WithError(err).WithFields(logrus.Fields{"table": table, "action": actionDelete, "id": id}).Error("write failed")
		return fmt.Errorf("%s %s: %w", actionDelete, table, err)
	}
	w.record(ctx, actor, actionDelete, table, id, nil)
	return nil
}

// record writes an audit entry. Failures are logged and never fail the mutation.
func (w writer) record(ctx context.Context, actor admindomain.Identity, action, table, id string, notes *string) {
	if w.audit == nil {
		return
	}
	entry := AuditEntry{
		ActorID:    actor.ID,
		ActorEmail: actor.Email,
		Action:     action,
		Table:      table,
		TargetID:   id,
		Notes:      notes,
		At:         w.now().UTC(),
	}
	if err := w.audit.Record(ctx, entry); err != nil {
		w.logger.WithError(err).WithFields(logrus.Fields{"table": table, "action": action, "id": id}).Warn("audit record failed")
	}
}

// optional turns a blank string into nil and trims the rest.
func optional(v *string) any {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return trimmed
}
