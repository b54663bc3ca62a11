package application

import (
	"context"
	"strings"

	admindomain "github.com/usampac/admin-web/internal/admin/domain"
	"github.com/usampac/admin-web/internal/datastore"
)

const notificationsTable = "notifications"

type notificationService struct {
	writer
}

// NewNotificationService builds notification CRUD.
func NewNotificationService(deps Deps) NotificationService {
	return &notificationService{writer: newWriter(deps)}
}

func (s *notificationService) List(ctx context.Context) ([]admindomain.Notification, error) {
	rows := []admindomain.Notification{}
	q := datastore.From(s.schema, notificationsTable).Order("published_at", false)
	if err := s.store.Select(ctx, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *notificationService) Save(ctx context.Context, cmd SaveNotificationCommand) error {
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	payload := datastore.Record{
		"title":     title,
		"url":       optional(cmd.URL),
		"body":      optional(cmd.Body),
		"is_active": cmd.IsActive,
	}
	if cmd.PublishedAt != nil {
		payload["published_at"] = cmd.PublishedAt.UTC()
	}
	return s.save(ctx, notificationsTable, cmd.ID, payload, cmd.Actor)
}

func (s *notificationService) Delete(ctx context.Context, cmd DeleteCommand) error {
	return s.deleteByID(ctx, notificationsTable, cmd.ID, cmd.Actor)
}
