package admin

import (
	"context"
	"net/http"

	adminapp "github.com/usampac/admin-web/internal/admin/application"
	"github.com/usampac/admin-web/internal/interfaces/http/common"
	"github.com/usampac/admin-web/internal/interfaces/http/views"
)

const notificationsPath = "/notifications"

func (h *Handler) notificationListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		page := views.Page{Title: "Notifications", Data: views.Notifications{}}
		rows, err := h.notifications.List(ctx)
		if err != nil {
			h.logger.WithError(err).Error("notification list fetch failed")
			page.Error = err.Error()
		} else {
			page.Data = views.Notifications{Rows: rows}
		}
		h.render(w, r, http.StatusOK, views.PageNotifications, page)
	}
}

type notificationForm struct {
	ID    string
	Title string `validate:"required"`
}

func (h *Handler) notificationSaveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.parseForm(w, r, notificationsPath) {
			return
		}
		form := notificationForm{ID: common.Text(r, "id"), Title: common.Text(r, "title")}
		if common.Validate(form) != nil {
			common.SeeOther(w, r, notificationsPath)
			return
		}
		publishedAt, err := common.DateTimeLocal(r, "published_at", h.location)
		if err != nil {
			h.fail(w, r, err, notificationsPath)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		err = h.notifications.Save(ctx, adminapp.SaveNotificationCommand{
			ID:          form.ID,
			Title:       form.Title,
			URL:         common.OptionalText(r, "url"),
			Body:        common.OptionalText(r, "body"),
			PublishedAt: publishedAt,
			IsActive:    common.Checkbox(r, "is_active"),
			Actor:       actor(r),
		})
		h.done(w, r, err, notificationsPath, notificationsPath)
	}
}

func (h *Handler) notificationDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.parseForm(w, r, notificationsPath) {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		err := h.notifications.Delete(ctx, adminapp.DeleteCommand{ID: common.Text(r, "id"), Actor: actor(r)})
		h.done(w, r, err, notificationsPath, notificationsPath)
	}
}
