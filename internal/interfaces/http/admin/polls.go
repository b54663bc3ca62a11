package admin

import (
	"context"
	"net/http"

	adminapp "github.com/usampac/admin-web/internal/admin/application"
	"github.com/usampac/admin-web/internal/interfaces/http/common"
	"github.com/usampac/admin-web/internal/interfaces/http/views"
)

const pollsPath = "/polls"

func (h *Handler) pollListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		page := views.Page{Title: "Polls", Data: views.Polls{}}
		rows, err := h.polls.List(ctx)
		if err != nil {
			h.logger.WithError(err).Error("poll list fetch failed")
			page.Error = err.Error()
		} else {
			page.Data = views.Polls{Rows: rows}
		}
		h.render(w, r, http.StatusOK, views.PagePolls, page)
	}
}

type pollForm struct {
	ID    string
	Title string `validate:"required"`
}

func (h *Handler) pollSaveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.parseForm(w, r, pollsPath) {
			return
		}
		form := pollForm{ID: common.Text(r, "id"), Title: common.Text(r, "title")}
		if common.Validate(form) != nil {
			common.SeeOther(w, r, pollsPath)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		err := h.polls.SavePoll(ctx, adminapp.SavePollCommand{
			ID:       form.ID,
			Title:    form.Title,
			Subtitle: common.OptionalText(r, "subtitle"),
			Slug:     common.Text(r, "slug"),
			IsActive: common.Checkbox(r, "is_active"),
			Actor:    actor(r),
		})
		h.done(w, r, err, pollsPath, pollsPath)
	}
}

// pollDeleteHandler removes only the poll row; its options are left to the database.
func (h *Handler) pollDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.parseForm(w, r, pollsPath) {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		err := h.polls.DeletePoll(ctx, adminapp.DeleteCommand{ID: common.Text(r, "id"), Actor: actor(r)})
		h.done(w, r, err, pollsPath, pollsPath)
	}
}

type pollOptionForm struct {
	ID     string
	PollID string `validate:"required"`
	Label  string `validate:"required"`
}

func (h *Handler) pollOptionSaveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.parseForm(w, r, pollsPath) {
			return
		}
		form := pollOptionForm{ID: common.Text(r, "id"), PollID: common.Text(r, "poll_id"), Label: common.Text(r, "label")}
		if common.Validate(form) != nil {
			common.SeeOther(w, r, pollsPath)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		err := h.polls.SaveOption(ctx, adminapp.SavePollOptionCommand{
			ID:       form.ID,
			PollID:   form.PollID,
			Label:    form.Label,
			Position: common.Position(r, "position"),
			Actor:    actor(r),
		})
		h.done(w, r, err, pollsPath, pollsPath)
	}
}

func (h *Handler) pollOptionDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.parseForm(w, r, pollsPath) {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		err := h.polls.DeleteOption(ctx, adminapp.DeleteCommand{ID: common.Text(r, "id"), Actor: actor(r)})
		h.done(w, r, err, pollsPath, pollsPath)
	}
}
