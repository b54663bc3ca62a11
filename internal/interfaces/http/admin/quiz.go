package admin

import (
	"context"
	"net/http"

	adminapp "github.com/usampac/admin-web/internal/admin/application"
	"github.com/usampac/admin-web/internal/interfaces/http/common"
	"github.com/usampac/admin-web/internal/interfaces/http/views"
)

const quizPath = "/quiz"

func (h *Handler) quizListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		page := views.Page{Title: "Quiz", Data: views.Quiz{}}
		rows, err := h.quiz.List(ctx)
		if err != nil {
			h.logger.WithError(err).Error("quiz list fetch failed")
			page.Error = err.Error()
		} else {
			page.Data = views.Quiz{Rows: rows}
		}
		h.render(w, r, http.StatusOK, views.PageQuiz, page)
	}
}

type questionForm struct {
	ID     string
	Prompt string `validate:"required"`
}

func (h *Handler) questionSaveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.parseForm(w, r, quizPath) {
			return
		}
		form := questionForm{ID: common.Text(r, "id"), Prompt: common.Text(r, "prompt")}
		if common.Validate(form) != nil {
			common.SeeOther(w, r, quizPath)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		err := h.quiz.SaveQuestion(ctx, adminapp.SaveQuestionCommand{
			ID:          form.ID,
			Prompt:      form.Prompt,
			Explanation: common.OptionalText(r, "explanation"),
			Slug:        common.Text(r, "slug"),
			Position:    common.Position(r, "position"),
			IsActive:    common.Checkbox(r, "is_active"),
			Actor:       actor(r),
		})
		h.done(w, r, err, quizPath, quizPath)
	}
}

func (h *Handler) questionDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.parseForm(w, r, quizPath) {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		err := h.quiz.DeleteQuestion(ctx, adminapp.DeleteCommand{ID: common.Text(r, "id"), Actor: actor(r)})
		h.done(w, r, err, quizPath, quizPath)
	}
}

func (h *Handler) questionBulkDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.parseForm(w, r, quizPath) {
			return
		}
		ids := common.Values(r, "ids")
		if len(ids) == 0 {
			common.SeeOther(w, r, quizPath)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		err := h.quiz.BulkDeleteQuestions(ctx, adminapp.BulkDeleteCommand{IDs: ids, Actor: actor(r)})
		h.done(w, r, err, quizPath, quizPath)
	}
}

type quizOptionForm struct {
	ID         string
	QuestionID string `validate:"required"`
	Label      string `validate:"required"`
}

func (h *Handler) quizOptionSaveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.parseForm(w, r, quizPath) {
			return
		}
		form := quizOptionForm{ID: common.Text(r, "id"), QuestionID: common.Text(r, "question_id"), Label: common.Text(r, "label")}
		if common.Validate(form) != nil {
			common.SeeOther(w, r, quizPath)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		err := h.quiz.SaveOption(ctx, adminapp.SaveQuizOptionCommand{
			ID:         form.ID,
			QuestionID: form.QuestionID,
			Label:      form.Label,
			IsCorrect:  common.Checkbox(r, "is_correct"),
			Position:   common.Position(r, "position"),
			Actor:      actor(r),
		})
		h.done(w, r, err, quizPath, quizPath)
	}
}

func (h *Handler) quizOptionDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.parseForm(w, r, quizPath) {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		err := h.quiz.DeleteOption(ctx, adminapp.DeleteCommand{ID: common.Text(r, "id"), Actor: actor(r)})
		h.done(w, r, err, quizPath, quizPath)
	}
}
