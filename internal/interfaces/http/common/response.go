package common

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/usampac/admin-web/internal/admin/application"
)

// Renderer executes a named page template.
type Renderer interface {
	Render(w io.Writer, name string, data any) error
}

// genericFailure is shown for write failures so backend internals stay in the logs.
const genericFailure = "The change could not be saved. Please try again."

// WriteJSON serializes payload to JSON with status and logs on failure.
func WriteJSON(logger logrus.FieldLogger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.WithError(err).Warn("json encode failed")
	}
}

// WriteHTML renders page name with status. Render failures become a plain 500.
func WriteHTML(logger logrus.FieldLogger, renderer Renderer, w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	var buf bytes.Buffer
	if err := renderer.Render(&buf, name, data); err != nil {
		if logger != nil {
			logger.WithError(err).WithField("page", name).Error("render failed")
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// SeeOther finishes a successful mutation with post/redirect/get.
func SeeOther(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// FailureStatus maps a write error to a status: 400 for rejected input, 500 otherwise.
func FailureStatus(err error) int {
	if application.IsValidation(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// FailureMessage is the text shown on the failure page for err.
func FailureMessage(err error) string {
	if application.IsValidation(err) {
		return err.Error()
	}
	return genericFailure
}
