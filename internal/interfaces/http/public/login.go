package public

import (
	"context"
	"net"
	"net/http"

	"github.com/usampac/admin-web/internal/interfaces/http/common"
	"github.com/usampac/admin-web/internal/interfaces/http/views"
)

const tooManyAttempts = "Too many sign-in attempts. Please wait a minute and try again."

func (h *Handler) loginFormHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusOK, views.PageLogin, views.Page{Title: "Login", Data: views.Login{}})
	}
}

// loginHandler shows backend sign-in errors verbatim and sends successful reviewers to the
// dashboard.
func (h *Handler) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := views.Page{Title: "Login", Data: views.Login{}}
		if err := common.ParseForm(w, r); err != nil {
			page.Error = "The sign-in form could not be read."
			h.render(w, r, http.StatusBadRequest, views.PageLogin, page)
			return
		}
		email := common.Text(r, "email")
		page.Data = views.Login{Email: email}

		if !h.limiter.Allow(clientKey(r)) {
			h.logger.WithField("client", clientKey(r)).Warn("sign-in rate limited")
			page.Error = tooManyAttempts
			h.render(w, r, http.StatusTooManyRequests, views.PageLogin, page)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		session, err := h.sessions.SignIn(ctx, email, r.PostFormValue("password"))
		if err != nil {
			h.logger.WithError(err).WithField("email", email).Info("sign-in failed")
			page.Error = err.Error()
			h.render(w, r, http.StatusOK, views.PageLogin, page)
			return
		}

		h.cookies.Write(w, session)
		h.logger.WithField("user_id", session.User.ID).Info("signed in")
		common.SeeOther(w, r, "/dashboard")
	}
}

// logoutHandler revokes the session upstream on a best-effort basis and always clears it locally.
func (h *Handler) logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if session, ok := h.cookies.Read(r); ok {
			ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
			defer cancel()
			if err := h.sessions.SignOut(ctx, session); err != nil {
				h.logger.WithError(err).Debug("sign-out failed")
			}
		}
		h.cookies.Clear(w)
		common.SeeOther(w, r, "/login")
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
