package admin

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	adminapp "github.com/usampac/admin-web/internal/admin/application"
	admindomain "github.com/usampac/admin-web/internal/admin/domain"
	"github.com/usampac/admin-web/internal/datastore"
	"github.com/usampac/admin-web/internal/interfaces/http/common"
	"github.com/usampac/admin-web/internal/interfaces/http/views"
	"github.com/usampac/admin-web/internal/pagecache"
)

// SessionResolver turns a stored session into a live one.
type SessionResolver interface {
	Resolve(ctx context.Context, session admindomain.Session) (admindomain.Session, bool, error)
}

// Handler wires admin pages and forms to application services.
type Handler struct {
	logger        logrus.FieldLogger
	renderer      common.Renderer
	sessions      SessionResolver
	cookies       *common.SessionCookies
	access        adminapp.AccessService
	reviews       adminapp.ReviewService
	notifications adminapp.NotificationService
	polls         adminapp.PollService
	quiz          adminapp.QuizService
	audit         adminapp.AuditHistory
	cache         *pagecache.Cache
	location      *time.Location
}

// Config provides dependencies for Handler.
type Config struct {
	Logger        logrus.FieldLogger
	Renderer      common.Renderer
	Sessions      SessionResolver
	Cookies       *common.SessionCookies
	Access        adminapp.AccessService
	Reviews       adminapp.ReviewService
	Notifications adminapp.NotificationService
	Polls         adminapp.PollService
	Quiz          adminapp.QuizService
	// Audit may be nil when no audit store is configured.
	Audit adminapp.AuditHistory
	// Cache may be nil; pages are then always rendered fresh.
	Cache    *pagecache.Cache
	Location *time.Location
}

// NewHandler constructs the admin handler set.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		logger:        logger.WithField("component", "admin"),
		renderer:      cfg.Renderer,
		sessions:      cfg.Sessions,
		cookies:       cfg.Cookies,
		access:        cfg.Access,
		reviews:       cfg.Reviews,
		notifications: cfg.Notifications,
		polls:         cfg.Polls,
		quiz:          cfg.Quiz,
		audit:         cfg.Audit,
		cache:         cfg.Cache,
		location:      loc,
	}
}

// Register mounts the admin pages behind RequireAdmin.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAdmin)

		r.Get("/dashboard", h.cached(h.dashboardHandler()))

		r.Get("/pending", h.cached(h.candidateListHandler(admindomain.StatusPending)))
		r.Get("/approved", h.cached(h.candidateListHandler(admindomain.StatusApproved)))
		r.Get("/rejected", h.cached(h.candidateListHandler(admindomain.StatusRejected)))
		r.Post("/pending/approve", h.decisionHandler(h.reviews.Approve))
		r.Post("/pending/reject", h.decisionHandler(h.reviews.Reject))

		r.Get("/notifications", h.cached(h.notificationListHandler()))
		r.Post("/notifications", h.notificationSaveHandler())
		r.Post("/notifications/delete", h.notificationDeleteHandler())

		r.Get("/polls", h.cached(h.pollListHandler()))
		r.Post("/polls", h.pollSaveHandler())
		r.Post("/polls/delete", h.pollDeleteHandler())
		r.Post("/polls/options", h.pollOptionSaveHandler())
		r.Post("/polls/options/delete", h.pollOptionDeleteHandler())

		r.Get("/quiz", h.cached(h.quizListHandler()))
		r.Post("/quiz", h.questionSaveHandler())
		r.Post("/quiz/delete", h.questionDeleteHandler())
		r.Post("/quiz/bulk-delete", h.questionBulkDeleteHandler())
		r.Post("/quiz/options", h.quizOptionSaveHandler())
		r.Post("/quiz/options/delete", h.quizOptionDeleteHandler())

		r.Get("/audit", h.auditHandler())
	})
}

// RequireAdmin resolves the session cookie, refreshing it when needed, and lets only ADMIN
// reviewers through. Everyone else is sent to /login.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stored, ok := h.cookies.Read(r)
		if !ok {
			common.SeeOther(w, r, "/login")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		session, replaced, err := h.sessions.Resolve(ctx, stored)
		if err != nil {
			h.logger.WithError(err).WithField("path", r.URL.Path).Debug("session rejected")
			h.cookies.Clear(w)
			common.SeeOther(w, r, "/login")
			return
		}
		if replaced {
			h.cookies.Write(w, session)
		}

		authed := datastore.WithAccessToken(r.Context(), session.AccessToken)
		if err := h.access.Authorize(datastore.WithAccessToken(ctx, session.AccessToken), session.User); err != nil {
			entry := h.logger.WithField("user_id", session.User.ID).WithField("path", r.URL.Path)
			if errors.Is(err, adminapp.ErrForbidden) {
				entry.Info("non-admin user turned away")
			} else {
				entry.WithError(err).Warn("authorization failed")
			}
			common.SeeOther(w, r, "/login")
			return
		}

		authed = common.ContextWithUser(authed, session.User)
		next.ServeHTTP(w, r.WithContext(authed))
	})
}

type cacheSlotKey struct{}

// cached serves a stored rendering of the page when one exists for this reviewer. Otherwise the
// slot is looked up before the page reads its data and handed to render through the context.
func (h *Handler) cached(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.cache.Enabled() {
			next(w, r)
			return
		}
		user, _ := common.UserFromContext(r.Context())
		body, slot, ok := h.cache.Get(r.Context(), r.URL.Path, user.ID)
		if !ok {
			next(w, r.WithContext(context.WithValue(r.Context(), cacheSlotKey{}, slot)))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

// uncacheable keeps a partially failed rendering out of the page cache.
func uncacheable(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), cacheSlotKey{}, nil))
}

// render writes page and stores successful renderings in the page cache.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, page views.Page) {
	user, ok := common.UserFromContext(r.Context())
	if ok {
		page.User = &user
	}
	slot, cacheable := r.Context().Value(cacheSlotKey{}).(pagecache.Slot)
	if status != http.StatusOK || page.Error != "" || !cacheable || !h.cache.Enabled() {
		common.WriteHTML(h.logger, h.renderer, w, status, name, page)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, name, page); err != nil {
		h.logger.WithError(err).WithField("page", name).Error("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.cache.Set(r.Context(), slot, buf.Bytes())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// fail shows the failure page for a write error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	status := common.FailureStatus(err)
	h.render(w, r, status, views.PageFailure, views.Page{
		Title: "Error",
		Data: views.Failure{
			Status:  status,
			Message: common.FailureMessage(err),
			Back:    back,
		},
	})
}

// done finishes a write: on success the listed pages are invalidated and the browser is sent
// back to back.
func (h *Handler) done(w http.ResponseWriter, r *http.Request, err error, back string, invalidate ...string) {
	if err != nil {
		h.fail(w, r, err, back)
		return
	}
	ctx := context.WithoutCancel(r.Context())
	for _, path := range invalidate {
		h.cache.Invalidate(ctx, path)
	}
	common.SeeOther(w, r, back)
}

// parseForm reads the request body; an unreadable body is rejected with the failure page.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request, back string) bool {
	if err := common.ParseForm(w, r); err != nil {
		h.logger.WithError(err).WithField("path", r.URL.Path).Warn("form parse failed")
		h.fail(w, r, &adminapp.ValidationError{Field: "form", Message: "could not be read"}, back)
		return false
	}
	return true
}

func actor(r *http.Request) admindomain.Identity {
	user, _ := common.UserFromContext(r.Context())
	return user
}
