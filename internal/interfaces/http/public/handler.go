package public

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	admindomain "github.com/usampac/admin-web/internal/admin/domain"
	"github.com/usampac/admin-web/internal/interfaces/http/common"
	"github.com/usampac/admin-web/internal/interfaces/http/views"
)

// Sessions signs reviewers in and out.
type Sessions interface {
	SignIn(ctx context.Context, email, password string) (admindomain.Session, error)
	SignOut(ctx context.Context, session admindomain.Session) error
}

// Handler serves the pages reachable without a session.
type Handler struct {
	logger   logrus.FieldLogger
	renderer common.Renderer
	sessions Sessions
	cookies  *common.SessionCookies
	limiter  *loginLimiter
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger   logrus.FieldLogger
	Renderer common.Renderer
	Sessions Sessions
	Cookies  *common.SessionCookies
	// LoginRatePerMinute caps sign-in attempts per client address; zero disables the cap.
	LoginRatePerMinute int
}

// NewHandler constructs the public handler set.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		logger:   logger.WithField("component", "public"),
		renderer: cfg.Renderer,
		sessions: cfg.Sessions,
		cookies:  cfg.Cookies,
		limiter:  newLoginLimiter(cfg.LoginRatePerMinute),
	}
}

// Register mounts the public routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.homeHandler())
	r.Get("/login", h.loginFormHandler())
	r.Post("/login", h.loginHandler())
	r.Get("/logout", h.logoutHandler())
	r.Post("/logout", h.logoutHandler())
}

func (h *Handler) homeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusOK, views.PageHome, views.Page{})
	}
}

// render fills the header from the signed session cookie without a backend round trip.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, page views.Page) {
	if session, ok := h.cookies.Read(r); ok && session.User.Email != "" {
		user := session.User
		page.User = &user
	}
	common.WriteHTML(h.logger, h.renderer, w, status, name, page)
}
