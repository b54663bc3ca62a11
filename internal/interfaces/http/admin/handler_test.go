package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adminapp "github.com/usampac/admin-web/internal/admin/application"
	admindomain "github.com/usampac/admin-web/internal/admin/domain"
	"github.com/usampac/admin-web/internal/datastore"
	"github.com/usampac/admin-web/internal/interfaces/http/common"
	"github.com/usampac/admin-web/internal/interfaces/http/views"
	"github.com/usampac/admin-web/internal/pagecache"
)

var reviewer = admindomain.Identity{ID: "admin-1", Email: "admin@example.org"}

type fakeSessions struct {
	replaced bool
	err      error
}

func (f *fakeSessions) Resolve(_ context.Context, s admindomain.Session) (admindomain.Session, bool, error) {
	if f.err != nil {
		return admindomain.Session{}, false, f.err
	}
	s.User = reviewer
	if f.replaced {
		s.AccessToken = "refreshed"
	}
	return s, f.replaced, nil
}

type fakeAccess struct{ err error }

func (f *fakeAccess) Authorize(context.Context, admindomain.Identity) error { return f.err }

type fakeReviews struct {
	mu        sync.Mutex
	rows      []admindomain.CandidateProfile
	listErr   error
	lists     int
	tokens    []string
	dashboard adminapp.Dashboard
	dashCalls int
	decisions []adminapp.DecisionCommand
	decideErr error
	// duringList runs after the rows are read, before they are returned.
	duringList func()
}

func (f *fakeReviews) List(ctx context.Context, _ admindomain.ApprovalStatus) ([]admindomain.CandidateProfile, error) {
	f.mu.Lock()
	f.lists++
	token, _ := datastore.AccessToken(ctx)
	f.tokens = append(f.tokens, token)
	rows, err, during := f.rows, f.listErr, f.duringList
	f.mu.Unlock()
	if during != nil {
		during()
	}
	return rows, err
}

func (f *fakeReviews) Dashboard(context.Context) (adminapp.Dashboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dashCalls++
	return f.dashboard, f.listErr
}

func (f *fakeReviews) Approve(_ context.Context, cmd adminapp.DecisionCommand) error {
	f.decisions = append(f.decisions, cmd)
	return f.decideErr
}

func (f *fakeReviews) Reject(_ context.Context, cmd adminapp.DecisionCommand) error {
	f.decisions = append(f.decisions, cmd)
	return f.decideErr
}

type fakeNotifications struct {
	rows    []admindomain.Notification
	saved   []adminapp.SaveNotificationCommand
	deleted []adminapp.DeleteCommand
	err     error
}

func (f *fakeNotifications) List(context.Context) ([]admindomain.Notification, error) {
	return f.rows, nil
}

func (f *fakeNotifications) Save(_ context.Context, cmd adminapp.SaveNotificationCommand) error {
	f.saved = append(f.saved, cmd)
	return f.err
}

func (f *fakeNotifications) Delete(_ context.Context, cmd adminapp.DeleteCommand) error {
	f.deleted = append(f.deleted, cmd)
	return f.err
}

type fakePolls struct {
	listErr error
	polls   []adminapp.SavePollCommand
	options []adminapp.SavePollOptionCommand
	deleted []adminapp.DeleteCommand
}

func (f *fakePolls) List(context.Context) ([]admindomain.PollWithOptions, error) {
	return nil, f.listErr
}

func (f *fakePolls) SavePoll(_ context.Context, cmd adminapp.SavePollCommand) error {
	f.polls = append(f.polls, cmd)
	return nil
}

func (f *fakePolls) DeletePoll(_ context.Context, cmd adminapp.DeleteCommand) error {
	f.deleted = append(f.deleted, cmd)
	return nil
}

func (f *fakePolls) SaveOption(_ context.Context, cmd adminapp.SavePollOptionCommand) error {
	f.options = append(f.options, cmd)
	return nil
}

func (f *fakePolls) DeleteOption(_ context.Context, cmd adminapp.DeleteCommand) error {
	f.deleted = append(f.deleted, cmd)
	return nil
}

type fakeQuiz struct {
	questions []adminapp.SaveQuestionCommand
	options   []adminapp.SaveQuizOptionCommand
	bulk      []adminapp.BulkDeleteCommand
	deleted   []adminapp.DeleteCommand
	bulkErr   error
}

func (f *fakeQuiz) List(context.Context) ([]admindomain.QuestionWithOptions, error) {
	return []admindomain.QuestionWithOptions{}, nil
}

func (f *fakeQuiz) SaveQuestion(_ context.Context, cmd adminapp.SaveQuestionCommand) error {
	f.questions = append(f.questions, cmd)
	return nil
}

func (f *fakeQuiz) DeleteQuestion(_ context.Context, cmd adminapp.DeleteCommand) error {
	f.deleted = append(f.deleted, cmd)
	return nil
}

func (f *fakeQuiz) BulkDeleteQuestions(_ context.Context, cmd adminapp.BulkDeleteCommand) error {
	f.bulk = append(f.bulk, cmd)
	return f.bulkErr
}

func (f *fakeQuiz) SaveOption(_ context.Context, cmd adminapp.SaveQuizOptionCommand) error {
	f.options = append(f.options, cmd)
	return nil
}

func (f *fakeQuiz) DeleteOption(_ context.Context, cmd adminapp.DeleteCommand) error {
	f.deleted = append(f.deleted, cmd)
	return nil
}

type fixture struct {
	router        http.Handler
	cookies       *common.SessionCookies
	sessions      *fakeSessions
	access        *fakeAccess
	reviews       *fakeReviews
	notifications *fakeNotifications
	polls         *fakePolls
	quiz          *fakeQuiz
	location      *time.Location
}

func newFixture(t *testing.T, cache *pagecache.Cache) *fixture {
	t.Helper()
	loc := time.FixedZone("EST", -5*60*60)
	renderer, err := views.New(loc)
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()

	f := &fixture{
		cookies:       common.NewSessionCookies([]byte("secret"), false),
		sessions:      &fakeSessions{},
		access:        &fakeAccess{},
		reviews:       &fakeReviews{},
		notifications: &fakeNotifications{},
		polls:         &fakePolls{},
		quiz:          &fakeQuiz{},
		location:      loc,
	}
	h := NewHandler(Config{
		Logger:        logger,
		Renderer:      renderer,
		Sessions:      f.sessions,
		Cookies:       f.cookies,
		Access:        f.access,
		Reviews:       f.reviews,
		Notifications: f.notifications,
		Polls:         f.polls,
		Quiz:          f.quiz,
		Cache:         cache,
		Location:      loc,
	})
	router := chi.NewRouter()
	h.Register(router)
	f.router = router
	return f
}

func (f *fixture) sessionCookie() *http.Cookie {
	rec := httptest.NewRecorder()
	f.cookies.Write(rec, admindomain.Session{AccessToken: "user-token", RefreshToken: "r", User: reviewer})
	return rec.Result().Cookies()[0]
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(f.sessionCookie())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(f.sessionCookie())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRequireAdminRedirectsWithoutCookie(t *testing.T) {
	f := newFixture(t, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pending", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Zero(t, f.reviews.lists)
}

func TestRequireAdminClearsRejectedSession(t *testing.T) {
	f := newFixture(t, nil)
	f.sessions.err = adminapp.ErrUnauthenticated

	rec := f.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestRequireAdminTurnsAwayNonAdmins(t *testing.T) {
	f := newFixture(t, nil)
	f.access.err = adminapp.ErrForbidden

	rec := f.get("/pending")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Zero(t, f.reviews.lists)
}

func TestRequireAdminStoresRefreshedSession(t *testing.T) {
	f := newFixture(t, nil)
	f.sessions.replaced = true

	rec := f.get("/pending")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, []string{"refreshed"}, f.reviews.tokens)
}

func TestCandidateListEmpty(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get("/pending")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Pending Candidates")
	assert.Contains(t, body, "No pending candidates.")
	assert.Contains(t, body, "admin@example.org")
	assert.Equal(t, []string{"user-token"}, f.reviews.tokens)
}

func TestCandidateListError(t *testing.T) {
	f := newFixture(t, nil)
	f.reviews.listErr = errors.New("permission denied for view candidate_profiles_admin")

	rec := f.get("/rejected")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Rejected Candidates")
	assert.Contains(t, body, "permission denied for view candidate_profiles_admin")
	assert.NotContains(t, body, "No rejected candidates.")
}

func TestApprovedListShowsNotesAndTimestamp(t *testing.T) {
	f := newFixture(t, nil)
	name, notes := "Jordan Lee", "Verified filing"
	approvedAt := time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC)
	f.reviews.rows = []admindomain.CandidateProfile{{UserID: "u1", DisplayName: &name, ReviewerNotes: &notes, ApprovedAt: &approvedAt}}

	body := f.get("/approved").Body.String()
	assert.Contains(t, body, "Jordan Lee")
	assert.Contains(t, body, "Notes: Verified filing")
	assert.Contains(t, body, "Approved at: May 1, 2024, 12:00 PM EST")
	assert.NotContains(t, body, "/pending/approve")
}

func TestApprovePassesNotesAndReviewer(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post("/pending/approve", url.Values{"user_id": {"u1"}, "notes": {"  looks good "}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/pending", rec.Header().Get("Location"))
	require.Len(t, f.reviews.decisions, 1)
	assert.Equal(t, "u1", f.reviews.decisions[0].UserID)
	assert.Equal(t, "  looks good ", f.reviews.decisions[0].Notes)
	assert.Equal(t, reviewer, f.reviews.decisions[0].Reviewer)
}

func TestWhitespaceNotesAreNotDropped(t *testing.T) {
	f := newFixture(t, nil)

	f.post("/pending/reject", url.Values{"user_id": {"u1"}, "notes": {"   "}})
	require.Len(t, f.reviews.decisions, 1)
	assert.Equal(t, "   ", f.reviews.decisions[0].Notes)
}

func TestDecisionWithoutUserIsIgnored(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post("/pending/reject", url.Values{"user_id": {"  "}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, f.reviews.decisions)
}

func TestDecisionFailureShowsGenericPage(t *testing.T) {
	f := newFixture(t, nil)
	f.reviews.decideErr = errors.New("function api.reject_candidate does not exist")

	rec := f.post("/pending/reject", url.Values{"user_id": {"u1"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "The change could not be saved. Please try again.")
	assert.NotContains(t, rec.Body.String(), "does not exist")
}

func TestDashboardCards(t *testing.T) {
	f := newFixture(t, nil)
	name := "Avery"
	level, office := "State", "Senate"
	f.reviews.dashboard = adminapp.Dashboard{
		Pending: adminapp.DashboardCard{Total: 3, Sample: []admindomain.CandidateProfile{{UserID: "u1", DisplayName: &name, OfficeLevel: &level, OfficeName: &office}}},
	}

	body := f.get("/dashboard").Body.String()
	assert.Contains(t, body, "Total: 3")
	assert.Contains(t, body, "Avery — State/Senate")
	assert.Contains(t, body, "No items")
}

func TestDashboardShowsFailedCardBesideHealthyOnes(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cache := pagecache.New(pagecache.NewMemoryStore(time.Minute), time.Minute, logger)
	f := newFixture(t, cache)
	f.reviews.dashboard = adminapp.Dashboard{
		Pending:  adminapp.DashboardCard{Total: 4, Sample: []admindomain.CandidateProfile{}},
		Approved: adminapp.DashboardCard{Sample: []admindomain.CandidateProfile{}, Err: errors.New("count approved: statement timeout")},
		Rejected: adminapp.DashboardCard{Total: 2, Sample: []admindomain.CandidateProfile{}},
	}

	rec := f.get("/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Total: 4")
	assert.Contains(t, body, "Total: 2")
	assert.Contains(t, body, "count approved: statement timeout")

	f.get("/dashboard")
	assert.Equal(t, 2, f.reviews.dashCalls)
}

func TestNotificationSave(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post("/notifications", url.Values{
		"title":        {" Early voting "},
		"url":          {""},
		"body":         {"Polls open at 7"},
		"published_at": {"2024-11-05T09:30"},
		"is_active":    {"on"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/notifications", rec.Header().Get("Location"))
	require.Len(t, f.notifications.saved, 1)
	saved := f.notifications.saved[0]
	assert.Empty(t, saved.ID)
	assert.Equal(t, "Early voting", saved.Title)
	assert.Nil(t, saved.URL)
	require.NotNil(t, saved.Body)
	assert.Equal(t, "Polls open at 7", *saved.Body)
	require.NotNil(t, saved.PublishedAt)
	assert.Equal(t, time.Date(2024, 11, 5, 14, 30, 0, 0, time.UTC), saved.PublishedAt.UTC())
	assert.True(t, saved.IsActive)
}

func TestNotificationSaveWithoutTitleIsIgnored(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post("/notifications", url.Values{"title": {"   "}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, f.notifications.saved)
}

func TestNotificationSaveRejectsBadDate(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post("/notifications", url.Values{"title": {"x"}, "published_at": {"tomorrow"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid date and time tomorrow")
	assert.Empty(t, f.notifications.saved)
}

func TestPollOptionSave(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post("/polls/options", url.Values{"poll_id": {"p1"}, "label": {"Yes"}, "position": {"2"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, f.polls.options, 1)
	assert.Equal(t, adminapp.SavePollOptionCommand{PollID: "p1", Label: "Yes", Position: 2, Actor: reviewer}, f.polls.options[0])

	f.post("/polls/options", url.Values{"poll_id": {""}, "label": {"No"}})
	assert.Len(t, f.polls.options, 1)
}

func TestPollListErrorIsInline(t *testing.T) {
	f := newFixture(t, nil)
	f.polls.listErr = errors.New("relation api.polls does not exist")

	rec := f.get("/polls")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "relation api.polls does not exist")
	assert.NotContains(t, rec.Body.String(), "No polls yet.")
}

func TestQuizBulkDelete(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post("/quiz/bulk-delete", url.Values{"ids": {"A", "B", " "}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/quiz", rec.Header().Get("Location"))
	require.Len(t, f.quiz.bulk, 1)
	assert.Equal(t, []string{"A", "B"}, f.quiz.bulk[0].IDs)

	f.post("/quiz/bulk-delete", url.Values{})
	assert.Len(t, f.quiz.bulk, 1)
}

func TestQuizOptionSaveReadsCheckbox(t *testing.T) {
	f := newFixture(t, nil)

	f.post("/quiz/options", url.Values{"id": {"o1"}, "question_id": {"q1"}, "label": {"Ten"}, "is_correct": {"on"}, "position": {"1st"}})
	require.Len(t, f.quiz.options, 1)
	assert.Equal(t, adminapp.SaveQuizOptionCommand{ID: "o1", QuestionID: "q1", Label: "Ten", IsCorrect: true, Position: 1, Actor: reviewer}, f.quiz.options[0])
}

func TestPageCacheServesUntilDecision(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cache := pagecache.New(pagecache.NewMemoryStore(time.Minute), time.Minute, logger)
	f := newFixture(t, cache)

	require.Equal(t, http.StatusOK, f.get("/pending").Code)
	require.Equal(t, http.StatusOK, f.get("/pending").Code)
	assert.Equal(t, 1, f.reviews.lists)

	f.post("/pending/approve", url.Values{"user_id": {"u1"}})
	require.Equal(t, http.StatusOK, f.get("/pending").Code)
	assert.Equal(t, 2, f.reviews.lists)
}

func TestPageCacheDropsRenderingInvalidatedWhileReading(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cache := pagecache.New(pagecache.NewMemoryStore(time.Minute), time.Minute, logger)
	f := newFixture(t, cache)
	stale := "Stale Candidate"
	f.reviews.rows = []admindomain.CandidateProfile{{UserID: "u1", DisplayName: &stale}}
	f.reviews.duringList = func() {
		f.reviews.duringList = nil
		cache.Invalidate(context.Background(), "/pending")
	}

	require.Contains(t, f.get("/pending").Body.String(), stale)

	f.reviews.rows = nil
	rec := f.get("/pending")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, f.reviews.lists)
	assert.NotContains(t, rec.Body.String(), stale)
	assert.Contains(t, rec.Body.String(), "No pending candidates.")
}

func TestPageCacheSkipsErrors(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cache := pagecache.New(pagecache.NewMemoryStore(time.Minute), time.Minute, logger)
	f := newFixture(t, cache)
	f.reviews.listErr = errors.New("timeout")

	f.get("/pending")
	f.get("/pending")
	assert.Equal(t, 2, f.reviews.lists)
}

type fakeAuditHistory struct {
	entries []adminapp.AuditEntry
	limit   int64
}

func (f *fakeAuditHistory) Recent(_ context.Context, _, _ string, limit int64) ([]adminapp.AuditEntry, error) {
	f.limit = limit
	return f.entries, nil
}

func TestAuditEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.get("/audit?table=polls&target=p1")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	renderer, err := views.New(time.UTC)
	require.NoError(t, err)
	history := &fakeAuditHistory{entries: []adminapp.AuditEntry{{
		ActorID: "admin-1", Action: "update", Table: "polls", TargetID: "p1",
		At: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}}}
	h := NewHandler(Config{
		Renderer: renderer, Sessions: f.sessions, Cookies: f.cookies, Access: f.access,
		Reviews: f.reviews, Notifications: f.notifications, Polls: f.polls, Quiz: f.quiz,
		Audit: history,
	})
	router := chi.NewRouter()
	h.Register(router)
	f.router = router

	rec = f.get("/audit?table=polls&target=p1&limit=500")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(maxAuditLimit), history.limit)
	assert.JSONEq(t, `{"items":[{"actorId":"admin-1","action":"update","table":"polls","targetId":"p1","at":"2024-05-01T12:00:00Z"}]}`, rec.Body.String())

	rec = f.get("/audit?table=polls")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
