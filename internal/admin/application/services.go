package application

import (
	"context"
	"time"

	admindomain "github.com/usampac/admin-web/internal/admin/domain"
)

// Authenticator exposes the password-session operations of the auth backend.
type Authenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (admindomain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (admindomain.Session, error)
	CurrentUser(ctx context.Context, accessToken string) (admindomain.Identity, error)
	SignOut(ctx context.Context, accessToken string) error
}

// AuditLog records reviewer actions. Implementations must be safe for concurrent use.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// AuditHistory reads recorded reviewer actions back, newest first.
type AuditHistory interface {
	Recent(ctx context.Context, table, targetID string, limit int64) ([]AuditEntry, error)
}

// DecisionNotifier announces approve/reject decisions to an external channel.
type DecisionNotifier interface {
	NotifyDecision(ctx context.Context, decision Decision) error
}

// AuditEntry is one reviewer action.
type AuditEntry struct {
	ActorID    string
	ActorEmail string
	Action     string
	Table      string
	TargetID   string
	Notes      *string
	At         time.Time
}

// Decision is the outcome of a candidate review.
type Decision struct {
	UserID   string
	Status   admindomain.ApprovalStatus
	Notes    *string
	Reviewer admindomain.Identity
	At       time.Time
}

// AccessService decides whether an identity may use the dashboard.
type AccessService interface {
	Authorize(ctx context.Context, user admindomain.Identity) error
}

// ReviewService describes candidate review use-cases.
type ReviewService interface {
	List(ctx context.Context, status admindomain.ApprovalStatus) ([]admindomain.CandidateProfile, error)
	Dashboard(ctx context.Context) (Dashboard, error)
	Approve(ctx context.Context, cmd DecisionCommand) error
	Reject(ctx context.Context, cmd DecisionCommand) error
}

// NotificationService describes notification CRUD.
type NotificationService interface {
	List(ctx context.Context) ([]admindomain.Notification, error)
	Save(ctx context.Context, cmd SaveNotificationCommand) error
	Delete(ctx context.Context, cmd DeleteCommand) error
}

// PollService describes poll and poll option CRUD.
type PollService interface {
	List(ctx context.Context) ([]admindomain.PollWithOptions, error)
	SavePoll(ctx context.Context, cmd SavePollCommand) error
	DeletePoll(ctx context.Context, cmd DeleteCommand) error
	SaveOption(ctx context.Context, cmd SavePollOptionCommand) error
	DeleteOption(ctx context.Context, cmd DeleteCommand) error
}

// QuizService describes quiz question and option CRUD.
type QuizService interface {
	List(ctx context.Context) ([]admindomain.QuestionWithOptions, error)
	SaveQuestion(ctx context.Context, cmd SaveQuestionCommand) error
	DeleteQuestion(ctx context.Context, cmd DeleteCommand) error
	BulkDeleteQuestions(ctx context.Context, cmd BulkDeleteCommand) error
	SaveOption(ctx context.Context, cmd SaveQuizOptionCommand) error
	DeleteOption(ctx context.Context, cmd DeleteCommand) error
}

// Dashboard is the summary shown on the dashboard page.
type Dashboard struct {
	Pending  DashboardCard
	Approved DashboardCard
	Rejected DashboardCard
}

// DashboardCard is a count plus the first rows of one status. Err is set when either query for
// the card failed; Total and Sample then hold whatever did load.
type DashboardCard struct {
	Total  int
	Sample []admindomain.CandidateProfile
	Err    error
}

// DecisionCommand carries an approve/reject request. Empty notes are sent as NULL.
type DecisionCommand struct {
	UserID   string
	Notes    string
	Reviewer admindomain.Identity
}

// DeleteCommand removes one row by id.
type DeleteCommand struct {
	ID    string
	Actor admindomain.Identity
}

// BulkDeleteCommand removes several quiz questions and their options.
type BulkDeleteCommand struct {
	IDs   []string
	Actor admindomain.Identity
}

// SaveNotificationCommand creates a notification when ID is empty and updates it otherwise.
// A nil PublishedAt leaves the column to its default (or unchanged on update).
type SaveNotificationCommand struct {
	ID          string
	Title       string
	URL         *string
	Body        *string
	PublishedAt *time.Time
	IsActive    bool
	Actor       admindomain.Identity
}

// SavePollCommand creates or updates a poll. An empty Slug is derived from Title.
type SavePollCommand struct {
	ID       string
	Title    string
	Subtitle *string
	Slug     string
	IsActive bool
	Actor    admindomain.Identity
}

// SavePollOptionCommand creates or updates a poll option.
type SavePollOptionCommand struct {
	ID       string
	PollID   string
	Label    string
	Position int
	Actor    admindomain.Identity
}

// SaveQuestionCommand creates or updates a quiz question. An empty Slug is derived from Prompt.
type SaveQuestionCommand struct {
	ID          string
	Prompt      string
	Explanation *string
	Slug        string
	Position    int
	IsActive    bool
	Actor       admindomain.Identity
}

// SaveQuizOptionCommand creates or updates a quiz option.
type SaveQuizOptionCommand struct {
	ID         string
	QuestionID string
	Label      string
	IsCorrect  bool
	Position   int
	Actor      admindomain.Identity
}
