package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	admindomain "github.com/usampac/admin-web/internal/admin/domain"
	"github.com/usampac/admin-web/internal/datastore"
)

const (
	pendingView = "candidate_profiles_pending"
	adminView   = "candidate_profiles_admin"

	approveProcedure = "approve_candidate"
	rejectProcedure  = "reject_candidate"

	dashboardSampleSize = 10

	pendingSampleColumns  = "user_id,display_name,email,office_level,office_name,city_name,state_code,cycle"
	approvedSampleColumns = pendingSampleColumns + ",approved_at"
	rejectedSampleColumns = approvedSampleColumns + ",reviewer_notes"
)

type reviewService struct {
	writer
	notifier DecisionNotifier
}

// NewReviewService builds the candidate review use-cases.
func NewReviewService(deps Deps) ReviewService {
	return &reviewService{writer: newWriter(deps), notifier: deps.Notifier}
}

func (s *reviewService) statusQuery(status admindomain.ApprovalStatus) datastore.Query {
	if status == admindomain.StatusPending {
		return datastore.From(s.schema, pendingView)
	}
	return datastore.From(s.schema, adminView).Eq("approval_status", string(status))
}

func (s *reviewService) List(ctx context.Context, status admindomain.ApprovalStatus) ([]admindomain.CandidateProfile, error) {
	if _, ok := admindomain.ParseApprovalStatus(string(status)); !ok {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}
	rows := []admindomain.CandidateProfile{}
	if err := s.store.Select(ctx, s.statusQuery(status), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Dashboard issues the three counts and three samples concurrently. Cards fail independently: a
// failed query leaves its card at zero/empty with Err set and the other cards intact. Only a
// cancelled ctx fails the whole summary.
func (s *reviewService) Dashboard(ctx context.Context) (Dashboard, error) {
	var out Dashboard
	cards := []struct {
		status    admindomain.ApprovalStatus
		columns   string
		card      *DashboardCard
		countErr  error
		sampleErr error
	}{
		{status: admindomain.StatusPending, columns: pendingSampleColumns, card: &out.Pending},
		{status: admindomain.StatusApproved, columns: approvedSampleColumns, card: &out.Approved},
		{status: admindomain.StatusRejected, columns: rejectedSampleColumns, card: &out.Rejected},
	}

	var g errgroup.Group
	for i := range cards {
		c := &cards[i]
		c.card.Sample = []admindomain.CandidateProfile{}
		q := s.statusQuery(c.status)
		g.Go(func() error {
			total, err := s.store.Count(ctx, q)
			if err != nil {
				c.countErr = fmt.Errorf("count %s: %w", c.status, err)
				return nil
			}
			c.card.Total = total
			return nil
		})
		g.Go(func() error {
			rows := []admindomain.CandidateProfile{}
			if err := s.store.Select(ctx, q.Select(c.columns).WithLimit(dashboardSampleSize), &rows); err != nil {
				c.sampleErr = fmt.Errorf("sample %s: %w", c.status, err)
				return nil
			}
			c.card.Sample = rows
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Dashboard{}, err
	}

	for i := range cards {
		c := &cards[i]
		c.card.Err = errors.Join(c.countErr, c.sampleErr)
		if c.card.Err != nil {
			s.logger.WithError(c.card.Err).WithField("status", string(c.status)).Warn("dashboard card failed")
		}
	}
	return out, nil
}

func (s *reviewService) Approve(ctx context.Context, cmd DecisionCommand) error {
	return s.decide(ctx, approveProcedure, admindomain.StatusApproved, cmd)
}

func (s *reviewService) Reject(ctx context.Context, cmd DecisionCommand) error {
	return s.decide(ctx, rejectProcedure, admindomain.StatusRejected, cmd)
}

func (s *reviewService) decide(ctx context.Context, procedure string, status admindomain.ApprovalStatus, cmd DecisionCommand) error {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return &ValidationError{Field: "user_id", Message: "is required"}
	}

	var notes *string
	if cmd.Notes != "" {
		n := cmd.Notes
		notes = &n
	}
	params := datastore.Record{"p_user_id": userID, "p_notes": nil}
	if notes != nil {
		params["p_notes"] = *notes
	}

	if err := s.store.RPC(ctx, s.schema, procedure, params); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"procedure": procedure, "user_id": userID}).Error("review decision failed")
		return fmt.Errorf("%s: %w", procedure, err)
	}

	s.record(ctx, cmd.Reviewer, string(status), pendingView, userID, notes)
	if s.notifier != nil {
		decision := Decision{UserID: userID, Status: status, Notes: notes, Reviewer: cmd.Reviewer, At: s.now().UTC()}
		go s.announce(context.WithoutCancel(ctx), decision)
	}
	return nil
}

// announce runs after the response is decided; a slow gateway never delays the redirect.
func (s *reviewService) announce(ctx context.Context, d Decision) {
	if err := s.notifier.NotifyDecision(ctx, d); err != nil {
		s.logger.WithError(err).WithField("user_id", d.UserID).Warn("decision notification failed")
	}
}
