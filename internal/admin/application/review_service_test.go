package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	admindomain "github.com/usampac/admin-web/internal/admin/domain"
	"github.com/usampac/admin-web/internal/datastore"
)

func newTestDeps(store *fakeStore) Deps {
	logger, _ := test.NewNullLogger()
	return Deps{
		Store:  store,
		Schema: "api",
		Logger: logger,
		Now:    func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestReviewListQueriesByStatus(t *testing.T) {
	store := newFakeStore()
	svc := NewReviewService(newTestDeps(store))

	_, err := svc.List(context.Background(), admindomain.StatusPending)
	require.NoError(t, err)
	_, err = svc.List(context.Background(), admindomain.StatusRejected)
	require.NoError(t, err)

	calls := store.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "candidate_profiles_pending", calls[0].Table)
	assert.Empty(t, calls[0].Query.Filters)
	assert.Equal(t, "candidate_profiles_admin", calls[1].Table)
	assert.Equal(t, []datastore.Filter{{Column: "approval_status", Op: datastore.OpEq, Value: "rejected"}}, calls[1].Query.Filters)
	assert.Equal(t, "api", calls[1].Query.Schema)
}

func TestReviewListEmptyIsNotError(t *testing.T) {
	store := newFakeStore()
	svc := NewReviewService(newTestDeps(store))

	rows, err := svc.List(context.Background(), admindomain.StatusApproved)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestReviewListPropagatesError(t *testing.T) {
	store := newFakeStore()
	store.errs["candidate_profiles_pending"] = errors.New("permission denied for view")
	svc := NewReviewService(newTestDeps(store))

	rows, err := svc.List(context.Background(), admindomain.StatusPending)
	assert.Nil(t, rows)
	assert.EqualError(t, err, "permission denied for view")
}

func TestApproveWithEmptyNotesSendsNull(t *testing.T) {
	store := newFakeStore()
	svc := NewReviewService(newTestDeps(store))

	err := svc.Approve(context.Background(), DecisionCommand{UserID: "u-1"})
	require.NoError(t, err)

	calls := store.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "approve_candidate", calls[0].Fn)
	assert.Equal(t, datastore.Record{"p_user_id": "u-1", "p_notes": nil}, calls[0].Payload)
}

func TestRejectPassesNotes(t *testing.T) {
	store := newFakeStore()
	svc := NewReviewService(newTestDeps(store))

	err := svc.Reject(context.Background(), DecisionCommand{UserID: "u-2", Notes: "incomplete filing"})
	require.NoError(t, err)

	calls := store.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "reject_candidate", calls[0].Fn)
	assert.Equal(t, "incomplete filing", calls[0].Payload["p_notes"])
}

func TestWhitespaceNotesAreSentAsGiven(t *testing.T) {
	store := newFakeStore()
	svc := NewReviewService(newTestDeps(store))

	err := svc.Reject(context.Background(), DecisionCommand{UserID: "u-3", Notes: "  "})
	require.NoError(t, err)

	calls := store.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "  ", calls[0].Payload["p_notes"])
}

func TestDecisionFailureSurfacesBackendMessage(t *testing.T) {
	store := newFakeStore()
	store.callErr["rpc:approve_candidate"] = errors.New("candidate not found")
	notifier := &fakeNotifier{}
	deps := newTestDeps(store)
	deps.Notifier = notifier
	svc := NewReviewService(deps)

	err := svc.Approve(context.Background(), DecisionCommand{UserID: "u-3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "candidate not found")
	assert.Empty(t, notifier.Decisions())
}

func TestDecisionIsAuditedAndAnnounced(t *testing.T) {
	store := newFakeStore()
	audit := &fakeAudit{err: errors.New("mongo down")}
	notifier := &fakeNotifier{err: errors.New("gateway down")}
	deps := newTestDeps(store)
	deps.Audit = audit
	deps.Notifier = notifier
	svc := NewReviewService(deps)

	reviewer := admindomain.Identity{ID: "admin-1", Email: "admin@example.org"}
	err := svc.Reject(context.Background(), DecisionCommand{UserID: "u-4", Notes: "dup", Reviewer: reviewer})
	require.NoError(t, err)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "rejected", audit.entries[0].Action)
	assert.Equal(t, "u-4", audit.entries[0].TargetID)
	require.Eventually(t, func() bool { return len(notifier.Decisions()) == 1 }, time.Second, 5*time.Millisecond)
	decision := notifier.Decisions()[0]
	assert.Equal(t, admindomain.StatusRejected, decision.Status)
	assert.Equal(t, reviewer, decision.Reviewer)
}

func TestDashboardCollectsCountsAndSamples(t *testing.T) {
	store := newFakeStore()
	store.counts["candidate_profiles_pending"] = 3
	store.counts["candidate_profiles_admin:approved"] = 7
	store.counts["candidate_profiles_admin:rejected"] = 1
	name := "Jordan Lee"
	store.rows["candidate_profiles_pending"] = []admindomain.CandidateProfile{{UserID: "p1", DisplayName: &name}}
	svc := NewReviewService(newTestDeps(store))

	dash, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, dash.Pending.Total)
	assert.Equal(t, 7, dash.Approved.Total)
	assert.Equal(t, 1, dash.Rejected.Total)
	require.Len(t, dash.Pending.Sample, 1)
	assert.Equal(t, "Jordan Lee", dash.Pending.Sample[0].Name())
	assert.Empty(t, dash.Approved.Sample)
	assert.Len(t, store.Calls(), 6)
	for _, c := range store.Calls() {
		if c.Method == "select" {
			assert.Equal(t, 10, c.Query.Limit)
		}
	}
}

func TestDashboardKeepsHealthyCardsWhenOneQueryFails(t *testing.T) {
	store := newFakeStore()
	store.counts["candidate_profiles_pending"] = 3
	store.errs["candidate_profiles_admin"] = errors.New("boom")
	svc := NewReviewService(newTestDeps(store))

	dash, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.NoError(t, dash.Pending.Err)
	assert.Equal(t, 3, dash.Pending.Total)
	assert.NotNil(t, dash.Pending.Sample)
	for _, card := range []DashboardCard{dash.Approved, dash.Rejected} {
		assert.ErrorContains(t, card.Err, "boom")
		assert.Zero(t, card.Total)
		assert.Empty(t, card.Sample)
	}
	assert.Len(t, store.Calls(), 6)
}

func TestDashboardFailsWhenContextCancelled(t *testing.T) {
	store := newFakeStore()
	svc := NewReviewService(newTestDeps(store))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Dashboard(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
