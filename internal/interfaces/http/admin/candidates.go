package admin

import (
	"context"
	"net/http"

	adminapp "github.com/usampac/admin-web/internal/admin/application"
	admindomain "github.com/usampac/admin-web/internal/admin/domain"
	"github.com/usampac/admin-web/internal/interfaces/http/common"
	"github.com/usampac/admin-web/internal/interfaces/http/views"
)

type candidateListing struct {
	title          string
	emptyMessage   string
	timestampLabel string
}

var candidateListings = map[admindomain.ApprovalStatus]candidateListing{
	admindomain.StatusPending:  {title: "Pending Candidates", emptyMessage: "No pending candidates."},
	admindomain.StatusApproved: {title: "Approved Candidates", emptyMessage: "No approved candidates.", timestampLabel: "Approved at"},
	admindomain.StatusRejected: {title: "Rejected Candidates", emptyMessage: "No rejected candidates.", timestampLabel: "Reviewed at"},
}

// reviewPages are the renderings touched by an approve or reject.
var reviewPages = []string{"/pending", "/approved", "/rejected", "/dashboard"}

func (h *Handler) candidateListHandler(status admindomain.ApprovalStatus) http.HandlerFunc {
	listing := candidateListings[status]
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		data := views.CandidateList{
			Heading:        listing.title,
			EmptyMessage:   listing.emptyMessage,
			TimestampLabel: listing.timestampLabel,
			Reviewable:     status == admindomain.StatusPending,
		}
		page := views.Page{Title: listing.title, Data: &data}

		rows, err := h.reviews.List(ctx, status)
		if err != nil {
			h.logger.WithError(err).WithField("status", status).Error("candidate list fetch failed")
			page.Error = err.Error()
		} else {
			data.Rows = rows
		}
		h.render(w, r, http.StatusOK, views.PageCandidates, page)
	}
}

type decisionForm struct {
	UserID string `validate:"required"`
	Notes  string
}

func (h *Handler) decisionHandler(decide func(context.Context, adminapp.DecisionCommand) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.parseForm(w, r, "/pending") {
			return
		}
		form := decisionForm{UserID: common.Text(r, "user_id"), Notes: r.PostFormValue("notes")}
		if common.Validate(form) != nil {
			common.SeeOther(w, r, "/pending")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		err := decide(ctx, adminapp.DecisionCommand{UserID: form.UserID, Notes: form.Notes, Reviewer: actor(r)})
		h.done(w, r, err, "/pending", reviewPages...)
	}
}
