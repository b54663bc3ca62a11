package domain

import (
	"strings"
	"time"
)

// ApprovalStatus is the review state of a candidate profile.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// ParseApprovalStatus accepts the three known statuses, case-insensitively.
func ParseApprovalStatus(value string) (ApprovalStatus, bool) {
	switch ApprovalStatus(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, true
	case StatusApproved:
		return StatusApproved, true
	case StatusRejected:
		return StatusRejected, true
	}
	return "", false
}

// CandidateProfile is a candidate signup awaiting or past review. Rows are created by the
// candidate signup flow; this application only transitions their status.
type CandidateProfile struct {
	UserID         string          `json:"user_id" db:"user_id"`
	DisplayName    *string         `json:"display_name" db:"display_name"`
	Email          *string         `json:"email" db:"email"`
	OfficeLevel    *string         `json:"office_level" db:"office_level"`
	OfficeName     *string         `json:"office_name" db:"office_name"`
	CityName       *string         `json:"city_name" db:"city_name"`
	StateCode      *string         `json:"state_code" db:"state_code"`
	Cycle          *string         `json:"cycle" db:"cycle"`
	ApprovalStatus *ApprovalStatus `json:"approval_status,omitempty" db:"approval_status"`
	ReviewerNotes  *string         `json:"reviewer_notes,omitempty" db:"reviewer_notes"`
	ApprovedAt     *time.Time      `json:"approved_at,omitempty" db:"approved_at"`
}

// Name falls back from display name to email to a generic label.
func (c CandidateProfile) Name() string {
	if c.DisplayName != nil {
		return *c.DisplayName
	}
	if c.Email != nil {
		return *c.Email
	}
	return "Candidate"
}

func (c CandidateProfile) Level() string  { return orDash(c.OfficeLevel) }
func (c CandidateProfile) Office() string { return orDash(c.OfficeName) }
func (c CandidateProfile) City() string   { return orDash(c.CityName) }
func (c CandidateProfile) State() string  { return orDash(c.StateCode) }
func (c CandidateProfile) CycleLabel() string {
	return orDash(c.Cycle)
}

// Notes returns the reviewer notes or an empty string.
func (c CandidateProfile) Notes() string {
	if c.ReviewerNotes == nil {
		return ""
	}
	return *c.ReviewerNotes
}

func orDash(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}
