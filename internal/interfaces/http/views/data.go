package views

import (
	admindomain "github.com/usampac/admin-web/internal/admin/domain"
)

// CandidateList backs the pending, approved and rejected pages.
type CandidateList struct {
	Heading        string
	EmptyMessage   string
	TimestampLabel string
	// Reviewable adds the approve/reject forms.
	Reviewable bool
	Rows       []admindomain.CandidateProfile
}

// DashboardCard is one status summary.
type DashboardCard struct {
	Title string
	Link  string
	Total int
	Rows  []admindomain.CandidateProfile
	Error string
}

// Dashboard backs the dashboard page.
type Dashboard struct {
	Cards []DashboardCard
}

// Notifications backs the notifications page.
type Notifications struct {
	Rows []admindomain.Notification
}

// Polls backs the polls page.
type Polls struct {
	Rows []admindomain.PollWithOptions
}

// Quiz backs the quiz page.
type Quiz struct {
	Rows []admindomain.QuestionWithOptions
}

// Login backs the login page.
type Login struct {
	Email string
}

// Failure backs the generic failure page.
type Failure struct {
	Status  int
	Message string
	Back    string
}
