package domain

import "time"

// Notification is an announcement shown to app users.
type Notification struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	URL         *string   `json:"url" db:"url"`
	Body        *string   `json:"body" db:"body"`
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	IsActive    bool      `json:"is_active" db:"is_active"`
}

// Poll is a single-question poll. Its options live in a separate table.
type Poll struct {
	ID        string    `json:"id" db:"id"`
	Slug      *string   `json:"slug" db:"slug"`
	Title     string    `json:"title" db:"title"`
	Subtitle  *string   `json:"subtitle" db:"subtitle"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PollOption is one answer of a poll.
type PollOption struct {
	ID       string `json:"id" db:"id"`
	PollID   string `json:"poll_id" db:"poll_id"`
	Label    string `json:"label" db:"label"`
	Position int    `json:"position" db:"position"`
}

// QuizQuestion is one question of the civics quiz.
type QuizQuestion struct {
	ID          string  `json:"id" db:"id"`
	Slug        *string `json:"slug" db:"slug"`
	Prompt      string  `json:"prompt" db:"prompt"`
	Explanation *string `json:"explanation" db:"explanation"`
	Position    int     `json:"position" db:"position"`
	IsActive    bool    `json:"is_active" db:"is_active"`
}

// QuizOption is one answer of a quiz question.
type QuizOption struct {
	ID         string `json:"id" db:"id"`
	QuestionID string `json:"question_id" db:"question_id"`
	Label      string `json:"label" db:"label"`
	IsCorrect  bool   `json:"is_correct" db:"is_correct"`
	Position   int    `json:"position" db:"position"`
}

// PollWithOptions pairs a poll with its options ordered by position.
type PollWithOptions struct {
	Poll
	Options []PollOption
}

// QuestionWithOptions pairs a quiz question with its options ordered by position.
type QuestionWithOptions struct {
	QuizQuestion
	Options []QuizOption
}
