package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	admindomain "github.com/usampac/admin-web/internal/admin/domain"
	"github.com/usampac/admin-web/internal/datastore"
)

const (
	quizQuestionsTable = "quiz_questions"
	quizOptionsTable   = "quiz_options"
)

type quizService struct {
	writer
}

// NewQuizService builds quiz question and option CRUD.
func NewQuizService(deps Deps) QuizService {
	return &quizService{writer: newWriter(deps)}
}

func (s *quizService) List(ctx context.Context) ([]admindomain.QuestionWithOptions, error) {
	questions := []admindomain.QuizQuestion{}
	options := []admindomain.QuizOption{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.store.Select(gctx, datastore.From(s.schema, quizQuestionsTable).Order("position", true), &questions)
	})
	g.Go(func() error {
		return s.store.Select(gctx, datastore.From(s.schema, quizOptionsTable).Order("position", true), &options)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byQuestion := make(map[string][]admindomain.QuizOption, len(questions))
	for _, opt := range options {
		byQuestion[opt.QuestionID] = append(byQuestion[opt.QuestionID], opt)
	}
	out := make([]admindomain.QuestionWithOptions, 0, len(questions))
	for _, q := range questions {
		out = append(out, admindomain.QuestionWithOptions{QuizQuestion: q, Options: byQuestion[q.ID]})
	}
	return out, nil
}

func (s *quizService) SaveQuestion(ctx context.Context, cmd SaveQuestionCommand) error {
	prompt := strings.TrimSpace(cmd.Prompt)
	if prompt == "" {
		return &ValidationError{Field: "prompt", Message: "is required"}
	}
	slug := strings.TrimSpace(cmd.Slug)
	if slug == "" {
		slug = admindomain.Slugify(prompt, admindomain.DefaultQuestionSlug)
	}
	payload := datastore.Record{
		"prompt":      prompt,
		"explanation": optional(cmd.Explanation),
		"slug":        slug,
		"position":    cmd.Position,
		"is_active":   cmd.IsActive,
	}
	return s.save(ctx, quizQuestionsTable, cmd.ID, payload, cmd.Actor)
}

func (s *quizService) DeleteQuestion(ctx context.Context, cmd DeleteCommand) error {
	return s.deleteByID(ctx, quizQuestionsTable, cmd.ID, cmd.Actor)
}

// BulkDeleteQuestions deletes the options of every listed question, then the questions.
// A failed option delete stops before any question is touched. Stores that support
// transactions run both deletes atomically.
func (s *quizService) BulkDeleteQuestions(ctx context.Context, cmd BulkDeleteCommand) error {
	ids := make([]string, 0, len(cmd.IDs))
	for _, id := range cmd.IDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	values := datastore.Strings(ids)
	fields := logrus.Fields{"action": "bulk_delete", "ids": strings.Join(ids, ",")}

	remove := func(store datastore.Store) error {
		if err := store.Delete(ctx, datastore.From(s.schema, quizOptionsTable).In("question_id", values...)); err != nil {
			s.logger.WithError(err).WithFields(fields).WithField("table", quizOptionsTable).Error("write failed")
			return fmt.Errorf("%s %s: %w", actionDelete, quizOptionsTable, err)
		}
		if err := store.Delete(ctx, datastore.From(s.schema, quizQuestionsTable).In("id", values...)); err != nil {
			s.logger.WithError(err).WithFields(fields).WithField("table", quizQuestionsTable).Error("write failed")
			return fmt.Errorf("%s %s: %w", actionDelete, quizQuestionsTable, err)
		}
		return nil
	}

	var err error
	if tx, ok := s.store.(datastore.Transactional); ok {
		err = tx.InTx(ctx, remove)
	} else {
		err = remove(s.store)
	}
	if err != nil {
		return err
	}
	for _, id := range ids {
		s.record(ctx, cmd.Actor, actionDelete, quizQuestionsTable, id, nil)
	}
	return nil
}

func (s *quizService) SaveOption(ctx context.Context, cmd SaveQuizOptionCommand) error {
	questionID := strings.TrimSpace(cmd.QuestionID)
	label := strings.TrimSpace(cmd.Label)
	if questionID == "" {
		return &ValidationError{Field: "question_id", Message: "is required"}
	}
	if label == "" {
		return &ValidationError{Field: "label", Message: "is required"}
	}
	payload := datastore.Record{
		"question_id": questionID,
		"label":       label,
		"is_correct":  cmd.IsCorrect,
		"position":    cmd.Position,
	}
	return s.save(ctx, quizOptionsTable, cmd.ID, payload, cmd.Actor)
}

func (s *quizService) DeleteOption(ctx context.Context, cmd DeleteCommand) error {
	return s.deleteByID(ctx, quizOptionsTable, cmd.ID, cmd.Actor)
}
