package application

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	admindomain "github.com/usampac/admin-web/internal/admin/domain"
	"github.com/usampac/admin-web/internal/datastore"
)

const (
	pollsTable       = "polls"
	pollOptionsTable = "poll_options"
)

type pollService struct {
	writer
}

// NewPollService builds poll and poll option CRUD.
func NewPollService(deps Deps) PollService {
	return &pollService{writer: newWriter(deps)}
}

func (s *pollService) List(ctx context.Context) ([]admindomain.PollWithOptions, error) {
	polls := []admindomain.Poll{}
	options := []admindomain.PollOption{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.store.Select(gctx, datastore.From(s.schema, pollsTable).Order("created_at", false), &polls)
	})
	g.Go(func() error {
		return s.store.Select(gctx, datastore.From(s.schema, pollOptionsTable).Order("position", true), &options)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byPoll := make(map[string][]admindomain.PollOption, len(polls))
	for _, opt := range options {
		byPoll[opt.PollID] = append(byPoll[opt.PollID], opt)
	}
	out := make([]admindomain.PollWithOptions, 0, len(polls))
	for _, p := range polls {
		out = append(out, admindomain.PollWithOptions{Poll: p, Options: byPoll[p.ID]})
	}
	return out, nil
}

func (s *pollService) SavePoll(ctx context.Context, cmd SavePollCommand) error {
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	slug := strings.TrimSpace(cmd.Slug)
	if slug == "" {
		slug = admindomain.Slugify(title, admindomain.DefaultPollSlug)
	}
	payload := datastore.Record{
		"title":     title,
		"subtitle":  optional(cmd.Subtitle),
		"slug":      slug,
		"is_active": cmd.IsActive,
	}
	return s.save(ctx, pollsTable, cmd.ID, payload, cmd.Actor)
}

// DeletePoll removes only the poll row; its options are left to the backend's foreign key rules.
func (s *pollService) DeletePoll(ctx context.Context, cmd DeleteCommand) error {
	return s.deleteByID(ctx, pollsTable, cmd.ID, cmd.Actor)
}

func (s *pollService) SaveOption(ctx context.Context, cmd SavePollOptionCommand) error {
	pollID := strings.TrimSpace(cmd.PollID)
	label := strings.TrimSpace(cmd.Label)
	if pollID == "" {
		return &ValidationError{Field: "poll_id", Message: "is required"}
	}
	if label == "" {
		return &ValidationError{Field: "label", Message: "is required"}
	}
	payload := datastore.Record{
		"poll_id":  pollID,
		"label":    label,
		"position": cmd.Position,
	}
	return s.save(ctx, pollOptionsTable, cmd.ID, payload, cmd.Actor)
}

func (s *pollService) DeleteOption(ctx context.Context, cmd DeleteCommand) error {
	return s.deleteByID(ctx, pollOptionsTable, cmd.ID, cmd.Actor)
}
