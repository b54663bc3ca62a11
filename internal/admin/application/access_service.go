package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	admindomain "github.com/usampac/admin-web/internal/admin/domain"
	"github.com/usampac/admin-web/internal/datastore"
)

// RoleCheckMode decides what happens when the role lookup itself fails.
type RoleCheckMode string

const (
	// RoleCheckFailOpen lets the request through and leaves enforcement to the backend's
	// row-level security. This layer is then not the security boundary.
	RoleCheckFailOpen RoleCheckMode = "fail_open"
	// RoleCheckFailClosed denies the request.
	RoleCheckFailClosed RoleCheckMode = "fail_closed"
)

// ParseRoleCheckMode accepts fail_open and fail_closed (hyphens allowed).
func ParseRoleCheckMode(value string) (RoleCheckMode, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_") {
	case "", string(RoleCheckFailOpen):
		return RoleCheckFailOpen, nil
	case string(RoleCheckFailClosed):
		return RoleCheckFailClosed, nil
	}
	return "", fmt.Errorf("unknown role check mode %q", value)
}

type accessService struct {
	store  datastore.Store
	schema string
	mode   RoleCheckMode
	logger logrus.FieldLogger
}

// NewAccessService checks app_users in schema for the admin role.
func NewAccessService(store datastore.Store, schema string, mode RoleCheckMode, logger logrus.FieldLogger) AccessService {
	return &accessService{store: store, schema: schema, mode: mode, logger: logger}
}

func (s *accessService) Authorize(ctx context.Context, user admindomain.Identity) error {
	if user.ID == "" {
		return ErrUnauthenticated
	}

	q := datastore.From(s.schema, "app_users").
		Select("role").
		Eq("auth_sub", user.ID).
		WithLimit(1).
		One()

	var row admindomain.AppUser
	err := s.store.Select(ctx, q, &row)
	switch {
	case errors.Is(err, datastore.ErrNoRows):
		return ErrForbidden
	case err != nil:
		if s.mode == RoleCheckFailClosed {
			s.logger.WithError(err).WithField("user_id", user.ID).Warn("role lookup failed; denying")
			return ErrForbidden
		}
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("role lookup failed; deferring to backend policy")
		return nil
	case !row.IsAdmin():
		return ErrForbidden
	}
	return nil
}
