package admin

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/usampac/admin-web/internal/interfaces/http/common"
)

const (
	defaultAuditLimit = 20
	maxAuditLimit     = 100
)

type auditEntryResponse struct {
	ActorID    string    `json:"actorId"`
	ActorEmail string    `json:"actorEmail,omitempty"`
	Action     string    `json:"action"`
	Table      string    `json:"table"`
	TargetID   string    `json:"targetId"`
	Notes      *string   `json:"notes,omitempty"`
	At         time.Time `json:"at"`
}

type auditListResponse struct {
	Items []auditEntryResponse `json:"items"`
}

// auditHandler returns the recorded actions for one row as JSON.
func (h *Handler) auditHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.audit == nil {
			common.WriteJSON(h.logger, w, http.StatusNotFound, map[string]string{"error": "audit trail is not configured"})
			return
		}
		query := r.URL.Query()
		table := strings.TrimSpace(query.Get("table"))
		target := strings.TrimSpace(query.Get("target"))
		if table == "" || target == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "table and target are required"})
			return
		}
		limit := common.ParseLeadingInt(query.Get("limit"), defaultAuditLimit)
		switch {
		case limit <= 0:
			limit = defaultAuditLimit
		case limit > maxAuditLimit:
			limit = maxAuditLimit
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		entries, err := h.audit.Recent(ctx, table, target, int64(limit))
		if err != nil {
			h.logger.WithError(err).WithField("table", table).WithField("target", target).Error("audit fetch failed")
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{"error": "audit trail could not be read"})
			return
		}

		items := make([]auditEntryResponse, 0, len(entries))
		for _, e := range entries {
			items = append(items, auditEntryResponse{
				ActorID:    e.ActorID,
				ActorEmail: e.ActorEmail,
				Action:     e.Action,
				Table:      e.Table,
				TargetID:   e.TargetID,
				Notes:      e.Notes,
				At:         e.At,
			})
		}
		common.WriteJSON(h.logger, w, http.StatusOK, auditListResponse{Items: items})
	}
}
