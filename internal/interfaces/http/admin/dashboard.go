package admin

import (
	"context"
	"net/http"

	adminapp "github.com/usampac/admin-web/internal/admin/application"
	"github.com/usampac/admin-web/internal/interfaces/http/common"
	"github.com/usampac/admin-web/internal/interfaces/http/views"
)

func (h *Handler) dashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		page := views.Page{Title: "Dashboard", Data: views.Dashboard{}}
		summary, err := h.reviews.Dashboard(ctx)
		if err != nil {
			h.logger.WithError(err).Error("dashboard fetch failed")
			page.Error = err.Error()
		} else {
			view := dashboardView(summary)
			for _, card := range view.Cards {
				if card.Error != "" {
					r = uncacheable(r)
					break
				}
			}
			page.Data = view
		}
		h.render(w, r, http.StatusOK, views.PageDashboard, page)
	}
}

func dashboardView(d adminapp.Dashboard) views.Dashboard {
	return views.Dashboard{Cards: []views.DashboardCard{
		cardView("Pending", "/pending", d.Pending),
		cardView("Approved", "/approved", d.Approved),
		cardView("Rejected", "/rejected", d.Rejected),
	}}
}

func cardView(title, link string, c adminapp.DashboardCard) views.DashboardCard {
	card := views.DashboardCard{Title: title, Link: link, Total: c.Total, Rows: c.Sample}
	if c.Err != nil {
		card.Error = c.Err.Error()
	}
	return card
}
