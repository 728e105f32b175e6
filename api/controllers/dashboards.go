package controllers

import (
	"context"
	"net/http"

	"github.com/marketdesk/marketdesk/internal/users"
)

type roleCounter interface {
	CountByRole(ctx context.Context) ([]users.RoleCount, error)
}

type activeItemCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

type adminDashboardPage struct {
	RoleCounts  []users.RoleCount
	TotalUsers  int64
	ActiveItems int64
}

func CustomerDashboard(pages *Pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pages.Render(w, r, "customer_dashboard.html", "Dashboard", nil)
	}
}

// AdminDashboard shows account counts per role and the active item count.
func AdminDashboard(pages *Pages, accounts roleCounter, items activeItemCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		counts, err := accounts.CountByRole(ctx)
		if err != nil {
			pages.ServerError(w, r, err)
			return
		}
		active, err := items.CountActive(ctx)
		if err != nil {
			pages.ServerError(w, r, err)
			return
		}

		data := adminDashboardPage{RoleCounts: counts, ActiveItems: active}
		for _, c := range counts {
			data.TotalUsers += c.Count
		}
		pages.Render(w, r, "admin_dashboard.html", "Admin", data)
	}
}
