package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jyotishdesk/backoffice/internal/app"
	"github.com/jyotishdesk/backoffice/internal/webserver"
)

const timeLayout = "2006-01-02 15:04:05"

type dashboardCount struct {
	Href  string
	Title string
	Known bool
	Count int
}

type dashboardView struct {
	TokenExpiry string
	Counts      []dashboardCount
	RefreshedAt string
}

func registerDashboardRoutes(srv *webserver.Server) {
	srv.AdminGET("", dashboardPage)
	srv.AdminGET("/", dashboardPage)
	srv.ApiGET("/dashboard", dashboardJSON)
}

// dashboardSnapshot returns the cached counts, refreshing them when asked
// to or when nothing has been counted yet.
func dashboardSnapshot(c echo.Context) app.DashboardSnapshot {
	appCtx := GetAppContext(c)
	snap := appCtx.Dashboard()
	if c.QueryParam("refresh") != "" || snap.RefreshedAt.IsZero() {
		snap = appCtx.RefreshDashboard(c.Request().Context(), currentOperator(c))
	}
	return snap
}

func dashboardPage(c echo.Context) error {
	snap := dashboardSnapshot(c)
	p := newPage(c, "Dashboard", nil)

	view := dashboardView{RefreshedAt: snap.RefreshedAt.Format(timeLayout)}
	for _, rc := range snap.Counts {
		view.Counts = append(view.Counts, dashboardCount{
			Href:  webserver.AdminPrefix + "/" + rc.Resource,
			Title: p.T(resourceTitles[rc.Resource]),
			Known: rc.Known,
			Count: rc.Count,
		})
	}
	rec, found, err := GetAppContext(c).Tokens().Get(currentOperator(c))
	if err != nil {
		return err
	}
	if found && !rec.ExpiresAt.IsZero() {
		view.TokenExpiry = rec.ExpiresAt.Format(timeLayout)
	}
	p.Body = view
	return c.Render(http.StatusOK, "dashboard", p)
}

// @Summary get the resource counts
// @Tags Dashboard
// @Param refresh query bool false "Count again before answering"
// @Success 200 {object} app.DashboardSnapshot
// @Router /api/v1/dashboard [get]
func dashboardJSON(c echo.Context) error {
	return ok(c, dashboardSnapshot(c))
}
