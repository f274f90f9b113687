package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jyotishdesk/backoffice/internal/analytics"
	"github.com/jyotishdesk/backoffice/internal/domain"
	"github.com/jyotishdesk/backoffice/internal/export"
	"github.com/jyotishdesk/backoffice/internal/resource"
	"github.com/jyotishdesk/backoffice/internal/webserver"
	"github.com/jyotishdesk/backoffice/internal/workspace"
)

type analyticsView struct {
	From     string
	To       string
	Summary  analytics.Summary
	Rows     []domain.UserAnalytics
	RetryURL string
}

// AnalyticsResult is the JSON form of the analytics summary.
type AnalyticsResult struct {
	Summary analytics.Summary      `json:"summary"`
	Rows    []domain.UserAnalytics `json:"rows"`
}

func registerAnalyticsRoutes(srv *webserver.Server) {
	srv.AdminGET("/analytics/summary", analyticsPage)
	srv.ApiGET("/analytics/summary", analyticsJSON)
}

// summarize fetches every analytics row and summarises those in the range.
// A bad range is reported with status 400.
func summarize(c echo.Context, from, to string) (AnalyticsResult, int, error) {
	r, err := analytics.ParseRange(from, to)
	if err != nil {
		return AnalyticsResult{}, http.StatusBadRequest, err
	}
	client := workspace.ClientOf[domain.UserAnalytics](GetWorkspace(c), domain.ResAnalytics)
	rows, err := export.CollectAll[domain.UserAnalytics](c.Request().Context(), client, "", exportPageSize)
	if err != nil {
		return AnalyticsResult{}, backendStatus(err), err
	}
	rows = analytics.Filter(rows, r)
	sum, err := analytics.Summarize(rows)
	if err != nil {
		return AnalyticsResult{}, http.StatusInternalServerError, err
	}
	return AnalyticsResult{Summary: sum, Rows: rows}, http.StatusOK, nil
}

func analyticsPage(c echo.Context) error {
	view := analyticsView{
		From:     c.QueryParam("from"),
		To:       c.QueryParam("to"),
		RetryURL: c.Request().URL.RequestURI(),
	}
	res, status, err := summarize(c, view.From, view.To)
	view.Summary, view.Rows = res.Summary, res.Rows
	p := newPage(c, "Analytics", view)
	if err != nil {
		p.Error = resource.ErrorMessage(err)
	}
	return c.Render(status, "analytics", p)
}

// analyticsJSON summarises user analytics in a date range
// @Summary get the analytics summary
// @Tags Analytics
// @Param from query string false "Start date"
// @Param to query string false "End date"
// @Success 200 {object} AnalyticsResult
// @Failure 400 {object} webserver.Msg
// @Router /api/v1/analytics/summary [get]
func analyticsJSON(c echo.Context) error {
	res, status, err := summarize(c, c.QueryParam("from"), c.QueryParam("to"))
	switch {
	case err == nil:
		return ok(c, res)
	case status == http.StatusBadRequest:
		return fail(c, status, "INVALID_RANGE", err.Error(), nil)
	default:
		return backendFail(c, err)
	}
}
