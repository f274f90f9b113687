package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jyotishdesk/backoffice/internal/app"
	"github.com/jyotishdesk/backoffice/internal/webserver"
)

// registerSchedulerRoutes registers the background job API routes
func registerSchedulerRoutes(srv *webserver.Server) {
	srv.ApiGET("/system/jobs", ListJobs)
	srv.ApiPOST("/system/jobs/:name/run", TriggerJob)
}

// ListJobs lists the background jobs with their next and last run
// @Summary get the background jobs
// @Tags System
// @Success 200 {array} app.JobInfo
// @Router /api/v1/system/jobs [get]
func ListJobs(c echo.Context) error {
	return ok(c, GetAppContext(c).Jobs())
}

// TriggerJob runs a background job immediately
// @Summary run a background job now
// @Tags System
// @Param name path string true "Job name"
// @Success 204
// @Failure 404 {object} webserver.Msg
// @Router /api/v1/system/jobs/{name}/run [post]
func TriggerJob(c echo.Context) error {
	name := c.Param("name")
	appCtx := GetAppContext(c)
	if err := appCtx.RunJobNow(name); err != nil {
		if errors.Is(err, app.ErrJobNotFound) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "RUN_FAILED", "Failed to run job", err.Error())
	}
	appCtx.RecordOprLog(currentOperator(c), c.RealIP(), "jobs.run", name)
	return c.NoContent(http.StatusNoContent)
}
