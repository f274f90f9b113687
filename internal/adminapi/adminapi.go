// Package adminapi registers the admin views and their JSON mirror on the
// web server.
package adminapi

import (
	"github.com/labstack/echo/v4"

	"github.com/jyotishdesk/backoffice/internal/app"
	"github.com/jyotishdesk/backoffice/internal/webserver"
)

// Register wires every route of the back-office onto srv.
func Register(srv *webserver.Server, appCtx app.AppContext) {
	srv.Echo().Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ctxAppKey, appCtx)
			return next(c)
		}
	})

	registerAuthRoutes(srv)
	registerSwaggerRoutes(srv)

	srv.UseAdmin(requireOperator)
	registerDashboardRoutes(srv)
	registerResourceRoutes(srv)
	registerAnalyticsRoutes(srv)
	registerOprLogRoutes(srv)
	registerSchedulerRoutes(srv)
	registerDbmsRoutes(srv)
}
