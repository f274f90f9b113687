package adminapi

import (
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/jyotishdesk/backoffice/docs"
	"github.com/jyotishdesk/backoffice/internal/webserver"
)

// registerSwaggerRoutes serves the JSON mirror's API docs at /swagger/.
func registerSwaggerRoutes(srv *webserver.Server) {
	srv.Echo().GET("/swagger/*", echoSwagger.WrapHandler)
}
