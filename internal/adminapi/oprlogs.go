package adminapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jyotishdesk/backoffice/internal/domain"
	"github.com/jyotishdesk/backoffice/internal/webserver"
)

type oprLogView struct {
	Rows       []domain.SysOprLog
	Page       int
	TotalPages int
	PageSize   int
}

// registerOprLogRoutes registers the operation log views
func registerOprLogRoutes(srv *webserver.Server) {
	srv.ApiGET("/system/oprlogs", listOprLogs)
	srv.AdminGET("/system/oprlogs", oprLogPage)
}

// listOprLogs retrieves the operation log
// @Summary get the operation log
// @Tags System
// @Param page query int false "Page number"
// @Param page_size query int false "Items per page"
// @Param operator query string false "Operator name"
// @Param action query string false "Action prefix"
// @Success 200 {object} PageResult
// @Router /api/v1/system/oprlogs [get]
func listOprLogs(c echo.Context) error {
	page, pageSize := parsePagination(c)
	rows, total, err := GetAppContext(c).ListOprLogs(page, pageSize,
		strings.TrimSpace(c.QueryParam("operator")),
		strings.TrimSpace(c.QueryParam("action")))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operation logs", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func oprLogPage(c echo.Context) error {
	page, pageSize := parsePagination(c)
	rows, total, err := GetAppContext(c).ListOprLogs(page, pageSize, "", "")
	if err != nil {
		return err
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	view := oprLogView{Rows: rows, Page: page, TotalPages: totalPages, PageSize: pageSize}
	return c.Render(http.StatusOK, "oprlogs", newPage(c, "Operation log", view))
}
