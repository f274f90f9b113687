package adminapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jyotishdesk/backoffice/internal/app"
	"github.com/jyotishdesk/backoffice/internal/forms"
	"github.com/jyotishdesk/backoffice/internal/resource"
	"github.com/jyotishdesk/backoffice/internal/webserver"
	"github.com/jyotishdesk/backoffice/internal/workspace"
)

const (
	ctxAppKey       = "appctx"
	ctxWorkspaceKey = "workspace"
	ctxOperatorKey  = "operator"

	sessionName = "backoffice"
	maxPageSize = 500
)

// PageResult is the data of a paged JSON list.
type PageResult struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, webserver.Msg{
		Code:      "OK",
		Msg:       "success",
		Data:      data,
		RequestID: webserver.GetRequestID(c),
	})
}

func fail(c echo.Context, status int, code, msg string, details interface{}) error {
	return c.JSON(status, webserver.Msg{
		Code:      code,
		Msg:       msg,
		Details:   details,
		RequestID: webserver.GetRequestID(c),
	})
}

func paged(c echo.Context, items interface{}, total int64, page, pageSize int) error {
	return ok(c, PageResult{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// parsePagination reads page and page_size, defaulting the size to the
// configured backend page size.
func parsePagination(c echo.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 {
		pageSize = GetAppContext(c).Config().Backend.PageSize
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func handleValidationError(c echo.Context, err error) error {
	var fe forms.FieldErrors
	if errors.As(err, &fe) {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", fe)
	}
	return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request", err.Error())
}

// backendFail maps a client error onto the JSON envelope. Client errors of
// the backend pass through; everything else is a bad gateway.
func backendFail(c echo.Context, err error) error {
	var apiErr *resource.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		var details interface{}
		if len(apiErr.Fields) > 0 {
			details = apiErr.Fields
		}
		return fail(c, apiErr.Status, "BACKEND_REJECTED", apiErr.Message, details)
	}
	return fail(c, http.StatusBadGateway, "BACKEND_ERROR", resource.ErrorMessage(err), nil)
}

// backendStatus is the status an HTML view answers with after a failed call.
func backendStatus(err error) int {
	var apiErr *resource.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(ctxAppKey).(app.AppContext)
}

func GetDB(c echo.Context) *gorm.DB {
	return GetAppContext(c).DB()
}

// GetWorkspace returns the workspace of the signed in operator.
func GetWorkspace(c echo.Context) *workspace.Workspace {
	return c.Get(ctxWorkspaceKey).(*workspace.Workspace)
}

func currentOperator(c echo.Context) string {
	if op, ok := c.Get(ctxOperatorKey).(string); ok {
		return op
	}
	return ""
}

func getSession(c echo.Context) *sessions.Session {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		// a cookie signed with an old secret; start over
		zap.L().Debug("session decode failed", zap.Error(err))
	}
	return sess
}

func setFlash(c echo.Context, msg string) {
	sess := getSession(c)
	sess.AddFlash(msg)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		zap.L().Error("save session failed", zap.Error(err))
	}
}

func popFlash(c echo.Context) string {
	sess := getSession(c)
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return ""
	}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		zap.L().Error("save session failed", zap.Error(err))
	}
	msg, _ := flashes[0].(string)
	return msg
}

// newPage prepares an admin view with the operator, navigation and any
// pending notice.
func newPage(c echo.Context, title string, body interface{}) webserver.Page {
	p := webserver.NewPage(c, title, body)
	p.Title = p.T(title)
	p.Operator = currentOperator(c)
	if notice := popFlash(c); notice != "" {
		p.Notice = p.T(notice)
	}
	p.Nav = navItems(p, c.Request().URL.Path)
	return p
}

func navItems(p webserver.Page, current string) []webserver.NavItem {
	items := make([]webserver.NavItem, 0, len(navOrder)+2)
	add := func(title, href string) {
		items = append(items, webserver.NavItem{
			Title:  p.T(title),
			Href:   href,
			Active: current == href || strings.HasPrefix(current, href+"/"),
		})
	}
	for _, name := range navOrder {
		add(resourceTitles[name], webserver.AdminPrefix+"/"+name)
	}
	add("Analytics", webserver.AdminPrefix+"/analytics/summary")
	add("Operation log", webserver.AdminPrefix+"/system/oprlogs")
	return items
}
