package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jyotishdesk/backoffice/internal/tokenstore"
	"github.com/jyotishdesk/backoffice/internal/webserver"
)

type loginForm struct {
	Operator string `json:"operator" form:"operator"`
	Token    string `json:"token" form:"token"`
}

type loginView struct {
	Operator string
}

// LoginResult is returned by a JSON login.
type LoginResult struct {
	Operator  string     `json:"operator"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func registerAuthRoutes(srv *webserver.Server) {
	e := srv.Echo()
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, webserver.AdminPrefix)
	})
	e.GET("/login", loginPage)
	e.POST("/login", login)
	e.POST("/logout", logout)
}

func loginPage(c echo.Context) error {
	p := webserver.NewPage(c, "Login", loginView{})
	p.Title = p.T("Login")
	return c.Render(http.StatusOK, "login", p)
}

func isJSON(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}

func login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login", err.Error())
	}
	form.Operator = strings.TrimSpace(form.Operator)

	appCtx := GetAppContext(c)
	sess := getSession(c)
	current, _ := sess.Values["operator"].(string)
	var (
		rec tokenstore.Record
		err error
	)
	if current != "" && current == form.Operator {
		rec, err = appCtx.Tokens().Set(form.Operator, form.Token)
	} else {
		rec, err = appCtx.Tokens().Claim(form.Operator, form.Token)
	}
	if err != nil {
		if errors.Is(err, tokenstore.ErrTokenInUse) {
			zap.L().Warn("login refused, operator holds another token",
				zap.String("operator", form.Operator), zap.String("ip", c.RealIP()))
		}
		if isJSON(c) {
			return fail(c, http.StatusBadRequest, "INVALID_LOGIN", err.Error(), nil)
		}
		p := webserver.NewPage(c, "Login", loginView{Operator: form.Operator})
		p.Title = p.T("Login")
		p.Error = err.Error()
		return c.Render(http.StatusBadRequest, "login", p)
	}

	if old, ok := sess.Values["sid"].(string); ok && old != "" {
		appCtx.Workspaces().Drop(old)
	}
	sid := uuid.NewString()
	sess.Values["operator"] = rec.Operator
	sess.Values["sid"] = sid
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}
	appCtx.Workspaces().Get(sid, rec.Operator)
	appCtx.RecordOprLog(rec.Operator, c.RealIP(), "auth.login", "")
	zap.L().Info("operator signed in", zap.String("operator", rec.Operator))

	if isJSON(c) {
		res := LoginResult{Operator: rec.Operator}
		if !rec.ExpiresAt.IsZero() {
			res.ExpiresAt = &rec.ExpiresAt
		}
		return ok(c, res)
	}
	return c.Redirect(http.StatusSeeOther, webserver.AdminPrefix)
}

func logout(c echo.Context) error {
	appCtx := GetAppContext(c)
	sess := getSession(c)
	operator, _ := sess.Values["operator"].(string)
	if sid, ok := sess.Values["sid"].(string); ok {
		appCtx.Workspaces().Drop(sid)
	}
	if operator != "" {
		// other sessions of the operator keep using the token
		if appCtx.Workspaces().OperatorSessions(operator) == 0 {
			if err := appCtx.Tokens().Clear(operator); err != nil {
				zap.L().Error("clear token failed", zap.String("operator", operator), zap.Error(err))
			}
		}
		appCtx.RecordOprLog(operator, c.RealIP(), "auth.logout", "")
	}
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}
	if isJSON(c) {
		return ok(c, nil)
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

// requireOperator admits requests of a signed in operator whose token is
// still stored, and injects the session workspace.
func requireOperator(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		appCtx := GetAppContext(c)
		sess := getSession(c)
		operator, _ := sess.Values["operator"].(string)
		sid, _ := sess.Values["sid"].(string)
		if operator != "" && sid != "" {
			_, stored, err := appCtx.Tokens().Get(operator)
			if err != nil {
				return err
			}
			if stored {
				c.Set(ctxOperatorKey, operator)
				c.Set(ctxWorkspaceKey, appCtx.Workspaces().Get(sid, operator))
				return next(c)
			}
		}
		if webserver.IsAPI(c) {
			return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in with a backend token first", nil)
		}
		return c.Redirect(http.StatusSeeOther, "/login")
	}
}
