package webserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jyotishdesk/backoffice/config"
	"github.com/jyotishdesk/backoffice/internal/forms"
)

const (
	ApiPrefix   = "/api/v1"
	AdminPrefix = "/admin"
)

// Server is the admin web server: HTML views under /admin and their JSON
// mirror under /api/v1.
type Server struct {
	cfg   *config.AppConfig
	root  *echo.Echo
	api   *echo.Group
	admin *echo.Group
}

func NewServer(cfg *config.AppConfig) (*Server, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.OFF)
	if cfg.System.Debug {
		e.Logger.SetLevel(log.DEBUG)
	}
	e.Renderer = renderer
	e.Validator = forms.Validator{}
	e.HTTPErrorHandler = errorHandler

	secret := cfg.Web.Secret
	if secret == "" {
		secret = cfg.System.Appid
		zap.L().Warn("web.secret is empty, session cookies are signed with the app id")
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	e.Use(middleware.Recover())
	e.Use(RequestID())
	e.Use(AccessLog())
	e.Use(session.Middleware(store))

	s := &Server{cfg: cfg, root: e}
	s.api = e.Group(ApiPrefix)
	s.admin = e.Group(AdminPrefix)
	return s, nil
}

// Echo returns the underlying router, for top level routes and tests.
func (s *Server) Echo() *echo.Echo {
	return s.root
}

// UseAdmin adds middleware to both the HTML and the JSON groups. It must be
// called before the routes it guards are registered.
func (s *Server) UseAdmin(m ...echo.MiddlewareFunc) {
	s.api.Use(m...)
	s.admin.Use(m...)
}

func (s *Server) ApiGET(path string, h echo.HandlerFunc) {
	s.api.GET(path, h)
}

func (s *Server) ApiPOST(path string, h echo.HandlerFunc) {
	s.api.POST(path, h)
}

func (s *Server) ApiPATCH(path string, h echo.HandlerFunc) {
	s.api.PATCH(path, h)
}

func (s *Server) ApiDELETE(path string, h echo.HandlerFunc) {
	s.api.DELETE(path, h)
}

func (s *Server) AdminGET(path string, h echo.HandlerFunc) {
	s.admin.GET(path, h)
}

func (s *Server) AdminPOST(path string, h echo.HandlerFunc) {
	s.admin.POST(path, h)
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Web.Host, s.cfg.Web.Port)
	errCh := make(chan error, 1)
	go func() {
		zap.S().Infof("admin server listening on %s", addr)
		errCh <- s.root.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "admin server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.root.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown admin server")
	}
	return nil
}

// IsAPI reports whether the request targets the JSON mirror.
func IsAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, ApiPrefix)
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if code >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("request_id", GetRequestID(c)),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err))
	}

	var werr error
	switch {
	case c.Request().Method == http.MethodHead:
		werr = c.NoContent(code)
	case IsAPI(c):
		werr = c.JSON(code, Msg{Code: http.StatusText(code), Msg: msg, RequestID: GetRequestID(c)})
	default:
		page := NewPage(c, http.StatusText(code), code)
		page.Error = msg
		werr = c.Render(code, "error", page)
	}
	if werr != nil {
		zap.L().Error("write error response", zap.Error(werr))
	}
}

// Msg is the JSON envelope of every API response.
type Msg struct {
	Code      string      `json:"code"`
	Msg       string      `json:"msg"`
	Data      interface{} `json:"data,omitempty"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}
