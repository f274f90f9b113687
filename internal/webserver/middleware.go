package webserver

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jyotishdesk/backoffice/internal/resource"
	"github.com/jyotishdesk/backoffice/pkg/metrics"
)

const (
	HeaderRequestID = "X-Request-ID"
	requestIDKey    = "request_id"
)

var idNode *snowflake.Node

func init() {
	var err error
	idNode, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// RequestID reuses an incoming X-Request-ID or generates a snowflake id, and
// passes it on to backend calls through the request context.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(HeaderRequestID)
			if rid == "" || len(rid) > 64 {
				rid = idNode.Generate().String()
			}
			c.Set(requestIDKey, rid)
			c.Response().Header().Set(HeaderRequestID, rid)
			req := c.Request()
			c.SetRequest(req.WithContext(resource.WithRequestID(req.Context(), rid)))
			return next(c)
		}
	}
}

// GetRequestID returns the id assigned by RequestID.
func GetRequestID(c echo.Context) string {
	if v, ok := c.Get(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// AccessLog writes one zap line per request.
func AccessLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			latency := time.Since(start)
			status := c.Response().Status
			zap.L().Info("http",
				zap.String("request_id", GetRequestID(c)),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Float64("latency_ms", float64(latency.Microseconds())/1000.0),
				zap.String("ip", c.RealIP()),
			)
			metrics.Observe("admin_http_latency_ms", float64(latency.Microseconds())/1000.0,
				"method", c.Request().Method)
			return nil
		}
	}
}
