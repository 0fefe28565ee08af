package v1

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/notegraph/server/auth"
	apierrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/server/internal/observability"
)

// authMiddleware requires a valid bearer token and attaches the user and a
// request-scoped logger to the request context.
func (s *APIV1Service) authMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method == echo.OPTIONS {
				return next(c)
			}

			userID, err := s.Authenticator.Authenticate(req.Context(), req.Header.Get(echo.HeaderAuthorization))
			if err != nil {
				slog.Debug("rejected unauthenticated request", slog.String("path", req.URL.Path), slog.String("error", err.Error()))
				return writeError(c, apierrors.Unauthorized("authentication required"))
			}

			reqCtx := observability.NewRequestContextWithID(
				slog.Default(),
				c.Response().Header().Get(echo.HeaderXRequestID),
				req.Method+" "+c.Path(),
				userID,
			)
			ctx := auth.SetUserIDInContext(req.Context(), userID)
			ctx = observability.WithRequestContext(ctx, reqCtx)
			c.SetRequest(req.WithContext(ctx))

			err = next(c)
			status := c.Response().Status
			attrs := []slog.Attr{
				slog.Int("status", status),
				slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
			}
			if status >= 500 {
				reqCtx.Warn("request failed", attrs...)
			} else {
				reqCtx.Debug("request completed", attrs...)
			}
			return err
		}
	}
}

// metricsMiddleware records request counts, failures and latency per route.
func (s *APIV1Service) metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			operation := c.Request().Method + " " + c.Path()
			start := time.Now()

			err := next(c)

			s.Metrics.RecordRequest(operation)
			s.Metrics.RecordDuration(operation, time.Since(start))
			if err != nil || c.Response().Status >= 500 {
				s.Metrics.RecordFailure(operation)
			}
			return err
		}
	}
}
