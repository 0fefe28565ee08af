package v1

import (
	"log/slog"

	"connectrpc.com/connect"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	apierrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/server/internal/observability"
	"github.com/hrygo/notegraph/store"
)

// toAPIError maps service and store errors to API errors.
func toAPIError(err error) *apierrors.APIError {
	if apiErr, ok := apierrors.As(err); ok {
		return apiErr
	}
	switch {
	case errors.Is(err, store.ErrInvalidRelation):
		return apierrors.InvalidArgument(err.Error(), err)
	case errors.Is(err, store.ErrRelationExists):
		return apierrors.AlreadyExists("note relation already exists")
	case errors.Is(err, store.ErrRelationNotFound):
		return apierrors.NotFound("note relation not found")
	default:
		return apierrors.Internal("internal error", err)
	}
}

// writeError renders err as a JSON error body.
func writeError(c echo.Context, err error) error {
	apiErr := toAPIError(err)
	if apiErr.Code == apierrors.ErrCodeInternal {
		if reqCtx, ok := observability.FromContext(c.Request().Context()); ok {
			reqCtx.Error("request failed", apiErr, slog.String("path", c.Path()))
		} else {
			slog.Error("request failed", slog.String("path", c.Path()), slog.String("error", apiErr.Error()))
		}
	}
	return c.JSON(apiErr.HTTPStatus(), apiErr.Body())
}

// toConnectError converts err to a Connect error carrying the mapped code.
func toConnectError(err error) error {
	apiErr := toAPIError(err)
	return connect.NewError(apiErr.ConnectCode(), errors.New(apiErr.Message))
}
