package v1

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"connectrpc.com/connect"
	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/server/auth"
	"github.com/hrygo/notegraph/server/internal/observability"
)

// NewLoggingInterceptor logs every unary call and records it in metrics.
func NewLoggingInterceptor(metrics *observability.Metrics, logStacktraces bool) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure
			start := time.Now()

			resp, err := next(ctx, req)

			duration := time.Since(start)
			if metrics != nil {
				metrics.RecordRequest(procedure)
				metrics.RecordDuration(procedure, duration)
			}

			logger := observability.LoggerFromContext(ctx)
			if err == nil {
				logger.Debug("connect call", slog.String("procedure", procedure), slog.Int64(observability.LogFieldDuration, duration.Milliseconds()))
				return resp, nil
			}

			code := connect.CodeOf(err)
			attrs := []any{
				slog.String("procedure", procedure),
				slog.String(observability.LogFieldErrorCode, code.String()),
				slog.Int64(observability.LogFieldDuration, duration.Milliseconds()),
				slog.String("error", err.Error()),
			}
			switch code {
			case connect.CodeInternal, connect.CodeUnknown, connect.CodeUnavailable:
				if metrics != nil {
					metrics.RecordFailure(procedure)
				}
				if logStacktraces {
					attrs = append(attrs, slog.String("stack", fmt.Sprintf("%+v", err)))
				}
				logger.Error("connect call failed", attrs...)
			default:
				logger.Info("connect call rejected", attrs...)
			}
			return resp, err
		}
	}
}

// NewRecoveryInterceptor turns handler panics into internal errors.
func NewRecoveryInterceptor(logStacktraces bool) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (resp connect.AnyResponse, err error) {
			defer func() {
				if r := recover(); r != nil {
					attrs := []any{slog.String("procedure", req.Spec().Procedure), slog.Any("panic", r)}
					if logStacktraces {
						attrs = append(attrs, slog.String("stack", string(debug.Stack())))
					}
					slog.Error("panic in connect handler", attrs...)
					resp, err = nil, connect.NewError(connect.CodeInternal, errors.New("internal error"))
				}
			}()
			return next(ctx, req)
		}
	}
}

// NewAuthInterceptor requires a valid bearer token on every call.
func NewAuthInterceptor(authenticator *auth.Authenticator) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			userID, err := authenticator.Authenticate(ctx, req.Header().Get("Authorization"))
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
			}

			reqCtx := observability.NewRequestContext(slog.Default(), req.Spec().Procedure, userID)
			ctx = auth.SetUserIDInContext(ctx, userID)
			ctx = observability.WithRequestContext(ctx, reqCtx)
			return next(ctx, req)
		}
	}
}
