package v1

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/server/auth"
	"github.com/hrygo/notegraph/server/internal/observability"
	ratelimit "github.com/hrygo/notegraph/server/middleware"
	"github.com/hrygo/notegraph/server/service/cluster"
	"github.com/hrygo/notegraph/store"
)

type APIV1Service struct {
	Secret         string
	Profile        *profile.Profile
	Store          *store.Store
	ClusterService *cluster.Service
	Authenticator  *auth.Authenticator
	RateLimiter    *ratelimit.RateLimiter
	Metrics        *observability.Metrics
}

func NewAPIV1Service(secret string, profile *profile.Profile, store *store.Store) *APIV1Service {
	return &APIV1Service{
		Secret:         secret,
		Profile:        profile,
		Store:          store,
		ClusterService: cluster.NewService(store),
		Authenticator:  auth.NewAuthenticator(secret),
		RateLimiter:    ratelimit.NewRateLimiter(profile.RateLimitRPS, profile.RateLimitBurst),
		Metrics:        observability.NewMetrics(1000),
	}
}

// RegisterGateway registers the REST routes and Connect handlers with the given Echo instance.
func (s *APIV1Service) RegisterGateway(_ context.Context, echoServer *echo.Echo) error {
	apiGroup := echoServer.Group("/api/v1",
		middleware.CORS(),
		s.authMiddleware(),
		s.RateLimiter.Middleware(),
		s.metricsMiddleware(),
	)
	apiGroup.GET("/note-clusters", s.ListNoteClusters)
	apiGroup.GET("/notes/:note/cluster-color", s.GetNoteClusterColor)
	apiGroup.GET("/note-relations", s.ListNoteRelations)
	apiGroup.POST("/note-relations", s.CreateNoteRelation)
	apiGroup.DELETE("/note-relations/:uid", s.DeleteNoteRelation)
	apiGroup.GET("/system/metrics", s.GetSystemMetrics)

	// Connect handlers for browser clients.
	logStacktraces := s.Profile.IsDev()
	connectInterceptors := connect.WithInterceptors(
		NewLoggingInterceptor(s.Metrics, logStacktraces),
		NewRecoveryInterceptor(logStacktraces),
		NewAuthInterceptor(s.Authenticator),
	)
	connectMux := http.NewServeMux()
	connectHandler := NewConnectServiceHandler(s)
	connectHandler.RegisterConnectHandlers(connectMux, connectInterceptors)

	// Wrap with CORS for browser access
	corsHandler := middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
	})
	connectGroup := echoServer.Group("", corsHandler, s.RateLimiter.Middleware())
	connectGroup.Any("/"+RelationClusterServiceName+"/*", echo.WrapHandler(connectMux))

	return nil
}
