package router

import (
	"context"
	"strings"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/securemail-server/internal/api/grpc/handler"
	"github.com/dtroode/securemail-server/internal/api/grpc/middleware"
	"github.com/dtroode/securemail-server/internal/api/grpc/rpc"
	"github.com/dtroode/securemail-server/internal/logger"
	"github.com/dtroode/securemail-server/internal/model"
)

// Services groups the application services the handlers call.
type Services struct {
	OTP       handler.OTPService
	Accounts  handler.AccountService
	Messages  handler.MessageService
	Gate      handler.GateService
	Approvals handler.ApprovalService
}

// Router builds the gRPC server with its interceptor chain and routes.
type Router struct {
	services       Services
	tokenService   middleware.TokenService
	contextManager model.ContextManager
	pollInterval   time.Duration
	logger         *logger.Logger
}

func New(
	services Services,
	tokenService middleware.TokenService,
	contextManager model.ContextManager,
	pollInterval time.Duration,
	logger *logger.Logger,
) *Router {
	return &Router{
		services:       services,
		tokenService:   tokenService,
		contextManager: contextManager,
		pollInterval:   pollInterval,
		logger:         logger,
	}
}

// requireAuth selects the calls that need a bearer token: everything on the Mail service.
func requireAuth(_ context.Context, c interceptors.CallMeta) bool {
	return strings.HasPrefix(c.FullMethod(), "/"+rpc.MailServiceName+"/")
}

// Register returns a server with logging, panic recovery and bearer
// authentication chained in that order, and every service registered.
func (r *Router) Register(opts ...grpc.ServerOption) *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	recovered := middleware.NewRecovery(r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)

	opts = append(opts,
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			recovery.UnaryServerInterceptor(recovered.Option()),
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(requireAuth),
			),
		),
		grpc.ChainStreamInterceptor(
			logging.HandleGRPCStream,
			recovery.StreamServerInterceptor(recovered.Option()),
			selector.StreamServerInterceptor(
				auth.StreamServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(requireAuth),
			),
		),
	)

	s := grpc.NewServer(opts...)
	r.registerAuthRoutes(s)
	r.registerMailRoutes(s)
	r.registerHealth(s)

	return s
}

func (r *Router) registerAuthRoutes(server *grpc.Server) {
	authHandler := handler.NewAuth(r.services.OTP, r.services.Accounts, r.logger)
	rpc.RegisterAuthServer(server, authHandler)
}

func (r *Router) registerMailRoutes(server *grpc.Server) {
	mailHandler := handler.NewMail(
		r.services.Accounts,
		r.services.Messages,
		r.services.Gate,
		r.services.Approvals,
		r.contextManager,
		r.pollInterval,
		r.logger,
	)
	rpc.RegisterMailServer(server, mailHandler)
}

func (r *Router) registerHealth(server *grpc.Server) {
	hs := health.NewServer()
	hs.SetServingStatus(rpc.AuthServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(rpc.MailServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)
}
