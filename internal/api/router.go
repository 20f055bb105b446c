// Package api wires the HTTP transport: routes, middleware and the central
// error handler.
package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mejarc/agent-onboarding/internal/api/handler"
	"github.com/mejarc/agent-onboarding/internal/api/middleware"
	"github.com/mejarc/agent-onboarding/internal/core/domain"
	"github.com/mejarc/agent-onboarding/internal/core/ports"
	"github.com/mejarc/agent-onboarding/internal/infrastructure/http/handlers"
	"github.com/mejarc/agent-onboarding/internal/infrastructure/storage"
)

// RouterDeps carries everything the transport layer needs from main.
type RouterDeps struct {
	Registration ports.RegistrationService
	Auth         ports.AuthService
	Documents    ports.DocumentStore
	Files        *storage.GridFSStore
	DB           *mongo.Database
	Redis        *redis.Client
	JWTSecret    string
	Log          zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("agent_onboarding"))

	authHandler := handler.NewAuthHandler(deps.Auth)
	agentHandler := handler.NewAgentHandler(deps.Registration, deps.Documents)
	adminHandler := handler.NewAdminHandler(deps.Registration, deps.Auth)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis)
	filesHandler := handlers.NewFilesHandler(deps.Files)

	authMW := middleware.Auth(deps.JWTSecret)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/admin/login", authHandler.AdminLogin)
	e.POST("/auth/admin/verify", authHandler.VerifyAdminLogin)

	// --- Agent self-service routes ---
	agents := e.Group("/v1/agents", authMW, middleware.RBAC(domain.RoleAgent))
	agents.POST("/register", agentHandler.Register)
	agents.PUT("/profile", agentHandler.SubmitProfile)
	agents.PUT("/bio", agentHandler.SubmitBio)
	agents.POST("/kyc", agentHandler.SubmitKyc)
	agents.POST("/kyc/documents", agentHandler.UploadKycDocument)
	agents.GET("/me", agentHandler.Me)
	agents.GET("/me/status", agentHandler.Status)

	// --- Moderation routes ---
	admin := e.Group("/v1/admin", authMW, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/agents", adminHandler.ListAgents)
	admin.GET("/agents/:id", adminHandler.GetAgent)
	admin.GET("/agents/:id/status", adminHandler.GetAgentStatus)
	admin.PATCH("/agents/:id/approve", adminHandler.Approve)
	admin.PATCH("/agents/:id/reject", adminHandler.Reject)
	admin.PATCH("/agents/:id/kyc/status", adminHandler.SetKycStatus)
	admin.POST("/agents/:id/kyc/documents", adminHandler.AddKycDocument)
	admin.DELETE("/agents/:id", adminHandler.RemoveAgent)
	admin.POST("/users/:userId/make-admin", adminHandler.MakeAdmin)

	// --- Uploaded document serving ---
	e.GET("/files/:id", filesHandler.Get)

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
