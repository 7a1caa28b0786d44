package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "openchat/docs"
	"openchat/internal/app/health"
	"openchat/internal/app/message"
	"openchat/internal/app/question"
	"openchat/internal/app/reaction"
	"openchat/internal/app/upload"
	"openchat/internal/app/user"
	"openchat/internal/config"
	"openchat/internal/gateways/websocket"
	"openchat/internal/identitytoken"
	"openchat/internal/metrics"
	"openchat/internal/middleware"
)

type Router struct {
	Engine *gin.Engine
	api    *gin.RouterGroup
}

func NewRouter(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics, issuer *identitytoken.Issuer) *Router {
	engine := gin.New()
	engine.Use(middleware.CORSMiddleware(cfg.FrontendURL))
	engine.Use(middleware.LoggerMiddleware(logger, "/metrics", "/api/health"))
	engine.Use(gin.Recovery())
	if m != nil {
		engine.Use(m.Middleware())
	}

	api := engine.Group("/api")
	api.Use(middleware.IdentityMiddleware(issuer))
	return &Router{Engine: engine, api: api}
}

func (r *Router) RegisterHealthRoutes(handler health.Handler) {
	health.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterWebSocketRoutes(hub *websocket.Hub) {
	websocket.RegisterRoutes(r.Engine.Group("/api"), hub)
}

func (r *Router) RegisterUserRoutes(handler user.Handler) {
	user.RegisterRoutes(r.api, handler)
}

func (r *Router) RegisterMessageRoutes(handler message.Handler) {
	message.RegisterRoutes(r.api, handler)
}

func (r *Router) RegisterReactionRoutes(handler reaction.Handler) {
	reaction.RegisterRoutes(r.api, handler)
}

func (r *Router) RegisterQuestionRoutes(handler question.Handler) {
	question.RegisterRoutes(r.api, handler)
}

func (r *Router) RegisterUploadRoutes(handler *upload.Handler) {
	upload.RegisterRoutes(r.api, handler)
}

func (r *Router) RegisterMetricsRoutes(m *metrics.Metrics) {
	r.Engine.GET("/metrics", gin.WrapH(m.Handler()))
}

func (r *Router) RegisterSwaggerRoutes() {
	r.Engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (r *Router) Serve(addr string) error {
	return r.Engine.Run(addr)
}
