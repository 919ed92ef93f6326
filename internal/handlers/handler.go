package handlers

import (
	"account_store/internal/logger"
	"account_store/internal/service"

	"github.com/gin-gonic/gin"

	_ "account_store/internal/docs"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(h.requestID, h.accessLog, gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAccountRoutes(router)

	// live account statistics
	router.GET("/ws/stats", h.wsStats)

	return router
}

func (h *Handler) registerAccountRoutes(r *gin.Engine) {
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.GET("/users", h.listUsers)
	r.DELETE("/user/:id", h.deleteUser)
}
