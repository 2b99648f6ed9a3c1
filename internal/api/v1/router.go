// Package v1 exposes the JSON API consumed by the storefront and the
// admin dashboard, plus the inbound-email webhook.
package v1

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/spiritgear-io/spiritgear/internal/auth"
	"github.com/spiritgear-io/spiritgear/internal/comms"
	"github.com/spiritgear-io/spiritgear/internal/middleware"
	"github.com/spiritgear-io/spiritgear/internal/repository"
	"github.com/spiritgear-io/spiritgear/internal/service"
)

// APIRouter wires handlers onto a gin engine.
type APIRouter struct {
	router         *gin.Engine
	catalog        *service.CatalogService
	orders         *service.OrderService
	proofs         *service.ProofService
	reports        *service.ReportService
	storage        service.StorageService
	commRepo       *repository.CommunicationRepository
	admins         *repository.AdminRepository
	recorder       *comms.Recorder
	sender         *comms.Sender
	jwtManager     *auth.JWTManager
	authMiddleware *middleware.AuthMiddleware
	logger         *log.Logger
}

// Deps collects everything the API needs.
type Deps struct {
	Catalog    *service.CatalogService
	Orders     *service.OrderService
	Proofs     *service.ProofService
	Reports    *service.ReportService
	Storage    service.StorageService
	CommRepo   *repository.CommunicationRepository
	Admins     *repository.AdminRepository
	Recorder   *comms.Recorder
	Sender     *comms.Sender
	JWTManager *auth.JWTManager
	Logger     *log.Logger
}

// NewAPIRouter creates the v1 API router.
func NewAPIRouter(router *gin.Engine, deps Deps) *APIRouter {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &APIRouter{
		router:         router,
		catalog:        deps.Catalog,
		orders:         deps.Orders,
		proofs:         deps.Proofs,
		reports:        deps.Reports,
		storage:        deps.Storage,
		commRepo:       deps.CommRepo,
		admins:         deps.Admins,
		recorder:       deps.Recorder,
		sender:         deps.Sender,
		jwtManager:     deps.JWTManager,
		authMiddleware: middleware.NewAuthMiddleware(deps.JWTManager),
		logger:         logger,
	}
}

// SetupRoutes configures all API v1 routes.
func (r *APIRouter) SetupRoutes() {
	v1 := r.router.Group("/api/v1")

	v1.GET("/health", r.handleHealth)

	// Public routes
	public := v1.Group("")
	{
		public.POST("/auth/login", r.handleLogin)

		// Storefront
		public.GET("/products", r.handleListProducts)
		public.GET("/products/:id", r.handleGetProduct)
		public.POST("/orders", r.handleCheckout)

		// Inbound email from the delivery provider. Always answers 200.
		public.POST("/webhooks/inbound-email", r.handleInboundEmail)
	}

	// Admin routes
	protected := v1.Group("")
	protected.Use(r.authMiddleware.RequireAuth())
	{
		protected.GET("/me", r.handleGetCurrentAdmin)

		// Catalog management
		protected.POST("/products", r.handleCreateProduct)
		protected.PUT("/products/:id", r.handleUpdateProduct)
		protected.DELETE("/products/:id", r.handleDeleteProduct)

		// Orders
		protected.GET("/orders", r.handleListOrders)
		protected.GET("/orders/:id", r.handleGetOrder)
		protected.PUT("/orders/:id/status", r.handleUpdateOrderStatus)
		protected.DELETE("/orders/:id", r.handleDeleteOrder)

		// Order communications
		protected.GET("/orders/:id/communications", r.handleListCommunications)
		protected.POST("/orders/:id/communications", r.handleSendCommunication)
		protected.PUT("/communications/:id/read", r.handleMarkCommunicationRead)
		protected.GET("/attachments/:id", r.handleDownloadAttachment)

		// Proofs
		protected.GET("/orders/:id/proofs", r.handleListProofs)
		protected.POST("/orders/:id/proofs", r.handleUploadProof)
		protected.GET("/proofs/:id", r.handleGetProof)
		protected.GET("/proofs/:id/file", r.handleDownloadProof)
		protected.POST("/proofs/:id/send", r.handleSendProof)
		protected.POST("/proofs/:id/approve", r.handleApproveProof)
		protected.POST("/proofs/:id/request-changes", r.handleRequestProofChanges)
		protected.POST("/proofs/:id/annotations", r.handleAnnotateProof)

		// Dashboard and exports
		protected.GET("/dashboard/stats", r.handleDashboardStats)
		protected.GET("/reports/orders/export", r.handleExportOrders)
	}
}
