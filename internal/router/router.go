package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/tabungan-api/internal/handler"
	"github.com/noah-isme/tabungan-api/internal/middleware"
	"github.com/noah-isme/tabungan-api/internal/models"
	"github.com/noah-isme/tabungan-api/internal/service"
	"github.com/noah-isme/tabungan-api/pkg/config"
	"github.com/noah-isme/tabungan-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tabungan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tabungan-api/pkg/middleware/requestid"
)

// Dependencies carries the services the HTTP surface is built on.
type Dependencies struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *service.MetricsService
	Ledger  *service.LedgerService
	Auth    *service.AuthService
	Reports *service.ReportService
	Exports *service.ExportService
}

// New builds the gin engine with every route of the API.
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	metricsHandler := handler.NewMetricsHandler(deps.Metrics, deps.Ledger.Loaded)
	authHandler := handler.NewAuthHandler(deps.Auth)
	studentHandler := handler.NewStudentHandler(deps.Ledger)
	transactionHandler := handler.NewTransactionHandler(deps.Ledger)
	reportHandler := handler.NewReportHandler(deps.Reports, deps.Exports)
	ledgerHandler := handler.NewLedgerHandler(deps.Ledger)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", middleware.JWT(deps.Auth), authHandler.Logout)
	auth.GET("/me", middleware.JWT(deps.Auth), authHandler.Me)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Auth))

	manageStudents := middleware.RequireCapability(models.CapManageStudents)
	students := secured.Group("/students")
	students.GET("", studentHandler.List)
	students.GET("/:id", studentHandler.Get)
	students.GET("/:id/transactions", studentHandler.Transactions)
	students.POST("", manageStudents, studentHandler.Create)
	students.PATCH("/:id", manageStudents, studentHandler.Update)
	students.DELETE("/:id", manageStudents, studentHandler.Delete)

	recordTransactions := middleware.RequireCapability(models.CapRecordTransactions)
	transactions := secured.Group("/transactions")
	transactions.GET("/:id", transactionHandler.Get)
	transactions.POST("", recordTransactions, transactionHandler.Create)
	transactions.PATCH("/:id", recordTransactions, transactionHandler.Update)
	transactions.DELETE("/:id", recordTransactions, transactionHandler.Delete)

	reports := secured.Group("/reports")
	reports.GET("/classes", reportHandler.Classes)
	reports.GET("/classes/:key", reportHandler.ClassDetail)
	reports.GET("/classes/:key/export", reportHandler.Export)

	secured.GET("/ledger/audit", middleware.RequireCapability(models.CapAuditLedger), ledgerHandler.Audit)
	secured.GET("/system/metrics", middleware.RequireRoles(models.RoleAdmin), metricsHandler.System)

	return r
}
