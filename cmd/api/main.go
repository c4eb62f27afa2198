package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pdv_api/internal/cache"
	"github.com/GTDGit/pdv_api/internal/config"
	"github.com/GTDGit/pdv_api/internal/database"
	"github.com/GTDGit/pdv_api/internal/handler"
	"github.com/GTDGit/pdv_api/internal/middleware"
	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/repository"
	"github.com/GTDGit/pdv_api/internal/service"
	"github.com/GTDGit/pdv_api/internal/sse"
	"github.com/GTDGit/pdv_api/internal/utils"
	"github.com/GTDGit/pdv_api/internal/worker"
	"github.com/GTDGit/pdv_api/pkg/evoapi"
	"github.com/GTDGit/pdv_api/pkg/yampi"
)

// main is the application entrypoint for the PDV API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Str("timezone", cfg.Location().String()).Msg("starting pdv api")
	utils.SetJWTConfig(cfg.JWTSecret, cfg.JWTTTL)

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := database.Migrate(db.DB, cfg.MigrationsPath); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 4. Initialize repositories
	operatorRepo := repository.NewOperatorRepository(db)
	attractionRepo := repository.NewAttractionRepository(db)
	productRepo := repository.NewProductRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// 5. Runtime settings
	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()
	settingsSvc := service.NewSettingsService(settingRepo)
	if err := settingsSvc.Init(startCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to load settings")
	}

	// 6. Initialize services
	loc := cfg.Location()
	hub := sse.NewHub()
	notifier := sse.NewHubNotifier(hub)

	renderer := service.NewTicketRenderer(cfg.TicketTitle, loc)
	dispatcher := service.NewTicketDispatcher(evoapi.NewClient(cfg.Upstream.Timeout), settingsSvc, renderer)

	authSvc := service.NewAuthService(operatorRepo)
	operatorSvc := service.NewOperatorService(operatorRepo, attractionRepo)
	catalogSvc := service.NewCatalogService(attractionRepo, productRepo)

	saleSvc := service.NewSaleService(saleRepo, productRepo, dispatcher, renderer)
	saleSvc.SetNotifier(notifier)

	attendanceSvc := service.NewAttendanceService(orderRepo, saleRepo, productRepo)
	attendanceSvc.SetNotifier(notifier)

	reportSvc := service.NewReportService(orderRepo, saleRepo, saleRepo, orderRepo, attractionRepo, loc)

	yampiSource := func(creds yampi.Credentials) service.OrderSource {
		return yampi.NewClient(cfg.Upstream.YampiBaseURL, creds, cfg.Upstream.Timeout, yampi.WithLocation(loc))
	}
	reconSvc := service.NewReconciliationService(
		orderRepo, productRepo, attractionRepo,
		yampiSource, settingsSvc,
		cache.NewSyncLock(redisClient, cfg.Worker.SyncLockTTL),
		cache.NewStatusCache(redisClient, loc),
	)
	reconSvc.SetNotifier(notifier)

	created, generated, err := operatorSvc.EnsureAdmin(startCtx, cfg.AdminPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin operator")
	}
	if created && generated != "" {
		log.Warn().Str("username", "admin").Str("password", generated).Msg("Generated admin password, change it after first login")
	}

	// 7. Initialize handlers
	rateLimiter := middleware.NewInvalidAuthRateLimiter()
	defer rateLimiter.Stop()

	handlers := &Handlers{
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"database": db.PingContext,
			"redis":    redisClient.Ping,
		}),
		Auth:     handler.NewAuthHandler(authSvc, rateLimiter),
		Operator: handler.NewOperatorHandler(operatorSvc),
		Catalog:  handler.NewCatalogHandler(catalogSvc),
		Sale:     handler.NewSaleHandler(saleSvc, attendanceSvc, reportSvc),
		Order:    handler.NewOrderHandler(reconSvc, loc),
		Panel:    handler.NewAttractionPanelHandler(attendanceSvc, reportSvc),
		Settings: handler.NewSettingsHandler(settingsSvc, dispatcher),
		SSE:      handler.NewSSEHandler(hub),
	}

	// 8. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware(rateLimiter)

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSHosts))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	go worker.NewSyncWorker(reconSvc, settingsSvc, cfg.Worker.SyncTick).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Operator *handler.OperatorHandler
	Catalog  *handler.CatalogHandler
	Sale     *handler.SaleHandler
	Order    *handler.OrderHandler
	Panel    *handler.AttractionPanelHandler
	Settings *handler.SettingsHandler
	SSE      *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/api/health", handlers.Health.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/api/auth/login", handlers.Auth.Login)

	api := router.Group("/api")
	api.Use(jwtMiddleware.Handle())
	{
		api.GET("/auth/me", handlers.Auth.Me)
		api.GET("/events", handlers.SSE.Stream)

		// Catalog reads are shared by the POS and the panels
		api.GET("/attractions", handlers.Catalog.ListAttractions)
		api.GET("/attractions/:id", handlers.Catalog.GetAttraction)
		api.GET("/products", handlers.Catalog.ListProducts)
		api.GET("/products/:id", handlers.Catalog.GetProduct)
	}

	pos := api.Group("/sales")
	pos.Use(middleware.RequireRole(models.RoleAdmin, models.RoleStaff))
	{
		pos.GET("", handlers.Sale.List)
		pos.POST("", handlers.Sale.Create)
		pos.GET("/next-code", handlers.Sale.NextCode)
		pos.GET("/leaderboard", handlers.Sale.Leaderboard)
		pos.GET("/:id", handlers.Sale.Get)
		pos.GET("/:id/ticket", handlers.Sale.Ticket)
		pos.POST("/:id/resend", handlers.Sale.Resend)
		pos.DELETE("/:id", middleware.RequireAdmin(), handlers.Sale.Delete)
	}

	// POS attendance is also open to attraction operators, scoped by product
	attendance := api.Group("/sales/:id/attendance")
	attendance.Use(middleware.RequireRole(models.RoleAdmin, models.RoleStaff, models.RoleAttraction))
	{
		attendance.POST("", handlers.Sale.ConfirmAttendance)
		attendance.DELETE("", handlers.Sale.CancelAttendance)
	}

	panel := api.Group("/panel")
	panel.Use(middleware.RequireRole(models.RoleAdmin, models.RoleStaff, models.RoleAttraction))
	{
		panel.GET("/dashboard", handlers.Panel.Dashboard)
		panel.GET("/orders", handlers.Panel.Orders)
		panel.GET("/orders/:id", handlers.Panel.Order)
		panel.POST("/orders/:id/confirm-all", handlers.Panel.ConfirmAll)
		panel.POST("/items/:id/attendance", handlers.Panel.ConfirmItem)
		panel.DELETE("/items/:id/attendance", handlers.Panel.CancelItem)
		panel.GET("/report", handlers.Panel.Report)
	}

	admin := api.Group("")
	admin.Use(middleware.RequireAdmin())
	{
		// Operators
		admin.GET("/operators", handlers.Operator.List)
		admin.POST("/operators", handlers.Operator.Create)
		admin.DELETE("/operators/:id", handlers.Operator.Deactivate)

		// Catalog management
		admin.POST("/attractions", handlers.Catalog.CreateAttraction)
		admin.PUT("/attractions/:id", handlers.Catalog.UpdateAttraction)
		admin.DELETE("/attractions/:id", handlers.Catalog.DeactivateAttraction)
		admin.POST("/products", handlers.Catalog.CreateProduct)
		admin.PUT("/products/:id", handlers.Catalog.UpdateProduct)
		admin.DELETE("/products/:id", handlers.Catalog.DeactivateProduct)

		// External orders
		admin.POST("/orders/sync", handlers.Order.Sync)
		admin.POST("/orders/test-connection", handlers.Order.TestConnection)
		admin.GET("/orders/statuses", handlers.Order.Statuses)
		admin.GET("/orders", handlers.Order.List)
		admin.GET("/orders/:id", handlers.Order.Get)
		admin.GET("/orders/unclassified", handlers.Order.Unclassified)
		admin.POST("/orders/items/classify", handlers.Order.Classify)
		admin.POST("/orders/items/classify-batch", handlers.Order.ClassifyBatch)
		admin.POST("/orders/items/auto-classify", handlers.Order.AutoClassify)
		admin.DELETE("/orders/items/:id/classification", handlers.Order.Unclassify)
		admin.GET("/orders/items/:id/history", handlers.Order.History)

		// Settings
		admin.GET("/settings", handlers.Settings.List)
		admin.POST("/settings/test-messaging", handlers.Settings.TestMessaging)
		admin.PUT("/settings/:key", handlers.Settings.Update)
	}
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
