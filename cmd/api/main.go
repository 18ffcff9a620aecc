package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-farm-ledger/internal/config"
	"go-farm-ledger/internal/handler"
	"go-farm-ledger/internal/ledger"
	"go-farm-ledger/internal/middleware"
	"go-farm-ledger/internal/model"
	"go-farm-ledger/internal/repository"
	"go-farm-ledger/internal/service"
	"go-farm-ledger/internal/ws"
	"go-farm-ledger/pkg/database"
	"go-farm-ledger/pkg/jwt"
	"go-farm-ledger/pkg/logger"
	"go-farm-ledger/pkg/metrics"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.MustNew(cfg.ServiceName, cfg.Env, cfg.LogFile)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Setup Database
	var (
		db    *gorm.DB
		store ledger.Store = ledger.NewMemoryStore()
	)
	if cfg.UsesDatabase() {
		db, err = database.ConnectDB(cfg.DSN(), log)
		if err != nil {
			log.Fatal("database_connect_failed", zap.Error(err))
		}
		// Auto Migrate (Hati-hati di production, sebaiknya pakai tools migrasi terpisah)
		if err := db.AutoMigrate(
			&model.User{}, &model.Privilege{}, &model.Role{},
			&model.Farmer{}, &model.Purchase{}, &model.Order{},
			&model.LedgerSnapshot{},
		); err != nil {
			log.Fatal("database_migrate_failed", zap.Error(err))
		}
		store = repository.NewSnapshotRepo(db)
	} else {
		log.Warn("memory_store_in_use", zap.String("detail", "ledger state is lost on exit; authentication and database routes are disabled"))
	}

	// 3. Load the ledger
	reg := metrics.NewRegistry()
	ledgerMetrics := metrics.NewLedger(reg)

	watcher := service.NewSnapshotWatcher(store, cfg.SyncInterval, ledgerMetrics, log)
	led := ledger.New(watcher, ledger.WithKey(cfg.LedgerKey), ledger.WithLogger(log))
	if err := led.Load(ctx); err != nil {
		log.Fatal("ledger_load_failed", zap.Error(err))
	}

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub(log)
	go wsHub.Run(ctx)

	// 5. Dependency Injection (Wiring Layers)
	ledgerService := service.NewLedgerService(led, wsHub, ledgerMetrics, log)
	dashService := service.NewDashboardService(ledgerService)
	go watcher.Run(ctx, led, ledgerService.Reloaded)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Farm Ledger v1.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return handler.ErrorJSON(c, fe.Code, handler.CodeBadRequest, fe.Message)
			}
			log.Error("unhandled_error", zap.String("path", c.Path()), zap.Error(err))
			return handler.ErrorJSON(c, fiber.StatusInternalServerError, ledger.CodeInternal, "Internal Server Error")
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(reg)))

	// 7. Routes
	api := app.Group("/api/v1")

	r := &router{
		inventory: handler.NewInventoryHandler(ledgerService),
		dashboard: handler.NewDashboardHandler(dashService),
		guard:     func(...string) fiber.Handler { return passthrough },
		protected: api,
	}

	if db != nil {
		userRepo := repository.NewUserRepo(db)
		privilegeRepo := repository.NewPrivilegeRepo(db)
		roleRepo := repository.NewRoleRepo(db)
		farmerRepo := repository.NewFarmerRepo(db)
		purchaseRepo := repository.NewPurchaseRepo(db)
		orderRepo := repository.NewOrderRepo(db)

		// Seed default privileges, roles, and admin user
		service.SeedAccess(privilegeRepo, roleRepo, userRepo, cfg.AdminEmail, cfg.AdminPassword, log)

		tokens := jwt.NewManager(cfg.JWTSecret, cfg.TokenTTL)
		authService := service.NewAuthService(userRepo, tokens, wsHub, cfg.SessionTimeout, log)
		orderService := service.NewOrderService(orderRepo, ledgerService, log)
		financeService := service.NewFinanceService(orderRepo, purchaseRepo)

		authHandler := handler.NewAuthHandler(authService)
		requireAuth := middleware.RequireAuth(userRepo, tokens)

		// ============ PUBLIC ROUTES ============
		auth := api.Group("/auth")
		auth.Post("/login", authHandler.Login)
		auth.Post("/reset-password", authHandler.ResetPassword)
		auth.Post("/validate-token", authHandler.ValidateToken)
		auth.Post("/heartbeat", requireAuth, authHandler.Heartbeat)

		r.protected = api.Group("", requireAuth)
		r.guard = middleware.RequireAnyPrivilege
		r.roles = handler.NewRoleHandler(roleRepo, privilegeRepo)
		r.farmers = handler.NewFarmerHandler(service.NewFarmerService(farmerRepo, purchaseRepo))
		r.purchases = handler.NewPurchaseHandler(service.NewPurchaseService(purchaseRepo, farmerRepo, ledgerService, log))
		r.orders = handler.NewOrderHandler(orderService)
		r.finance = handler.NewFinanceHandler(financeService)
		r.reports = handler.NewReportHandler(service.NewReportService(ledgerService, orderService, financeService))
	}
	r.mount()

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !wsHub.Join(c) {
			return
		}
		defer wsHub.Leave(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server_listen_failed", zap.Error(err))
			stop()
		}
	}()
	log.Info("server_started", zap.String("port", cfg.Port), zap.String("ledger_store", cfg.LedgerStore))

	<-ctx.Done()
	log.Info("server_shutting_down")

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error("server_forced_shutdown", zap.Error(err))
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := led.Flush(flushCtx); err != nil {
		log.Error("ledger_final_flush_failed", zap.Error(err))
	}

	log.Info("server_exited")
}
