package api

import (
	"fmt"
	"net/http"
	"time"

	"smart-neighborhood-backend/pkg/config"
	"smart-neighborhood-backend/pkg/database"
	"smart-neighborhood-backend/pkg/handlers"
	customMiddleware "smart-neighborhood-backend/pkg/middleware"
	"smart-neighborhood-backend/pkg/notify"
	"smart-neighborhood-backend/pkg/reminder"
	"smart-neighborhood-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter 组装完整的HTTP路由器
// 采用"单体路由模式"，所有API端点集中在一个Chi路由器中管理
func NewRouter(cfg *config.Config, db database.DatabaseInterface, emitter *notify.Emitter, scanner *reminder.Scanner) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg)
	setupRoutes(router, cfg, db, emitter, scanner)

	return router
}

// setupMiddleware 设置全局中间件
func setupMiddleware(router *chi.Mux, cfg *config.Config) {
	// 基础中间件
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(customMiddleware.Logger(cfg))
	router.Use(customMiddleware.Recovery(cfg))

	// CORS中间件
	router.Use(customMiddleware.CORS(cfg))

	// 超时中间件
	router.Use(middleware.Timeout(25 * time.Second))

	// 压缩中间件
	router.Use(middleware.Compress(5))

	// 开发环境额外中间件
	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

// setupRoutes 设置所有API路由
func setupRoutes(router *chi.Mux, cfg *config.Config, db database.DatabaseInterface, emitter *notify.Emitter, scanner *reminder.Scanner) {
	// 创建处理器
	authHandler := handlers.NewAuthHandler(cfg, db)
	catalogHandler := handlers.NewCatalogHandler(cfg, db)
	bookingsHandler := handlers.NewBookingsHandler(cfg, db)
	messagesHandler := handlers.NewMessagesHandler(cfg, db, emitter)
	adminHandler := handlers.NewAdminHandler(cfg, scanner)

	// 健康检查端点
	router.Get("/", authHandler.HealthCheck)

	// API路由组
	router.Route("/api", func(r chi.Router) {
		// 公开路由（不需要认证）
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
		})

		// 需要认证的路由
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.AuthMiddleware(cfg))

			r.Get("/auth/me", authHandler.Me)

			// 资源目录
			r.Route("/resources", func(r chi.Router) {
				r.Get("/", catalogHandler.ListResources)
				r.Post("/", catalogHandler.CreateResource)
				r.Get("/{id}", catalogHandler.GetResource)
				r.Put("/{id}/availability", catalogHandler.UpdateResourceAvailability)
			})

			// 共享空间目录
			r.Route("/spaces", func(r chi.Router) {
				r.Get("/", catalogHandler.ListSpaces)
				r.Post("/", catalogHandler.CreateSpace)
				r.Get("/{id}", catalogHandler.GetSpace)
				r.Put("/{id}/availability", catalogHandler.UpdateSpaceAvailability)
			})

			// 社区活动目录
			r.Route("/events", func(r chi.Router) {
				r.Get("/", catalogHandler.ListEvents)
				r.Post("/", catalogHandler.CreateEvent)
				r.Get("/{id}", catalogHandler.GetEvent)
				r.Put("/{id}/date", catalogHandler.UpdateEventDate)
			})

			// 预订管理（三种类型统一路径）
			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", bookingsHandler.ListBookings)
				r.Post("/{kind}/{entityID}", bookingsHandler.CreateBooking)
				r.Delete("/{kind}/{bookingID}", bookingsHandler.CancelBooking)
			})

			// 站内消息
			r.Route("/messages", func(r chi.Router) {
				r.Get("/", messagesHandler.ListInbox)
				r.Post("/", messagesHandler.SendMessage)
			})

			// 运维端点
			r.Post("/admin/reminders/scan", adminHandler.TriggerReminderScan)
		})
	})

	// 404处理
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFoundResponse(w, fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path))
	})

	// 405处理
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponseWithCode(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path), "")
	})
}
