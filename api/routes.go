/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference ai_docs/report_platform_req.md §5
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式；管理端路由要求 admin 角色
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers/, api/middleware/gateway_identity.go
 */

package api

import (
	"reporthub-service/api/controllers"
	apimiddleware "reporthub-service/api/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 网关身份中间件（白名单路径除外）
	identity := apimiddleware.NewGatewayIdentityMiddleware()
	r.Use(identity.Middleware)

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 报表生成与下载
	r.Route("/reports", func(r chi.Router) {
		reportController := controllers.NewReportController()
		r.Post("/generate", reportController.Generate)
		r.Get("/status/{task_id}", reportController.Status)
		r.Get("/download/{task_id}", reportController.Download)
		r.Get("/", reportController.History)
	})

	// 客户管理
	r.Route("/clients", func(r chi.Router) {
		clientController := controllers.NewClientController()
		r.Get("/", clientController.List)
		r.Get("/{id}", clientController.Get)

		// 写操作仅限管理员
		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.RequireRole("admin"))
			r.Post("/", clientController.Create)
			r.Put("/{id}", clientController.Update)
			r.Delete("/{id}", clientController.Delete)
		})
	})

	// 指标键档案管理
	r.Route("/metric-profiles", func(r chi.Router) {
		metricProfileController := controllers.NewMetricProfileController()
		r.Get("/", metricProfileController.List)

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.RequireRole("admin"))
			r.Post("/", metricProfileController.Create)
			r.Put("/{id}", metricProfileController.Update)
			r.Delete("/{id}", metricProfileController.Delete)
		})
	})

	// 报表模板管理
	r.Route("/templates", func(r chi.Router) {
		templateController := controllers.NewTemplateController()
		r.Get("/", templateController.List)
		r.Get("/{id}", templateController.Get)

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.RequireRole("admin"))
			r.Post("/", templateController.Create)
			r.Put("/{id}", templateController.Update)
			r.Delete("/{id}", templateController.Delete)
		})
	})

	// 周期报表调度管理
	r.Route("/schedules", func(r chi.Router) {
		scheduleController := controllers.NewScheduleController()
		r.Get("/", scheduleController.List)

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.RequireRole("admin"))
			r.Post("/", scheduleController.Create)
			r.Put("/{id}", scheduleController.Update)
			r.Delete("/{id}", scheduleController.Delete)
		})
	})

	// 系统配置（单例）
	r.Route("/system-config", func(r chi.Router) {
		systemConfigController := controllers.NewSystemConfigController()
		r.Get("/", systemConfigController.Get)

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.RequireRole("admin"))
			r.Put("/", systemConfigController.Update)
		})
	})

	// Zabbix透传
	r.Route("/zabbix", func(r chi.Router) {
		zabbixController := controllers.NewZabbixController()
		r.Get("/host-groups", zabbixController.HostGroups)
	})
}
