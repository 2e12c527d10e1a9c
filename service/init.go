/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、迁移、种子数据与各业务服务装配
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/report_platform_req.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules Redis/Kafka 为可选依赖，未配置时平台以降级模式运行（无锁、无限流、无通知）
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres
 * @refs service/report/generator.go, api/routes.go
 */

package service

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"reporthub-service/service/cleanup"
	"reporthub-service/service/database"
	"reporthub-service/service/distributed_lock"
	"reporthub-service/service/notification"
	"reporthub-service/service/pdf"
	"reporthub-service/service/rate_limiter"
	"reporthub-service/service/render"
	"reporthub-service/service/report"
	"reporthub-service/service/report/scripting"
	"reporthub-service/service/schedule"
)

var (
	DB                    *gorm.DB
	GlobalTaskManager     *report.TaskManager
	GlobalReportService   *report.Service
	GlobalScheduleService *schedule.ScheduleService
	GlobalCleanupService  *cleanup.ReportCleanupService
	GlobalRateLimiter     *rate_limiter.RedisRateLimiter
	GlobalRedisLock       *distributed_lock.RedisLock
)

func init() {
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接
func initDatabase() {
	var dsn string

	// 优先使用DATABASE_URL环境变量
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dsn = databaseURL
	} else {
		// 使用分离的环境变量构建连接字符串
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "things2024")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
		schema := getEnvWithDefault("DB_SCHEMA", "public")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=America/Sao_Paulo",
			host, port, user, password, dbname, sslmode, schema)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("数据库连接成功")
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations 运行数据库迁移
func runMigrations() {
	log.Println("开始运行数据库迁移...")

	if err := database.AutoMigrate(DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库表结构迁移完成")

	if err := database.InitializeData(DB); err != nil {
		log.Fatalf("基础数据初始化失败: %v", err)
	}
	log.Println("基础数据初始化完成")
}

// initServices 初始化服务
func initServices() {
	GlobalTaskManager = report.NewTaskManager()

	// Redis 为可选依赖：锁与限流在未配置时禁用
	if os.Getenv("REDIS_HOST") != "" {
		var err error
		GlobalRedisLock, err = distributed_lock.NewRedisLock()
		if err != nil {
			log.Printf("Redis分布式锁初始化失败，客户级互斥禁用: %v", err)
			GlobalRedisLock = nil
		}
		GlobalRateLimiter, err = rate_limiter.NewRedisRateLimiter()
		if err != nil {
			log.Printf("Redis限流器初始化失败，限流禁用: %v", err)
			GlobalRateLimiter = nil
		}
	}

	opts := report.Options{
		DB:      DB,
		Tasks:   GlobalTaskManager,
		Charts:  render.NewHTTPChartRenderer(""),
		PDF:     pdf.NewBuilder(""),
		Scripts: scripting.NewExecutor(),
	}
	if GlobalRedisLock != nil {
		opts.Locks = GlobalRedisLock
	}
	// Kafka 为可选依赖：未配置时通知禁用
	if notifier := notification.NewKafkaNotifierFromEnv(); notifier != nil {
		opts.Notifier = notifier
	}
	GlobalReportService = report.NewService(opts)

	GlobalCleanupService = cleanup.NewReportCleanupService(DB, GlobalTaskManager, GlobalReportService.OutputDir())
	if err := GlobalCleanupService.StartScheduledCleanup(); err != nil {
		log.Printf("启动报表清理调度器失败: %v", err)
	}

	var lockExec *distributed_lock.LockExecutor
	if GlobalRedisLock != nil {
		lockExec = distributed_lock.NewLockExecutor(GlobalRedisLock)
	}
	GlobalScheduleService = schedule.NewScheduleService(DB, GlobalReportService, lockExec)
	if err := GlobalScheduleService.Start(); err != nil {
		log.Printf("启动报表调度器失败: %v", err)
	}

	log.Println("服务初始化完成")
}
