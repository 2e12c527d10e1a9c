/*
 * @module service/cleanup/report_cleanup_service
 * @description 报表清理服务，定期回收过期的生成任务、报表 PDF 产物与审计日志
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/report_platform_req.md §6
 * @stateFlow 定时触发 -> 回收任务注册表 -> 删除过期PDF -> 清理审计日志 -> 记录结果
 * @rules 产物文件删除失败只告警，不中断其余清理；审计日志保留天数可由环境变量覆盖
 * @dependencies gorm.io/gorm, github.com/robfig/cron/v3
 * @refs service/report/task_manager.go, service/models/report_models.go
 */

package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"reporthub-service/service/models"
	"reporthub-service/service/report"
)

// 保留策略默认值
const (
	// DefaultReportRetentionDays 报表 PDF 产物保留天数
	DefaultReportRetentionDays = 90
	// DefaultAuditRetentionDays 审计日志保留天数
	DefaultAuditRetentionDays = 365
)

// ReportCleanupService 报表清理服务
type ReportCleanupService struct {
	db      *gorm.DB
	tasks   *report.TaskManager
	baseDir string
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewReportCleanupService 创建报表清理服务实例
func NewReportCleanupService(db *gorm.DB, tasks *report.TaskManager, baseDir string) *ReportCleanupService {
	ctx, cancel := context.WithCancel(context.Background())

	return &ReportCleanupService{
		db:      db,
		tasks:   tasks,
		baseDir: baseDir,
		cron:    cron.New(cron.WithSeconds()),
		ctx:     ctx,
		cancel:  cancel,
		started: false,
	}
}

// CleanupExpired 执行一轮完整清理
func (s *ReportCleanupService) CleanupExpired(ctx context.Context) error {
	slog.Info("开始清理过期报表数据")
	startTime := time.Now()

	// 1. 回收过期任务及其产物文件
	purged := s.tasks.PurgeExpired()
	for _, task := range purged {
		if task.FilePath == "" {
			continue
		}
		if err := os.Remove(task.FilePath); err != nil && !os.IsNotExist(err) {
			slog.Warn("删除过期任务产物失败", "task_id", task.ID, "path", task.FilePath, "error", err)
		}
	}

	// 2. 删除超过保留期的报表记录与 PDF 文件
	reportsDeleted, err := s.CleanupReportFiles(ctx, retentionDays("REPORT_RETENTION_DAYS", DefaultReportRetentionDays))
	if err != nil {
		slog.Error("清理过期报表文件失败", "error", err)
	}

	// 3. 清理审计日志
	auditDeleted, err := s.CleanupAuditLogs(ctx, retentionDays("AUDIT_RETENTION_DAYS", DefaultAuditRetentionDays))
	if err != nil {
		slog.Error("清理审计日志失败", "error", err)
	}

	slog.Info("报表清理完成",
		"tasks_purged", len(purged),
		"reports_deleted", reportsDeleted,
		"audit_deleted", auditDeleted,
		"duration_ms", time.Since(startTime).Milliseconds())

	return nil
}

// CleanupReportFiles 删除超过保留期的报表记录及磁盘产物
func (s *ReportCleanupService) CleanupReportFiles(ctx context.Context, days int) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -days)

	var expired []models.Report
	if err := s.db.WithContext(ctx).Where("created_at < ?", cutoffDate).Find(&expired).Error; err != nil {
		return 0, fmt.Errorf("查询过期报表记录失败: %w", err)
	}

	for _, rec := range expired {
		path := rec.FilePath
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.baseDir, filepath.Base(path))
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("删除报表产物失败", "report_id", rec.ID, "path", path, "error", err)
		}
	}

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoffDate).Delete(&models.Report{})
	if result.Error != nil {
		return 0, fmt.Errorf("删除过期报表记录失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CleanupAuditLogs 清理超过保留期的审计日志
func (s *ReportCleanupService) CleanupAuditLogs(ctx context.Context, days int) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -days)

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoffDate).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("删除审计日志失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// StartScheduledCleanup 启动定时清理任务
func (s *ReportCleanupService) StartScheduledCleanup() error {
	if s.started {
		return fmt.Errorf("清理调度器已经启动")
	}

	slog.Info("启动报表清理调度器")

	// 每天凌晨3点执行清理任务
	// Cron表达式：秒 分 时 日 月 周
	_, err := s.cron.AddFunc("0 0 3 * * *", func() {
		if err := s.CleanupExpired(s.ctx); err != nil {
			slog.Error("定时报表清理任务失败", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("添加定时任务失败: %w", err)
	}

	s.cron.Start()
	s.started = true

	slog.Info("报表清理调度器启动成功，将于每天凌晨3点执行清理任务")
	return nil
}

// StopScheduledCleanup 停止定时清理任务
func (s *ReportCleanupService) StopScheduledCleanup() {
	if !s.started {
		return
	}

	slog.Info("停止报表清理调度器")

	s.cancel()

	if s.cron != nil {
		s.cron.Stop()
	}

	s.started = false
}

// retentionDays 环境变量覆盖的保留天数
func retentionDays(envKey string, def int) int {
	if v := os.Getenv(envKey); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			return days
		}
	}
	return def
}
