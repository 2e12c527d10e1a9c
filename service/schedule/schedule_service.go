/*
 * @module service/schedule/schedule_service
 * @description 周期报表调度服务：按数据库中的调度配置定时触发上个自然月的报表生成
 * @architecture 分层架构 - 业务服务层；cron 条目与数据库配置可热重载
 * @documentReference ai_docs/report_platform_req.md §6
 * @stateFlow 加载启用的调度 -> 注册cron条目 -> 触发生成(分布式防重) -> 更新最后执行时间
 * @rules 调度表达式非法只跳过该条并告警；多实例环境下同一调度由锁保证单实例执行
 * @dependencies github.com/robfig/cron/v3, gorm.io/gorm
 * @refs service/report/generator.go, service/distributed_lock/redis_lock.go
 */

package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"reporthub-service/service/distributed_lock"
	"reporthub-service/service/models"
	"reporthub-service/service/report"
)

// ScheduleService 周期报表调度服务
type ScheduleService struct {
	mu      sync.Mutex
	db      *gorm.DB
	reports *report.Service
	locks   *distributed_lock.LockExecutor // 可为 nil（单实例部署）
	cron    *cron.Cron
	entries map[string]cron.EntryID
	started bool
}

// NewScheduleService 创建调度服务
func NewScheduleService(db *gorm.DB, reports *report.Service, locks *distributed_lock.LockExecutor) *ScheduleService {
	return &ScheduleService{
		db:      db,
		reports: reports,
		locks:   locks,
		cron:    cron.New(),
		entries: make(map[string]cron.EntryID),
	}
}

// Start 加载启用的调度并启动 cron
func (s *ScheduleService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("报表调度器已经启动")
	}
	if err := s.loadLocked(); err != nil {
		return err
	}
	s.cron.Start()
	s.started = true
	slog.Info("报表调度器启动成功", "schedules", len(s.entries))
	return nil
}

// Reload 调度配置变更后重新同步 cron 条目
func (s *ScheduleService) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entryID := range s.entries {
		s.cron.Remove(entryID)
		delete(s.entries, id)
	}
	return s.loadLocked()
}

// loadLocked 注册全部启用的调度，调用方须持锁
func (s *ScheduleService) loadLocked() error {
	var schedules []models.ReportSchedule
	if err := s.db.Where("is_enabled = ?", true).Find(&schedules).Error; err != nil {
		return fmt.Errorf("加载报表调度配置失败: %w", err)
	}

	for _, sched := range schedules {
		sched := sched
		entryID, err := s.cron.AddFunc(sched.CronExpr, func() {
			s.fire(sched.ID)
		})
		if err != nil {
			slog.Warn("调度表达式非法，跳过该调度", "schedule_id", sched.ID, "cron", sched.CronExpr, "error", err)
			continue
		}
		s.entries[sched.ID] = entryID
	}
	return nil
}

// fire 触发一条调度：生成上个自然月的报表
func (s *ScheduleService) fire(scheduleID string) {
	run := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var sched models.ReportSchedule
		if err := s.db.WithContext(ctx).First(&sched, "id = ?", scheduleID).Error; err != nil {
			return fmt.Errorf("调度配置不存在: %w", err)
		}
		if !sched.IsEnabled {
			return nil
		}

		refMonth := previousRefMonth(time.Now())
		taskID, err := s.reports.StartGeneration(ctx, report.GenerateParams{
			ClientID:   sched.ClientID,
			RefMonth:   refMonth,
			TemplateID: sched.TemplateID,
			Username:   sched.CreatedBy,
		})
		if err != nil {
			return fmt.Errorf("调度触发生成失败: %w", err)
		}

		now := time.Now()
		if err := s.db.WithContext(ctx).Model(&models.ReportSchedule{}).
			Where("id = ?", scheduleID).Update("last_run_at", now).Error; err != nil {
			slog.Warn("更新调度最后执行时间失败", "schedule_id", scheduleID, "error", err)
		}

		slog.Info("调度已触发报表生成", "schedule_id", scheduleID, "task_id", taskID, "ref_month", refMonth)
		return nil
	}

	var err error
	if s.locks != nil {
		err = s.locks.ExecuteWithLock(context.Background(), "schedule:"+scheduleID, 5*time.Minute, run)
	} else {
		err = run()
	}
	if err != nil {
		slog.Error("报表调度执行失败", "schedule_id", scheduleID, "error", err)
	}
}

// previousRefMonth 上个自然月的 YYYY-MM
// 从当月 1 号回退，避免 AddDate 在 29-31 号把不存在的上月日期规范化回当月
func previousRefMonth(now time.Time) string {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return firstOfMonth.AddDate(0, -1, 0).Format("2006-01")
}

// Stop 停止调度器
func (s *ScheduleService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.cron.Stop()
	s.started = false
	slog.Info("报表调度器已停止")
}
