/*
 * @module service/report/task_manager
 * @description 生成任务注册表：内存态任务状态机（进行中 -> 完成/失败），供状态轮询接口消费
 * @architecture 进程内注册表 - 读写锁保护的任务表；过期任务由清理服务定时回收
 * @documentReference ai_docs/report_platform_req.md §4.7, §7
 * @stateFlow "Iniciando..." -> 阶段性进度文案 -> "Concluído" 或 "Erro: <motivo>"
 * @rules 任务号即下载凭证；完成与失败为终态，终态后状态不再变更；过期窗口 24 小时
 * @dependencies github.com/google/uuid, sync
 * @refs api/controllers/report.go, service/cleanup/cleanup_service.go
 */

package report

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// 任务终态文案
const (
	StatusStarting  = "Iniciando..."
	StatusCompleted = "Concluído"
	statusErrPrefix = "Erro: "
)

// taskTTL 任务及其产物的保留窗口
const taskTTL = 24 * time.Hour

// Task 单次报表生成任务
type Task struct {
	ID         string    `json:"task_id"`
	ClientID   string    `json:"client_id"`
	RefMonth   string    `json:"ref_month"`
	Status     string    `json:"status"`
	FilePath   string    `json:"-"`
	FileName   string    `json:"file_name,omitempty"`
	Done       bool      `json:"done"`
	Failed     bool      `json:"failed"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// TaskManager 并发安全的任务注册表
type TaskManager struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewTaskManager 创建任务注册表
func NewTaskManager() *TaskManager {
	return &TaskManager{tasks: make(map[string]*Task)}
}

// Create 登记新任务，返回任务号
func (m *TaskManager) Create(clientID, refMonth string) string {
	id := uuid.New().String()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[id] = &Task{
		ID:        id,
		ClientID:  clientID,
		RefMonth:  refMonth,
		Status:    StatusStarting,
		CreatedAt: time.Now(),
	}
	return id
}

// UpdateStatus 更新进行中任务的阶段文案；终态任务不受影响
func (m *TaskManager) UpdateStatus(id, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.Done || t.Failed {
		return
	}
	t.Status = status
}

// Complete 任务成功终态，登记产物路径与下载文件名
func (m *TaskManager) Complete(id, filePath, fileName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.Done || t.Failed {
		return
	}
	t.Status = StatusCompleted
	t.FilePath = filePath
	t.FileName = fileName
	t.Done = true
	t.FinishedAt = time.Now()
}

// Fail 任务失败终态，原因拼入状态文案
func (m *TaskManager) Fail(id, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.Done || t.Failed {
		return
	}
	t.Status = statusErrPrefix + reason
	t.Failed = true
	t.FinishedAt = time.Now()
}

// Get 按任务号查询；副本返回，调用方不可变更注册表内状态
func (m *TaskManager) Get(id string) (Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// PurgeExpired 回收超过保留窗口的终态任务，返回被回收任务（供清理服务删除产物文件）
func (m *TaskManager) PurgeExpired() []Task {
	cutoff := time.Now().Add(-taskTTL)
	m.mu.Lock()
	defer m.mu.Unlock()
	var purged []Task
	for id, t := range m.tasks {
		if (t.Done || t.Failed) && t.FinishedAt.Before(cutoff) {
			purged = append(purged, *t)
			delete(m.tasks, id)
		}
	}
	return purged
}

// Count 当前登记任务数
func (m *TaskManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tasks)
}
