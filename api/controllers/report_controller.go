/*
 * @module api/controllers/report_controller
 * @description 报表生成控制器：触发生成、查询任务状态、下载产物、查询历史记录
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/report_platform_req.md §5
 * @stateFlow 生成请求 -> 限流检查 -> 登记任务(202) -> 轮询状态 -> 下载PDF
 * @rules 生成为异步操作，同步仅做校验；下载接口校验任务终态；限流器未配置时放行
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/report/generator.go, service/rate_limiter/redis_rate_limiter.go
 */

package controllers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"reporthub-service/api/middleware"
	"reporthub-service/service"
	"reporthub-service/service/models"
	"reporthub-service/service/rate_limiter"
	"reporthub-service/service/report"
)

// 限流默认值（每小时窗口）
const (
	defaultUserRateLimit   = 10
	defaultGlobalRateLimit = 100
	rateLimitWindowSeconds = 3600
)

// ReportController 报表生成控制器
type ReportController struct{}

// NewReportController 创建报表生成控制器实例
func NewReportController() *ReportController {
	return &ReportController{}
}

// GenerateReportRequest 报表生成请求
type GenerateReportRequest struct {
	ClientID   string      `json:"client_id"`
	RefMonth   string      `json:"ref_month"`             // YYYY-MM
	TemplateID string      `json:"template_id,omitempty"` // 优先于 layout
	Layout     interface{} `json:"layout,omitempty"`      // 内联模块布局
}

// GenerateReportResponse 报表生成响应
type GenerateReportResponse struct {
	TaskID string `json:"task_id"`
}

// Generate 触发报表生成
// @Summary 触发报表生成
// @Description 校验请求并登记后台生成任务，立即返回任务号
// @Tags 报表
// @Accept json
// @Produce json
// @Param request body GenerateReportRequest true "生成请求"
// @Success 202 {object} APIResponse{data=GenerateReportResponse}
// @Failure 400 {object} APIResponse
// @Failure 429 {object} APIResponse
// @Router /reports/generate [post]
func (c *ReportController) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateReportRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "corpo da requisição inválido: " + err.Error()})
		return
	}

	userID, username := identityFrom(r)

	if !c.allowGeneration(w, r, username) {
		return
	}

	taskID, err := service.GlobalReportService.StartGeneration(r.Context(), report.GenerateParams{
		ClientID:   req.ClientID,
		RefMonth:   req.RefMonth,
		TemplateID: req.TemplateID,
		Layout:     req.Layout,
		UserID:     userID,
		Username:   username,
	})
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: err.Error()})
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, APIResponse{Status: 0, Msg: "geração iniciada", Data: GenerateReportResponse{TaskID: taskID}})
}

// allowGeneration 限流检查；限流器未配置时直接放行
func (c *ReportController) allowGeneration(w http.ResponseWriter, r *http.Request, username string) bool {
	limiter := service.GlobalRateLimiter
	if limiter == nil {
		return true
	}

	rules := []rate_limiter.RateLimitRule{
		{Type: rate_limiter.TypeUser, TargetID: username, TimeWindow: rateLimitWindowSeconds, MaxRequests: rateLimitFromEnv("REPORT_RATE_LIMIT_USER", defaultUserRateLimit)},
		{Type: rate_limiter.TypeGlobal, TimeWindow: rateLimitWindowSeconds, MaxRequests: rateLimitFromEnv("REPORT_RATE_LIMIT_GLOBAL", defaultGlobalRateLimit)},
	}

	result, err := limiter.CheckRateLimit(r.Context(), rules)
	if err != nil {
		// 限流检查失败降级为放行，不阻断业务
		return true
	}
	if !result.Allowed {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, APIResponse{Status: http.StatusTooManyRequests, Msg: result.Message})
		return false
	}
	return true
}

// Status 查询生成任务状态
// @Summary 查询生成任务状态
// @Tags 报表
// @Produce json
// @Param task_id path string true "任务号"
// @Success 200 {object} APIResponse{data=report.Task}
// @Failure 404 {object} APIResponse
// @Router /reports/status/{task_id} [get]
func (c *ReportController) Status(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	task, ok := service.GlobalReportService.Tasks().Get(taskID)
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, APIResponse{Status: http.StatusNotFound, Msg: "tarefa não encontrada ou expirada"})
		return
	}

	render.JSON(w, r, APIResponse{Status: 0, Msg: "ok", Data: task})
}

// Download 下载报表产物
// @Summary 下载生成的PDF
// @Tags 报表
// @Produce application/pdf
// @Param task_id path string true "任务号"
// @Success 200 {file} binary
// @Failure 404 {object} APIResponse
// @Failure 409 {object} APIResponse
// @Router /reports/download/{task_id} [get]
func (c *ReportController) Download(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	task, ok := service.GlobalReportService.Tasks().Get(taskID)
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, APIResponse{Status: http.StatusNotFound, Msg: "tarefa não encontrada ou expirada"})
		return
	}

	if task.Failed {
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, APIResponse{Status: http.StatusConflict, Msg: task.Status})
		return
	}
	if !task.Done {
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, APIResponse{Status: http.StatusConflict, Msg: "o relatório ainda está em processamento"})
		return
	}

	if _, err := os.Stat(task.FilePath); err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, APIResponse{Status: http.StatusNotFound, Msg: "arquivo do relatório não encontrado no servidor"})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filepath.Base(task.FileName)))
	http.ServeFile(w, r, task.FilePath)
}

// History 查询报表历史记录
// @Summary 查询报表历史记录
// @Tags 报表
// @Produce json
// @Param client_id query string false "按客户过滤"
// @Param page query int false "页码"
// @Param size query int false "每页数量"
// @Success 200 {object} PaginatedResponse
// @Router /reports [get]
func (c *ReportController) History(w http.ResponseWriter, r *http.Request) {
	page, size := pagination(r)

	query := service.DB.WithContext(r.Context()).Model(&models.Report{})
	if clientID := r.URL.Query().Get("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: err.Error()})
		return
	}

	var reports []models.Report
	if err := query.Order("created_at desc").Offset((page - 1) * size).Limit(size).Find(&reports).Error; err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: err.Error()})
		return
	}

	render.JSON(w, r, PaginatedResponse{Status: 0, Msg: "ok", Data: reports, Total: total, Page: page, Size: size})
}

// identityFrom 提取网关注入的身份；缺省回退为 system
func identityFrom(r *http.Request) (userID, username string) {
	if info, ok := middleware.GetUserInfoFromContext(r.Context()); ok {
		return info.UserID, info.Username
	}
	return "", "system"
}

// pagination 解析分页参数
func pagination(r *http.Request) (page, size int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	size, _ = strconv.Atoi(r.URL.Query().Get("size"))
	if size < 1 || size > 100 {
		size = 20
	}
	return page, size
}

// rateLimitFromEnv 环境变量覆盖的限流阈值
func rateLimitFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
