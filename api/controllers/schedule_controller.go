/*
 * @module api/controllers/schedule_controller
 * @description 周期报表调度管理控制器，配置变更后热重载调度器
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/report_platform_req.md §6
 * @stateFlow 管理端维护调度 -> 调度器重载 -> cron 按配置触发上个自然月报表
 * @rules cron 表达式在入库前校验；任何写操作成功后触发调度器 Reload
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render, github.com/robfig/cron/v3
 * @refs service/schedule/schedule_service.go
 */

package controllers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/robfig/cron/v3"

	"reporthub-service/api/middleware"
	"reporthub-service/service"
	"reporthub-service/service/models"
)

// ScheduleController 周期报表调度管理控制器
type ScheduleController struct{}

// NewScheduleController 创建调度管理控制器实例
func NewScheduleController() *ScheduleController {
	return &ScheduleController{}
}

// ScheduleRequest 调度创建/更新请求
type ScheduleRequest struct {
	ClientID   string `json:"client_id"`
	TemplateID string `json:"template_id"`
	CronExpr   string `json:"cron_expr"`
	IsEnabled  *bool  `json:"is_enabled"`
}

// validCron 校验 cron 表达式（标准5字段）
func validCron(expr string) bool {
	_, err := cron.ParseStandard(expr)
	return err == nil
}

// reloadScheduler 配置变更后重载调度器
func reloadScheduler() {
	if service.GlobalScheduleService == nil {
		return
	}
	if err := service.GlobalScheduleService.Reload(); err != nil {
		slog.Error("重载报表调度器失败", "error", err)
	}
}

// Create 创建调度
// @Summary 创建调度
// @Tags 调度
// @Accept json
// @Produce json
// @Param request body ScheduleRequest true "调度信息"
// @Success 200 {object} APIResponse{data=models.ReportSchedule}
// @Failure 400 {object} APIResponse
// @Router /schedules [post]
func (c *ScheduleController) Create(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "corpo da requisição inválido: " + err.Error()})
		return
	}
	if req.ClientID == "" || req.TemplateID == "" || req.CronExpr == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "client_id, template_id e cron_expr são obrigatórios"})
		return
	}
	if !validCron(req.CronExpr) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "expressão cron inválida"})
		return
	}

	sched := models.ReportSchedule{
		ClientID:   req.ClientID,
		TemplateID: req.TemplateID,
		CronExpr:   req.CronExpr,
		IsEnabled:  true,
	}
	if req.IsEnabled != nil {
		sched.IsEnabled = *req.IsEnabled
	}
	if info, ok := middleware.GetUserInfoFromContext(r.Context()); ok {
		sched.CreatedBy = info.Username
	}

	if err := service.DB.WithContext(r.Context()).Create(&sched).Error; err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "falha ao criar o agendamento: " + err.Error()})
		return
	}

	reloadScheduler()
	render.JSON(w, r, APIResponse{Status: 0, Msg: "agendamento criado", Data: sched})
}

// List 查询调度列表
// @Summary 查询调度列表
// @Tags 调度
// @Produce json
// @Param client_id query string false "按客户过滤"
// @Success 200 {object} APIResponse{data=[]models.ReportSchedule}
// @Router /schedules [get]
func (c *ScheduleController) List(w http.ResponseWriter, r *http.Request) {
	query := service.DB.WithContext(r.Context()).Model(&models.ReportSchedule{})
	if clientID := r.URL.Query().Get("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}

	var schedules []models.ReportSchedule
	if err := query.Order("created_at desc").Find(&schedules).Error; err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: err.Error()})
		return
	}

	render.JSON(w, r, APIResponse{Status: 0, Msg: "ok", Data: schedules})
}

// Update 更新调度
// @Summary 更新调度
// @Tags 调度
// @Accept json
// @Produce json
// @Param id path string true "调度ID"
// @Param request body ScheduleRequest true "调度信息"
// @Success 200 {object} APIResponse{data=models.ReportSchedule}
// @Failure 404 {object} APIResponse
// @Router /schedules/{id} [put]
func (c *ScheduleController) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ScheduleRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "corpo da requisição inválido: " + err.Error()})
		return
	}

	var sched models.ReportSchedule
	if err := service.DB.WithContext(r.Context()).First(&sched, "id = ?", id).Error; err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, APIResponse{Status: http.StatusNotFound, Msg: "agendamento não encontrado"})
		return
	}

	updates := map[string]interface{}{}
	if req.ClientID != "" {
		updates["client_id"] = req.ClientID
	}
	if req.TemplateID != "" {
		updates["template_id"] = req.TemplateID
	}
	if req.CronExpr != "" {
		if !validCron(req.CronExpr) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "expressão cron inválida"})
			return
		}
		updates["cron_expr"] = req.CronExpr
	}
	if req.IsEnabled != nil {
		updates["is_enabled"] = *req.IsEnabled
	}

	if err := service.DB.WithContext(r.Context()).Model(&sched).Updates(updates).Error; err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: "falha ao atualizar o agendamento: " + err.Error()})
		return
	}

	reloadScheduler()
	render.JSON(w, r, APIResponse{Status: 0, Msg: "agendamento atualizado", Data: sched})
}

// Delete 删除调度
// @Summary 删除调度
// @Tags 调度
// @Produce json
// @Param id path string true "调度ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /schedules/{id} [delete]
func (c *ScheduleController) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result := service.DB.WithContext(r.Context()).Delete(&models.ReportSchedule{}, "id = ?", id)
	if result.Error != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, APIResponse{Status: http.StatusNotFound, Msg: "agendamento não encontrado"})
		return
	}

	reloadScheduler()
	render.JSON(w, r, APIResponse{Status: 0, Msg: "agendamento removido"})
}
