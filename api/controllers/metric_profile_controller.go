/*
 * @module api/controllers/metric_profile_controller
 * @description 指标键档案管理控制器，维护按优先级消费的 Zabbix item key 配置
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/report_platform_req.md §3
 * @stateFlow 管理端维护档案 -> 报表生成按 metric_type+priority 升序逐个尝试
 * @rules calculation_type 仅接受 DIRECT/INVERSE；停用档案不参与解析
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/report/keyresolver.go
 */

package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"reporthub-service/service"
	"reporthub-service/service/models"
)

// MetricProfileController 指标键档案管理控制器
type MetricProfileController struct{}

// NewMetricProfileController 创建指标键档案管理控制器实例
func NewMetricProfileController() *MetricProfileController {
	return &MetricProfileController{}
}

// MetricProfileRequest 指标键档案创建/更新请求
type MetricProfileRequest struct {
	MetricType      string `json:"metric_type"`
	KeyString       string `json:"key_string"`
	Priority        int    `json:"priority"`
	CalculationType string `json:"calculation_type"`
	IsActive        *bool  `json:"is_active"`
}

func (req *MetricProfileRequest) validate() string {
	if req.MetricType == "" || req.KeyString == "" {
		return "metric_type e key_string são obrigatórios"
	}
	if req.CalculationType != "" &&
		req.CalculationType != models.CalculationDirect &&
		req.CalculationType != models.CalculationInverse {
		return "calculation_type deve ser DIRECT ou INVERSE"
	}
	return ""
}

// Create 创建指标键档案
// @Summary 创建指标键档案
// @Tags 指标键档案
// @Accept json
// @Produce json
// @Param request body MetricProfileRequest true "档案信息"
// @Success 200 {object} APIResponse{data=models.MetricKeyProfile}
// @Failure 400 {object} APIResponse
// @Router /metric-profiles [post]
func (c *MetricProfileController) Create(w http.ResponseWriter, r *http.Request) {
	var req MetricProfileRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "corpo da requisição inválido: " + err.Error()})
		return
	}
	if msg := req.validate(); msg != "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: msg})
		return
	}

	profile := models.MetricKeyProfile{
		MetricType:      req.MetricType,
		KeyString:       req.KeyString,
		Priority:        req.Priority,
		CalculationType: req.CalculationType,
		IsActive:        true,
	}
	if profile.Priority < 1 {
		profile.Priority = 1
	}
	if profile.CalculationType == "" {
		profile.CalculationType = models.CalculationDirect
	}
	if req.IsActive != nil {
		profile.IsActive = *req.IsActive
	}

	if err := service.DB.WithContext(r.Context()).Create(&profile).Error; err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "falha ao criar o perfil: " + err.Error()})
		return
	}

	render.JSON(w, r, APIResponse{Status: 0, Msg: "perfil criado", Data: profile})
}

// List 查询指标键档案列表
// @Summary 查询指标键档案列表
// @Tags 指标键档案
// @Produce json
// @Param metric_type query string false "按指标类型过滤"
// @Success 200 {object} APIResponse{data=[]models.MetricKeyProfile}
// @Router /metric-profiles [get]
func (c *MetricProfileController) List(w http.ResponseWriter, r *http.Request) {
	query := service.DB.WithContext(r.Context()).Model(&models.MetricKeyProfile{})
	if metricType := r.URL.Query().Get("metric_type"); metricType != "" {
		query = query.Where("metric_type = ?", metricType)
	}

	var profiles []models.MetricKeyProfile
	if err := query.Order("metric_type asc, priority asc").Find(&profiles).Error; err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: err.Error()})
		return
	}

	render.JSON(w, r, APIResponse{Status: 0, Msg: "ok", Data: profiles})
}

// Update 更新指标键档案
// @Summary 更新指标键档案
// @Tags 指标键档案
// @Accept json
// @Produce json
// @Param id path string true "档案ID"
// @Param request body MetricProfileRequest true "档案信息"
// @Success 200 {object} APIResponse{data=models.MetricKeyProfile}
// @Failure 404 {object} APIResponse
// @Router /metric-profiles/{id} [put]
func (c *MetricProfileController) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req MetricProfileRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "corpo da requisição inválido: " + err.Error()})
		return
	}

	var profile models.MetricKeyProfile
	if err := service.DB.WithContext(r.Context()).First(&profile, "id = ?", id).Error; err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, APIResponse{Status: http.StatusNotFound, Msg: "perfil não encontrado"})
		return
	}

	updates := map[string]interface{}{}
	if req.MetricType != "" {
		updates["metric_type"] = req.MetricType
	}
	if req.KeyString != "" {
		updates["key_string"] = req.KeyString
	}
	if req.Priority > 0 {
		updates["priority"] = req.Priority
	}
	if req.CalculationType != "" {
		if req.CalculationType != models.CalculationDirect && req.CalculationType != models.CalculationInverse {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "calculation_type deve ser DIRECT ou INVERSE"})
			return
		}
		updates["calculation_type"] = req.CalculationType
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := service.DB.WithContext(r.Context()).Model(&profile).Updates(updates).Error; err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: "falha ao atualizar o perfil: " + err.Error()})
		return
	}

	render.JSON(w, r, APIResponse{Status: 0, Msg: "perfil atualizado", Data: profile})
}

// Delete 删除指标键档案
// @Summary 删除指标键档案
// @Tags 指标键档案
// @Produce json
// @Param id path string true "档案ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /metric-profiles/{id} [delete]
func (c *MetricProfileController) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result := service.DB.WithContext(r.Context()).Delete(&models.MetricKeyProfile{}, "id = ?", id)
	if result.Error != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, APIResponse{Status: http.StatusNotFound, Msg: "perfil não encontrado"})
		return
	}

	render.JSON(w, r, APIResponse{Status: 0, Msg: "perfil removido"})
}
