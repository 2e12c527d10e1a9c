/*
 * @module api/controllers/template_controller
 * @description 报表模板管理控制器，维护可复用的有序模块布局
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/report_platform_req.md §3
 * @stateFlow 管理端维护模板 -> 生成请求按 template_id 引用布局
 * @rules 布局在入库前做结构校验，非法模块类型直接拒绝
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/report/types.go
 */

package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"reporthub-service/service"
	"reporthub-service/service/models"
	"reporthub-service/service/report"
)

// TemplateController 报表模板管理控制器
type TemplateController struct{}

// NewTemplateController 创建报表模板管理控制器实例
func NewTemplateController() *TemplateController {
	return &TemplateController{}
}

// TemplateRequest 模板创建/更新请求
type TemplateRequest struct {
	Name   string            `json:"name"`
	Layout models.JSONBArray `json:"layout"`
}

// Create 创建报表模板
// @Summary 创建报表模板
// @Tags 模板
// @Accept json
// @Produce json
// @Param request body TemplateRequest true "模板信息"
// @Success 200 {object} APIResponse{data=models.ReportTemplate}
// @Failure 400 {object} APIResponse
// @Router /templates [post]
func (c *TemplateController) Create(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "corpo da requisição inválido: " + err.Error()})
		return
	}
	if req.Name == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "o nome do modelo é obrigatório"})
		return
	}
	if _, err := report.ParseLayout(req.Layout); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "layout inválido: " + err.Error()})
		return
	}

	tpl := models.ReportTemplate{Name: req.Name, Layout: req.Layout}
	if err := service.DB.WithContext(r.Context()).Create(&tpl).Error; err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "falha ao criar o modelo: " + err.Error()})
		return
	}

	render.JSON(w, r, APIResponse{Status: 0, Msg: "modelo criado", Data: tpl})
}

// List 查询模板列表
// @Summary 查询模板列表
// @Tags 模板
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.ReportTemplate}
// @Router /templates [get]
func (c *TemplateController) List(w http.ResponseWriter, r *http.Request) {
	var templates []models.ReportTemplate
	if err := service.DB.WithContext(r.Context()).Order("name asc").Find(&templates).Error; err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: err.Error()})
		return
	}

	render.JSON(w, r, APIResponse{Status: 0, Msg: "ok", Data: templates})
}

// Get 查询单个模板
// @Summary 查询单个模板
// @Tags 模板
// @Produce json
// @Param id path string true "模板ID"
// @Success 200 {object} APIResponse{data=models.ReportTemplate}
// @Failure 404 {object} APIResponse
// @Router /templates/{id} [get]
func (c *TemplateController) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var tpl models.ReportTemplate
	if err := service.DB.WithContext(r.Context()).First(&tpl, "id = ?", id).Error; err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, APIResponse{Status: http.StatusNotFound, Msg: "modelo não encontrado"})
		return
	}

	render.JSON(w, r, APIResponse{Status: 0, Msg: "ok", Data: tpl})
}

// Update 更新模板
// @Summary 更新模板
// @Tags 模板
// @Accept json
// @Produce json
// @Param id path string true "模板ID"
// @Param request body TemplateRequest true "模板信息"
// @Success 200 {object} APIResponse{data=models.ReportTemplate}
// @Failure 404 {object} APIResponse
// @Router /templates/{id} [put]
func (c *TemplateController) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req TemplateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "corpo da requisição inválido: " + err.Error()})
		return
	}

	var tpl models.ReportTemplate
	if err := service.DB.WithContext(r.Context()).First(&tpl, "id = ?", id).Error; err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, APIResponse{Status: http.StatusNotFound, Msg: "modelo não encontrado"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Layout != nil {
		if _, err := report.ParseLayout(req.Layout); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "layout inválido: " + err.Error()})
			return
		}
		updates["layout"] = req.Layout
	}

	if err := service.DB.WithContext(r.Context()).Model(&tpl).Updates(updates).Error; err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: "falha ao atualizar o modelo: " + err.Error()})
		return
	}

	render.JSON(w, r, APIResponse{Status: 0, Msg: "modelo atualizado", Data: tpl})
}

// Delete 删除模板
// @Summary 删除模板
// @Tags 模板
// @Produce json
// @Param id path string true "模板ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /templates/{id} [delete]
func (c *TemplateController) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result := service.DB.WithContext(r.Context()).Delete(&models.ReportTemplate{}, "id = ?", id)
	if result.Error != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, APIResponse{Status: http.StatusNotFound, Msg: "modelo não encontrado"})
		return
	}

	render.JSON(w, r, APIResponse{Status: 0, Msg: "modelo removido"})
}
