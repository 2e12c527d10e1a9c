/*
 * @module api/controllers/client_controller
 * @description 客户（租户）管理控制器，维护客户及其 Zabbix 主机组关联
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/report_platform_req.md §3
 * @stateFlow 管理端维护客户配置 -> 报表生成读取主机组关联
 * @rules 主机组关联整体替换；删除客户级联删除关联与报表记录
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render, gorm.io/gorm
 * @refs service/models/report_models.go
 */

package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"gorm.io/gorm"

	"reporthub-service/service"
	"reporthub-service/service/models"
)

// ClientController 客户管理控制器
type ClientController struct{}

// NewClientController 创建客户管理控制器实例
func NewClientController() *ClientController {
	return &ClientController{}
}

// ClientRequest 客户创建/更新请求
type ClientRequest struct {
	Name        string   `json:"name"`
	SLAContract float64  `json:"sla_contract"`
	LogoPath    string   `json:"logo_path"`
	GroupIDs    []string `json:"group_ids"` // Zabbix 主机组 ID 列表，整体替换
}

// Create 创建客户
// @Summary 创建客户
// @Tags 客户
// @Accept json
// @Produce json
// @Param request body ClientRequest true "客户信息"
// @Success 200 {object} APIResponse{data=models.Client}
// @Failure 400 {object} APIResponse
// @Router /clients [post]
func (c *ClientController) Create(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "corpo da requisição inválido: " + err.Error()})
		return
	}
	if req.Name == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "o nome do cliente é obrigatório"})
		return
	}

	client := models.Client{
		Name:        req.Name,
		SLAContract: req.SLAContract,
		LogoPath:    req.LogoPath,
	}
	if client.SLAContract <= 0 {
		client.SLAContract = 99.9
	}
	for _, gid := range req.GroupIDs {
		client.ZabbixGroups = append(client.ZabbixGroups, models.ClientZabbixGroup{ZabbixGroupID: gid})
	}

	if err := service.DB.WithContext(r.Context()).Create(&client).Error; err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "falha ao criar o cliente: " + err.Error()})
		return
	}

	render.JSON(w, r, APIResponse{Status: 0, Msg: "cliente criado", Data: client})
}

// List 查询客户列表
// @Summary 查询客户列表
// @Tags 客户
// @Produce json
// @Param page query int false "页码"
// @Param size query int false "每页数量"
// @Success 200 {object} PaginatedResponse
// @Router /clients [get]
func (c *ClientController) List(w http.ResponseWriter, r *http.Request) {
	page, size := pagination(r)

	var total int64
	if err := service.DB.WithContext(r.Context()).Model(&models.Client{}).Count(&total).Error; err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: err.Error()})
		return
	}

	var clients []models.Client
	if err := service.DB.WithContext(r.Context()).Preload("ZabbixGroups").
		Order("name asc").Offset((page - 1) * size).Limit(size).Find(&clients).Error; err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: err.Error()})
		return
	}

	render.JSON(w, r, PaginatedResponse{Status: 0, Msg: "ok", Data: clients, Total: total, Page: page, Size: size})
}

// Get 查询单个客户
// @Summary 查询单个客户
// @Tags 客户
// @Produce json
// @Param id path string true "客户ID"
// @Success 200 {object} APIResponse{data=models.Client}
// @Failure 404 {object} APIResponse
// @Router /clients/{id} [get]
func (c *ClientController) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var client models.Client
	err := service.DB.WithContext(r.Context()).Preload("ZabbixGroups").First(&client, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, APIResponse{Status: http.StatusNotFound, Msg: "cliente não encontrado"})
		return
	}
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: err.Error()})
		return
	}

	render.JSON(w, r, APIResponse{Status: 0, Msg: "ok", Data: client})
}

// Update 更新客户
// @Summary 更新客户
// @Tags 客户
// @Accept json
// @Produce json
// @Param id path string true "客户ID"
// @Param request body ClientRequest true "客户信息"
// @Success 200 {object} APIResponse{data=models.Client}
// @Failure 404 {object} APIResponse
// @Router /clients/{id} [put]
func (c *ClientController) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ClientRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "corpo da requisição inválido: " + err.Error()})
		return
	}

	var client models.Client
	if err := service.DB.WithContext(r.Context()).First(&client, "id = ?", id).Error; err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, APIResponse{Status: http.StatusNotFound, Msg: "cliente não encontrado"})
		return
	}

	err := service.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if req.Name != "" {
			updates["name"] = req.Name
		}
		if req.SLAContract > 0 {
			updates["sla_contract"] = req.SLAContract
		}
		if req.LogoPath != "" {
			updates["logo_path"] = req.LogoPath
		}
		if len(updates) > 0 {
			if err := tx.Model(&client).Updates(updates).Error; err != nil {
				return err
			}
		}

		// 主机组关联整体替换
		if req.GroupIDs != nil {
			if err := tx.Where("client_id = ?", client.ID).Delete(&models.ClientZabbixGroup{}).Error; err != nil {
				return err
			}
			for _, gid := range req.GroupIDs {
				group := models.ClientZabbixGroup{ClientID: client.ID, ZabbixGroupID: gid}
				if err := tx.Create(&group).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: "falha ao atualizar o cliente: " + err.Error()})
		return
	}

	service.DB.WithContext(r.Context()).Preload("ZabbixGroups").First(&client, "id = ?", id)
	render.JSON(w, r, APIResponse{Status: 0, Msg: "cliente atualizado", Data: client})
}

// Delete 删除客户
// @Summary 删除客户
// @Tags 客户
// @Produce json
// @Param id path string true "客户ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /clients/{id} [delete]
func (c *ClientController) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result := service.DB.WithContext(r.Context()).Delete(&models.Client{}, "id = ?", id)
	if result.Error != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, APIResponse{Status: http.StatusNotFound, Msg: "cliente não encontrado"})
		return
	}

	render.JSON(w, r, APIResponse{Status: 0, Msg: "cliente removido"})
}
