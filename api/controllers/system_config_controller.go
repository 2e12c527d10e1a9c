/*
 * @module api/controllers/system_config_controller
 * @description 系统配置控制器，维护品牌与报表外观配置单例
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/report_platform_req.md §3
 * @stateFlow 管理端维护配置 -> 报表生成读取品牌颜色与封面封底路径
 * @rules 配置为单例；颜色仅接受 #RGB/#RRGGBB 十六进制
 * @dependencies github.com/go-chi/render
 * @refs service/report/generator.go
 */

package controllers

import (
	"net/http"
	"regexp"

	"github.com/go-chi/render"

	"reporthub-service/service"
	"reporthub-service/service/models"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// SystemConfigController 系统配置控制器
type SystemConfigController struct{}

// NewSystemConfigController 创建系统配置控制器实例
func NewSystemConfigController() *SystemConfigController {
	return &SystemConfigController{}
}

// SystemConfigRequest 系统配置更新请求
type SystemConfigRequest struct {
	CompanyName         string `json:"company_name"`
	FooterText          string `json:"footer_text"`
	PrimaryColor        string `json:"primary_color"`
	SecondaryColor      string `json:"secondary_color"`
	ReportCoverPath     string `json:"report_cover_path"`
	ReportFinalPagePath string `json:"report_final_page_path"`
}

// Get 查询系统配置
// @Summary 查询系统配置
// @Tags 系统配置
// @Produce json
// @Success 200 {object} APIResponse{data=models.SystemConfig}
// @Router /system-config [get]
func (c *SystemConfigController) Get(w http.ResponseWriter, r *http.Request) {
	var cfg models.SystemConfig
	if err := service.DB.WithContext(r.Context()).First(&cfg).Error; err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: err.Error()})
		return
	}

	render.JSON(w, r, APIResponse{Status: 0, Msg: "ok", Data: cfg})
}

// Update 更新系统配置
// @Summary 更新系统配置
// @Tags 系统配置
// @Accept json
// @Produce json
// @Param request body SystemConfigRequest true "配置信息"
// @Success 200 {object} APIResponse{data=models.SystemConfig}
// @Failure 400 {object} APIResponse
// @Router /system-config [put]
func (c *SystemConfigController) Update(w http.ResponseWriter, r *http.Request) {
	var req SystemConfigRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "corpo da requisição inválido: " + err.Error()})
		return
	}

	for _, color := range []string{req.PrimaryColor, req.SecondaryColor} {
		if color != "" && !hexColorPattern.MatchString(color) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, APIResponse{Status: http.StatusBadRequest, Msg: "cor inválida: use o formato #RRGGBB"})
			return
		}
	}

	var cfg models.SystemConfig
	if err := service.DB.WithContext(r.Context()).First(&cfg).Error; err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.CompanyName != "" {
		updates["company_name"] = req.CompanyName
	}
	if req.FooterText != "" {
		updates["footer_text"] = req.FooterText
	}
	if req.PrimaryColor != "" {
		updates["primary_color"] = req.PrimaryColor
	}
	if req.SecondaryColor != "" {
		updates["secondary_color"] = req.SecondaryColor
	}
	if req.ReportCoverPath != "" {
		updates["report_cover_path"] = req.ReportCoverPath
	}
	if req.ReportFinalPagePath != "" {
		updates["report_final_page_path"] = req.ReportFinalPagePath
	}

	if len(updates) > 0 {
		if err := service.DB.WithContext(r.Context()).Model(&cfg).Updates(updates).Error; err != nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: "falha ao atualizar a configuração: " + err.Error()})
			return
		}
	}

	render.JSON(w, r, APIResponse{Status: 0, Msg: "configuração atualizada", Data: cfg})
}
