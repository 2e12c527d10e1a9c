/*
 * @module api/controllers/zabbix_controller
 * @description Zabbix透传控制器，为管理端提供主机组列表查询
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/report_platform_req.md §5
 * @stateFlow 管理端配置客户时查询 Zabbix 主机组以建立关联
 * @dependencies github.com/go-chi/render, reporthub-service/zabbix_client
 * @refs zabbix_client/zabbix_client.go
 */

package controllers

import (
	"net/http"

	"github.com/go-chi/render"

	"reporthub-service/zabbix_client"
)

// ZabbixController Zabbix透传控制器
type ZabbixController struct{}

// NewZabbixController 创建Zabbix透传控制器实例
func NewZabbixController() *ZabbixController {
	return &ZabbixController{}
}

// HostGroups 查询 Zabbix 主机组列表
// @Summary 查询 Zabbix 主机组列表
// @Tags Zabbix
// @Produce json
// @Success 200 {object} APIResponse{data=[]zabbix_client.HostGroup}
// @Failure 502 {object} APIResponse
// @Router /zabbix/host-groups [get]
func (c *ZabbixController) HostGroups(w http.ResponseWriter, r *http.Request) {
	client := zabbix_client.NewClient("", "")
	groups, err := client.GetHostGroups(r.Context())
	if err != nil {
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, APIResponse{Status: http.StatusBadGateway, Msg: "falha ao consultar o Zabbix: " + err.Error()})
		return
	}

	render.JSON(w, r, APIResponse{Status: 0, Msg: "ok", Data: groups})
}
