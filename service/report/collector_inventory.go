/*
 * @module service/report/collector_inventory
 * @description 主机清单模块：本次运行解析出的主机与 IP 列表
 * @architecture 采集器 - 仅消费运行级缓存，无网关往返
 * @documentReference ai_docs/report_platform_req.md §4.8
 * @stateFlow 缓存主机列表 -> 表格
 * @rules 无
 * @dependencies reporthub-service/service/render
 * @refs service/report/cache.go
 */

package report

import (
	"context"
	"html/template"
	"strconv"

	"reporthub-service/service/render"
)

func collectInventory(ctx context.Context, g *Generator, mod ModuleConfig) (template.HTML, error) {
	hosts := g.cache.Hosts()
	headers := []string{"#", "Host", "Endereço IP"}
	body := make([][]template.HTML, 0, len(hosts))
	for i, h := range hosts {
		body = append(body, []template.HTML{
			render.Cell(strconv.Itoa(i + 1)),
			render.Cell(h.DisplayName),
			render.Cell(h.IP),
		})
	}
	title := moduleTitle(mod, "Inventário de Hosts")
	return render.Section(title, render.Table(headers, body)), nil
}
