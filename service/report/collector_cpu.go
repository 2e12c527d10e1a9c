/*
 * @module service/report/collector_cpu
 * @description CPU 使用率模块：system.cpu.util 趋势表格与分组柱状图
 * @architecture 采集器 - 按键取趋势的标准路径
 * @documentReference ai_docs/report_platform_req.md §4.8
 * @stateFlow 键匹配 -> 趋势 -> 均值聚合 -> 表格+图表
 * @rules 无
 * @dependencies reporthub-service/service/render
 * @refs service/report/collector.go
 */

package report

import (
	"context"
	"html/template"

	"reporthub-service/service/render"
)

func collectCPU(ctx context.Context, g *Generator, mod ModuleConfig) (template.HTML, error) {
	rows, err := fetchTrendsByKey(ctx, g, "system.cpu.util", 1, false, AggMean)
	if err != nil {
		return "", err
	}
	title := moduleTitle(mod, "Utilização de CPU")
	body := trendChart(ctx, g, title, rows, "%") + trendTable(rows, "(%)", 2)
	return render.Section(title, body), nil
}
