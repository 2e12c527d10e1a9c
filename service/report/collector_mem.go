/*
 * @module service/report/collector_mem
 * @description 内存使用率模块：经指标键解析器按档案优先级取数，支持取补换算
 * @architecture 采集器 - 解析器路径；键与换算方向由数据库档案决定
 * @documentReference ai_docs/report_platform_req.md §4.6, §4.8
 * @stateFlow 档案加载 -> 逐档案覆盖主机 -> 趋势聚合 -> 表格+图表
 * @rules 档案缺失或全部未命中为模块级软错误
 * @dependencies reporthub-service/service/render
 * @refs service/report/keyresolver.go
 */

package report

import (
	"context"
	"html/template"

	"reporthub-service/service/render"
)

func collectMemory(ctx context.Context, g *Generator, mod ModuleConfig) (template.HTML, error) {
	rows, err := g.resolver.ResolveTrends(ctx, g.cache.Hosts(), "memory", g.period, 1, AggMean)
	if err != nil {
		return "", err
	}
	title := moduleTitle(mod, "Utilização de Memória")
	body := trendChart(ctx, g, title, rows, "%") + trendTable(rows, "(%)", 2)
	return render.Section(title, body), nil
}
