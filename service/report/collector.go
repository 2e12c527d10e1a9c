/*
 * @module service/report/collector
 * @description 模块采集器注册表与共享辅助：按键取趋势、趋势表格、图表降级
 * @architecture 注册表模式 - 模块类型到采集函数的静态映射，编排器按布局逐个调用
 * @documentReference ai_docs/report_platform_req.md §4.8, §9
 * @stateFlow 布局项 -> 注册表查找 -> 采集函数 -> HTML 片段
 * @rules 采集器返回 error 即降级为内联错误；图表渲染失败仅丢图，表格照常输出
 * @dependencies reporthub-service/service/render, github.com/spf13/cast
 * @refs service/report/generator.go
 */

package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"reporthub-service/service/render"
	"reporthub-service/service/utils"
)

// collectorFunc 单模块采集函数
type collectorFunc func(ctx context.Context, g *Generator, mod ModuleConfig) (template.HTML, error)

// moduleCollectors 模块类型注册表
var moduleCollectors = map[string]collectorFunc{
	"cpu":          collectCPU,
	"mem":          collectMemory,
	"disk":         collectDisk,
	"traffic_in":   collectTrafficIn,
	"traffic_out":  collectTrafficOut,
	"latency":      collectLatency,
	"loss":         collectLoss,
	"wifi":         collectWifi,
	"inventory":    collectInventory,
	"html":         collectHTML,
	"sla":          collectSLA,
	"kpi":          collectKPI,
	"top_hosts":    collectTopHosts,
	"top_problems": collectTopProblems,
	"stress":       collectStress,
}

// fetchTrendsByKey 按监控项键为本次运行的全部主机取趋势并聚合
func fetchTrendsByKey(ctx context.Context, g *Generator, key string, unitFactor float64, invert bool, agg string) ([]TrendRow, error) {
	hosts := g.cache.Hosts()
	items, err := g.gateway.GetItems(ctx, hostIDs(hosts), key, true, false)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar itens '%s': %w", key, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("nenhum item '%s' encontrado para os hosts deste grupo", key)
	}
	itemIDs := make([]string, 0, len(items))
	for _, item := range items {
		itemIDs = append(itemIDs, item.ItemID)
	}
	trends, err := g.gateway.GetTrends(ctx, itemIDs, g.period.Start, g.period.End)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar tendências de '%s': %w", key, err)
	}
	rows := processTrends(trends, items, hostNameMap(hosts), unitFactor, invert, agg)
	if len(rows) == 0 {
		return nil, fmt.Errorf("sem histórico de '%s' no período", key)
	}
	return rows, nil
}

// trendTable 趋势行的标准三列表格
func trendTable(rows []TrendRow, unit string, prec int) template.HTML {
	headers := []string{"Host", "Mínimo " + unit, "Média " + unit, "Máximo " + unit}
	body := make([][]template.HTML, 0, len(rows))
	for _, r := range rows {
		body = append(body, []template.HTML{
			render.Cell(r.Host),
			render.Cell(utils.DecimalComma(r.Min, prec)),
			render.Cell(utils.DecimalComma(r.Avg, prec)),
			render.Cell(utils.DecimalComma(r.Max, prec)),
		})
	}
	return render.Table(headers, body)
}

// trendChart 趋势行的分组柱状图；渲染不可用时静默丢图
func trendChart(ctx context.Context, g *Generator, title string, rows []TrendRow, unit string) template.HTML {
	categories := make([]string, 0, len(rows))
	minSeries := make([]float64, 0, len(rows))
	avgSeries := make([]float64, 0, len(rows))
	maxSeries := make([]float64, 0, len(rows))
	for _, r := range rows {
		categories = append(categories, r.Host)
		minSeries = append(minSeries, r.Min)
		avgSeries = append(avgSeries, r.Avg)
		maxSeries = append(maxSeries, r.Max)
	}
	return g.chart(ctx, title, map[string]interface{}{
		"type":       "multibar",
		"title":      title,
		"unit":       unit,
		"categories": categories,
		"series": []map[string]interface{}{
			{"name": "Mínimo", "data": minSeries},
			{"name": "Média", "data": avgSeries},
			{"name": "Máximo", "data": maxSeries},
		},
	})
}

// chart 提交图表配置；失败返回空片段，模块退化为纯表格
func (g *Generator) chart(ctx context.Context, title string, config map[string]interface{}) template.HTML {
	if g.svc.charts == nil {
		return ""
	}
	png, err := g.svc.charts.RenderPNG(ctx, config)
	if err != nil {
		slog.Debug("图表渲染不可用，模块退化为表格", "task_id", g.taskID, "chart", title, "err", err)
		return ""
	}
	return render.ChartImage(base64.StdEncoding.EncodeToString(png), title)
}

// containsFold 大小写不敏感的子串判断
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// moduleTitle 模块标题，空标题回退到类型默认文案
func moduleTitle(mod ModuleConfig, fallback string) string {
	if mod.Title != "" {
		return mod.Title
	}
	return fallback
}
