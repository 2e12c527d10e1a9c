/*
 * @module service/report/collector_wifi
 * @description WiFi 客户端数模块：wifi_clients 键档案取数，极值聚合，峰值/95 分位 KPI
 * @architecture 采集器 - 解析器路径 + 极值聚合；图表类型可由 custom_options 切换
 * @documentReference ai_docs/report_platform_req.md §4.8
 * @stateFlow 档案加载 -> 趋势极值聚合 -> KPI -> 表格+图表
 * @rules 峰值取各主机最大值的最大值；95 分位在各主机峰值分布上计算
 * @dependencies github.com/spf13/cast, reporthub-service/service/render
 * @refs service/report/keyresolver.go
 */

package report

import (
	"context"
	"html/template"
	"math"
	"sort"
	"strconv"

	"github.com/spf13/cast"

	"reporthub-service/service/render"
	"reporthub-service/service/utils"
)

func collectWifi(ctx context.Context, g *Generator, mod ModuleConfig) (template.HTML, error) {
	rows, err := g.resolver.ResolveTrends(ctx, g.cache.Hosts(), "wifi_clients", g.period, 1, AggExtreme)
	if err != nil {
		return "", err
	}

	peak := 0.0
	peaks := make([]float64, 0, len(rows))
	for _, r := range rows {
		peaks = append(peaks, r.Max)
		if r.Max > peak {
			peak = r.Max
		}
	}
	p95 := percentile(peaks, 95)

	kpis := render.KPICards([]render.KPIView{
		{Label: "Pico de Clientes Conectados", Value: strconv.Itoa(int(math.Round(peak))), Sublabel: "Maior valor registrado no mês", Status: "info"},
		{Label: "Percentil 95 dos Picos", Value: strconv.Itoa(int(math.Round(p95))), Sublabel: "Entre os picos por ponto de acesso", Status: "info"},
		{Label: "Pontos de Acesso", Value: strconv.Itoa(len(rows)), Sublabel: "Com dados no período", Status: "info"},
	})

	title := moduleTitle(mod, "Clientes WiFi Conectados")
	chartType := cast.ToString(mod.CustomOptions["chart_type"])
	if chartType == "" {
		chartType = "bar"
	}
	categories := make([]string, 0, len(rows))
	series := make([]float64, 0, len(rows))
	for _, r := range rows {
		categories = append(categories, r.Host)
		series = append(series, r.Max)
	}
	chart := g.chart(ctx, title, map[string]interface{}{
		"type":       chartType,
		"title":      title,
		"categories": categories,
		"series": []map[string]interface{}{
			{"name": "Pico de clientes", "data": series},
		},
	})

	headers := []string{"Ponto de Acesso", "Mínimo", "Média", "Pico"}
	body := make([][]template.HTML, 0, len(rows))
	for _, r := range rows {
		body = append(body, []template.HTML{
			render.Cell(r.Host),
			render.Cell(utils.DecimalComma(r.Min, 0)),
			render.Cell(utils.DecimalComma(r.Avg, 1)),
			render.Cell(utils.DecimalComma(r.Max, 0)),
		})
	}
	return render.Section(title, kpis+chart+render.Table(headers, body)), nil
}

// percentile 最近秩法分位数；空集返回 0
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	rank := int(math.Ceil(p/100.0*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
