/*
 * @module service/report/collector_availability
 * @description 可用性族模块：SLA 表、KPI 卡片、问题主机排行、高频问题排行、严重度/每日压力视图
 * @architecture 采集器 - 全部消费共享可用性数据包，模块间零额外网关往返
 * @documentReference ai_docs/report_platform_req.md §4.8, §3.8
 * @stateFlow 共享数据包 -> 各模块独立视图
 * @rules SLA 低于合同目标的行高亮；上月对比缺数为软降级，列留空
 * @dependencies github.com/spf13/cast, reporthub-service/service/render
 * @refs service/report/availability.go
 */

package report

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cast"

	"reporthub-service/service/render"
	"reporthub-service/service/utils"
)

// severityOrder 严重度展示顺序与 Zabbix 标准配色
var severityOrder = []struct {
	Name  string
	Color string
}{
	{"Desastre", "#E45959"},
	{"Alta", "#E97659"},
	{"Média", "#FFA059"},
	{"Atenção", "#FFC859"},
	{"Informação", "#7499FF"},
	{"Não Classificado", "#97AAB3"},
}

func collectSLA(ctx context.Context, g *Generator, mod ModuleConfig) (template.HTML, error) {
	bundle, err := g.availability(ctx)
	if err != nil {
		return "", err
	}
	rows := bundle.SLARows

	comparePrev := cast.ToBool(mod.CustomOptions["compare_to_previous_month"])
	if comparePrev {
		prevRows, err := g.prevMonthSLA(ctx)
		if err != nil {
			// 上月缺数不阻断本月表格
			slog.Warn("上月 SLA 对比不可用", "task_id", g.taskID, "err", err)
			comparePrev = false
		} else {
			prevByHost := make(map[string]float64, len(prevRows))
			for _, r := range prevRows {
				prevByHost[r.Host] = r.SLA
			}
			for i := range rows {
				if prev, ok := prevByHost[rows[i].Host]; ok {
					v := prev
					rows[i].PrevSLA = &v
				}
			}
		}
	}

	headers := []string{"Host", "Endereço IP", "Tempo Indisponível", "SLA (%)"}
	if comparePrev {
		headers = append(headers, "SLA Mês Anterior (%)")
	}
	body := make([][]template.HTML, 0, len(rows))
	for _, r := range rows {
		slaClass := "sla-ok"
		if r.SLA < g.client.SLAContract {
			slaClass = "sla-breach"
		}
		cells := []template.HTML{
			render.Cell(r.Host),
			render.Cell(r.IP),
			render.Cell(r.Downtime),
			render.CellClass(slaClass, utils.DecimalComma(r.SLA, 2)),
		}
		if comparePrev {
			if r.PrevSLA != nil {
				cells = append(cells, render.Cell(utils.DecimalComma(*r.PrevSLA, 2)))
			} else {
				cells = append(cells, render.Cell("—"))
			}
		}
		body = append(body, cells)
	}

	title := moduleTitle(mod, "Disponibilidade (SLA)")
	meta := template.HTML(fmt.Sprintf(`<p class="sla-meta">Meta contratual: <strong>%s%%</strong> — %d hosts monitorados por PING</p>`,
		utils.DecimalComma(g.client.SLAContract, 2), bundle.HostsWithPing))
	return render.Section(title, meta+render.Table(headers, body)), nil
}

func collectKPI(ctx context.Context, g *Generator, mod ModuleConfig) (template.HTML, error) {
	bundle, err := g.availability(ctx)
	if err != nil {
		return "", err
	}
	views := make([]render.KPIView, 0, len(bundle.KPIs))
	for _, k := range bundle.KPIs {
		views = append(views, render.KPIView{
			Label:    k.Label,
			Value:    k.Value,
			Sublabel: k.Sublabel,
			Status:   k.Status,
			Trend:    k.Trend,
		})
	}
	title := moduleTitle(mod, "Indicadores do Mês")
	return render.Section(title, render.KPICards(views)), nil
}

func collectTopHosts(ctx context.Context, g *Generator, mod ModuleConfig) (template.HTML, error) {
	bundle, err := g.availability(ctx)
	if err != nil {
		return "", err
	}
	limit := cast.ToInt(mod.CustomOptions["limit"])
	if limit <= 0 {
		limit = 10
	}

	type hostStats struct {
		name        string
		total       int
		topProblem  string
		topProbHits int
		problems    map[string]int
	}
	byHost := make(map[string]*hostStats)
	for _, r := range bundle.Incidents {
		st, ok := byHost[r.Host]
		if !ok {
			st = &hostStats{name: r.Host, problems: make(map[string]int)}
			byHost[r.Host] = st
		}
		st.total += r.Count
		st.problems[r.Problem] += r.Count
		if st.problems[r.Problem] > st.topProbHits {
			st.topProbHits = st.problems[r.Problem]
			st.topProblem = r.Problem
		}
	}
	ranked := make([]*hostStats, 0, len(byHost))
	for _, st := range byHost {
		ranked = append(ranked, st)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].total != ranked[j].total {
			return ranked[i].total > ranked[j].total
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	categories := make([]string, 0, len(ranked))
	series := make([]float64, 0, len(ranked))
	body := make([][]template.HTML, 0, len(ranked))
	for i, st := range ranked {
		categories = append(categories, st.name)
		series = append(series, float64(st.total))
		body = append(body, []template.HTML{
			render.Cell(strconv.Itoa(i + 1)),
			render.Cell(st.name),
			render.Cell(strconv.Itoa(st.total)),
			render.Cell(st.topProblem),
		})
	}

	title := moduleTitle(mod, fmt.Sprintf("Top %d Hosts com Mais Incidentes", limit))
	chart := g.chart(ctx, title, map[string]interface{}{
		"type":       "hbar",
		"title":      title,
		"categories": categories,
		"series": []map[string]interface{}{
			{"name": "Incidentes", "data": series},
		},
	})
	headers := []string{"#", "Host", "Incidentes", "Problema Mais Frequente"}
	return render.Section(title, chart+render.Table(headers, body)), nil
}

func collectTopProblems(ctx context.Context, g *Generator, mod ModuleConfig) (template.HTML, error) {
	bundle, err := g.availability(ctx)
	if err != nil {
		return "", err
	}
	limit := cast.ToInt(mod.CustomOptions["limit"])
	if limit <= 0 {
		limit = 10
	}

	type problemStats struct {
		name  string
		total int
		hosts map[string]bool
	}
	byProblem := make(map[string]*problemStats)
	for _, r := range bundle.Incidents {
		st, ok := byProblem[r.Problem]
		if !ok {
			st = &problemStats{name: r.Problem, hosts: make(map[string]bool)}
			byProblem[r.Problem] = st
		}
		st.total += r.Count
		st.hosts[r.Host] = true
	}
	ranked := make([]*problemStats, 0, len(byProblem))
	for _, st := range byProblem {
		ranked = append(ranked, st)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].total != ranked[j].total {
			return ranked[i].total > ranked[j].total
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	body := make([][]template.HTML, 0, len(ranked))
	for i, st := range ranked {
		body = append(body, []template.HTML{
			render.Cell(strconv.Itoa(i + 1)),
			render.Cell(st.name),
			render.Cell(strconv.Itoa(st.total)),
			render.Cell(strconv.Itoa(len(st.hosts))),
		})
	}
	title := moduleTitle(mod, fmt.Sprintf("Top %d Problemas Mais Frequentes", limit))
	headers := []string{"#", "Problema", "Ocorrências", "Hosts Afetados"}
	return render.Section(title, render.Table(headers, body)), nil
}

func collectStress(ctx context.Context, g *Generator, mod ModuleConfig) (template.HTML, error) {
	bundle, err := g.availability(ctx)
	if err != nil {
		return "", err
	}

	// 严重度直方图
	totalBySeverity := 0
	for _, count := range bundle.SeverityCounts {
		totalBySeverity += count
	}
	bars := make([]render.BarItem, 0, len(severityOrder))
	for _, sev := range severityOrder {
		count := bundle.SeverityCounts[sev.Name]
		percent := 0.0
		if totalBySeverity > 0 {
			percent = float64(count) / float64(totalBySeverity) * 100.0
		}
		bars = append(bars, render.BarItem{Label: sev.Name, Count: count, Percent: percent, Color: sev.Color})
	}

	// 整月每日事件时间线（含零事件日）
	start := time.Unix(g.period.Start, 0)
	end := time.Unix(g.period.End, 0)
	perDay := make(map[int]int)
	for _, r := range bundle.Incidents {
		day := time.Unix(r.Clock, 0).Day()
		perDay[day] += r.Count
	}
	maxDay := 0
	for _, count := range perDay {
		if count > maxDay {
			maxDay = count
		}
	}
	timeline := make([]render.BarItem, 0, end.Day())
	for day := start.Day(); day <= end.Day(); day++ {
		count := perDay[day]
		percent := 0.0
		if maxDay > 0 {
			percent = float64(count) / float64(maxDay) * 100.0
		}
		timeline = append(timeline, render.BarItem{
			Label:   fmt.Sprintf("Dia %02d", day),
			Count:   count,
			Percent: percent,
			Color:   "#3498db",
		})
	}

	title := moduleTitle(mod, "Estresse da Infraestrutura")
	severityBlock := template.HTML(`<h3 class="module-subtitle">Incidentes por Severidade</h3>`) + render.Bars(bars)
	timelineBlock := template.HTML(`<h3 class="module-subtitle">Incidentes por Dia do Mês</h3>`) + render.Bars(timeline)
	return render.Section(title, severityBlock+timelineBlock), nil
}
