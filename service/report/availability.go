/*
 * @module service/report/availability
 * @description 可用性计算：问题/恢复事件配对、停机时长归集、SLA 百分比与 KPI 卡片、严重度直方图
 * @architecture 分层架构 - 领域逻辑层；共享数据包由编排器按需触发，每次运行最多一次
 * @documentReference ai_docs/report_platform_req.md §4.3, §4.4, §4.7
 * @stateFlow ping 项 -> 触发器 -> 事件 -> 问题过滤 -> 关联配对 -> SLA -> KPI/严重度
 * @rules 恢复时刻早于问题时刻视为停机 0 秒；无主机归属的事件计入全局总量但不计入任何主机；
 *        SLA 下限钳制为 0，绝不为负
 * @dependencies reporthub-service/zabbix_client, reporthub-service/service/utils
 * @refs service/report/generator.go, service/report/collector_sla.go
 */

package report

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"reporthub-service/service/utils"
	"reporthub-service/zabbix_client"
)

// severityNames Zabbix 严重度到展示名的映射（报表产品语言为 pt-BR）
var severityNames = map[string]string{
	"0": "Não Classificado",
	"1": "Informação",
	"2": "Atenção",
	"3": "Média",
	"4": "Alta",
	"5": "Desastre",
}

// correlateProblems 把问题事件与其恢复事件配对，得出每次故障的停机时长
func correlateProblems(problems, allEvents []zabbix_client.Event) []CorrelatedIncident {
	resolutions := make(map[string]zabbix_client.Event)
	for _, e := range allEvents {
		if e.Source == "0" && e.Value == "0" {
			resolutions[e.EventID] = e
		}
	}

	incidents := make([]CorrelatedIncident, 0, len(problems))
	for _, p := range problems {
		var duration int64
		if p.REventID != "" && p.REventID != "0" {
			if res, ok := resolutions[p.REventID]; ok {
				pClock := eventClock(p)
				rClock := eventClock(res)
				if rClock >= pClock {
					duration = rClock - pClock
				}
			}
		}
		hostID := ""
		if len(p.Hosts) > 0 {
			hostID = p.Hosts[0].HostID
		}
		incidents = append(incidents, CorrelatedIncident{HostID: hostID, DurationSeconds: duration})
	}
	return incidents
}

// calculateSLA 把每主机停机总量换算为可用性百分比
// 周期长度非正时返回空结果（退化输入，不做除零）
func calculateSLA(incidents []CorrelatedIncident, hosts []zabbix_client.Host, period Period) []SLARow {
	periodSeconds := period.Seconds()
	if periodSeconds <= 0 {
		return []SLARow{}
	}

	downtimeByHost := make(map[string]int64, len(hosts))
	for _, h := range hosts {
		downtimeByHost[h.HostID] = 0
	}
	for _, inc := range incidents {
		if _, ok := downtimeByHost[inc.HostID]; ok {
			downtimeByHost[inc.HostID] += inc.DurationSeconds
		}
	}

	rows := make([]SLARow, 0, len(hosts))
	for _, h := range hosts {
		downtime := downtimeByHost[h.HostID]
		sla := 100.0 - float64(downtime)/float64(periodSeconds)*100.0
		if sla < 0 {
			sla = 0
		}
		rows = append(rows, SLARow{
			Host:            h.DisplayName,
			IP:              h.IP,
			DowntimeSeconds: downtime,
			Downtime:        FormatDowntime(downtime),
			SLA:             sla,
		})
	}
	return rows
}

// countProblemsByHost 把问题事件归一化为 (主机, 问题, 时刻) 的发生记录
// 无法归属到已知主机的事件被跳过；结果按时刻、主机升序
func countProblemsByHost(problems []zabbix_client.Event, hosts []zabbix_client.Host) []IncidentRow {
	hostNames := make(map[string]string, len(hosts))
	for _, h := range hosts {
		hostNames[h.HostID] = h.DisplayName
	}

	type incidentKey struct {
		host    string
		problem string
		clock   int64
	}
	counts := make(map[incidentKey]int)
	for _, p := range problems {
		if p.Object != "0" || len(p.Hosts) == 0 {
			continue
		}
		name, ok := hostNames[p.Hosts[0].HostID]
		if !ok {
			continue
		}
		key := incidentKey{host: name, problem: zabbix_client.NormalizeName(p.Name), clock: eventClock(p)}
		counts[key]++
	}

	rows := make([]IncidentRow, 0, len(counts))
	for key, count := range counts {
		rows = append(rows, IncidentRow{Host: key.host, Problem: key.problem, Clock: key.clock, Count: count})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Clock != rows[j].Clock {
			return rows[i].Clock < rows[j].Clock
		}
		return rows[i].Host < rows[j].Host
	})
	return rows
}

// averageSLA SLA 行的算术平均；空表视作 100%
func averageSLA(rows []SLARow) float64 {
	if len(rows) == 0 {
		return 100.0
	}
	var sum float64
	for _, r := range rows {
		sum += r.SLA
	}
	return sum / float64(len(rows))
}

// topOffender 发生次数最多的主机名
func topOffender(incidents []IncidentRow) string {
	totals := make(map[string]int)
	for _, r := range incidents {
		totals[r.Host] += r.Count
	}
	best := "Nenhum"
	bestCount := 0
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if totals[name] > bestCount {
			best, bestCount = name, totals[name]
		}
	}
	return best
}

// collectAvailability 采集共享可用性数据包
// trendsOnly=true 仅计算 SLA 表（用于上月对比），跳过事件总量/KPI/严重度
func (g *Generator) collectAvailability(ctx context.Context, allHosts []zabbix_client.Host, period Period, slaGoal float64, trendsOnly bool) (*AvailabilityBundle, error) {
	allHostIDs := hostIDs(allHosts)

	pingItems, err := g.gateway.GetItems(ctx, allHostIDs, "icmpping", true, false)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar itens de PING: %w", err)
	}
	if len(pingItems) == 0 {
		return nil, fmt.Errorf("nenhum item de monitoramento de PING ('icmpping') encontrado")
	}

	hostsWithPing := make(map[string]bool, len(pingItems))
	triggerSet := make(map[string]bool)
	for _, item := range pingItems {
		hostsWithPing[item.HostID] = true
		for _, t := range item.Triggers {
			triggerSet[t.TriggerID] = true
		}
	}
	hostsForSLA := make([]zabbix_client.Host, 0, len(allHosts))
	for _, h := range allHosts {
		if hostsWithPing[h.HostID] {
			hostsForSLA = append(hostsForSLA, h)
		}
	}
	if len(hostsForSLA) == 0 {
		return nil, fmt.Errorf("nenhum dos hosts deste grupo tem um item de PING para calcular o SLA")
	}
	if len(triggerSet) == 0 {
		return nil, fmt.Errorf("nenhum gatilho (trigger) de PING encontrado para os itens deste grupo")
	}
	triggerIDs := make([]string, 0, len(triggerSet))
	for id := range triggerSet {
		triggerIDs = append(triggerIDs, id)
	}
	sort.Strings(triggerIDs)

	pingEvents, err := CollectEvents(ctx, g.gateway, triggerIDs, period, zabbix_client.IDTypeObjects)
	if err != nil {
		return nil, fmt.Errorf("falha na coleta de eventos de PING: %w", err)
	}
	pingProblems := filterProblems(pingEvents)
	slaRows := calculateSLA(correlateProblems(pingProblems, pingEvents), hostsForSLA, period)

	bundle := &AvailabilityBundle{
		SLARows:       slaRows,
		HostsWithPing: len(hostsForSLA),
	}
	if trendsOnly {
		return bundle, nil
	}

	g.updateStatus("Coletando eventos gerais do grupo…")
	allGroupEvents, err := CollectEvents(ctx, g.gateway, allHostIDs, period, zabbix_client.IDTypeHosts)
	if err != nil {
		return nil, fmt.Errorf("falha na coleta de eventos gerais do grupo: %w", err)
	}
	allProblems := filterProblems(allGroupEvents)
	bundle.Incidents = countProblemsByHost(allProblems, allHosts)

	g.updateStatus("Calculando tendências de KPIs…")
	prevPeriod := PreviousPeriod(period)
	prevAvgSLA := 100.0
	if prevPingEvents, err := CollectEvents(ctx, g.gateway, triggerIDs, prevPeriod, zabbix_client.IDTypeObjects); err == nil && len(prevPingEvents) > 0 {
		prevProblems := filterProblems(prevPingEvents)
		prevRows := calculateSLA(correlateProblems(prevProblems, prevPingEvents), hostsForSLA, prevPeriod)
		if len(prevRows) > 0 {
			prevAvgSLA = averageSLA(prevRows)
		}
	}

	prevProblemCount := 0
	if prevAllEvents, err := CollectEvents(ctx, g.gateway, allHostIDs, prevPeriod, zabbix_client.IDTypeHosts); err == nil {
		prevProblemCount = len(filterProblems(prevAllEvents))
	}

	bundle.KPIs = buildKPIs(slaRows, bundle.Incidents, slaGoal, len(hostsForSLA), len(allProblems), prevAvgSLA, prevProblemCount)

	g.updateStatus("Classificando incidentes por severidade…")
	severityCounts := make(map[string]int)
	for _, p := range allProblems {
		name, ok := severityNames[p.Severity]
		if !ok {
			name = "Desconhecido"
		}
		severityCounts[name]++
	}
	bundle.SeverityCounts = severityCounts

	return bundle, nil
}

// buildKPIs 组装可用性 KPI 卡片
func buildKPIs(slaRows []SLARow, incidents []IncidentRow, slaGoal float64, hostsWithPing, totalProblems int, prevAvgSLA float64, prevProblemCount int) []KPICard {
	avgSLA := averageSLA(slaRows)

	slaTrend := "stable"
	if avgSLA > prevAvgSLA {
		slaTrend = "up"
	} else if avgSLA < prevAvgSLA {
		slaTrend = "down"
	}

	incidentsTrend := "stable"
	if totalProblems < prevProblemCount {
		incidentsTrend = "up"
	} else if totalProblems > prevProblemCount {
		incidentsTrend = "down"
	}

	belowTarget := 0
	for _, r := range slaRows {
		if r.SLA < 99.9 {
			belowTarget++
		}
	}

	slaStatus := "nao-atingido"
	if avgSLA >= slaGoal {
		slaStatus = "atingido"
	}
	belowStatus := "ok"
	if belowTarget > 0 {
		belowStatus = "critico"
	}

	return []KPICard{
		{
			Label:    fmt.Sprintf("Média de SLA (%d Hosts)", hostsWithPing),
			Value:    utils.DecimalComma(avgSLA, 2) + "%",
			Sublabel: "Meta: " + utils.DecimalComma(slaGoal, 2) + "%",
			Status:   slaStatus,
			Trend:    slaTrend,
		},
		{
			Label:    "Hosts com SLA < 99.9%",
			Value:    strconv.Itoa(belowTarget),
			Sublabel: fmt.Sprintf("De um total de %d hosts", hostsWithPing),
			Status:   belowStatus,
		},
		{
			Label:    "Total de Incidentes",
			Value:    strconv.Itoa(totalProblems),
			Sublabel: "Eventos de problema registrados",
			Status:   "info",
			Trend:    incidentsTrend,
		},
		{
			Label:    "Principal Ofensor",
			Value:    topOffender(incidents),
			Sublabel: "Host com mais incidentes",
			Status:   "info",
		},
	}
}

func hostIDs(hosts []zabbix_client.Host) []string {
	ids := make([]string, 0, len(hosts))
	for _, h := range hosts {
		ids = append(ids, h.HostID)
	}
	return ids
}

func hostNameMap(hosts []zabbix_client.Host) map[string]string {
	m := make(map[string]string, len(hosts))
	for _, h := range hosts {
		m[h.HostID] = h.DisplayName
	}
	return m
}
