/*
 * @module service/report/collector_disk
 * @description 磁盘使用率模块：vfs.fs.size[*,pused] 按文件系统聚合，每主机取占用最高的文件系统
 * @architecture 采集器 - 项级聚合（不合并同主机多项），最差文件系统代表主机
 * @documentReference ai_docs/report_platform_req.md §4.8
 * @stateFlow 键匹配 -> 过滤 pused 项 -> 逐项聚合 -> 每主机取最大均值项 -> 表格+图表
 * @rules 表格主机列带文件系统标注，形如 "srv-01 (/var)"
 * @dependencies reporthub-service/service/render
 * @refs service/report/collector.go
 */

package report

import (
	"context"
	"fmt"
	"html/template"
	"sort"
	"strconv"
	"strings"

	"reporthub-service/service/render"
)

func collectDisk(ctx context.Context, g *Generator, mod ModuleConfig) (template.HTML, error) {
	hosts := g.cache.Hosts()
	items, err := g.gateway.GetItems(ctx, hostIDs(hosts), "vfs.fs.size", true, false)
	if err != nil {
		return "", fmt.Errorf("falha ao buscar itens de disco: %w", err)
	}
	pusedItems := items[:0:0]
	for _, item := range items {
		if strings.Contains(item.Key, ",pused") {
			pusedItems = append(pusedItems, item)
		}
	}
	if len(pusedItems) == 0 {
		return "", fmt.Errorf("nenhum item de uso de disco (',pused') encontrado para os hosts deste grupo")
	}

	itemIDs := make([]string, 0, len(pusedItems))
	itemHost := make(map[string]string, len(pusedItems))
	itemFS := make(map[string]string, len(pusedItems))
	for _, item := range pusedItems {
		itemIDs = append(itemIDs, item.ItemID)
		itemHost[item.ItemID] = item.HostID
		itemFS[item.ItemID] = filesystemFromKey(item.Key)
	}
	trends, err := g.gateway.GetTrends(ctx, itemIDs, g.period.Start, g.period.End)
	if err != nil {
		return "", fmt.Errorf("falha ao buscar tendências de disco: %w", err)
	}

	// 逐项聚合：同一主机的多个文件系统不可混合
	type diskAcc struct {
		sumMin, sumAvg, sumMax float64
		count                  int64
	}
	accs := make(map[string]*diskAcc)
	for _, t := range trends {
		vMin, err1 := strconv.ParseFloat(t.ValueMin, 64)
		vAvg, err2 := strconv.ParseFloat(t.ValueAvg, 64)
		vMax, err3 := strconv.ParseFloat(t.ValueMax, 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		acc, ok := accs[t.ItemID]
		if !ok {
			acc = &diskAcc{}
			accs[t.ItemID] = acc
		}
		acc.sumMin += vMin
		acc.sumAvg += vAvg
		acc.sumMax += vMax
		acc.count++
	}
	if len(accs) == 0 {
		return "", fmt.Errorf("sem histórico de uso de disco no período")
	}

	// 每主机取均值占用最高的文件系统
	hostMap := hostNameMap(hosts)
	worst := make(map[string]TrendRow)
	for itemID, acc := range accs {
		hostID := itemHost[itemID]
		row := TrendRow{
			HostID: hostID,
			Host:   fmt.Sprintf("%s (%s)", hostMap[hostID], itemFS[itemID]),
			Min:    acc.sumMin / float64(acc.count),
			Avg:    acc.sumAvg / float64(acc.count),
			Max:    acc.sumMax / float64(acc.count),
		}
		if cur, ok := worst[hostID]; !ok || row.Avg > cur.Avg {
			worst[hostID] = row
		}
	}
	rows := make([]TrendRow, 0, len(worst))
	for _, row := range worst {
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Host < rows[j].Host
	})

	title := moduleTitle(mod, "Utilização de Disco")
	body := trendChart(ctx, g, title, rows, "%") + trendTable(rows, "(%)", 2)
	return render.Section(title, body), nil
}

// filesystemFromKey 从 vfs.fs.size[/var,pused] 提取文件系统名
func filesystemFromKey(key string) string {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key
	}
	params := strings.TrimSuffix(key[open+1:], "]")
	if comma := strings.IndexByte(params, ','); comma >= 0 {
		params = params[:comma]
	}
	if params == "" {
		return key
	}
	return params
}
