/*
 * @module service/report/trends
 * @description 趋势聚合器：把网关预聚合的时间桶按主机归并为 Min/Avg/Max
 * @architecture 分层架构 - 领域逻辑层，纯函数
 * @documentReference ai_docs/report_platform_req.md §4.5
 * @stateFlow 样本 -> 映射到主机 -> 按主机归并 -> 取补/单位换算
 * @rules 各桶的 min/max 本身已是预聚合值，这里对它们再取均值是对上游行为的刻意保留，
 *        不是对真实极值的精确计算；取补时必须交换 min/max
 * @dependencies strconv, sort
 * @refs service/report/collector_cpu.go, service/report/keyresolver.go
 */

package report

import (
	"sort"
	"strconv"

	"reporthub-service/zabbix_client"
)

// 聚合方式
const (
	// AggMean 桶间取均值（默认）
	AggMean = "mean"
	// AggSum 桶间求和（同一主机多接口流量叠加）
	AggSum = "sum"
	// AggExtreme 桶间取真实极值，均值仍为桶均值的均值（峰值类指标）
	AggExtreme = "extreme"
)

type trendAccumulator struct {
	sumMin, sumAvg, sumMax float64
	minMin, maxMax         float64
	count                  int64
}

// processTrends 把趋势样本归并为每主机一行的 Min/Avg/Max
// unitFactor 在取补之后应用；invert 用于仅有补值指标的场景（如"可用百分比"）
func processTrends(trends []zabbix_client.Trend, items []zabbix_client.Item, hostMap map[string]string, unitFactor float64, invert bool, agg string) []TrendRow {
	if len(trends) == 0 {
		return []TrendRow{}
	}

	itemToHost := make(map[string]string, len(items))
	for _, item := range items {
		itemToHost[item.ItemID] = item.HostID
	}

	accs := make(map[string]*trendAccumulator)
	for _, t := range trends {
		hostID, ok := itemToHost[t.ItemID]
		if !ok {
			continue
		}
		vMin, err1 := strconv.ParseFloat(t.ValueMin, 64)
		vAvg, err2 := strconv.ParseFloat(t.ValueAvg, 64)
		vMax, err3 := strconv.ParseFloat(t.ValueMax, 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		acc, ok := accs[hostID]
		if !ok {
			acc = &trendAccumulator{minMin: vMin, maxMax: vMax}
			accs[hostID] = acc
		}
		acc.sumMin += vMin
		acc.sumAvg += vAvg
		acc.sumMax += vMax
		if vMin < acc.minMin {
			acc.minMin = vMin
		}
		if vMax > acc.maxMax {
			acc.maxMax = vMax
		}
		acc.count++
	}

	rows := make([]TrendRow, 0, len(accs))
	for hostID, acc := range accs {
		var minV, avgV, maxV float64
		switch agg {
		case AggSum:
			minV, avgV, maxV = acc.sumMin, acc.sumAvg, acc.sumMax
		case AggExtreme:
			minV, maxV = acc.minMin, acc.maxMax
			avgV = acc.sumAvg / float64(acc.count)
		default:
			minV = acc.sumMin / float64(acc.count)
			avgV = acc.sumAvg / float64(acc.count)
			maxV = acc.sumMax / float64(acc.count)
		}

		if invert {
			// 取补必须交换极值：原最大对应新最小
			minV, maxV = 100-maxV, 100-minV
			avgV = 100 - avgV
		}

		rows = append(rows, TrendRow{
			HostID: hostID,
			Host:   hostMap[hostID],
			Min:    minV * unitFactor,
			Max:    maxV * unitFactor,
			Avg:    avgV * unitFactor,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Host < rows[j].Host
	})
	return rows
}
