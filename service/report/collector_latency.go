/*
 * @module service/report/collector_latency
 * @description 延迟与丢包模块：icmppingsec（秒→毫秒）与 icmppingloss，两模块共享一次采集
 * @architecture 采集器 - 共享数据包路径；延迟/丢包同键缓存，网关往返最多一次
 * @documentReference ai_docs/report_platform_req.md §4.8, §5
 * @stateFlow 键匹配 -> 趋势 -> 均值聚合 -> 单位换算 -> 表格+图表
 * @rules 延迟 ×1000 换算为毫秒；丢包直接为百分比
 * @dependencies reporthub-service/service/render
 * @refs service/report/cache.go
 */

package report

import (
	"context"
	"fmt"
	"html/template"

	"reporthub-service/service/render"
)

func collectLatency(ctx context.Context, g *Generator, mod ModuleConfig) (template.HTML, error) {
	bundle, err := g.latencyLossBundle(ctx)
	if err != nil {
		return "", err
	}
	if len(bundle.Latency) == 0 {
		return "", fmt.Errorf("sem dados de latência no período")
	}
	title := moduleTitle(mod, "Latência (ICMP)")
	body := trendChart(ctx, g, title, bundle.Latency, "ms") + trendTable(bundle.Latency, "(ms)", 2)
	return render.Section(title, body), nil
}

func collectLoss(ctx context.Context, g *Generator, mod ModuleConfig) (template.HTML, error) {
	bundle, err := g.latencyLossBundle(ctx)
	if err != nil {
		return "", err
	}
	if len(bundle.Loss) == 0 {
		return "", fmt.Errorf("sem dados de perda de pacotes no período")
	}
	title := moduleTitle(mod, "Perda de Pacotes (ICMP)")
	body := trendChart(ctx, g, title, bundle.Loss, "%") + trendTable(bundle.Loss, "(%)", 2)
	return render.Section(title, body), nil
}

// latencyLossBundle 延迟/丢包共享采集，运行级缓存
// 任一键缺失不拖垮数据包，两键都为空才算失败；各模块对自己的空集单独报错
func (g *Generator) latencyLossBundle(ctx context.Context) (*LatencyLossBundle, error) {
	return g.cache.LatencyLoss(func() (*LatencyLossBundle, error) {
		latency, err := fetchTrendsByKeyOptional(ctx, g, "icmppingsec", 1000, AggMean)
		if err != nil {
			return nil, err
		}
		loss, err := fetchTrendsByKeyOptional(ctx, g, "icmppingloss", 1, AggMean)
		if err != nil {
			return nil, err
		}
		if len(latency) == 0 && len(loss) == 0 {
			return nil, fmt.Errorf("nenhum item de latência ('icmppingsec') ou perda ('icmppingloss') encontrado")
		}
		return &LatencyLossBundle{Latency: latency, Loss: loss}, nil
	})
}

// fetchTrendsByKeyOptional 键无匹配项或无历史返回空集；仅网关错误上浮
func fetchTrendsByKeyOptional(ctx context.Context, g *Generator, key string, unitFactor float64, agg string) ([]TrendRow, error) {
	hosts := g.cache.Hosts()
	items, err := g.gateway.GetItems(ctx, hostIDs(hosts), key, true, false)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar itens '%s': %w", key, err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	itemIDs := make([]string, 0, len(items))
	for _, item := range items {
		itemIDs = append(itemIDs, item.ItemID)
	}
	trends, err := g.gateway.GetTrends(ctx, itemIDs, g.period.Start, g.period.End)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar tendências de '%s': %w", key, err)
	}
	return processTrends(trends, items, hostNameMap(hosts), unitFactor, false, agg), nil
}
