/*
 * @module service/report/collector_traffic
 * @description 网络流量模块：net.if.in / net.if.out，按接口过滤，同主机多接口求和，bps 换算为 Mbps
 * @architecture 采集器 - 进/出两个模块共享一次采集，结果按接口集合缓存
 * @documentReference ai_docs/report_platform_req.md §4.8, §5
 * @stateFlow 键匹配 -> 接口过滤 -> 求和聚合 -> ×8/1024² -> 表格+图表
 * @rules 接口过滤为键子串匹配；相同接口集合的进/出模块复用同一次网关往返
 * @dependencies reporthub-service/service/render
 * @refs service/report/cache.go
 */

package report

import (
	"context"
	"fmt"
	"html/template"

	"reporthub-service/service/render"
	"reporthub-service/zabbix_client"
)

// bytesToMbps 字节/秒 -> 兆比特/秒
const bytesToMbps = 8.0 / (1024.0 * 1024.0)

func collectTrafficIn(ctx context.Context, g *Generator, mod ModuleConfig) (template.HTML, error) {
	bundle, err := g.trafficBundle(ctx, mod.Interfaces)
	if err != nil {
		return "", err
	}
	if len(bundle.In) == 0 {
		return "", fmt.Errorf("sem dados de tráfego de entrada no período")
	}
	title := moduleTitle(mod, "Tráfego de Entrada")
	body := trendChart(ctx, g, title, bundle.In, "Mbps") + trendTable(bundle.In, "(Mbps)", 2)
	return render.Section(title, body), nil
}

func collectTrafficOut(ctx context.Context, g *Generator, mod ModuleConfig) (template.HTML, error) {
	bundle, err := g.trafficBundle(ctx, mod.Interfaces)
	if err != nil {
		return "", err
	}
	if len(bundle.Out) == 0 {
		return "", fmt.Errorf("sem dados de tráfego de saída no período")
	}
	title := moduleTitle(mod, "Tráfego de Saída")
	body := trendChart(ctx, g, title, bundle.Out, "Mbps") + trendTable(bundle.Out, "(Mbps)", 2)
	return render.Section(title, body), nil
}

// trafficBundle 进/出流量共享采集，按接口集合缓存
func (g *Generator) trafficBundle(ctx context.Context, interfaces []string) (*TrafficBundle, error) {
	return g.cache.Traffic(interfaces, func() (*TrafficBundle, error) {
		in, err := g.collectTrafficDirection(ctx, "net.if.in", interfaces)
		if err != nil {
			return nil, err
		}
		out, err := g.collectTrafficDirection(ctx, "net.if.out", interfaces)
		if err != nil {
			return nil, err
		}
		return &TrafficBundle{In: in, Out: out}, nil
	})
}

func (g *Generator) collectTrafficDirection(ctx context.Context, key string, interfaces []string) ([]TrendRow, error) {
	hosts := g.cache.Hosts()
	items, err := g.gateway.GetItems(ctx, hostIDs(hosts), key, true, false)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar itens '%s': %w", key, err)
	}
	items = filterByInterfaces(items, interfaces)
	if len(items) == 0 {
		return nil, fmt.Errorf("nenhum item '%s' encontrado para as interfaces selecionadas", key)
	}
	itemIDs := make([]string, 0, len(items))
	for _, item := range items {
		itemIDs = append(itemIDs, item.ItemID)
	}
	trends, err := g.gateway.GetTrends(ctx, itemIDs, g.period.Start, g.period.End)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar tendências de '%s': %w", key, err)
	}
	return processTrends(trends, items, hostNameMap(hosts), bytesToMbps, false, AggSum), nil
}

// filterByInterfaces 接口过滤：键包含任一接口名子串即保留；空过滤保留全部
func filterByInterfaces(items []zabbix_client.Item, interfaces []string) []zabbix_client.Item {
	if len(interfaces) == 0 {
		return items
	}
	filtered := items[:0:0]
	for _, item := range items {
		for _, iface := range interfaces {
			if iface != "" && containsFold(item.Key, iface) {
				filtered = append(filtered, item)
				break
			}
		}
	}
	return filtered
}
