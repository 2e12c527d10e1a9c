/*
 * @module service/report/keyresolver
 * @description 指标键解析器：按优先级升序尝试键档案，主机命中即停，支持 DIRECT/INVERSE 换算
 * @architecture 分层架构 - 领域逻辑层；档案来自数据库，可运行时增改而无需改代码
 * @documentReference ai_docs/report_platform_req.md §4.6
 * @stateFlow 加载活跃档案 -> 逐档案匹配未覆盖主机 -> 批量拉趋势 -> 按档案方向换算 -> 合并
 * @rules 同一主机只被首个命中档案覆盖；覆盖主机数为 0 返回软错误而非硬失败；
 *        换算方向属于命中档案，不属于指标类型
 * @dependencies gorm.io/gorm, reporthub-service/service/models
 * @refs service/report/collector_mem.go, service/report/collector_wifi.go
 */

package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gorm.io/gorm"

	"reporthub-service/service/models"
	"reporthub-service/zabbix_client"
)

// KeyResolver 依据数据库中的键档案为主机解析监控项并聚合趋势
type KeyResolver struct {
	db *gorm.DB
	gw Gateway
}

// NewKeyResolver 创建解析器
func NewKeyResolver(db *gorm.DB, gw Gateway) *KeyResolver {
	return &KeyResolver{db: db, gw: gw}
}

// ResolveTrends 为一组主机解析 metricType 的趋势数据
// unitFactor 作用于换算之后；返回的软错误文案用于模块内联提示
func (r *KeyResolver) ResolveTrends(ctx context.Context, hosts []zabbix_client.Host, metricType string, period Period, unitFactor float64, agg string) ([]TrendRow, error) {
	var profiles []models.MetricKeyProfile
	if err := r.db.Where("metric_type = ? AND is_active = ?", metricType, true).
		Order("priority asc").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("falha ao carregar perfis de chave para '%s': %w", metricType, err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("nenhum perfil de chave ativo configurado para a métrica '%s'", metricType)
	}

	hostMap := hostNameMap(hosts)
	remaining := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		remaining[h.HostID] = true
	}

	var allRows []TrendRow
	for _, profile := range profiles {
		if len(remaining) == 0 {
			break
		}
		remainingIDs := make([]string, 0, len(remaining))
		for id := range remaining {
			remainingIDs = append(remainingIDs, id)
		}
		sort.Strings(remainingIDs)

		items, err := r.gw.GetItems(ctx, remainingIDs, profile.KeyString, true, false)
		if err != nil {
			return nil, fmt.Errorf("falha ao buscar itens com a chave '%s': %w", profile.KeyString, err)
		}
		if len(items) == 0 {
			continue
		}

		// 同一主机可能有多个同键项，覆盖判定以主机为粒度
		// 趋势按档案分批拉取：覆盖以本档案实际产出的行为准，
		// 主机有项但无历史时仍落入次选档案，末尾合并批量取会丢掉这层回退
		itemIDs := make([]string, 0, len(items))
		for _, item := range items {
			itemIDs = append(itemIDs, item.ItemID)
		}
		trends, err := r.gw.GetTrends(ctx, itemIDs, period.Start, period.End)
		if err != nil {
			return nil, fmt.Errorf("falha ao buscar tendências com a chave '%s': %w", profile.KeyString, err)
		}

		rows := processTrends(trends, items, hostMap, unitFactor, profile.CalculationType == models.CalculationInverse, agg)
		for _, row := range rows {
			delete(remaining, row.HostID)
		}
		allRows = append(allRows, rows...)
		slog.Debug("键档案命中",
			"metric_type", metricType,
			"key", profile.KeyString,
			"priority", profile.Priority,
			"hosts", len(rows))
	}

	if len(allRows) == 0 {
		return nil, fmt.Errorf("nenhum dado de '%s' encontrado para os hosts deste grupo (perfis tentados: %d)", metricType, len(profiles))
	}

	sort.SliceStable(allRows, func(i, j int) bool {
		return allRows[i].Host < allRows[j].Host
	})
	return allRows, nil
}
