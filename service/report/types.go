/*
 * @module service/report/types
 * @description 报表生成流水线的核心数据类型：周期、模块配置、网关接口、聚合结果与可用性数据包
 * @architecture 分层架构 - 领域类型层
 * @documentReference ai_docs/report_platform_req.md §3
 * @stateFlow 无状态数据结构
 * @rules Period 为半开闭区间 [Start, End]，End > Start；可用性数据包每次生成最多计算一次
 * @dependencies reporthub-service/zabbix_client
 * @refs service/report/generator.go
 */

package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reporthub-service/zabbix_client"
)

// Gateway 监控 API 网关契约
// 传输失败与 API 级错误通过 error 返回，与空结果严格区分
type Gateway interface {
	GetHosts(ctx context.Context, groupIDs []string) ([]zabbix_client.Host, error)
	GetItems(ctx context.Context, hostIDs []string, filter string, searchByKey, exact bool) ([]zabbix_client.Item, error)
	GetTrends(ctx context.Context, itemIDs []string, timeFrom, timeTill int64) ([]zabbix_client.Trend, error)
	GetEvents(ctx context.Context, objectIDs []string, timeFrom, timeTill int64, idType zabbix_client.IDType, allowRetry bool) ([]zabbix_client.Event, error)
}

// Period 报表参考周期，epoch 秒
type Period struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Seconds 周期长度（秒）
func (p Period) Seconds() int64 {
	return p.End - p.Start
}

// ModuleConfig 报表布局中的一个有序模块项
type ModuleConfig struct {
	Type          string                 `json:"type"`
	Title         string                 `json:"title"`
	NewPage       bool                   `json:"newPage"`
	Content       string                 `json:"content,omitempty"`    // html 模块的自由内容
	Interfaces    []string               `json:"interfaces,omitempty"` // 流量模块的接口过滤
	CustomOptions map[string]interface{} `json:"custom_options,omitempty"`
}

// ParseLayout 解析布局 JSON（字符串或已解码的对象数组）
func ParseLayout(raw interface{}) ([]ModuleConfig, error) {
	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("布局序列化失败: %w", err)
		}
		data = b
	}
	var layout []ModuleConfig
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("布局 JSON 无效: %w", err)
	}
	return layout, nil
}

// CorrelatedIncident 问题事件与恢复事件配对后的单次故障
// HostID 为空表示事件未关联任何主机：计入全局总量，不计入任何主机的停机
type CorrelatedIncident struct {
	HostID          string
	DurationSeconds int64
}

// TrendRow 单主机的趋势聚合结果
type TrendRow struct {
	HostID string
	Host   string
	Min    float64
	Max    float64
	Avg    float64
}

// SLARow 单主机的可用性结果
type SLARow struct {
	Host            string
	IP              string
	DowntimeSeconds int64
	Downtime        string   // 人类可读 "72h3m5s" 风格展示串
	SLA             float64  // 0..100
	PrevSLA         *float64 // 上月对比值，可缺省
}

// IncidentRow 单条问题事件的归一化记录
type IncidentRow struct {
	Host    string
	Problem string
	Clock   int64
	Count   int
}

// KPICard 可用性 KPI 卡片
type KPICard struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Sublabel string `json:"sublabel"`
	Status   string `json:"status"` // atingido / nao-atingido / critico / ok / info
	Trend    string `json:"trend"`  // up / down / stable / 空
}

// AvailabilityBundle 共享可用性数据包
// 由编排器最多计算一次，SLA/KPI/TopHosts/TopProblems/Stress 模块共同消费
type AvailabilityBundle struct {
	KPIs           []KPICard
	SLARows        []SLARow
	Incidents      []IncidentRow
	SeverityCounts map[string]int
	HostsWithPing  int
}

// LatencyLossBundle 延迟与丢包共享数据（一次网关往返派生两个模块）
type LatencyLossBundle struct {
	Latency []TrendRow
	Loss    []TrendRow
}

// FormatDowntime 将秒数格式化为 H:MM:SS 展示串
func FormatDowntime(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	h := int64(d.Hours())
	m := int64(d.Minutes()) % 60
	s := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// 需要共享可用性数据包的模块类型
var availabilityModuleTypes = map[string]bool{
	"sla":          true,
	"kpi":          true,
	"top_hosts":    true,
	"top_problems": true,
	"stress":       true,
}
