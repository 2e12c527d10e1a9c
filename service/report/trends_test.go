package report

import (
	"math"
	"testing"

	"reporthub-service/zabbix_client"
)

var trendHosts = map[string]string{"h1": "Alpha", "h2": "Beta"}

var trendItems = []zabbix_client.Item{
	{ItemID: "i1", HostID: "h1"},
	{ItemID: "i2", HostID: "h2"},
	{ItemID: "i3", HostID: "h1"}, // 同主机第二个接口项
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestProcessTrendsMean(t *testing.T) {
	trends := []zabbix_client.Trend{
		{ItemID: "i1", ValueMin: "10", ValueAvg: "20", ValueMax: "30"},
		{ItemID: "i1", ValueMin: "20", ValueAvg: "40", ValueMax: "50"},
		{ItemID: "i2", ValueMin: "5", ValueAvg: "6", ValueMax: "7"},
		{ItemID: "desconhecido", ValueMin: "1", ValueAvg: "1", ValueMax: "1"}, // 不在项映射中
		{ItemID: "i2", ValueMin: "x", ValueAvg: "y", ValueMax: "z"},           // 不可解析样本跳过
	}

	rows := processTrends(trends, trendItems, trendHosts, 1, false, AggMean)
	if len(rows) != 2 {
		t.Fatalf("期望 2 行, 实际 %d", len(rows))
	}
	// 按主机名排序
	if rows[0].Host != "Alpha" || rows[1].Host != "Beta" {
		t.Fatalf("排序错误: %+v", rows)
	}
	// 桶均值的均值，不是真实极值
	if !almostEqual(rows[0].Min, 15) || !almostEqual(rows[0].Avg, 30) || !almostEqual(rows[0].Max, 40) {
		t.Errorf("Alpha 聚合错误: %+v", rows[0])
	}
	if !almostEqual(rows[1].Avg, 6) {
		t.Errorf("Beta 聚合错误: %+v", rows[1])
	}
}

func TestProcessTrendsSum(t *testing.T) {
	// 同一主机两个接口项的流量叠加
	trends := []zabbix_client.Trend{
		{ItemID: "i1", ValueMin: "100", ValueAvg: "200", ValueMax: "300"},
		{ItemID: "i3", ValueMin: "50", ValueAvg: "60", ValueMax: "70"},
	}

	rows := processTrends(trends, trendItems, trendHosts, 1, false, AggSum)
	if len(rows) != 1 {
		t.Fatalf("期望 1 行, 实际 %d", len(rows))
	}
	if !almostEqual(rows[0].Min, 150) || !almostEqual(rows[0].Avg, 260) || !almostEqual(rows[0].Max, 370) {
		t.Errorf("求和聚合错误: %+v", rows[0])
	}
}

func TestProcessTrendsExtreme(t *testing.T) {
	trends := []zabbix_client.Trend{
		{ItemID: "i1", ValueMin: "10", ValueAvg: "20", ValueMax: "90"},
		{ItemID: "i1", ValueMin: "5", ValueAvg: "40", ValueMax: "60"},
	}

	rows := processTrends(trends, trendItems, trendHosts, 1, false, AggExtreme)
	if len(rows) != 1 {
		t.Fatalf("期望 1 行, 实际 %d", len(rows))
	}
	// 极值取桶间真实极值，均值仍为桶均值的均值
	if !almostEqual(rows[0].Min, 5) || !almostEqual(rows[0].Max, 90) || !almostEqual(rows[0].Avg, 30) {
		t.Errorf("极值聚合错误: %+v", rows[0])
	}
}

func TestProcessTrendsInvertSwapsExtremes(t *testing.T) {
	// pavailable 30..70 => pused 30..70（取补后极值交换）
	trends := []zabbix_client.Trend{
		{ItemID: "i1", ValueMin: "30", ValueAvg: "50", ValueMax: "70"},
	}

	rows := processTrends(trends, trendItems, trendHosts, 1, true, AggMean)
	if len(rows) != 1 {
		t.Fatalf("期望 1 行, 实际 %d", len(rows))
	}
	if !almostEqual(rows[0].Min, 30) || !almostEqual(rows[0].Avg, 50) || !almostEqual(rows[0].Max, 70) {
		t.Errorf("取补换算错误: %+v", rows[0])
	}
	// 非对称区间验证 min/max 确实交换
	trends[0] = zabbix_client.Trend{ItemID: "i1", ValueMin: "10", ValueAvg: "20", ValueMax: "40"}
	rows = processTrends(trends, trendItems, trendHosts, 1, true, AggMean)
	if !almostEqual(rows[0].Min, 60) || !almostEqual(rows[0].Max, 90) || !almostEqual(rows[0].Avg, 80) {
		t.Errorf("期望 min=60 max=90 avg=80, 实际 %+v", rows[0])
	}
}

func TestProcessTrendsUnitFactorAfterInvert(t *testing.T) {
	trends := []zabbix_client.Trend{
		{ItemID: "i1", ValueMin: "40", ValueAvg: "40", ValueMax: "40"},
	}

	// (100-40) * 2 = 120：单位换算在取补之后
	rows := processTrends(trends, trendItems, trendHosts, 2, true, AggMean)
	if !almostEqual(rows[0].Avg, 120) {
		t.Errorf("期望 120, 实际 %f", rows[0].Avg)
	}
}

func TestProcessTrendsInvertRoundTrip(t *testing.T) {
	trends := []zabbix_client.Trend{
		{ItemID: "i1", ValueMin: "12.5", ValueAvg: "33.3", ValueMax: "87.5"},
	}

	direct := processTrends(trends, trendItems, trendHosts, 1, false, AggMean)
	inverted := processTrends(trends, trendItems, trendHosts, 1, true, AggMean)

	// 两次取补回到原值
	if !almostEqual(100-inverted[0].Max, direct[0].Min) ||
		!almostEqual(100-inverted[0].Min, direct[0].Max) ||
		!almostEqual(100-inverted[0].Avg, direct[0].Avg) {
		t.Errorf("取补不可逆: direct=%+v inverted=%+v", direct[0], inverted[0])
	}
}

func TestProcessTrendsEmpty(t *testing.T) {
	rows := processTrends(nil, trendItems, trendHosts, 1, false, AggMean)
	if len(rows) != 0 {
		t.Errorf("空样本期望空结果, 实际 %d", len(rows))
	}
}
