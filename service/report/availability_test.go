package report

import (
	"math"
	"testing"

	"reporthub-service/zabbix_client"
)

func TestCorrelateProblems(t *testing.T) {
	all := []zabbix_client.Event{
		{EventID: "p1", Clock: "1000", Source: "0", Object: "0", Value: "1", REventID: "r1", Hosts: []zabbix_client.EventHost{{HostID: "h1"}}},
		{EventID: "r1", Clock: "1500", Source: "0", Object: "0", Value: "0"},
		{EventID: "p2", Clock: "2000", Source: "0", Object: "0", Value: "1", REventID: "r2", Hosts: []zabbix_client.EventHost{{HostID: "h2"}}},
		{EventID: "r2", Clock: "1800", Source: "0", Object: "0", Value: "0"}, // 恢复早于问题
		{EventID: "p3", Clock: "3000", Source: "0", Object: "0", Value: "1", REventID: "0"}, // 未恢复
	}
	problems := filterProblems(all)

	incidents := correlateProblems(problems, all)
	if len(incidents) != 3 {
		t.Fatalf("期望 3 次故障, 实际 %d", len(incidents))
	}
	if incidents[0].HostID != "h1" || incidents[0].DurationSeconds != 500 {
		t.Errorf("正常配对: 期望 h1/500s, 实际 %+v", incidents[0])
	}
	// 恢复时刻早于问题时刻视为停机 0 秒
	if incidents[1].DurationSeconds != 0 {
		t.Errorf("倒序恢复应计 0 秒, 实际 %d", incidents[1].DurationSeconds)
	}
	// 未恢复的问题停机 0 秒且无主机归属时 HostID 为空
	if incidents[2].DurationSeconds != 0 || incidents[2].HostID != "" {
		t.Errorf("未恢复事件: %+v", incidents[2])
	}
}

func TestCalculateSLA(t *testing.T) {
	hosts := []zabbix_client.Host{
		{HostID: "h1", DisplayName: "Servidor Acme", IP: "10.0.0.1"},
		{HostID: "h2", DisplayName: "Servidor Beta", IP: "10.0.0.2"},
	}
	incidents := []CorrelatedIncident{
		{HostID: "h1", DurationSeconds: 300},
		{HostID: "h1", DurationSeconds: 200},
		{HostID: "desconhecido", DurationSeconds: 9999}, // 未知主机不计入任何行
	}
	period := Period{Start: 0, End: 3600}

	rows := calculateSLA(incidents, hosts, period)
	if len(rows) != 2 {
		t.Fatalf("期望每台主机一行, 实际 %d", len(rows))
	}
	// 500s de indisponibilidade em 3600s => 86,11%
	want := 100.0 - 500.0/3600.0*100.0
	if math.Abs(rows[0].SLA-want) > 1e-9 {
		t.Errorf("期望 SLA %.4f, 实际 %.4f", want, rows[0].SLA)
	}
	if rows[0].DowntimeSeconds != 500 {
		t.Errorf("期望停机 500s, 实际 %d", rows[0].DowntimeSeconds)
	}
	if rows[1].SLA != 100.0 {
		t.Errorf("无故障主机 SLA 应为 100, 实际 %f", rows[1].SLA)
	}
}

func TestCalculateSLAClampZero(t *testing.T) {
	hosts := []zabbix_client.Host{{HostID: "h1", DisplayName: "Host"}}
	incidents := []CorrelatedIncident{{HostID: "h1", DurationSeconds: 10000}}

	rows := calculateSLA(incidents, hosts, Period{Start: 0, End: 3600})
	if rows[0].SLA != 0 {
		t.Errorf("停机超过周期时 SLA 钳制为 0, 实际 %f", rows[0].SLA)
	}
}

func TestCalculateSLADegeneratePeriod(t *testing.T) {
	hosts := []zabbix_client.Host{{HostID: "h1", DisplayName: "Host"}}

	for _, p := range []Period{{Start: 100, End: 100}, {Start: 200, End: 100}} {
		rows := calculateSLA(nil, hosts, p)
		if len(rows) != 0 {
			t.Errorf("退化周期 %+v 应返回空结果, 实际 %d 行", p, len(rows))
		}
	}
}

func TestCountProblemsByHost(t *testing.T) {
	hosts := []zabbix_client.Host{
		{HostID: "h1", DisplayName: "Alpha"},
		{HostID: "h2", DisplayName: "Beta"},
	}
	problems := []zabbix_client.Event{
		{EventID: "1", Clock: "2000", Object: "0", Name: "Link  down", Hosts: []zabbix_client.EventHost{{HostID: "h2"}}},
		{EventID: "2", Clock: "1000", Object: "0", Name: "CPU alta", Hosts: []zabbix_client.EventHost{{HostID: "h1"}}},
		{EventID: "3", Clock: "1000", Object: "4", Name: "ignorado", Hosts: []zabbix_client.EventHost{{HostID: "h1"}}},
		{EventID: "4", Clock: "3000", Object: "0", Name: "sem host"},
		{EventID: "5", Clock: "3000", Object: "0", Name: "outro", Hosts: []zabbix_client.EventHost{{HostID: "h9"}}},
	}

	rows := countProblemsByHost(problems, hosts)
	if len(rows) != 2 {
		t.Fatalf("期望 2 行（跳过非触发器对象/无主机/未知主机）, 实际 %d", len(rows))
	}
	// 按时刻升序
	if rows[0].Host != "Alpha" || rows[1].Host != "Beta" {
		t.Errorf("排序错误: %+v", rows)
	}
	// 问题名做空白归一化
	if rows[1].Problem != "Link down" {
		t.Errorf("问题名未归一化: %q", rows[1].Problem)
	}
}

func TestAverageSLA(t *testing.T) {
	if got := averageSLA(nil); got != 100.0 {
		t.Errorf("空表均值应为 100, 实际 %f", got)
	}
	rows := []SLARow{{SLA: 90}, {SLA: 100}}
	if got := averageSLA(rows); got != 95.0 {
		t.Errorf("期望 95, 实际 %f", got)
	}
}

func TestTopOffender(t *testing.T) {
	if got := topOffender(nil); got != "Nenhum" {
		t.Errorf("无事件时期望 Nenhum, 实际 %q", got)
	}

	incidents := []IncidentRow{
		{Host: "Zulu", Count: 2},
		{Host: "Alpha", Count: 1},
		{Host: "Alpha", Count: 1},
	}
	// 并列时按字母序取先者
	if got := topOffender(incidents); got != "Alpha" {
		t.Errorf("期望并列取字母序在前的 Alpha, 实际 %q", got)
	}

	incidents = append(incidents, IncidentRow{Host: "Zulu", Count: 5})
	if got := topOffender(incidents); got != "Zulu" {
		t.Errorf("期望 Zulu, 实际 %q", got)
	}
}

func TestFormatDowntime(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{0, "0:00:00"},
		{65, "0:01:05"},
		{3600, "1:00:00"},
		{259385, "72:03:05"},
	}
	for _, c := range cases {
		if got := FormatDowntime(c.seconds); got != c.want {
			t.Errorf("FormatDowntime(%d) = %q, 期望 %q", c.seconds, got, c.want)
		}
	}
}

func TestBuildKPIs(t *testing.T) {
	slaRows := []SLARow{{SLA: 99.9}, {SLA: 98.0}}
	incidents := []IncidentRow{{Host: "Alpha", Count: 3}}

	kpis := buildKPIs(slaRows, incidents, 99.9, 2, 3, 99.99, 1)
	if len(kpis) != 4 {
		t.Fatalf("期望 4 张 KPI 卡片, 实际 %d", len(kpis))
	}
	// 均值 98,95 < 99,9 => 未达标且低于上月
	if kpis[0].Status != "nao-atingido" || kpis[0].Trend != "down" {
		t.Errorf("SLA 卡片: %+v", kpis[0])
	}
	if kpis[0].Value != "98,95%" {
		t.Errorf("SLA 值应使用逗号分隔: %q", kpis[0].Value)
	}
	// 一台主机低于 99.9
	if kpis[1].Value != "1" || kpis[1].Status != "critico" {
		t.Errorf("低于目标卡片: %+v", kpis[1])
	}
	// 事件 3 > 上月 1 => 恶化
	if kpis[2].Trend != "down" {
		t.Errorf("事件趋势: %+v", kpis[2])
	}
	if kpis[3].Value != "Alpha" {
		t.Errorf("主要肇事主机: %+v", kpis[3])
	}
}
