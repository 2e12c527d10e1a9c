package report

import (
	"context"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"reporthub-service/service/models"
	"reporthub-service/zabbix_client"
)

func newResolverDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&models.MetricKeyProfile{}); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	return db
}

func seedMemoryProfiles(t *testing.T, db *gorm.DB) {
	t.Helper()
	profiles := []models.MetricKeyProfile{
		{MetricType: "memory", KeyString: "vm.memory.size[pused]", Priority: 1, CalculationType: models.CalculationDirect, IsActive: true},
		{MetricType: "memory", KeyString: "vm.memory.size[pavailable]", Priority: 2, CalculationType: models.CalculationInverse, IsActive: true},
		{MetricType: "memory", KeyString: "vm.memory.legacy", Priority: 3, CalculationType: models.CalculationDirect, IsActive: false},
	}
	if err := db.Create(&profiles).Error; err != nil {
		t.Fatalf("种子数据失败: %v", err)
	}
}

var resolverHosts = []zabbix_client.Host{
	{HostID: "h1", DisplayName: "Alpha"},
	{HostID: "h2", DisplayName: "Beta"},
}

// TestResolveTrendsFallThrough 首选键命中即停，未覆盖主机落入次选键并按档案方向取补
func TestResolveTrendsFallThrough(t *testing.T) {
	db := newResolverDB(t)
	seedMemoryProfiles(t, db)

	var itemCalls []string
	gw := &stubGateway{
		getItems: func(_ context.Context, hostIDs []string, filter string, searchByKey, exact bool) ([]zabbix_client.Item, error) {
			itemCalls = append(itemCalls, filter+"|"+strings.Join(hostIDs, ","))
			if !searchByKey || exact {
				t.Error("键档案检索应为 searchByKey 非精确匹配")
			}
			switch filter {
			case "vm.memory.size[pused]":
				// 仅 Alpha 暴露 pused
				return []zabbix_client.Item{{ItemID: "i1", HostID: "h1", Key: filter}}, nil
			case "vm.memory.size[pavailable]":
				return []zabbix_client.Item{{ItemID: "i2", HostID: "h2", Key: filter}}, nil
			}
			return nil, nil
		},
		getTrends: func(_ context.Context, itemIDs []string, _, _ int64) ([]zabbix_client.Trend, error) {
			switch itemIDs[0] {
			case "i1":
				return []zabbix_client.Trend{{ItemID: "i1", ValueMin: "40", ValueAvg: "50", ValueMax: "60"}}, nil
			case "i2":
				// pavailable 70% => pused 30%
				return []zabbix_client.Trend{{ItemID: "i2", ValueMin: "70", ValueAvg: "70", ValueMax: "70"}}, nil
			}
			return nil, nil
		},
	}

	resolver := NewKeyResolver(db, gw)
	rows, err := resolver.ResolveTrends(context.Background(), resolverHosts, "memory", Period{Start: 0, End: 3600}, 1, AggMean)
	if err != nil {
		t.Fatalf("ResolveTrends() error = %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("期望 2 行, 实际 %d", len(rows))
	}
	if rows[0].Host != "Alpha" || rows[0].Avg != 50 {
		t.Errorf("Alpha 应由 pused 直接取值: %+v", rows[0])
	}
	if rows[1].Host != "Beta" || rows[1].Avg != 30 {
		t.Errorf("Beta 应由 pavailable 取补: %+v", rows[1])
	}

	if len(itemCalls) != 2 {
		t.Fatalf("停用档案不应参与, 期望 2 次项检索, 实际 %v", itemCalls)
	}
	// 次选档案只检索未覆盖主机
	if itemCalls[1] != "vm.memory.size[pavailable]|h2" {
		t.Errorf("次选档案应仅检索 h2: %q", itemCalls[1])
	}
}

// TestResolveTrendsFirstProfileCoversAll 首选键覆盖全部主机时不触达次选键
func TestResolveTrendsFirstProfileCoversAll(t *testing.T) {
	db := newResolverDB(t)
	seedMemoryProfiles(t, db)

	calls := 0
	gw := &stubGateway{
		getItems: func(_ context.Context, hostIDs []string, filter string, _, _ bool) ([]zabbix_client.Item, error) {
			calls++
			if filter != "vm.memory.size[pused]" {
				t.Errorf("不应触达次选键: %q", filter)
			}
			return []zabbix_client.Item{
				{ItemID: "i1", HostID: "h1", Key: filter},
				{ItemID: "i2", HostID: "h2", Key: filter},
			}, nil
		},
		getTrends: func(_ context.Context, _ []string, _, _ int64) ([]zabbix_client.Trend, error) {
			return []zabbix_client.Trend{
				{ItemID: "i1", ValueMin: "10", ValueAvg: "10", ValueMax: "10"},
				{ItemID: "i2", ValueMin: "20", ValueAvg: "20", ValueMax: "20"},
			}, nil
		},
	}

	resolver := NewKeyResolver(db, gw)
	rows, err := resolver.ResolveTrends(context.Background(), resolverHosts, "memory", Period{Start: 0, End: 3600}, 1, AggMean)
	if err != nil {
		t.Fatalf("ResolveTrends() error = %v", err)
	}
	if len(rows) != 2 || calls != 1 {
		t.Errorf("期望 1 次检索覆盖全部主机, rows=%d calls=%d", len(rows), calls)
	}
}

// TestResolveTrendsItemWithoutHistoryFallsThrough 主机有项但无历史数据时仍落入次选档案
func TestResolveTrendsItemWithoutHistoryFallsThrough(t *testing.T) {
	db := newResolverDB(t)
	seedMemoryProfiles(t, db)

	gw := &stubGateway{
		getItems: func(_ context.Context, hostIDs []string, filter string, _, _ bool) ([]zabbix_client.Item, error) {
			switch filter {
			case "vm.memory.size[pused]":
				// h1 有 pused 项，但该项在周期内没有任何趋势
				return []zabbix_client.Item{{ItemID: "i1", HostID: "h1", Key: filter}}, nil
			case "vm.memory.size[pavailable]":
				if len(hostIDs) != 2 {
					t.Errorf("无数据的主机应保留在候选集中: %v", hostIDs)
				}
				return []zabbix_client.Item{
					{ItemID: "i2", HostID: "h1", Key: filter},
					{ItemID: "i3", HostID: "h2", Key: filter},
				}, nil
			}
			return nil, nil
		},
		getTrends: func(_ context.Context, itemIDs []string, _, _ int64) ([]zabbix_client.Trend, error) {
			if itemIDs[0] == "i1" {
				return nil, nil
			}
			return []zabbix_client.Trend{
				{ItemID: "i2", ValueMin: "80", ValueAvg: "80", ValueMax: "80"},
				{ItemID: "i3", ValueMin: "60", ValueAvg: "60", ValueMax: "60"},
			}, nil
		},
	}

	resolver := NewKeyResolver(db, gw)
	rows, err := resolver.ResolveTrends(context.Background(), resolverHosts, "memory", Period{Start: 0, End: 3600}, 1, AggMean)
	if err != nil {
		t.Fatalf("ResolveTrends() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("期望 2 行, 实际 %d", len(rows))
	}
	// 两台主机都由 pavailable 取补
	if rows[0].Host != "Alpha" || rows[0].Avg != 20 {
		t.Errorf("Alpha 应回退到次选档案: %+v", rows[0])
	}
	if rows[1].Host != "Beta" || rows[1].Avg != 40 {
		t.Errorf("Beta 行错误: %+v", rows[1])
	}
}

// TestResolveTrendsNoProfiles 无活跃档案返回配置错误
func TestResolveTrendsNoProfiles(t *testing.T) {
	db := newResolverDB(t)

	resolver := NewKeyResolver(db, &stubGateway{})
	_, err := resolver.ResolveTrends(context.Background(), resolverHosts, "memory", Period{Start: 0, End: 3600}, 1, AggMean)
	if err == nil || !strings.Contains(err.Error(), "nenhum perfil de chave ativo") {
		t.Fatalf("期望无档案错误, 实际 %v", err)
	}
}

// TestResolveTrendsNoData 所有档案都未命中返回软错误
func TestResolveTrendsNoData(t *testing.T) {
	db := newResolverDB(t)
	seedMemoryProfiles(t, db)

	resolver := NewKeyResolver(db, &stubGateway{})
	_, err := resolver.ResolveTrends(context.Background(), resolverHosts, "memory", Period{Start: 0, End: 3600}, 1, AggMean)
	if err == nil || !strings.Contains(err.Error(), "nenhum dado de 'memory'") {
		t.Fatalf("期望无数据软错误, 实际 %v", err)
	}
}
