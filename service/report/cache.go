/*
 * @module service/report/cache
 * @description 单次生成范围内的类型化缓存，保证同一数据集最多被计算/拉取一次
 * @architecture 并发安全的 compute-once 缓存 - 首个调用方计算，其余调用方等待结果
 * @documentReference ai_docs/report_platform_req.md §3, §5
 * @stateFlow 生成开始时创建 -> 模块按键读取或计算 -> 生成结束后随运行一起丢弃
 * @rules 键写一次读多次；缓存绝不跨运行共享或持久化
 * @dependencies sync
 * @refs service/report/generator.go, service/report/collector_traffic.go
 */

package report

import (
	"sort"
	"strings"
	"sync"

	"reporthub-service/zabbix_client"
)

// TrafficBundle 按接口集合缓存的进/出流量数据
type TrafficBundle struct {
	In  []TrendRow
	Out []TrendRow
}

// cacheEntry 单个键的 compute-once 守卫
type cacheEntry struct {
	once  sync.Once
	value interface{}
	err   error
}

// RunCache 单次报表生成的共享缓存
type RunCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry

	hosts []zabbix_client.Host
}

// NewRunCache 创建运行级缓存
func NewRunCache() *RunCache {
	return &RunCache{entries: make(map[string]*cacheEntry)}
}

// SetHosts 记录本次运行解析出的主机列表
func (c *RunCache) SetHosts(hosts []zabbix_client.Host) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hosts = hosts
}

// Hosts 返回本次运行的主机列表
func (c *RunCache) Hosts() []zabbix_client.Host {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hosts
}

// getOrCompute 取键值；键不存在时由当前调用方计算，并发调用方阻塞等待同一结果
func (c *RunCache) getOrCompute(key string, compute func() (interface{}, error)) (interface{}, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		entry = &cacheEntry{}
		c.entries[key] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.value, entry.err = compute()
	})
	return entry.value, entry.err
}

// Availability 可用性数据包，最多计算一次
func (c *RunCache) Availability(compute func() (*AvailabilityBundle, error)) (*AvailabilityBundle, error) {
	v, err := c.getOrCompute("availability", func() (interface{}, error) {
		return compute()
	})
	if err != nil {
		return nil, err
	}
	return v.(*AvailabilityBundle), nil
}

// PrevMonthSLA 上月 SLA 行，最多计算一次
func (c *RunCache) PrevMonthSLA(compute func() ([]SLARow, error)) ([]SLARow, error) {
	v, err := c.getOrCompute("prev_month_sla", func() (interface{}, error) {
		return compute()
	})
	if err != nil {
		return nil, err
	}
	return v.([]SLARow), nil
}

// LatencyLoss 延迟/丢包数据，一次网关往返供两个模块消费
func (c *RunCache) LatencyLoss(compute func() (*LatencyLossBundle, error)) (*LatencyLossBundle, error) {
	v, err := c.getOrCompute("latency_loss", func() (interface{}, error) {
		return compute()
	})
	if err != nil {
		return nil, err
	}
	return v.(*LatencyLossBundle), nil
}

// Traffic 流量数据，按接口集合区分缓存键
func (c *RunCache) Traffic(interfaces []string, compute func() (*TrafficBundle, error)) (*TrafficBundle, error) {
	v, err := c.getOrCompute("traffic_"+InterfaceSetKey(interfaces), func() (interface{}, error) {
		return compute()
	})
	if err != nil {
		return nil, err
	}
	return v.(*TrafficBundle), nil
}

// InterfaceSetKey 接口集合的规范化缓存键（顺序无关）
func InterfaceSetKey(interfaces []string) string {
	if len(interfaces) == 0 {
		return "all"
	}
	sorted := make([]string, len(interfaces))
	copy(sorted, interfaces)
	sort.Strings(sorted)
	return strings.Join(sorted, "_")
}
