/*
 * @module zabbix_client/types
 * @description Zabbix JSON-RPC 数据类型定义，包含主机、监控项、趋势、事件等结构
 * @architecture 数据传输对象 - 与 Zabbix API 的线上格式一一对应
 * @documentReference ai_docs/zabbix_gateway.md
 * @stateFlow 无状态数据结构
 * @rules Zabbix API 返回的数值字段均为字符串，解析工作由上层聚合器负责
 * @dependencies encoding/json
 * @refs zabbix_client/zabbix_client.go
 */

package zabbix_client

import "encoding/json"

// rpcRequest JSON-RPC 2.0 请求信封
type rpcRequest struct {
	Jsonrpc string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	Auth    string      `json:"auth,omitempty"`
	ID      int         `json:"id"`
}

// rpcResponse JSON-RPC 2.0 响应信封
// Result 与 Error 互斥：空的 Result 列表不是错误
type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *APIError       `json:"error"`
	ID      int             `json:"id"`
}

// APIError Zabbix API 级别错误（例如查询过重被拒绝）
// 与传输层错误、空结果严格区分
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *APIError) Error() string {
	return e.Message + ": " + e.Data
}

// Unwrap 使 errors.Is(err, ErrAPIError) 成立
func (e *APIError) Unwrap() error {
	return ErrAPIError
}

// Host 监控主机
// DisplayName 已做空白归一化，IP 取第一个接口地址
type Host struct {
	HostID      string `json:"hostid"`
	Hostname    string `json:"hostname"`
	DisplayName string `json:"display_name"`
	IP          string `json:"ip"`
}

// Trigger 触发器引用
type Trigger struct {
	TriggerID string `json:"triggerid"`
}

// Item 监控项，一台主机上的一个可测量指标实例
type Item struct {
	ItemID   string    `json:"itemid"`
	HostID   string    `json:"hostid"`
	Name     string    `json:"name"`
	Key      string    `json:"key_"`
	Triggers []Trigger `json:"triggers,omitempty"`
}

// Trend 趋势样本，Zabbix 预聚合的一个时间桶
type Trend struct {
	ItemID   string `json:"itemid"`
	Clock    string `json:"clock"`
	Num      string `json:"num"`
	ValueMin string `json:"value_min"`
	ValueAvg string `json:"value_avg"`
	ValueMax string `json:"value_max"`
}

// EventHost 事件关联的主机引用
type EventHost struct {
	HostID string `json:"hostid"`
}

// Event 状态变更事件
// Value: "1"=问题 "0"=恢复；REventID 关联恢复事件，"0" 表示未恢复
type Event struct {
	EventID  string      `json:"eventid"`
	Clock    string      `json:"clock"`
	Source   string      `json:"source"`
	Object   string      `json:"object"`
	Value    string      `json:"value"`
	REventID string      `json:"r_eventid"`
	Severity string      `json:"severity"`
	Name     string      `json:"name"`
	Hosts    []EventHost `json:"hosts"`
}

// HostGroup 主机组
type HostGroup struct {
	GroupID string `json:"groupid"`
	Name    string `json:"name"`
}

// hostResponse host.get 的原始返回结构
type hostResponse struct {
	HostID     string `json:"hostid"`
	Host       string `json:"host"`
	Name       string `json:"name"`
	Interfaces []struct {
		IP string `json:"ip"`
	} `json:"interfaces"`
}

// IDType event.get 的对象过滤参数名
type IDType string

const (
	// IDTypeObjects 按触发器对象过滤
	IDTypeObjects IDType = "objectids"
	// IDTypeHosts 按主机过滤
	IDTypeHosts IDType = "hostids"
)
