/*
 * @module zabbix_client/zabbix_client
 * @description Zabbix JSON-RPC 网关客户端，提供主机、监控项、趋势、事件查询和登录认证
 * @architecture 适配器模式 - 封装远端监控系统的 RPC 接口
 * @documentReference ai_docs/zabbix_gateway.md
 * @stateFlow 构造客户端 -> (可选)登录取token -> 发起RPC调用 -> 解析结果或错误
 * @rules 仅对 5xx 传输错误做一次有限重试；API 级别错误原样上抛，由调用方决策
 * @dependencies net/http, encoding/json, golang.org/x/text
 * @refs service/report/generator.go
 */

package zabbix_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ErrAPIError API 级别错误哨兵，调用方用 errors.Is 区分"失败"和"空结果"
var ErrAPIError = errors.New("zabbix api error")

var whitespaceRe = regexp.MustCompile(`\s+`)

// 主机可见名按 pt-BR 排序规则排序，保证带重音字符的名称顺序稳定
var hostCollator = collate.New(language.BrazilianPortuguese)

var defaultHTTPClient = &http.Client{
	Timeout: 120 * time.Second,
}

// Client Zabbix API 客户端
type Client struct {
	url        string
	token      string
	httpClient *http.Client
}

// NewClient 创建客户端实例
// url/token 为空时回退到 ZABBIX_URL / ZABBIX_TOKEN 环境变量
func NewClient(url, token string) *Client {
	if url == "" {
		url = os.Getenv("ZABBIX_URL")
	}
	if token == "" {
		token = os.Getenv("ZABBIX_TOKEN")
	}
	return &Client{
		url:        url,
		token:      token,
		httpClient: defaultHTTPClient,
	}
}

// SetHTTPClient 替换底层 HTTP 客户端（用于测试）
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// Token 返回当前会话 token
func (c *Client) Token() string {
	return c.token
}

// call 发起一次 JSON-RPC 调用
// allowRetry 仅对 5xx 生效：等待 5 秒后重试一次；应用级错误绝不重试
func (c *Client) call(ctx context.Context, method string, params interface{}, auth bool, allowRetry bool) (json.RawMessage, error) {
	if c.url == "" {
		return nil, errors.New("zabbix url 未配置")
	}

	reqBody := rpcRequest{
		Jsonrpc: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}
	if auth {
		reqBody.Auth = c.token
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	maxAttempts := 1
	if allowRetry {
		maxAttempts = 2
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
		}
		// gzip 协商交给 net/http：手工设置 Accept-Encoding 会关闭透明解压
		req.Header.Set("Content-Type", "application/json-rpc")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("连接Zabbix API失败: %w", err)
		}

		if resp.StatusCode >= 500 && attempt < maxAttempts-1 {
			resp.Body.Close()
			lastErr = fmt.Errorf("zabbix 服务端返回 %d", resp.StatusCode)
			slog.Warn("Zabbix 服务端错误，稍后重试", "status", resp.StatusCode, "method", method)
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("读取响应失败: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("zabbix 返回非预期状态码 %d", resp.StatusCode)
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(body, &rpcResp); err != nil {
			return nil, fmt.Errorf("解析响应失败: %w", err)
		}
		if rpcResp.Error != nil {
			slog.Error("Zabbix API 错误", "method", method, "message", rpcResp.Error.Message, "data", rpcResp.Error.Data)
			return nil, rpcResp.Error
		}
		return rpcResp.Result, nil
	}
	return nil, lastErr
}

// Login 通过 user.login 获取会话 token 并保存在客户端上
func (c *Client) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errors.New("zabbix 用户名或密码未配置")
	}
	result, err := c.call(ctx, "user.login", map[string]string{
		"username": username,
		"password": password,
	}, false, true)
	if err != nil {
		return fmt.Errorf("zabbix 登录失败: %w", err)
	}
	var token string
	if err := json.Unmarshal(result, &token); err != nil {
		return fmt.Errorf("解析登录token失败: %w", err)
	}
	c.token = token
	return nil
}

// GetHosts 查询主机组下的全部主机，按可见名排序返回
func (c *Client) GetHosts(ctx context.Context, groupIDs []string) ([]Host, error) {
	params := map[string]interface{}{
		"groupids":         groupIDs,
		"selectInterfaces": []string{"ip"},
		"output":           []string{"hostid", "host", "name"},
	}
	result, err := c.call(ctx, "host.get", params, true, true)
	if err != nil {
		return nil, err
	}

	var raw []hostResponse
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("解析主机列表失败: %w", err)
	}

	hosts := make([]Host, 0, len(raw))
	for _, h := range raw {
		ip := "N/A"
		if len(h.Interfaces) > 0 && h.Interfaces[0].IP != "" {
			ip = h.Interfaces[0].IP
		}
		hosts = append(hosts, Host{
			HostID:      h.HostID,
			Hostname:    h.Host,
			DisplayName: NormalizeName(h.Name),
			IP:          ip,
		})
	}
	sort.SliceStable(hosts, func(i, j int) bool {
		return hostCollator.CompareString(hosts[i].DisplayName, hosts[j].DisplayName) < 0
	})
	return hosts, nil
}

// GetItems 查询监控项
// searchByKey=true 按 key_ 检索并附带触发器；exact=true 用精确 filter 而非模糊 search
func (c *Client) GetItems(ctx context.Context, hostIDs []string, filter string, searchByKey, exact bool) ([]Item, error) {
	params := map[string]interface{}{
		"output":    []string{"itemid", "hostid", "name", "key_"},
		"hostids":   hostIDs,
		"sortfield": "name",
	}
	if searchByKey {
		search := map[string][]string{"key_": {filter}}
		if exact {
			params["filter"] = search
		} else {
			params["search"] = search
		}
		params["selectTriggers"] = "extend"
	} else {
		params["search"] = map[string]string{"name": filter}
	}

	result, err := c.call(ctx, "item.get", params, true, true)
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(result, &items); err != nil {
		return nil, fmt.Errorf("解析监控项列表失败: %w", err)
	}
	return items, nil
}

// GetTrends 查询趋势数据
func (c *Client) GetTrends(ctx context.Context, itemIDs []string, timeFrom, timeTill int64) ([]Trend, error) {
	params := map[string]interface{}{
		"output":    []string{"itemid", "clock", "num", "value_min", "value_avg", "value_max"},
		"itemids":   itemIDs,
		"time_from": timeFrom,
		"time_till": timeTill,
	}
	result, err := c.call(ctx, "trend.get", params, true, true)
	if err != nil {
		return nil, err
	}
	var trends []Trend
	if err := json.Unmarshal(result, &trends); err != nil {
		return nil, fmt.Errorf("解析趋势数据失败: %w", err)
	}
	return trends, nil
}

// GetEvents 查询事件
// allowRetry=false 时重载错误立即上浮，供上层做时间段二分
func (c *Client) GetEvents(ctx context.Context, objectIDs []string, timeFrom, timeTill int64, idType IDType, allowRetry bool) ([]Event, error) {
	params := map[string]interface{}{
		"output":              "extend",
		"selectHosts":         []string{"hostid"},
		"time_from":           timeFrom,
		"time_till":           timeTill,
		string(idType):        objectIDs,
		"sortfield":           []string{"eventid"},
		"sortorder":           "ASC",
		"select_acknowledges": "extend",
	}
	result, err := c.call(ctx, "event.get", params, true, allowRetry)
	if err != nil {
		return nil, err
	}
	var events []Event
	if err := json.Unmarshal(result, &events); err != nil {
		return nil, fmt.Errorf("解析事件列表失败: %w", err)
	}
	return events, nil
}

// GetHostGroups 查询全部主机组，用于管理界面的组选择
func (c *Client) GetHostGroups(ctx context.Context) ([]HostGroup, error) {
	params := map[string]interface{}{
		"output":    []string{"groupid", "name"},
		"sortfield": "name",
	}
	result, err := c.call(ctx, "hostgroup.get", params, true, true)
	if err != nil {
		return nil, err
	}
	var groups []HostGroup
	if err := json.Unmarshal(result, &groups); err != nil {
		return nil, fmt.Errorf("解析主机组列表失败: %w", err)
	}
	return groups, nil
}

// NormalizeName 折叠换行与连续空白为单个空格并去除首尾空白
func NormalizeName(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
