package zabbix_client

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(server.URL, "test-token")
	client.SetHTTPClient(server.Client())
	return client, server
}

func TestGetHosts(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("解析请求失败: %v", err)
		}
		if req.Method != "host.get" {
			t.Errorf("期望 method host.get, 实际 %s", req.Method)
		}
		if req.Auth != "test-token" {
			t.Errorf("期望 auth token, 实际 %q", req.Auth)
		}

		result := []map[string]interface{}{
			{"hostid": "102", "host": "srv-b", "name": "  Zulu   Server \n", "interfaces": []map[string]string{{"ip": "10.0.0.2"}}},
			{"hostid": "101", "host": "srv-a", "name": "Alpha Server", "interfaces": []map[string]string{{"ip": "10.0.0.1"}}},
			{"hostid": "103", "host": "srv-c", "name": "Beta Server", "interfaces": []map[string]string{}},
		}
		raw, _ := json.Marshal(result)
		json.NewEncoder(w).Encode(rpcResponse{Jsonrpc: "2.0", Result: raw, ID: 1})
	})
	defer server.Close()

	hosts, err := client.GetHosts(context.Background(), []string{"1"})
	if err != nil {
		t.Fatalf("GetHosts() error = %v", err)
	}
	if len(hosts) != 3 {
		t.Fatalf("期望 3 台主机, 实际 %d", len(hosts))
	}
	// 按可见名排序
	if hosts[0].DisplayName != "Alpha Server" || hosts[1].DisplayName != "Beta Server" {
		t.Errorf("主机未按可见名排序: %+v", hosts)
	}
	// 空白归一化
	if hosts[2].DisplayName != "Zulu Server" {
		t.Errorf("可见名未归一化: %q", hosts[2].DisplayName)
	}
	// 无接口时 IP 为 N/A
	if hosts[1].IP != "N/A" {
		t.Errorf("期望 IP N/A, 实际 %q", hosts[1].IP)
	}
}

// TestGetHostsGzipResponse 前端按 Accept-Encoding 协商返回 gzip 时客户端仍能解析
func TestGetHostsGzipResponse(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			t.Error("客户端应接受 gzip 编码")
		}

		result := []map[string]interface{}{
			{"hostid": "101", "host": "srv-a", "name": "Alpha Server", "interfaces": []map[string]string{{"ip": "10.0.0.1"}}},
		}
		raw, _ := json.Marshal(result)
		payload, _ := json.Marshal(rpcResponse{Jsonrpc: "2.0", Result: raw, ID: 1})

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write(payload)
		gz.Close()
	})
	defer server.Close()

	hosts, err := client.GetHosts(context.Background(), []string{"1"})
	if err != nil {
		t.Fatalf("gzip 响应应被透明解压: %v", err)
	}
	if len(hosts) != 1 || hosts[0].DisplayName != "Alpha Server" {
		t.Errorf("解压后内容错误: %+v", hosts)
	}
}

func TestGetEventsAPIError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(rpcResponse{
			Jsonrpc: "2.0",
			Error:   &APIError{Code: -32400, Message: "Query too expensive", Data: "timeout"},
			ID:      1,
		})
	})
	defer server.Close()

	_, err := client.GetEvents(context.Background(), []string{"9"}, 0, 100, IDTypeObjects, false)
	if err == nil {
		t.Fatal("期望 API 错误，但调用成功")
	}
	if !errors.Is(err, ErrAPIError) {
		t.Errorf("期望 errors.Is(err, ErrAPIError) 成立, err = %v", err)
	}
}

func TestGetEventsEmptyResultIsNotError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(rpcResponse{Jsonrpc: "2.0", Result: json.RawMessage(`[]`), ID: 1})
	})
	defer server.Close()

	events, err := client.GetEvents(context.Background(), []string{"9"}, 0, 100, IDTypeHosts, true)
	if err != nil {
		t.Fatalf("空结果不应是错误: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("期望空列表, 实际 %d", len(events))
	}
}

func TestLogin(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method != "user.login" {
			t.Errorf("期望 method user.login, 实际 %s", req.Method)
		}
		if req.Auth != "" {
			t.Error("登录请求不应携带 auth")
		}
		json.NewEncoder(w).Encode(rpcResponse{Jsonrpc: "2.0", Result: json.RawMessage(`"new-session-token"`), ID: 1})
	})
	defer server.Close()

	client.token = ""
	if err := client.Login(context.Background(), "admin", "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if client.Token() != "new-session-token" {
		t.Errorf("token 未更新: %q", client.Token())
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Core\nSwitch  01 ", "Core Switch 01"},
		{"simples", "simples"},
		{"\r\n\t", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
