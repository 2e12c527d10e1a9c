/*
 * @module service/render/charts
 * @description 图表渲染客户端：把图表配置提交给外部渲染服务，取回 PNG 字节
 * @architecture HTTP 客户端 - 外部协作边界；未配置渲染服务时使用禁用实现
 * @documentReference ai_docs/report_platform_req.md §5.2
 * @stateFlow 图表配置 JSON -> POST /render -> PNG 字节
 * @rules 图表渲染失败只影响单个模块，调用方降级为纯表格呈现
 * @dependencies net/http
 * @refs service/report/collector_cpu.go, main.go
 */

package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ErrChartsDisabled 未配置图表渲染服务
var ErrChartsDisabled = errors.New("serviço de renderização de gráficos não configurado")

// HTTPChartRenderer 外部图表渲染服务客户端
type HTTPChartRenderer struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPChartRenderer 创建客户端；url 为空时取 CHART_RENDER_URL 环境变量
func NewHTTPChartRenderer(url string) *HTTPChartRenderer {
	if url == "" {
		url = os.Getenv("CHART_RENDER_URL")
	}
	return &HTTPChartRenderer{
		baseURL:    url,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Enabled 渲染服务是否已配置
func (r *HTTPChartRenderer) Enabled() bool {
	return r.baseURL != ""
}

// RenderPNG 提交图表配置，返回 PNG 字节
func (r *HTTPChartRenderer) RenderPNG(ctx context.Context, chart map[string]interface{}) ([]byte, error) {
	if r.baseURL == "" {
		return nil, ErrChartsDisabled
	}
	payload, err := json.Marshal(chart)
	if err != nil {
		return nil, fmt.Errorf("configuração de gráfico inválida: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("falha de comunicação com o renderizador de gráficos: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("renderizador de gráficos retornou HTTP %d: %s", resp.StatusCode, string(body))
	}
	png, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("falha ao ler a imagem do gráfico: %w", err)
	}
	if len(png) == 0 {
		return nil, errors.New("renderizador de gráficos retornou resposta vazia")
	}
	return png, nil
}
