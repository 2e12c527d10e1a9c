/*
 * @module service/render/fragments
 * @description 报表 HTML 片段构建：区块、表格、KPI 卡片、严重度条形、内联错误、分页符
 * @architecture 分层架构 - 渲染层；模板在包加载时解析，运行期仅执行
 * @documentReference ai_docs/report_platform_req.md §5.2
 * @stateFlow 采集器产出视图数据 -> 片段模板执行 -> 编排器拼接进文档
 * @rules 模块标题与单元格内容一律经模板转义；仅 html 自定义模块允许原样注入
 * @dependencies html/template
 * @refs service/report/collector_cpu.go, service/render/document.go
 */

package render

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
)

// KPIView KPI 卡片视图数据
type KPIView struct {
	Label    string
	Value    string
	Sublabel string
	Status   string // atingido / nao-atingido / critico / ok / info
	Trend    string // up / down / stable / 空
}

// BarItem 条形图单项（严重度直方图等）
type BarItem struct {
	Label   string
	Count   int
	Percent float64 // 0..100，驱动条宽
	Color   string
}

var fragmentTemplates = template.Must(template.New("fragments").Parse(`
{{define "section"}}
<section class="module">
  <h2 class="module-title">{{.Title}}</h2>
  {{.Body}}
</section>
{{end}}

{{define "table"}}
<table class="data-table">
  <thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
  <tbody>
  {{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
  {{else}}<tr><td colspan="{{len .Headers}}" class="empty">Sem dados no período</td></tr>
  {{end}}
  </tbody>
</table>
{{end}}

{{define "kpi_cards"}}
<div class="kpi-grid">
  {{range .}}
  <div class="kpi-card kpi-{{.Status}}">
    <div class="kpi-label">{{.Label}}</div>
    <div class="kpi-value">{{.Value}}{{if eq .Trend "up"}} <span class="trend-up">▲</span>{{end}}{{if eq .Trend "down"}} <span class="trend-down">▼</span>{{end}}</div>
    <div class="kpi-sublabel">{{.Sublabel}}</div>
  </div>
  {{end}}
</div>
{{end}}

{{define "bars"}}
<div class="bar-list">
  {{range .}}
  <div class="bar-row">
    <span class="bar-label">{{.Label}}</span>
    <span class="bar-track"><span class="bar-fill" style="width: {{printf "%.1f" .Percent}}%; background: {{.Color}};"></span></span>
    <span class="bar-count">{{.Count}}</span>
  </div>
  {{end}}
</div>
{{end}}

{{define "inline_error"}}
<section class="module module-error">
  <h2 class="module-title">{{.Title}}</h2>
  <div class="error-box">⚠ Não foi possível gerar este módulo: {{.Message}}</div>
</section>
{{end}}
`))

// execFragment 模板执行失败以占位文案兜底，绝不让渲染层 panic 到编排器之外
func execFragment(name string, data interface{}) template.HTML {
	var buf bytes.Buffer
	if err := fragmentTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("片段模板执行失败", "template", name, "err", err)
		return template.HTML("<div class=\"error-box\">Falha interna de renderização</div>")
	}
	return template.HTML(buf.String())
}

// Section 标题 + 内容的标准模块区块
func Section(title string, body template.HTML) template.HTML {
	return execFragment("section", struct {
		Title string
		Body  template.HTML
	}{title, body})
}

// Table 数据表格；空行集渲染"Sem dados no período"占位行
func Table(headers []string, rows [][]template.HTML) template.HTML {
	return execFragment("table", struct {
		Headers []string
		Rows    [][]template.HTML
	}{headers, rows})
}

// KPICards KPI 卡片栅格
func KPICards(cards []KPIView) template.HTML {
	return execFragment("kpi_cards", cards)
}

// Bars 水平条形列表
func Bars(items []BarItem) template.HTML {
	return execFragment("bars", items)
}

// InlineError 模块降级的内联错误区块
func InlineError(title, message string) template.HTML {
	return execFragment("inline_error", struct {
		Title   string
		Message string
	}{title, message})
}

// PageBreak 打印分页符
func PageBreak() template.HTML {
	return template.HTML(`<div class="page-break"></div>`)
}

// Cell 普通文本单元格（经转义）
func Cell(s string) template.HTML {
	return template.HTML(template.HTMLEscapeString(s))
}

// CellClass 带样式类的文本单元格
func CellClass(class, s string) template.HTML {
	return template.HTML(fmt.Sprintf(`<span class="%s">%s</span>`, template.HTMLEscapeString(class), template.HTMLEscapeString(s)))
}

// ChartImage 内嵌 base64 PNG 图表
func ChartImage(b64 string, alt string) template.HTML {
	return template.HTML(fmt.Sprintf(`<div class="chart"><img src="data:image/png;base64,%s" alt="%s"/></div>`, b64, template.HTMLEscapeString(alt)))
}
