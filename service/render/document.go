/*
 * @module service/render/document
 * @description 报表正文文档外壳：品牌化页眉/页脚、打印样式、模块片段拼装
 * @architecture 分层架构 - 渲染层；输出完整 HTML 文档，交由 PDF 装配器转换
 * @documentReference ai_docs/report_platform_req.md §5.2
 * @stateFlow DocumentData -> 文档模板执行 -> 完整 HTML 字符串
 * @rules 品牌色来自系统配置；页眉文字色由背景亮度自动决定
 * @dependencies html/template
 * @refs service/report/generator.go, service/pdf/builder.go
 */

package render

import (
	"bytes"
	"fmt"
	"html/template"
)

// DocumentData 文档外壳视图数据
type DocumentData struct {
	Title           string
	ClientName      string
	PeriodLabel     string
	CompanyName     string
	FooterText      string
	PrimaryColor    string
	SecondaryColor  string
	HeaderTextColor string
	GeneratedAt     string
	Modules         []template.HTML
}

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8"/>
<title>{{.Title}}</title>
<style>
  @page { size: A4; margin: 18mm 14mm; }
  body { font-family: "Helvetica Neue", Arial, sans-serif; color: #2d2d2d; font-size: 11px; margin: 0; }
  .report-header { background: {{.PrimaryColor}}; color: {{.HeaderTextColor}}; padding: 14px 18px; }
  .report-header h1 { margin: 0; font-size: 18px; }
  .report-header .period { margin-top: 4px; font-size: 12px; opacity: 0.9; }
  .module { margin: 16px 0; page-break-inside: avoid; }
  .module-title { color: {{.PrimaryColor}}; border-bottom: 2px solid {{.SecondaryColor}}; padding-bottom: 4px; font-size: 14px; }
  .data-table { width: 100%; border-collapse: collapse; margin-top: 6px; }
  .data-table th { background: {{.SecondaryColor}}; color: #fff; text-align: left; padding: 5px 7px; font-size: 10px; }
  .data-table td { border-bottom: 1px solid #e0e0e0; padding: 4px 7px; }
  .data-table td.empty { text-align: center; color: #888; font-style: italic; }
  .sla-breach { color: #c0392b; font-weight: bold; }
  .sla-ok { color: #27ae60; }
  .kpi-grid { display: flex; gap: 10px; margin-top: 8px; }
  .kpi-card { flex: 1; border: 1px solid #ddd; border-radius: 6px; padding: 10px; text-align: center; }
  .kpi-card.kpi-atingido { border-color: #27ae60; }
  .kpi-card.kpi-nao-atingido, .kpi-card.kpi-critico { border-color: #c0392b; }
  .kpi-label { font-size: 9px; text-transform: uppercase; color: #666; }
  .kpi-value { font-size: 20px; font-weight: bold; margin: 4px 0; }
  .kpi-sublabel { font-size: 9px; color: #888; }
  .trend-up { color: #27ae60; font-size: 12px; }
  .trend-down { color: #c0392b; font-size: 12px; }
  .bar-list { margin-top: 8px; }
  .bar-row { display: flex; align-items: center; margin: 3px 0; }
  .bar-label { width: 120px; font-size: 10px; }
  .bar-track { flex: 1; background: #f0f0f0; height: 12px; border-radius: 3px; overflow: hidden; }
  .bar-fill { display: block; height: 100%; }
  .bar-count { width: 40px; text-align: right; font-size: 10px; }
  .chart { text-align: center; margin: 8px 0; }
  .chart img { max-width: 100%; }
  .error-box { background: #fdecea; border: 1px solid #c0392b; color: #c0392b; padding: 8px 10px; border-radius: 4px; font-size: 10px; }
  .module-error .module-title { color: #c0392b; border-bottom-color: #c0392b; }
  .page-break { page-break-after: always; }
  .report-footer { margin-top: 24px; border-top: 1px solid #ccc; padding-top: 6px; font-size: 9px; color: #777; display: flex; justify-content: space-between; }
  .html-module { font-size: 11px; }
  .module-subtitle { font-size: 11px; color: #555; margin: 10px 0 2px; }
  .sla-meta { font-size: 10px; color: #555; margin: 4px 0; }
</style>
</head>
<body>
<header class="report-header">
  <h1>{{.Title}}</h1>
  <div class="period">Período de referência: {{.PeriodLabel}}</div>
</header>
{{range .Modules}}{{.}}{{end}}
<footer class="report-footer">
  <span>{{.CompanyName}}{{if .FooterText}} — {{.FooterText}}{{end}}</span>
  <span>Gerado em {{.GeneratedAt}}</span>
</footer>
</body>
</html>`))

// Document 渲染完整报表正文 HTML
func Document(data DocumentData) (string, error) {
	if data.PrimaryColor == "" {
		data.PrimaryColor = "#2c3e50"
	}
	if data.SecondaryColor == "" {
		data.SecondaryColor = "#3498db"
	}
	if data.HeaderTextColor == "" {
		data.HeaderTextColor = "#FFFFFF"
	}
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("falha ao renderizar o documento: %w", err)
	}
	return buf.String(), nil
}
