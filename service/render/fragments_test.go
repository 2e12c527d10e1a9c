package render

import (
	"html/template"
	"strings"
	"testing"
)

func TestSectionEscapesTitle(t *testing.T) {
	out := string(Section("CPU <script>", template.HTML("<p>corpo</p>")))

	if !strings.Contains(out, "&lt;script&gt;") {
		t.Errorf("标题应经转义: %s", out)
	}
	if !strings.Contains(out, "<p>corpo</p>") {
		t.Errorf("正文片段应原样拼入: %s", out)
	}
}

func TestTableWithRows(t *testing.T) {
	out := string(Table(
		[]string{"Host", "SLA"},
		[][]template.HTML{
			{Cell("sw-core-01"), CellClass("sla-ok", "99,95%")},
		},
	))

	for _, want := range []string{"<th>Host</th>", "<th>SLA</th>", "sw-core-01", `class="sla-ok"`, "99,95%"} {
		if !strings.Contains(out, want) {
			t.Errorf("表格缺少 %q: %s", want, out)
		}
	}
	if strings.Contains(out, "Sem dados no período") {
		t.Error("有数据时不应出现空态占位行")
	}
}

func TestTableEmptyPlaceholder(t *testing.T) {
	out := string(Table([]string{"Host", "SLA", "Downtime"}, nil))

	if !strings.Contains(out, "Sem dados no período") {
		t.Errorf("空表应渲染占位行: %s", out)
	}
	if !strings.Contains(out, `colspan="3"`) {
		t.Errorf("占位行应横跨全部列: %s", out)
	}
}

func TestKPICards(t *testing.T) {
	out := string(KPICards([]KPIView{
		{Label: "SLA Médio", Value: "98,95%", Sublabel: "Meta: 99,9%", Status: "nao-atingido", Trend: "down"},
		{Label: "Incidentes", Value: "12", Status: "ok", Trend: "up"},
	}))

	for _, want := range []string{"kpi-nao-atingido", "98,95%", "trend-down", "▼", "kpi-ok", "trend-up", "▲"} {
		if !strings.Contains(out, want) {
			t.Errorf("KPI 卡片缺少 %q: %s", want, out)
		}
	}
}

func TestBars(t *testing.T) {
	out := string(Bars([]BarItem{
		{Label: "Alta", Count: 4, Percent: 66.7, Color: "#e74c3c"},
	}))

	for _, want := range []string{"Alta", "width: 66.7%", "#e74c3c", ">4<"} {
		if !strings.Contains(out, want) {
			t.Errorf("条形片段缺少 %q: %s", want, out)
		}
	}
}

func TestInlineError(t *testing.T) {
	out := string(InlineError("Memória", "nenhum dado de 'memory' encontrado"))

	if !strings.Contains(out, "Não foi possível gerar este módulo") {
		t.Errorf("降级文案缺失: %s", out)
	}
	if !strings.Contains(out, "nenhum dado de &#39;memory&#39; encontrado") &&
		!strings.Contains(out, "nenhum dado de 'memory' encontrado") {
		t.Errorf("错误消息未渲染: %s", out)
	}
	if !strings.Contains(out, "module-error") {
		t.Errorf("错误区块应带降级样式类: %s", out)
	}
}

func TestCellEscaping(t *testing.T) {
	if got := string(Cell("<b>x</b>")); got != "&lt;b&gt;x&lt;/b&gt;" {
		t.Errorf("单元格应转义: %q", got)
	}
	if got := string(PageBreak()); !strings.Contains(got, "page-break") {
		t.Errorf("分页符片段错误: %q", got)
	}
}

func TestChartImage(t *testing.T) {
	out := string(ChartImage("aGVsbG8=", "Tráfego <in>"))

	if !strings.Contains(out, "data:image/png;base64,aGVsbG8=") {
		t.Errorf("图表应内嵌 base64: %s", out)
	}
	if strings.Contains(out, "<in>") {
		t.Errorf("alt 文案应转义: %s", out)
	}
}
