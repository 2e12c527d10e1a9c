package render

import (
	"strings"
	"testing"

	"html/template"
)

func TestDocument(t *testing.T) {
	html, err := Document(DocumentData{
		Title:           "Relatório Mensal - Acme",
		ClientName:      "Acme",
		PeriodLabel:     "Agosto de 2025",
		CompanyName:     "NetOps Ltda",
		FooterText:      "Confidencial",
		PrimaryColor:    "#004A8F",
		SecondaryColor:  "#F58220",
		HeaderTextColor: "#FFFFFF",
		GeneratedAt:     "01/09/2025 06:00",
		Modules: []template.HTML{
			Section("Disponibilidade", template.HTML("<p>ok</p>")),
			PageBreak(),
		},
	})
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}

	for _, want := range []string{
		`lang="pt-BR"`,
		"Relatório Mensal - Acme",
		"Período de referência: Agosto de 2025",
		"#004A8F",
		"#F58220",
		"NetOps Ltda",
		"Confidencial",
		"Gerado em 01/09/2025 06:00",
		"Disponibilidade",
		"page-break",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("文档缺少 %q", want)
		}
	}
}

func TestDocumentDefaultBranding(t *testing.T) {
	html, err := Document(DocumentData{Title: "Relatório"})
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}

	// 未配置品牌色时使用默认配色
	if !strings.Contains(html, "#2c3e50") || !strings.Contains(html, "#3498db") {
		t.Error("应套用默认品牌色")
	}
	if !strings.Contains(html, "#FFFFFF") {
		t.Error("页眉文字色应有默认值")
	}
}
