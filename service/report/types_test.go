package report

import "testing"

func TestParseLayoutFromString(t *testing.T) {
	raw := `[{"type":"sla","title":"Disponibilidade","newPage":true},{"type":"html","content":"<p>oi</p>"}]`

	layout, err := ParseLayout(raw)
	if err != nil {
		t.Fatalf("ParseLayout() error = %v", err)
	}
	if len(layout) != 2 {
		t.Fatalf("期望 2 个模块, 实际 %d", len(layout))
	}
	if layout[0].Type != "sla" || !layout[0].NewPage {
		t.Errorf("模块 0 解析错误: %+v", layout[0])
	}
	if layout[1].Content != "<p>oi</p>" {
		t.Errorf("html 内容解析错误: %+v", layout[1])
	}
}

func TestParseLayoutFromDecodedValue(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{"type": "cpu", "title": "CPU", "custom_options": map[string]interface{}{"chart_type": "line"}},
	}

	layout, err := ParseLayout(raw)
	if err != nil {
		t.Fatalf("ParseLayout() error = %v", err)
	}
	if layout[0].CustomOptions["chart_type"] != "line" {
		t.Errorf("custom_options 解析错误: %+v", layout[0])
	}
}

func TestParseLayoutInvalid(t *testing.T) {
	if _, err := ParseLayout("{nao é json"); err == nil {
		t.Error("非法 JSON 应返回错误")
	}
	if _, err := ParseLayout(`{"type":"sla"}`); err == nil {
		t.Error("非数组布局应返回错误")
	}
}

func TestLayoutNeedsAvailability(t *testing.T) {
	if layoutNeedsAvailability([]ModuleConfig{{Type: "cpu"}, {Type: "inventory"}}) {
		t.Error("无可用性模块的布局不应预热数据包")
	}
	for _, typ := range []string{"sla", "kpi", "top_hosts", "top_problems", "stress"} {
		if !layoutNeedsAvailability([]ModuleConfig{{Type: typ}}) {
			t.Errorf("模块 %q 应触发可用性预热", typ)
		}
	}
}
