package scripting

import (
	"strings"
	"testing"
)

func TestExecutorRun(t *testing.T) {
	e := NewExecutor()

	out, err := e.Run(`return fmt.Sprintf("Cliente %v, mes %v", client, refMonth), nil`, map[string]interface{}{
		"client":    "Acme",
		"ref_month": "2025-08",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "Cliente Acme, mes 2025-08" {
		t.Errorf("脚本输出错误: %q", out)
	}
}

func TestExecutorRunContentParam(t *testing.T) {
	e := NewExecutor()

	out, err := e.Run(`return strings.ToUpper(fmt.Sprintf("%v", content)), nil`, map[string]interface{}{
		"content": "ola mundo",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "OLA MUNDO" {
		t.Errorf("content 参数未传入脚本: %q", out)
	}
}

func TestExecutorRunNonStringResult(t *testing.T) {
	e := NewExecutor()

	_, err := e.Run(`return 42, nil`, nil)
	if err == nil || !strings.Contains(err.Error(), "deve retornar uma string") {
		t.Fatalf("非字符串返回值应报错, 实际 %v", err)
	}
}

func TestExecutorRunScriptError(t *testing.T) {
	e := NewExecutor()

	_, err := e.Run(`return "", fmt.Errorf("dado ausente")`, nil)
	if err == nil || !strings.Contains(err.Error(), "dado ausente") {
		t.Fatalf("脚本自身错误应原样传出, 实际 %v", err)
	}
}

func TestExecutorCompileCache(t *testing.T) {
	e := NewExecutor()
	script := `return "ok", nil`

	if _, err := e.Run(script, nil); err != nil {
		t.Fatalf("首次执行失败: %v", err)
	}
	if _, err := e.Run(script, nil); err != nil {
		t.Fatalf("二次执行失败: %v", err)
	}

	e.mu.RLock()
	n := len(e.cache)
	e.mu.RUnlock()
	if n != 1 {
		t.Errorf("同一脚本应复用编译缓存, 缓存条目 %d", n)
	}

	e.ClearCache()
	e.mu.RLock()
	n = len(e.cache)
	e.mu.RUnlock()
	if n != 0 {
		t.Errorf("ClearCache 后缓存应为空, 实际 %d", n)
	}
}

func TestExecutorValidate(t *testing.T) {
	e := NewExecutor()

	if err := e.Validate(`return "ok", nil`); err != nil {
		t.Errorf("合法脚本校验失败: %v", err)
	}
	if err := e.Validate(`isto nao e go {{{`); err == nil {
		t.Error("非法脚本应校验失败")
	}
}
