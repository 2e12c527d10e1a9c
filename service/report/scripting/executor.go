/*
 * @module service/report/scripting
 * @description 自定义模块脚本执行器：Yaegi 解释执行，编译结果按脚本哈希缓存
 * @architecture 解释器隔离 - 每个脚本独立解释器实例，仅暴露标准库符号
 * @documentReference ai_docs/report_platform_req.md §3.12
 * @stateFlow 脚本哈希查缓存 -> 未命中则包装编译 -> 调用 Run(params) -> 字符串结果
 * @rules 脚本必须定义 Run(params map[string]interface{}) (interface{}, error)；
 *        返回值按字符串消费，非字符串为执行错误
 * @dependencies github.com/traefik/yaegi
 * @refs service/report/collector_html.go
 */

package scripting

import (
	"crypto/sha1"
	"fmt"
	"sync"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Executor Yaegi 脚本执行器，带编译缓存
type Executor struct {
	mu    sync.RWMutex
	cache map[string]*compiledScript
}

// compiledScript 编译后的脚本
type compiledScript struct {
	fn       func(map[string]interface{}) (interface{}, error)
	compiled time.Time
	hash     string
}

// NewExecutor 创建脚本执行器
func NewExecutor() *Executor {
	return &Executor{cache: make(map[string]*compiledScript)}
}

// Run 执行脚本并返回字符串结果
func (e *Executor) Run(script string, params map[string]interface{}) (string, error) {
	hash := fmt.Sprintf("%x", sha1.Sum([]byte(script)))

	e.mu.RLock()
	compiled, ok := e.cache[hash]
	e.mu.RUnlock()

	if !ok {
		var err error
		compiled, err = compile(script, hash)
		if err != nil {
			return "", fmt.Errorf("falha na compilação do script: %w", err)
		}
		e.mu.Lock()
		e.cache[hash] = compiled
		e.mu.Unlock()
	}

	result, err := compiled.fn(params)
	if err != nil {
		return "", err
	}
	out, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("o script deve retornar uma string, retornou %T", result)
	}
	return out, nil
}

// compile 包装脚本并编译为可执行函数
func compile(script, hash string) (*compiledScript, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("加载标准库符号失败: %w", err)
	}

	// 包装脚本：要求脚本必须实现一个 Run 函数体
	wrapped := fmt.Sprintf(`
package main

import (
	"fmt"
	"strings"
	"strconv"
	"sort"
	"time"
	"encoding/json"
)

// 必须提供一个 Run 函数作为入口
func Run(params map[string]interface{}) (interface{}, error) {
	// 从参数中提取常用变量，方便脚本使用
	var content interface{}
	if c, exists := params["content"]; exists {
		content = c
	}

	var client interface{}
	if c, exists := params["client"]; exists {
		client = c
	}

	var refMonth interface{}
	if m, exists := params["ref_month"]; exists {
		refMonth = m
	}

	// 脚本内容
%s
}
`, script)

	if _, err := i.Eval(wrapped); err != nil {
		return nil, fmt.Errorf("脚本编译失败: %w", err)
	}
	v, err := i.Eval("Run")
	if err != nil {
		return nil, fmt.Errorf("脚本缺少 Run 函数: %w", err)
	}
	runFunc, ok := v.Interface().(func(map[string]interface{}) (interface{}, error))
	if !ok {
		return nil, fmt.Errorf("Run 函数签名必须是 func(map[string]interface{}) (interface{}, error)")
	}
	return &compiledScript{fn: runFunc, compiled: time.Now(), hash: hash}, nil
}

// Validate 语法快速校验（管理端保存前调用）
func (e *Executor) Validate(script string) error {
	_, err := compile(script, "")
	return err
}

// ClearCache 清空编译缓存
func (e *Executor) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]*compiledScript)
}
