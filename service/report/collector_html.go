/*
 * @module service/report/collector_html
 * @description 自定义 HTML 模块：自由内容原样注入，可选脚本钩子后处理
 * @architecture 采集器 - 内容透传；脚本经隔离解释器执行，输出替换原内容
 * @documentReference ai_docs/report_platform_req.md §4.8, §3.12
 * @stateFlow 内容 -> (可选) 脚本 Run(params) -> 区块
 * @rules 内容由管理端维护，信任边界在管理端；脚本失败为模块级错误
 * @dependencies github.com/spf13/cast, reporthub-service/service/render
 * @refs service/report/scripting/executor.go
 */

package report

import (
	"context"
	"fmt"
	"html/template"

	"github.com/spf13/cast"

	"reporthub-service/service/render"
)

func collectHTML(ctx context.Context, g *Generator, mod ModuleConfig) (template.HTML, error) {
	content := mod.Content

	if src := cast.ToString(mod.CustomOptions["script"]); src != "" {
		if g.svc.scripts == nil {
			return "", fmt.Errorf("módulo usa script, mas a execução de scripts está desabilitada")
		}
		out, err := g.svc.scripts.Run(src, map[string]interface{}{
			"content":   content,
			"client":    g.client.Name,
			"ref_month": g.refMonth,
		})
		if err != nil {
			return "", fmt.Errorf("falha na execução do script do módulo: %w", err)
		}
		content = out
	}

	if content == "" {
		return "", fmt.Errorf("módulo de conteúdo sem conteúdo configurado")
	}
	title := moduleTitle(mod, "Conteúdo Personalizado")
	body := template.HTML(`<div class="html-module">` + content + `</div>`)
	return render.Section(title, body), nil
}
