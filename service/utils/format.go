/*
 * @module service/utils/format
 * @description pt-BR 本地化格式化工具：小数逗号、月份名、日期、背景色对比文字色
 * @architecture 工具函数集合 - 无状态
 * @documentReference ai_docs/report_platform_req.md §5.2
 * @stateFlow 无状态纯函数
 * @rules 报表面向巴西客户，数字一律使用逗号作小数分隔符
 * @dependencies fmt, strings, time
 * @refs service/report/availability.go, service/render/fragments.go
 */

package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// monthNamesPT 葡萄牙语月份名
var monthNamesPT = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// DecimalComma 按指定精度格式化浮点数，小数点替换为逗号
func DecimalComma(v float64, prec int) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', prec, 64), ".", ",", 1)
}

// MonthNamePT 返回形如 "Setembro de 2025" 的月份标题
func MonthNamePT(t time.Time) string {
	return fmt.Sprintf("%s de %d", monthNamesPT[t.Month()-1], t.Year())
}

// FormatDateBR 巴西日期格式 dd/mm/yyyy
func FormatDateBR(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatDateTimeBR 巴西日期时间格式 dd/mm/yyyy HH:MM
func FormatDateTimeBR(t time.Time) string {
	return t.Format("02/01/2006 15:04")
}

// TextColorForBackground 根据背景色亮度选择黑/白文字色
// 无法解析的颜色退回白色文字
func TextColorForBackground(hexColor string) string {
	h := strings.TrimPrefix(strings.TrimSpace(hexColor), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return "#FFFFFF"
	}
	r, err1 := strconv.ParseUint(h[0:2], 16, 8)
	g, err2 := strconv.ParseUint(h[2:4], 16, 8)
	b, err3 := strconv.ParseUint(h[4:6], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return "#FFFFFF"
	}
	// ITU-R BT.601 感知亮度
	luminance := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	if luminance > 149 {
		return "#000000"
	}
	return "#FFFFFF"
}
