/*
 * @module service/report/period
 * @description 参考月份解析：把 "YYYY-MM" 解析为自然月周期（首日 00:00:00 至末日 23:59:59）
 * @architecture 分层架构 - 领域逻辑层
 * @documentReference ai_docs/report_platform_req.md §3
 * @stateFlow 无状态纯函数
 * @rules 月份不可解析时为本次生成的致命错误
 * @dependencies time
 * @refs service/report/generator.go
 */

package report

import (
	"fmt"
	"time"
)

// ResolvePeriod 解析 "YYYY-MM" 为参考周期
func ResolvePeriod(refMonth string) (Period, error) {
	ref, err := time.ParseInLocation("2006-01", refMonth, time.Local)
	if err != nil {
		return Period{}, fmt.Errorf("mês de referência inválido, use YYYY-MM: %w", err)
	}
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return Period{Start: start.Unix(), End: end.Unix()}, nil
}

// PreviousPeriod 推导给定周期的上一个自然月
func PreviousPeriod(p Period) Period {
	ref := time.Unix(p.Start, 0)
	prevStart := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.Local).AddDate(0, -1, 0)
	prevEnd := prevStart.AddDate(0, 1, 0).Add(-time.Second)
	return Period{Start: prevStart.Unix(), End: prevEnd.Unix()}
}
