/*
 * @module service/report/metrics
 * @description 报表生成的 Prometheus 指标：启动/完成/失败计数与端到端耗时直方图
 * @architecture 进程级指标注册 - promauto 默认注册表，由 /metrics 端点暴露
 * @documentReference ai_docs/report_platform_req.md §9
 * @stateFlow 编排器在生成开始/结束时打点
 * @rules 失败计数按失败阶段打标签，便于区分采集失败与渲染失败
 * @dependencies github.com/prometheus/client_golang
 * @refs service/report/generator.go, main.go
 */

package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reportsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reporthub_reports_started_total",
		Help: "已启动的报表生成任务总数",
	})

	reportsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reporthub_reports_completed_total",
		Help: "成功完成的报表生成任务总数",
	})

	reportsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reporthub_reports_failed_total",
		Help: "失败的报表生成任务总数，按失败阶段统计",
	}, []string{"stage"})

	moduleFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reporthub_module_failures_total",
		Help: "降级为内联错误的模块失败总数，按模块类型统计",
	}, []string{"module"})

	reportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reporthub_report_duration_seconds",
		Help:    "报表生成端到端耗时（秒）",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
	})
)
