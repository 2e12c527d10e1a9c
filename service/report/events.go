/*
 * @module service/report/events
 * @description 事件获取与自适应时间段二分：整月查询被 API 拒绝时按中点拆半递归，深度受限
 * @architecture 显式递归 + 深度预算，失败以哨兵错误上浮
 * @documentReference ai_docs/report_platform_req.md §4.2
 * @stateFlow 整段查询 -> 失败则二分 [start,mid]/[mid+1,end] -> 深度耗尽则致命失败
 * @rules 事件调用禁用传输层重试，让重载错误立即暴露；子段结果拼接后统一按 clock 升序排序
 * @dependencies reporthub-service/zabbix_client
 * @refs service/report/availability.go
 */

package report

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"

	"reporthub-service/zabbix_client"
)

// ErrEventDepthExhausted 二分深度预算耗尽，本次事件采集致命失败
var ErrEventDepthExhausted = errors.New("limite de profundidade de divisão de eventos atingido")

// maxSplitDepth 每侧最多二分三层，最坏情况调用数为 O(2^3)
const maxSplitDepth = 3

// obtainEvents 获取一个时间段内的事件，失败时自适应二分
// 返回的切片不保证全局有序，排序由包装函数负责
func obtainEvents(ctx context.Context, gw Gateway, objectIDs []string, period Period, idType zabbix_client.IDType, depth int) ([]zabbix_client.Event, error) {
	if depth <= 0 {
		slog.Error("事件采集二分深度耗尽", "start", period.Start, "end", period.End)
		return nil, ErrEventDepthExhausted
	}

	events, err := gw.GetEvents(ctx, objectIDs, period.Start, period.End, idType, false)
	if err == nil {
		return events, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	// 查询过重（或瞬时失败），把时间段对半拆分后分别重试
	slog.Warn("事件查询失败，按中点拆分时间段", "err", err, "start", period.Start, "end", period.End, "depth", depth)
	mid := period.Start + (period.End-period.Start)/2
	left, err := obtainEvents(ctx, gw, objectIDs, Period{Start: period.Start, End: mid}, idType, depth-1)
	if err != nil {
		return nil, err
	}
	right, err := obtainEvents(ctx, gw, objectIDs, Period{Start: mid + 1, End: period.End}, idType, depth-1)
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

// CollectEvents 事件采集入口：空对象列表是平凡的空成功；结果按 clock 升序返回
func CollectEvents(ctx context.Context, gw Gateway, objectIDs []string, period Period, idType zabbix_client.IDType) ([]zabbix_client.Event, error) {
	if len(objectIDs) == 0 {
		return []zabbix_client.Event{}, nil
	}
	events, err := obtainEvents(ctx, gw, objectIDs, period, idType, maxSplitDepth)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool {
		return eventClock(events[i]) < eventClock(events[j])
	})
	return events, nil
}

func eventClock(e zabbix_client.Event) int64 {
	clock, _ := strconv.ParseInt(e.Clock, 10, 64)
	return clock
}

// filterProblems 过滤出可用性相关的问题事件（source=0, object=0, value=1）
func filterProblems(events []zabbix_client.Event) []zabbix_client.Event {
	problems := make([]zabbix_client.Event, 0, len(events))
	for _, e := range events {
		if e.Source == "0" && e.Object == "0" && e.Value == "1" {
			problems = append(problems, e)
		}
	}
	return problems
}
