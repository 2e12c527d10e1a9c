package report

import (
	"testing"
	"time"
)

func TestResolvePeriod(t *testing.T) {
	p, err := ResolvePeriod("2025-02")
	if err != nil {
		t.Fatalf("ResolvePeriod() error = %v", err)
	}

	start := time.Unix(p.Start, 0)
	end := time.Unix(p.End, 0)
	if start.Year() != 2025 || start.Month() != time.February || start.Day() != 1 ||
		start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
		t.Errorf("周期起点应为月首 00:00:00, 实际 %v", start)
	}
	// 2025年2月有28天
	if end.Day() != 28 || end.Hour() != 23 || end.Minute() != 59 || end.Second() != 59 {
		t.Errorf("周期终点应为月末 23:59:59, 实际 %v", end)
	}
	if p.Seconds() <= 0 {
		t.Errorf("周期长度应为正, 实际 %d", p.Seconds())
	}
}

func TestResolvePeriodInvalid(t *testing.T) {
	for _, input := range []string{"", "2025", "2025/01", "jan-2025", "2025-13"} {
		if _, err := ResolvePeriod(input); err == nil {
			t.Errorf("输入 %q 应返回错误", input)
		}
	}
}

func TestPreviousPeriod(t *testing.T) {
	p, _ := ResolvePeriod("2025-03")
	prev := PreviousPeriod(p)

	start := time.Unix(prev.Start, 0)
	end := time.Unix(prev.End, 0)
	if start.Month() != time.February || start.Day() != 1 {
		t.Errorf("上月起点错误: %v", start)
	}
	if end.Month() != time.February || end.Day() != 28 {
		t.Errorf("上月终点错误: %v", end)
	}
	// 两个周期无缝衔接
	if prev.End+1 != p.Start {
		t.Errorf("周期不衔接: prev.End=%d p.Start=%d", prev.End, p.Start)
	}
}

func TestPreviousPeriodAcrossYear(t *testing.T) {
	p, _ := ResolvePeriod("2025-01")
	prev := PreviousPeriod(p)

	start := time.Unix(prev.Start, 0)
	if start.Year() != 2024 || start.Month() != time.December {
		t.Errorf("跨年推导错误: %v", start)
	}
}
