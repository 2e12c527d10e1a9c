package schedule

import (
	"testing"
	"time"
)

func TestPreviousRefMonth(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{
			name: "月初触发",
			now:  time.Date(2026, time.March, 1, 6, 0, 0, 0, time.UTC),
			want: "2026-02",
		},
		{
			name: "月末31号触发不回跳到当月",
			now:  time.Date(2026, time.March, 31, 23, 59, 0, 0, time.UTC),
			want: "2026-02",
		},
		{
			name: "5月31号触发取4月",
			now:  time.Date(2025, time.May, 31, 12, 0, 0, 0, time.UTC),
			want: "2025-04",
		},
		{
			name: "跨年",
			now:  time.Date(2026, time.January, 15, 6, 0, 0, 0, time.UTC),
			want: "2025-12",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := previousRefMonth(tt.now); got != tt.want {
				t.Errorf("previousRefMonth(%v) = %q, 期望 %q", tt.now, got, tt.want)
			}
		})
	}
}
