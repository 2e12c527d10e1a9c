/*
 * @module service/utils/format_test
 * @description pt-BR 格式化工具函数单元测试
 * @architecture 测试层 - 纯函数测试，无外部依赖
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 输入参数 -> 函数调用 -> 输出验证
 * @rules 确保本地化格式与颜色对比算法的正确性和边界处理
 * @refs format.go
 */

package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecimalComma(t *testing.T) {
	testCases := []struct {
		name     string
		input    float64
		prec     int
		expected string
	}{
		{
			name:     "两位小数",
			input:    98.95,
			prec:     2,
			expected: "98,95",
		},
		{
			name:     "四舍五入",
			input:    99.996,
			prec:     2,
			expected: "100,00",
		},
		{
			name:     "整数值",
			input:    100,
			prec:     1,
			expected: "100,0",
		},
		{
			name:     "零精度无逗号",
			input:    42.7,
			prec:     0,
			expected: "43",
		},
		{
			name:     "负数",
			input:    -3.5,
			prec:     1,
			expected: "-3,5",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DecimalComma(tc.input, tc.prec))
		})
	}
}

func TestMonthNamePT(t *testing.T) {
	assert.Equal(t, "Setembro de 2025", MonthNamePT(time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Janeiro de 2024", MonthNamePT(time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Março de 2025", MonthNamePT(time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)))
}

func TestFormatDateBR(t *testing.T) {
	d := time.Date(2025, time.August, 3, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "03/08/2025", FormatDateBR(d))
	assert.Equal(t, "03/08/2025 14:30", FormatDateTimeBR(d))
}

func TestTextColorForBackground(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "浅色背景用黑字",
			input:    "#FFFFFF",
			expected: "#000000",
		},
		{
			name:     "深色背景用白字",
			input:    "#1A2B3C",
			expected: "#FFFFFF",
		},
		{
			name:     "三位简写展开",
			input:    "#FFF",
			expected: "#000000",
		},
		{
			name:     "亮度恰在阈值处保持白字",
			input:    "#959595",
			expected: "#FFFFFF",
		},
		{
			name:     "亮度刚过阈值转黑字",
			input:    "#969696",
			expected: "#000000",
		},
		{
			name:     "无井号前缀也可解析",
			input:    "ffffff",
			expected: "#000000",
		},
		{
			name:     "非法颜色退回白字",
			input:    "not-a-color",
			expected: "#FFFFFF",
		},
		{
			name:     "空字符串退回白字",
			input:    "",
			expected: "#FFFFFF",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, TextColorForBackground(tc.input))
		})
	}
}
