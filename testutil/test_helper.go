/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference ai_docs/report_platform_req.md §8
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"reporthub-service/service/models"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Client{},
		&models.ClientZabbixGroup{},
		&models.SystemConfig{},
		&models.Report{},
		&models.ReportTemplate{},
		&models.ReportSchedule{},
		&models.MetricKeyProfile{},
		&models.AuditLog{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	// 清空所有表的数据
	tables := []string{
		"roles",
		"users",
		"clients",
		"client_zabbix_groups",
		"system_configs",
		"reports",
		"report_templates",
		"report_schedules",
		"metric_key_profiles",
		"audit_logs",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// ClientOption 客户选项函数类型
type ClientOption func(*models.Client)

// CreateClient 创建测试客户（默认关联一个 Zabbix 主机组）
func (f *TestDataFactory) CreateClient(opts ...ClientOption) *models.Client {
	client := &models.Client{
		Name:        "Cliente Teste " + generateSuffix(),
		SLAContract: 99.9,
		ZabbixGroups: []models.ClientZabbixGroup{
			{ZabbixGroupID: "10"},
		},
	}

	// 应用选项
	for _, opt := range opts {
		opt(client)
	}

	if err := f.DB.Create(client).Error; err != nil {
		panic(fmt.Sprintf("failed to create test client: %v", err))
	}

	return client
}

// WithClientName 指定客户名称
func WithClientName(name string) ClientOption {
	return func(c *models.Client) { c.Name = name }
}

// WithZabbixGroups 指定主机组关联
func WithZabbixGroups(groupIDs ...string) ClientOption {
	return func(c *models.Client) {
		c.ZabbixGroups = nil
		for _, gid := range groupIDs {
			c.ZabbixGroups = append(c.ZabbixGroups, models.ClientZabbixGroup{ZabbixGroupID: gid})
		}
	}
}

// TemplateOption 模板选项函数类型
type TemplateOption func(*models.ReportTemplate)

// CreateTemplate 创建测试报表模板
func (f *TestDataFactory) CreateTemplate(opts ...TemplateOption) *models.ReportTemplate {
	tpl := &models.ReportTemplate{
		Name: "Modelo Teste " + generateSuffix(),
		Layout: models.JSONBArray{
			{"type": "inventory", "title": "Inventário"},
			{"type": "sla", "title": "Disponibilidade"},
		},
	}

	for _, opt := range opts {
		opt(tpl)
	}

	if err := f.DB.Create(tpl).Error; err != nil {
		panic(fmt.Sprintf("failed to create test template: %v", err))
	}

	return tpl
}

// WithLayout 指定模板布局
func WithLayout(layout models.JSONBArray) TemplateOption {
	return func(t *models.ReportTemplate) { t.Layout = layout }
}

// ScheduleOption 调度选项函数类型
type ScheduleOption func(*models.ReportSchedule)

// CreateSchedule 创建测试调度
func (f *TestDataFactory) CreateSchedule(clientID, templateID string, opts ...ScheduleOption) *models.ReportSchedule {
	sched := &models.ReportSchedule{
		ClientID:   clientID,
		TemplateID: templateID,
		CronExpr:   "0 6 1 * *",
		IsEnabled:  true,
		CreatedBy:  "test",
	}

	for _, opt := range opts {
		opt(sched)
	}

	if err := f.DB.Create(sched).Error; err != nil {
		panic(fmt.Sprintf("failed to create test schedule: %v", err))
	}

	return sched
}

// MetricProfileOption 指标键档案选项函数类型
type MetricProfileOption func(*models.MetricKeyProfile)

// CreateMetricProfile 创建测试指标键档案
func (f *TestDataFactory) CreateMetricProfile(metricType, keyString string, priority int, opts ...MetricProfileOption) *models.MetricKeyProfile {
	profile := &models.MetricKeyProfile{
		MetricType:      metricType,
		KeyString:       keyString,
		Priority:        priority,
		CalculationType: models.CalculationDirect,
		IsActive:        true,
	}

	for _, opt := range opts {
		opt(profile)
	}

	if err := f.DB.Create(profile).Error; err != nil {
		panic(fmt.Sprintf("failed to create test metric profile: %v", err))
	}

	return profile
}

// WithCalculation 指定换算方向
func WithCalculation(calcType string) MetricProfileOption {
	return func(p *models.MetricKeyProfile) { p.CalculationType = calcType }
}

// CreateSystemConfig 创建测试系统配置
func (f *TestDataFactory) CreateSystemConfig() *models.SystemConfig {
	cfg := &models.SystemConfig{
		CompanyName:    "Conversys IT Solutions",
		PrimaryColor:   "#2c3e50",
		SecondaryColor: "#3498db",
	}

	if err := f.DB.Create(cfg).Error; err != nil {
		panic(fmt.Sprintf("failed to create test system config: %v", err))
	}

	return cfg
}

// 辅助函数
func generateSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%100000)
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// AssertJSONResponse 断言JSON响应
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		var actualBody interface{}
		err := json.Unmarshal(w.Body.Bytes(), &actualBody)
		assert.NoError(t, err)

		expectedJSON, _ := json.Marshal(expectedBody)
		actualJSON, _ := json.Marshal(actualBody)

		assert.JSONEq(t, string(expectedJSON), string(actualJSON))
	}
}
