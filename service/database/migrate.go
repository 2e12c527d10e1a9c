/*
 * @module service/database/migrate
 * @description 数据库迁移模块，负责创建报表平台表结构并初始化种子数据
 * @architecture 数据访问层 - 迁移管理
 * @documentReference ai_docs/report_platform_req.md §3
 * @stateFlow 应用启动时执行数据库迁移与种子初始化
 * @rules 种子数据幂等：仅在对应表为空时写入；指标键档案按 metric_type+priority 唯一
 * @dependencies reporthub-service/service/models, gorm.io/gorm
 * @refs service/init.go
 */

package database

import (
	"log"

	"gorm.io/gorm"

	"reporthub-service/service/models"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	log.Println("开始数据库迁移...")

	// 账户与租户相关表
	err := db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Client{},
		&models.ClientZabbixGroup{},
	)
	if err != nil {
		return err
	}

	// 报表相关表
	err = db.AutoMigrate(
		&models.SystemConfig{},
		&models.Report{},
		&models.ReportTemplate{},
		&models.ReportSchedule{},
		&models.MetricKeyProfile{},
		&models.AuditLog{},
	)
	if err != nil {
		return err
	}

	log.Println("数据库迁移完成")
	return nil
}

// InitializeData 初始化种子数据（幂等）
func InitializeData(db *gorm.DB) error {
	if err := seedRoles(db); err != nil {
		return err
	}
	if err := seedSystemConfig(db); err != nil {
		return err
	}
	return seedMetricKeyProfiles(db)
}

// seedRoles 默认角色
func seedRoles(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Role{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	roles := []models.Role{
		{Name: "admin"},
		{Name: "client"},
	}
	return db.Create(&roles).Error
}

// seedSystemConfig 系统配置单例
func seedSystemConfig(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.SystemConfig{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	cfg := models.SystemConfig{
		CompanyName:       "Conversys IT Solutions",
		PrimaryColor:      "#2c3e50",
		SecondaryColor:    "#3498db",
		AllowedExtensions: []string{"pdf", "png", "jpg", "jpeg"},
	}
	return db.Create(&cfg).Error
}

// seedMetricKeyProfiles 默认指标键档案
// memory: pused 直接取值优先，pavailable 取补兜底；wifi_clients: 标准客户端计数键
func seedMetricKeyProfiles(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.MetricKeyProfile{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	profiles := []models.MetricKeyProfile{
		{MetricType: "memory", KeyString: "vm.memory.size[pused]", Priority: 1, CalculationType: models.CalculationDirect, IsActive: true},
		{MetricType: "memory", KeyString: "vm.memory.size[pavailable]", Priority: 2, CalculationType: models.CalculationInverse, IsActive: true},
		{MetricType: "wifi_clients", KeyString: "clientcountnumber", Priority: 1, CalculationType: models.CalculationDirect, IsActive: true},
	}
	return db.Create(&profiles).Error
}
