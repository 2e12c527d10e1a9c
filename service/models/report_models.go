/*
 * @module service/models/report_models
 * @description 报表平台核心模型定义，包含客户、报表记录、布局模板、指标键档案、审计日志等
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/report_platform_req.md
 * @stateFlow 管理端维护配置 -> 报表生成读取 -> 报表记录与审计落库
 * @rules 指标键档案按 metric_type + priority 升序消费；报表记录仅作元数据，不阻断文件交付
 * @dependencies gorm.io/gorm, github.com/google/uuid, github.com/lib/pq, golang.org/x/crypto
 * @refs service/report/, original spec §3
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 指标值换算方向
const (
	// CalculationDirect 直接取值
	CalculationDirect = "DIRECT"
	// CalculationInverse 取补值（如"可用百分比"换算为"已用百分比"）
	CalculationInverse = "INVERSE"
)

// SystemConfig 系统品牌与报表外观配置（单例）
type SystemConfig struct {
	ID                  string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CompanyName         string         `json:"company_name" gorm:"size:100;default:'Conversys IT Solutions'"`
	FooterText          string         `json:"footer_text" gorm:"size:255"`
	PrimaryColor        string         `json:"primary_color" gorm:"size:7;default:'#2c3e50'"`
	SecondaryColor      string         `json:"secondary_color" gorm:"size:7;default:'#3498db'"`
	ReportCoverPath     string         `json:"report_cover_path" gorm:"size:255"`      // 封面 PDF 相对路径
	ReportFinalPagePath string         `json:"report_final_page_path" gorm:"size:255"` // 封底 PDF 相对路径
	AllowedExtensions   pq.StringArray `json:"allowed_extensions" gorm:"type:text[]"`  // 允许上传的扩展名
	CreatedAt           time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// Role 角色
type Role struct {
	ID   string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name string `json:"name" gorm:"not null;size:50;unique"`
}

// User 平台用户
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username     string    `json:"username" gorm:"not null;size:64;unique"`
	PasswordHash string    `json:"-" gorm:"size:256"`
	RoleID       string    `json:"role_id" gorm:"not null;type:varchar(36)"`
	Role         *Role     `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	Clients      []Client  `json:"clients,omitempty" gorm:"many2many:user_client_associations"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// SetPassword 以 bcrypt 存储密码散列
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword 校验明文密码
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// HasRole 判断用户是否持有指定角色
func (u *User) HasRole(name string) bool {
	return u.Role != nil && u.Role.Name == name
}

// Client 被监控的客户（租户）
type Client struct {
	ID           string              `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string              `json:"name" gorm:"not null;size:100;unique"`
	SLAContract  float64             `json:"sla_contract" gorm:"not null;default:99.9"` // 合同 SLA 目标（%）
	LogoPath     string              `json:"logo_path" gorm:"size:255"`
	ZabbixGroups []ClientZabbixGroup `json:"zabbix_groups,omitempty" gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
	Reports      []Report            `json:"reports,omitempty" gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time           `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time           `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// GroupIDs 返回客户关联的全部 Zabbix 主机组 ID
func (c *Client) GroupIDs() []string {
	ids := make([]string, 0, len(c.ZabbixGroups))
	for _, g := range c.ZabbixGroups {
		if g.ZabbixGroupID != "" {
			ids = append(ids, g.ZabbixGroupID)
		}
	}
	return ids
}

// ClientZabbixGroup 客户与 Zabbix 主机组的关联
type ClientZabbixGroup struct {
	ID            string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ZabbixGroupID string `json:"zabbix_group_id" gorm:"not null;size:50"`
	ClientID      string `json:"client_id" gorm:"not null;type:varchar(36);index"`
}

// Report 报表生成记录（元数据，尽力而为持久化）
type Report struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Filename       string    `json:"filename" gorm:"not null;size:255;unique"`
	FilePath       string    `json:"file_path" gorm:"not null;size:255"`
	ReferenceMonth string    `json:"reference_month" gorm:"not null;size:7"` // YYYY-MM
	ReportType     string    `json:"report_type" gorm:"not null;size:50;default:'custom'"`
	UserID         string    `json:"user_id" gorm:"not null;type:varchar(36);index"`
	ClientID       string    `json:"client_id" gorm:"not null;type:varchar(36);index"`
	CreatedAt      time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// ReportTemplate 可复用的报表布局模板
type ReportTemplate struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string     `json:"name" gorm:"not null;size:100;unique"`
	Layout    JSONBArray `json:"layout" gorm:"type:jsonb;not null"` // 有序模块配置列表
	CreatedAt time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// ReportSchedule 周期性报表调度配置
type ReportSchedule struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ClientID   string     `json:"client_id" gorm:"not null;type:varchar(36);index"`
	TemplateID string     `json:"template_id" gorm:"not null;type:varchar(36)"`
	CronExpr   string     `json:"cron_expr" gorm:"not null;size:100"` // 触发表达式，生成上个自然月报表
	IsEnabled  bool       `json:"is_enabled" gorm:"not null;default:true"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	CreatedBy  string     `json:"created_by" gorm:"size:100;default:'system'"`
	CreatedAt  time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// AuditLog 审计日志
type AuditLog struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);index"`
	Username  string    `json:"username" gorm:"not null;size:64"`
	Action    string    `json:"action" gorm:"not null;size:255"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

// MetricKeyProfile 指标键档案
// 同一 metric_type 下按 priority 升序逐个尝试，主机命中即停
type MetricKeyProfile struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	MetricType      string    `json:"metric_type" gorm:"not null;size:50;index"` // memory, wifi_clients, ...
	KeyString       string    `json:"key_string" gorm:"not null;size:255"`       // Zabbix item key
	Priority        int       `json:"priority" gorm:"not null;default:1"`        // 越小越先尝试
	CalculationType string    `json:"calculation_type" gorm:"not null;size:10;default:'DIRECT'"`
	IsActive        bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt       time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate 统一生成 UUID 主键
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

func (g *ClientZabbixGroup) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	return nil
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

func (t *ReportTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

func (s *ReportSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

func (p *MetricKeyProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

func (sc *SystemConfig) BeforeCreate(tx *gorm.DB) error {
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	return nil
}
