/*
 * @module service/report/generator
 * @description 报表生成编排器：解析周期与主机 -> 预采集共享数据 -> 逐模块生成 HTML -> PDF 装配 -> 落库与通知
 * @architecture 分层架构 - 编排层；每次生成持有独立的运行级缓存与解析器，互不串扰
 * @documentReference ai_docs/report_platform_req.md §4.7, §7
 * @stateFlow "Iniciando..." -> 周期/主机解析 -> 共享数据预采集 -> 模块循环（单模块失败降级为内联错误）
 *            -> PDF 装配 -> "Concluído" | "Erro: <motivo>"
 * @rules 单模块失败绝不中断整体生成；主机解析/事件深度耗尽/PDF 装配失败为致命错误；
 *        报表元数据落库为尽力而为，失败不阻断文件交付
 * @dependencies gorm.io/gorm, reporthub-service/service/render, reporthub-service/zabbix_client
 * @refs api/controllers/report.go, service/schedule/schedule_service.go
 */

package report

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"reporthub-service/service/models"
	"reporthub-service/service/render"
	"reporthub-service/service/utils"
	"reporthub-service/zabbix_client"
)

// ChartRenderer 图表渲染边界：把图表配置换成 PNG 字节
type ChartRenderer interface {
	RenderPNG(ctx context.Context, chart map[string]interface{}) ([]byte, error)
}

// PDFAssembler PDF 装配边界：正文 HTML 转 PDF 并与封面/封底合并
type PDFAssembler interface {
	Assemble(ctx context.Context, bodyHTML, coverPath, finalPagePath string) ([]byte, error)
}

// Notifier 生成完成通知边界
type Notifier interface {
	ReportCompleted(ctx context.Context, event CompletionEvent) error
}

// ScriptRunner 自定义模块脚本执行边界
type ScriptRunner interface {
	Run(src string, params map[string]interface{}) (string, error)
}

// Locker 客户级生成互斥锁边界
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// CompletionEvent 生成完成事件载荷
type CompletionEvent struct {
	TaskID     string    `json:"task_id"`
	ClientID   string    `json:"client_id"`
	ClientName string    `json:"client_name"`
	RefMonth   string    `json:"ref_month"`
	FileName   string    `json:"file_name"`
	Status     string    `json:"status"`
	FinishedAt time.Time `json:"finished_at"`
}

// generationTimeout 单次生成的硬超时
const generationTimeout = 30 * time.Minute

// Options 报表服务装配参数
type Options struct {
	DB         *gorm.DB
	Tasks      *TaskManager
	Charts     ChartRenderer
	PDF        PDFAssembler
	Notifier   Notifier
	Scripts    ScriptRunner
	Locks      Locker
	OutputDir  string
	NewGateway func(ctx context.Context) (Gateway, error)
}

// Service 报表生成服务
type Service struct {
	db         *gorm.DB
	tasks      *TaskManager
	charts     ChartRenderer
	pdf        PDFAssembler
	notifier   Notifier
	scripts    ScriptRunner
	locks      Locker
	outputDir  string
	newGateway func(ctx context.Context) (Gateway, error)
}

// NewService 装配报表服务；OutputDir 缺省取 REPORTS_DIR 环境变量
func NewService(opts Options) *Service {
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = os.Getenv("REPORTS_DIR")
	}
	if outputDir == "" {
		outputDir = "generated_reports"
	}
	newGateway := opts.NewGateway
	if newGateway == nil {
		newGateway = func(ctx context.Context) (Gateway, error) {
			return zabbix_client.NewClient("", ""), nil
		}
	}
	return &Service{
		db:         opts.DB,
		tasks:      opts.Tasks,
		charts:     opts.Charts,
		pdf:        opts.PDF,
		notifier:   opts.Notifier,
		scripts:    opts.Scripts,
		locks:      opts.Locks,
		outputDir:  outputDir,
		newGateway: newGateway,
	}
}

// Tasks 任务注册表（供状态接口与清理服务使用）
func (s *Service) Tasks() *TaskManager {
	return s.tasks
}

// OutputDir 报表产物目录
func (s *Service) OutputDir() string {
	return s.outputDir
}

// GenerateParams 一次生成请求
type GenerateParams struct {
	ClientID   string
	RefMonth   string
	TemplateID string
	Layout     interface{} // 内联布局，优先级低于 TemplateID
	UserID     string
	Username   string
}

// StartGeneration 校验请求并登记后台生成任务，立即返回任务号
// 校验失败（客户不存在、月份非法、布局为空）同步报错，不产生任务
func (s *Service) StartGeneration(ctx context.Context, p GenerateParams) (string, error) {
	period, err := ResolvePeriod(p.RefMonth)
	if err != nil {
		return "", err
	}

	var client models.Client
	if err := s.db.WithContext(ctx).Preload("ZabbixGroups").First(&client, "id = ?", p.ClientID).Error; err != nil {
		return "", fmt.Errorf("cliente não encontrado: %w", err)
	}
	if len(client.GroupIDs()) == 0 {
		return "", fmt.Errorf("o cliente '%s' não possui grupos Zabbix associados", client.Name)
	}

	layout, err := s.resolveLayout(ctx, p)
	if err != nil {
		return "", err
	}
	if len(layout) == 0 {
		return "", fmt.Errorf("o layout do relatório está vazio")
	}

	taskID := s.tasks.Create(p.ClientID, p.RefMonth)
	go s.run(taskID, client, layout, period, p)
	return taskID, nil
}

// resolveLayout 模板优先，其次内联布局
func (s *Service) resolveLayout(ctx context.Context, p GenerateParams) ([]ModuleConfig, error) {
	if p.TemplateID != "" {
		var tpl models.ReportTemplate
		if err := s.db.WithContext(ctx).First(&tpl, "id = ?", p.TemplateID).Error; err != nil {
			return nil, fmt.Errorf("modelo de relatório não encontrado: %w", err)
		}
		return ParseLayout(tpl.Layout)
	}
	if p.Layout == nil {
		return nil, fmt.Errorf("informe template_id ou um layout inline")
	}
	return ParseLayout(p.Layout)
}

// run 后台生成入口，持有独立超时上下文
func (s *Service) run(taskID string, client models.Client, layout []ModuleConfig, period Period, p GenerateParams) {
	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	defer cancel()

	reportsStarted.Inc()
	started := time.Now()
	defer func() {
		reportDuration.Observe(time.Since(started).Seconds())
	}()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("生成协程发生未捕获 panic", "task_id", taskID, "panic", r)
			reportsFailed.WithLabelValues("panic").Inc()
			s.tasks.Fail(taskID, "falha interna inesperada")
		}
	}()

	if s.locks != nil {
		release, ok, err := s.locks.Acquire(ctx, "report:generate:"+client.ID, generationTimeout)
		if err != nil {
			slog.Warn("获取客户级生成锁失败，降级为无锁执行", "client_id", client.ID, "err", err)
		} else if !ok {
			reportsFailed.WithLabelValues("lock").Inc()
			s.tasks.Fail(taskID, fmt.Sprintf("já existe uma geração em andamento para o cliente '%s'", client.Name))
			return
		} else {
			defer release()
		}
	}

	if err := s.generate(ctx, taskID, client, layout, period, p); err != nil {
		slog.Error("报表生成失败", "task_id", taskID, "client", client.Name, "err", err)
		s.tasks.Fail(taskID, err.Error())
		s.notify(taskID, client, "", p.RefMonth, statusErrPrefix+err.Error())
		return
	}
	reportsCompleted.Inc()
}

// generate 生成状态机主体
func (s *Service) generate(ctx context.Context, taskID string, client models.Client, layout []ModuleConfig, period Period, p GenerateParams) error {
	var sysConfig models.SystemConfig
	if err := s.db.WithContext(ctx).First(&sysConfig).Error; err != nil {
		slog.Warn("系统配置缺失，使用零值品牌信息", "err", err)
	}

	gw, err := s.newGateway(ctx)
	if err != nil {
		reportsFailed.WithLabelValues("gateway").Inc()
		return fmt.Errorf("falha ao conectar ao Zabbix: %w", err)
	}

	g := &Generator{
		svc:       s,
		taskID:    taskID,
		client:    client,
		sysConfig: sysConfig,
		gateway:   gw,
		cache:     NewRunCache(),
		resolver:  NewKeyResolver(s.db, gw),
		period:    period,
		refMonth:  p.RefMonth,
	}

	g.updateStatus("Resolvendo hosts do cliente…")
	hosts, err := gw.GetHosts(ctx, client.GroupIDs())
	if err != nil {
		reportsFailed.WithLabelValues("hosts").Inc()
		return fmt.Errorf("falha ao buscar hosts: %w", err)
	}
	if len(hosts) == 0 {
		reportsFailed.WithLabelValues("hosts").Inc()
		return fmt.Errorf("nenhum host encontrado nos grupos do cliente '%s'", client.Name)
	}
	g.cache.SetHosts(hosts)

	// 可用性模块存在时预热共享数据包；失败不在此处致命，由各模块内联提示
	if layoutNeedsAvailability(layout) {
		g.updateStatus("Coletando dados de disponibilidade…")
		if _, err := g.availability(ctx); err != nil {
			slog.Warn("可用性预采集失败，相关模块将内联错误提示", "task_id", taskID, "err", err)
		}
	}

	fragments := make([]template.HTML, 0, len(layout))
	for i, mod := range layout {
		title := mod.Title
		if title == "" {
			title = mod.Type
		}
		g.updateStatus(fmt.Sprintf("Gerando módulo %d de %d: %s", i+1, len(layout), title))
		fragments = append(fragments, g.runModule(ctx, mod))
	}

	g.updateStatus("Montando o documento PDF…")
	refTime := time.Unix(period.Start, 0)
	bodyHTML, err := render.Document(render.DocumentData{
		Title:          fmt.Sprintf("Relatório Mensal de Monitoramento – %s", client.Name),
		ClientName:     client.Name,
		PeriodLabel:    utils.MonthNamePT(refTime),
		CompanyName:    sysConfig.CompanyName,
		FooterText:     sysConfig.FooterText,
		PrimaryColor:   sysConfig.PrimaryColor,
		SecondaryColor: sysConfig.SecondaryColor,
		HeaderTextColor: utils.TextColorForBackground(sysConfig.PrimaryColor),
		GeneratedAt:    utils.FormatDateTimeBR(time.Now()),
		Modules:        fragments,
	})
	if err != nil {
		reportsFailed.WithLabelValues("render").Inc()
		return fmt.Errorf("falha na montagem do HTML do relatório: %w", err)
	}

	pdfBytes, err := s.pdf.Assemble(ctx, bodyHTML, sysConfig.ReportCoverPath, sysConfig.ReportFinalPagePath)
	if err != nil {
		reportsFailed.WithLabelValues("pdf").Inc()
		return fmt.Errorf("falha na geração do PDF: %w", err)
	}

	fileName := fmt.Sprintf("Relatorio_%s_%s.pdf", sanitizeFilename(client.Name), p.RefMonth)
	filePath := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s", taskID, fileName))
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		reportsFailed.WithLabelValues("storage").Inc()
		return fmt.Errorf("falha ao preparar o diretório de relatórios: %w", err)
	}
	if err := os.WriteFile(filePath, pdfBytes, 0o644); err != nil {
		reportsFailed.WithLabelValues("storage").Inc()
		return fmt.Errorf("falha ao gravar o arquivo do relatório: %w", err)
	}

	s.persistMetadata(ctx, taskID, client, fileName, filePath, p)
	s.tasks.Complete(taskID, filePath, fileName)
	s.notify(taskID, client, fileName, p.RefMonth, StatusCompleted)
	slog.Info("报表生成完成", "task_id", taskID, "client", client.Name, "file", fileName, "modules", len(layout))
	return nil
}

// persistMetadata 报表记录与审计落库，失败仅告警
func (s *Service) persistMetadata(ctx context.Context, taskID string, client models.Client, fileName, filePath string, p GenerateParams) {
	rec := models.Report{
		Filename:       fmt.Sprintf("%s_%s", taskID, fileName),
		FilePath:       filePath,
		ReferenceMonth: p.RefMonth,
		ReportType:     "custom",
		UserID:         p.UserID,
		ClientID:       client.ID,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		slog.Warn("报表元数据落库失败", "task_id", taskID, "err", err)
	}
	audit := models.AuditLog{
		UserID:   p.UserID,
		Username: p.Username,
		Action:   fmt.Sprintf("Gerou o relatório '%s' para o cliente '%s'", fileName, client.Name),
	}
	if err := s.db.WithContext(ctx).Create(&audit).Error; err != nil {
		slog.Warn("审计日志落库失败", "task_id", taskID, "err", err)
	}
}

// notify 终态事件广播，失败仅告警
func (s *Service) notify(taskID string, client models.Client, fileName, refMonth, status string) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	event := CompletionEvent{
		TaskID:     taskID,
		ClientID:   client.ID,
		ClientName: client.Name,
		RefMonth:   refMonth,
		FileName:   fileName,
		Status:     status,
		FinishedAt: time.Now(),
	}
	if err := s.notifier.ReportCompleted(ctx, event); err != nil {
		slog.Warn("生成完成通知发布失败", "task_id", taskID, "err", err)
	}
}

// layoutNeedsAvailability 布局中是否存在消费共享可用性数据包的模块
func layoutNeedsAvailability(layout []ModuleConfig) bool {
	for _, mod := range layout {
		if availabilityModuleTypes[mod.Type] {
			return true
		}
	}
	return false
}

var filenameSanitizer = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// sanitizeFilename 客户名转安全文件名片段
func sanitizeFilename(name string) string {
	return strings.Trim(filenameSanitizer.ReplaceAllString(name, "_"), "_")
}

// Generator 单次生成的运行态
type Generator struct {
	svc       *Service
	taskID    string
	client    models.Client
	sysConfig models.SystemConfig
	gateway   Gateway
	cache     *RunCache
	resolver  *KeyResolver
	period    Period
	refMonth  string
}

// updateStatus 任务进度上报
func (g *Generator) updateStatus(msg string) {
	g.svc.tasks.UpdateStatus(g.taskID, msg)
}

// availability 共享可用性数据包（运行级缓存，含黏性错误）
func (g *Generator) availability(ctx context.Context) (*AvailabilityBundle, error) {
	return g.cache.Availability(func() (*AvailabilityBundle, error) {
		return g.collectAvailability(ctx, g.cache.Hosts(), g.period, g.client.SLAContract, false)
	})
}

// prevMonthSLA 上月 SLA 行（仅趋势模式，最多计算一次）
func (g *Generator) prevMonthSLA(ctx context.Context) ([]SLARow, error) {
	return g.cache.PrevMonthSLA(func() ([]SLARow, error) {
		bundle, err := g.collectAvailability(ctx, g.cache.Hosts(), PreviousPeriod(g.period), g.client.SLAContract, true)
		if err != nil {
			return nil, err
		}
		return bundle.SLARows, nil
	})
}

// runModule 单模块执行；任何错误或 panic 降级为内联错误片段
func (g *Generator) runModule(ctx context.Context, mod ModuleConfig) (fragment template.HTML) {
	title := mod.Title
	if title == "" {
		title = mod.Type
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("模块执行 panic，降级为内联错误", "task_id", g.taskID, "module", mod.Type, "panic", r)
			moduleFailures.WithLabelValues(mod.Type).Inc()
			fragment = render.InlineError(title, "falha interna ao gerar este módulo")
		}
	}()

	collector, ok := moduleCollectors[mod.Type]
	if !ok {
		moduleFailures.WithLabelValues(mod.Type).Inc()
		return render.InlineError(title, fmt.Sprintf("tipo de módulo desconhecido: '%s'", mod.Type))
	}

	html, err := collector(ctx, g, mod)
	if err != nil {
		slog.Warn("模块生成失败，降级为内联错误", "task_id", g.taskID, "module", mod.Type, "err", err)
		moduleFailures.WithLabelValues(mod.Type).Inc()
		return render.InlineError(title, err.Error())
	}
	if mod.NewPage {
		return render.PageBreak() + html
	}
	return html
}
