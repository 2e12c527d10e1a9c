package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"reporthub-service/service/models"
	"reporthub-service/zabbix_client"
)

// stubAssembler 捕获正文 HTML 的 PDF 装配替身
type stubAssembler struct {
	mu       sync.Mutex
	bodyHTML string
	err      error
}

func (a *stubAssembler) Assemble(_ context.Context, bodyHTML, _, _ string) ([]byte, error) {
	a.mu.Lock()
	a.bodyHTML = bodyHTML
	a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	return []byte("%PDF-1.4 conteudo de teste"), nil
}

func (a *stubAssembler) body() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bodyHTML
}

// stubNotifier 记录完成事件
type stubNotifier struct {
	mu     sync.Mutex
	events []CompletionEvent
}

func (n *stubNotifier) ReportCompleted(_ context.Context, event CompletionEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func newGeneratorDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	err = db.AutoMigrate(
		&models.Client{},
		&models.ClientZabbixGroup{},
		&models.ReportTemplate{},
		&models.SystemConfig{},
		&models.Report{},
		&models.AuditLog{},
		&models.MetricKeyProfile{},
	)
	if err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	return db
}

func seedGeneratorClient(t *testing.T, db *gorm.DB) models.Client {
	t.Helper()
	client := models.Client{
		Name:        "Acme Corp",
		SLAContract: 99.9,
		ZabbixGroups: []models.ClientZabbixGroup{
			{ZabbixGroupID: "10"},
		},
	}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("种子客户失败: %v", err)
	}
	return client
}

func newGeneratorService(t *testing.T, db *gorm.DB, pdf *stubAssembler, notifier Notifier, gw Gateway) *Service {
	t.Helper()
	return NewService(Options{
		DB:        db,
		Tasks:     NewTaskManager(),
		PDF:       pdf,
		Notifier:  notifier,
		OutputDir: t.TempDir(),
		NewGateway: func(ctx context.Context) (Gateway, error) {
			return gw, nil
		},
	})
}

// waitTask 轮询任务直到终态
func waitTask(t *testing.T, svc *Service, taskID string) Task {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		task, ok := svc.Tasks().Get(taskID)
		if !ok {
			t.Fatalf("任务 %s 不存在", taskID)
		}
		if task.Done || task.Failed {
			return task
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("任务未在时限内到达终态")
	return Task{}
}

func TestGenerateEndToEnd(t *testing.T) {
	db := newGeneratorDB(t)
	client := seedGeneratorClient(t, db)

	gw := &stubGateway{
		getHosts: func(_ context.Context, groupIDs []string) ([]zabbix_client.Host, error) {
			if len(groupIDs) != 1 || groupIDs[0] != "10" {
				t.Errorf("应使用客户关联的主机组: %v", groupIDs)
			}
			return []zabbix_client.Host{{HostID: "h1", DisplayName: "sw-core-01", IP: "10.0.0.1"}}, nil
		},
	}
	pdf := &stubAssembler{}
	notifier := &stubNotifier{}
	svc := newGeneratorService(t, db, pdf, notifier, gw)

	taskID, err := svc.StartGeneration(context.Background(), GenerateParams{
		ClientID: client.ID,
		RefMonth: "2025-08",
		Layout: []interface{}{
			map[string]interface{}{"type": "inventory", "title": "Inventário"},
			map[string]interface{}{"type": "html", "content": "<p>observações do período</p>"},
		},
		UserID:   "u-1",
		Username: "maria",
	})
	if err != nil {
		t.Fatalf("StartGeneration() error = %v", err)
	}

	task := waitTask(t, svc, taskID)
	if !task.Done || task.Failed {
		t.Fatalf("任务应成功完成: %+v", task)
	}
	if task.Status != StatusCompleted {
		t.Errorf("终态状态应为 %q, 实际 %q", StatusCompleted, task.Status)
	}
	if !strings.HasPrefix(task.FileName, "Relatorio_Acme_Corp_2025-08") {
		t.Errorf("文件名应按客户与月份命名: %q", task.FileName)
	}

	data, err := os.ReadFile(task.FilePath)
	if err != nil {
		t.Fatalf("读取产物失败: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("产物应为 PDF 字节: %q", data[:8])
	}

	body := pdf.body()
	for _, want := range []string{"sw-core-01", "10.0.0.1", "observações do período", "Acme Corp"} {
		if !strings.Contains(body, want) {
			t.Errorf("正文 HTML 缺少 %q", want)
		}
	}

	// 元数据与审计落库
	var reportCount, auditCount int64
	db.Model(&models.Report{}).Where("client_id = ?", client.ID).Count(&reportCount)
	db.Model(&models.AuditLog{}).Where("username = ?", "maria").Count(&auditCount)
	if reportCount != 1 || auditCount != 1 {
		t.Errorf("期望报表记录与审计各 1 条, 实际 %d/%d", reportCount, auditCount)
	}

	// 完成事件广播
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.events) != 1 {
		t.Fatalf("期望 1 个完成事件, 实际 %d", len(notifier.events))
	}
	if notifier.events[0].TaskID != taskID || notifier.events[0].Status != StatusCompleted {
		t.Errorf("完成事件载荷错误: %+v", notifier.events[0])
	}
}

func TestGenerateFromTemplate(t *testing.T) {
	db := newGeneratorDB(t)
	client := seedGeneratorClient(t, db)

	tpl := models.ReportTemplate{
		Name: "Mensal Padrão",
		Layout: models.JSONBArray{
			{"type": "inventory"},
		},
	}
	if err := db.Create(&tpl).Error; err != nil {
		t.Fatalf("种子模板失败: %v", err)
	}

	gw := &stubGateway{
		getHosts: func(_ context.Context, _ []string) ([]zabbix_client.Host, error) {
			return []zabbix_client.Host{{HostID: "h1", DisplayName: "sw-core-01"}}, nil
		},
	}
	svc := newGeneratorService(t, db, &stubAssembler{}, nil, gw)

	taskID, err := svc.StartGeneration(context.Background(), GenerateParams{
		ClientID:   client.ID,
		RefMonth:   "2025-08",
		TemplateID: tpl.ID,
	})
	if err != nil {
		t.Fatalf("StartGeneration() error = %v", err)
	}
	task := waitTask(t, svc, taskID)
	if !task.Done {
		t.Fatalf("模板布局生成应成功: %+v", task)
	}
}

func TestStartGenerationValidation(t *testing.T) {
	db := newGeneratorDB(t)
	client := seedGeneratorClient(t, db)
	svc := newGeneratorService(t, db, &stubAssembler{}, nil, &stubGateway{})

	inline := []interface{}{map[string]interface{}{"type": "inventory"}}

	// 月份非法
	if _, err := svc.StartGeneration(context.Background(), GenerateParams{ClientID: client.ID, RefMonth: "agosto", Layout: inline}); err == nil {
		t.Error("非法月份应同步报错")
	}
	// 客户不存在
	if _, err := svc.StartGeneration(context.Background(), GenerateParams{ClientID: "nao-existe", RefMonth: "2025-08", Layout: inline}); err == nil ||
		!strings.Contains(err.Error(), "cliente não encontrado") {
		t.Errorf("未知客户应同步报错, 实际 %v", err)
	}
	// 布局为空
	if _, err := svc.StartGeneration(context.Background(), GenerateParams{ClientID: client.ID, RefMonth: "2025-08", Layout: []interface{}{}}); err == nil {
		t.Error("空布局应同步报错")
	}
	// 既无模板也无内联布局
	if _, err := svc.StartGeneration(context.Background(), GenerateParams{ClientID: client.ID, RefMonth: "2025-08"}); err == nil {
		t.Error("缺少布局来源应同步报错")
	}

	// 客户无关联主机组
	orphan := models.Client{Name: "Sem Grupo"}
	if err := db.Create(&orphan).Error; err != nil {
		t.Fatalf("种子客户失败: %v", err)
	}
	if _, err := svc.StartGeneration(context.Background(), GenerateParams{ClientID: orphan.ID, RefMonth: "2025-08", Layout: inline}); err == nil ||
		!strings.Contains(err.Error(), "grupos Zabbix") {
		t.Errorf("无主机组客户应同步报错, 实际 %v", err)
	}
}

func TestGenerateModuleFailureDegrades(t *testing.T) {
	db := newGeneratorDB(t)
	client := seedGeneratorClient(t, db)

	gw := &stubGateway{
		getHosts: func(_ context.Context, _ []string) ([]zabbix_client.Host, error) {
			return []zabbix_client.Host{{HostID: "h1", DisplayName: "sw-core-01"}}, nil
		},
	}
	pdf := &stubAssembler{}
	svc := newGeneratorService(t, db, pdf, nil, gw)

	// mem 模块没有任何键档案，必然失败；inventory 正常
	taskID, err := svc.StartGeneration(context.Background(), GenerateParams{
		ClientID: client.ID,
		RefMonth: "2025-08",
		Layout: []interface{}{
			map[string]interface{}{"type": "mem", "title": "Memória"},
			map[string]interface{}{"type": "inventory"},
		},
	})
	if err != nil {
		t.Fatalf("StartGeneration() error = %v", err)
	}

	task := waitTask(t, svc, taskID)
	if !task.Done || task.Failed {
		t.Fatalf("单模块失败不应中断整体生成: %+v", task)
	}

	body := pdf.body()
	if !strings.Contains(body, "Não foi possível gerar este módulo") {
		t.Error("失败模块应降级为内联错误区块")
	}
	if !strings.Contains(body, "sw-core-01") {
		t.Error("其余模块应正常渲染")
	}
}

func TestGenerateUnknownModuleType(t *testing.T) {
	db := newGeneratorDB(t)
	client := seedGeneratorClient(t, db)

	gw := &stubGateway{
		getHosts: func(_ context.Context, _ []string) ([]zabbix_client.Host, error) {
			return []zabbix_client.Host{{HostID: "h1", DisplayName: "sw-core-01"}}, nil
		},
	}
	pdf := &stubAssembler{}
	svc := newGeneratorService(t, db, pdf, nil, gw)

	taskID, err := svc.StartGeneration(context.Background(), GenerateParams{
		ClientID: client.ID,
		RefMonth: "2025-08",
		Layout:   []interface{}{map[string]interface{}{"type": "modulo-inexistente"}},
	})
	if err != nil {
		t.Fatalf("StartGeneration() error = %v", err)
	}

	task := waitTask(t, svc, taskID)
	if !task.Done {
		t.Fatalf("未知模块类型应降级而非失败: %+v", task)
	}
	if !strings.Contains(pdf.body(), "tipo de módulo desconhecido") {
		t.Error("未知模块应渲染内联错误")
	}
}

func TestGeneratePDFFailure(t *testing.T) {
	db := newGeneratorDB(t)
	client := seedGeneratorClient(t, db)

	gw := &stubGateway{
		getHosts: func(_ context.Context, _ []string) ([]zabbix_client.Host, error) {
			return []zabbix_client.Host{{HostID: "h1", DisplayName: "sw-core-01"}}, nil
		},
	}
	pdf := &stubAssembler{err: fmt.Errorf("conversor indisponível")}
	notifier := &stubNotifier{}
	svc := newGeneratorService(t, db, pdf, notifier, gw)

	taskID, err := svc.StartGeneration(context.Background(), GenerateParams{
		ClientID: client.ID,
		RefMonth: "2025-08",
		Layout:   []interface{}{map[string]interface{}{"type": "inventory"}},
	})
	if err != nil {
		t.Fatalf("StartGeneration() error = %v", err)
	}

	task := waitTask(t, svc, taskID)
	if !task.Failed {
		t.Fatalf("PDF 装配失败应为致命错误: %+v", task)
	}
	if !strings.HasPrefix(task.Status, "Erro: ") || !strings.Contains(task.Status, "falha na geração do PDF") {
		t.Errorf("失败状态文案错误: %q", task.Status)
	}

	// 失败也广播终态事件
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.events) != 1 || !strings.HasPrefix(notifier.events[0].Status, "Erro: ") {
		t.Errorf("期望 1 个失败事件, 实际 %+v", notifier.events)
	}
}

func TestGenerateNoHosts(t *testing.T) {
	db := newGeneratorDB(t)
	client := seedGeneratorClient(t, db)

	gw := &stubGateway{
		getHosts: func(_ context.Context, _ []string) ([]zabbix_client.Host, error) {
			return nil, nil
		},
	}
	svc := newGeneratorService(t, db, &stubAssembler{}, nil, gw)

	taskID, err := svc.StartGeneration(context.Background(), GenerateParams{
		ClientID: client.ID,
		RefMonth: "2025-08",
		Layout:   []interface{}{map[string]interface{}{"type": "inventory"}},
	})
	if err != nil {
		t.Fatalf("StartGeneration() error = %v", err)
	}

	task := waitTask(t, svc, taskID)
	if !task.Failed || !strings.Contains(task.Status, "nenhum host encontrado") {
		t.Errorf("无主机应为致命错误: %+v", task)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Acme Corp":      "Acme_Corp",
		"Acme/Corp (BR)": "Acme_Corp_BR",
		"  espaços  ":    "espa_os",
		"ja-seguro_123":  "ja-seguro_123",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, 期望 %q", in, got, want)
		}
	}
}
