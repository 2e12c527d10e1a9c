/*
 * @module service/pdf/builder
 * @description PDF 装配器：正文 HTML 经外部转换服务转 PDF，并与封面/封底 PDF 合并
 * @architecture HTTP 客户端 - 外部协作边界（Gotenberg 风格 API）
 * @documentReference ai_docs/report_platform_req.md §4, §6
 * @stateFlow 封面(可选) -> 正文转换 -> 封底(可选) -> 合并 -> 字节校验
 * @rules 封面/封底文件存在但缺少 %PDF 头为致命错误（文件损坏）；配置路径不存在则跳过；
 *        转换结果必须以 %PDF 开头
 * @dependencies net/http, mime/multipart
 * @refs service/report/generator.go
 */

package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

// ErrCorruptPDF 文件缺少 %PDF 头
var ErrCorruptPDF = errors.New("arquivo PDF corrompido (cabeçalho %PDF ausente)")

var pdfHeader = []byte("%PDF")

// Builder 基于外部转换服务的 PDF 装配器
type Builder struct {
	baseURL    string
	httpClient *http.Client
}

// NewBuilder 创建装配器；url 为空时取 PDF_RENDER_URL 环境变量
func NewBuilder(url string) *Builder {
	if url == "" {
		url = os.Getenv("PDF_RENDER_URL")
	}
	return &Builder{
		baseURL:    url,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Assemble 正文 HTML 转 PDF 并与封面/封底合并为最终文档
func (b *Builder) Assemble(ctx context.Context, bodyHTML, coverPath, finalPagePath string) ([]byte, error) {
	if b.baseURL == "" {
		return nil, errors.New("conversor de PDF não configurado (PDF_RENDER_URL)")
	}

	body, err := b.convertHTML(ctx, bodyHTML)
	if err != nil {
		return nil, err
	}

	parts := make([][]byte, 0, 3)
	if cover, ok, err := readStaticPage(coverPath); err != nil {
		return nil, fmt.Errorf("capa do relatório: %w", err)
	} else if ok {
		parts = append(parts, cover)
	}
	parts = append(parts, body)
	if final, ok, err := readStaticPage(finalPagePath); err != nil {
		return nil, fmt.Errorf("página final do relatório: %w", err)
	} else if ok {
		parts = append(parts, final)
	}

	if len(parts) == 1 {
		return body, nil
	}
	return b.merge(ctx, parts)
}

// readStaticPage 读取封面/封底；路径未配置或文件不存在返回 ok=false
func readStaticPage(path string) ([]byte, bool, error) {
	if path == "" {
		return nil, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("配置的静态 PDF 页不存在，跳过", "path", path)
			return nil, false, nil
		}
		return nil, false, err
	}
	if !bytes.HasPrefix(data, pdfHeader) {
		return nil, false, fmt.Errorf("%s: %w", path, ErrCorruptPDF)
	}
	return data, true, nil
}

// convertHTML 正文 HTML -> PDF
func (b *Builder) convertHTML(ctx context.Context, html string) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write([]byte(html)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.post(ctx, "/forms/chromium/convert/html", w.FormDataContentType(), &buf)
}

// merge 按顺序合并多个 PDF
func (b *Builder) merge(ctx context.Context, parts [][]byte) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for i, part := range parts {
		f, err := w.CreateFormFile("files", fmt.Sprintf("part_%02d.pdf", i))
		if err != nil {
			return nil, err
		}
		if _, err := f.Write(part); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.post(ctx, "/forms/pdfengines/merge", w.FormDataContentType(), &buf)
}

func (b *Builder) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("falha de comunicação com o conversor de PDF: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("conversor de PDF retornou HTTP %d: %s", resp.StatusCode, string(msg))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("falha ao ler o PDF gerado: %w", err)
	}
	if !bytes.HasPrefix(data, pdfHeader) {
		return nil, ErrCorruptPDF
	}
	return data, nil
}
