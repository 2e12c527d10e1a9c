/*
 * @module api/middleware/gateway_identity
 * @description 网关身份中间件，信任认证网关注入的身份请求头并注入上下文
 * @architecture 中间件模式 - HTTP请求拦截和验证
 * @documentReference ai_docs/report_platform_req.md §5
 * @stateFlow 请求头提取 -> 身份构建 -> 上下文注入 -> 下一个处理器
 * @rules 服务部署在认证网关之后，身份由网关注入；白名单路径跳过身份校验
 * @dependencies net/http, context, strings
 * @refs api/routes.go
 */

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
)

// ContextKey 上下文键类型
type ContextKey string

// UserInfoKey 用户信息在上下文中的键
const UserInfoKey ContextKey = "user_info"

// 网关注入的身份请求头
const (
	HeaderUserID   = "X-User-Id"
	HeaderUsername = "X-User-Name"
	HeaderRoles    = "X-User-Roles"
)

// UserInfo 用户信息结构
type UserInfo struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// HasRole 判断用户是否持有指定角色
func (u *UserInfo) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// GatewayIdentityMiddleware 网关身份中间件
type GatewayIdentityMiddleware struct {
	// 白名单路径（不需要身份）
	whitelistPaths []string
}

// NewGatewayIdentityMiddleware 创建网关身份中间件实例
func NewGatewayIdentityMiddleware() *GatewayIdentityMiddleware {
	return &GatewayIdentityMiddleware{
		whitelistPaths: []string{
			"/health",  // 健康检查
			"/ready",   // 就绪检查
			"/swagger", // Swagger文档
			"/metrics", // Prometheus指标
		},
	}
}

// AddWhitelistPath 添加白名单路径
func (m *GatewayIdentityMiddleware) AddWhitelistPath(path string) {
	m.whitelistPaths = append(m.whitelistPaths, path)
}

// IsWhitelistPath 检查路径是否在白名单中
func (m *GatewayIdentityMiddleware) IsWhitelistPath(path string) bool {
	for _, whitelistPath := range m.whitelistPaths {
		// 支持前缀匹配
		if strings.HasPrefix(path, whitelistPath) {
			return true
		}
	}
	return false
}

// Middleware 身份中间件处理函数
func (m *GatewayIdentityMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 检查是否在白名单中
		if m.IsWhitelistPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		username := r.Header.Get(HeaderUsername)
		if username == "" {
			m.respondUnauthorized(w, r, "identidade ausente: o serviço deve ser acessado através do gateway de autenticação")
			return
		}

		userInfo := &UserInfo{
			UserID:   r.Header.Get(HeaderUserID),
			Username: username,
			Roles:    parseRoles(r.Header.Get(HeaderRoles)),
		}

		ctx := context.WithValue(r.Context(), UserInfoKey, userInfo)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseRoles 解析逗号分隔的角色列表
func parseRoles(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			roles = append(roles, p)
		}
	}
	return roles
}

// respondUnauthorized 返回401未授权响应
func (m *GatewayIdentityMiddleware) respondUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	render.JSON(w, r, map[string]interface{}{
		"status":  http.StatusUnauthorized,
		"message": message,
		"error":   "Unauthorized",
	})
}

// GetUserInfoFromContext 从上下文中获取用户信息
func GetUserInfoFromContext(ctx context.Context) (*UserInfo, bool) {
	userInfo, ok := ctx.Value(UserInfoKey).(*UserInfo)
	return userInfo, ok
}

// RequireRole 创建一个需要特定角色的中间件
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userInfo, ok := GetUserInfoFromContext(r.Context())
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, map[string]interface{}{
					"status":  http.StatusUnauthorized,
					"message": "未找到用户信息",
					"error":   "Unauthorized",
				})
				return
			}

			if !userInfo.HasRole(role) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, map[string]interface{}{
					"status":  http.StatusForbidden,
					"message": fmt.Sprintf("缺少所需角色: %s", role),
					"error":   "Forbidden",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
