package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Sergio-AB-dev/Freya-App/backend/pkg/response"
)

// 由 JWTAuth 中间件注入的上下文键
const (
	CtxUserID   = "user_id"
	CtxEmail    = "email"
	CtxTokenJTI = "token_jti"
	CtxTokenExp = "token_exp"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(CtxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// GetTokenInfo 提取当前 Access Token 的 jti 与过期时间，缺失时返回零值
func GetTokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString(CtxTokenJTI)
	exp, _ := c.Get(CtxTokenExp)
	t, _ := exp.(time.Time)
	return jti, t
}

// PathID 提取路径中的 UUID 参数，格式非法时按资源不存在写入 404
func PathID(c *gin.Context, key string, code int, message string) (string, bool) {
	id := c.Param(key)
	if _, err := uuid.Parse(id); err != nil {
		response.NotFound(c, code, message)
		return "", false
	}
	return id, true
}
