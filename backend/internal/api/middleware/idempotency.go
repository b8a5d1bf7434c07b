package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/Sergio-AB-dev/Freya-App/backend/pkg/errors"
	"github.com/Sergio-AB-dev/Freya-App/backend/pkg/response"
)

// IdempotencyHeader 客户端为每次提交生成的唯一键
const IdempotencyHeader = "Idempotency-Key"

const idempotencyKeyMaxLen = 128

// KeyClaimer 原子占用键
type KeyClaimer interface {
	SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// Idempotency 防重复提交中间件
// 同一用户在 ttl 内重复提交同一 Idempotency-Key 时返回 409
// 请求未携带该头时直接放行；处理失败（4xx/5xx）时释放键，修正后可用同一键重新提交
func Idempotency(store KeyClaimer, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		idemKey := c.GetHeader(IdempotencyHeader)
		if store == nil || idemKey == "" || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if len(idemKey) > idempotencyKeyMaxLen {
			response.BadRequest(c, 10001, "Idempotency-Key 过长")
			c.Abort()
			return
		}

		key := "idempotency:" + c.GetString("user_id") + ":" + c.Request.Method + ":" + c.FullPath() + ":" + idemKey
		ok, err := store.SetNX(c.Request.Context(), key, ttl)
		if err != nil {
			c.Next()
			return
		}
		if !ok {
			response.Conflict(c, 10006, pkgerrors.ErrDuplicateRequest.Error())
			c.Abort()
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			_ = store.Del(context.Background(), key)
		}
	}
}
