package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

// streamHeartbeat SSE 保活间隔，需小于反向代理的空闲超时
const streamHeartbeat = 25 * time.Second

// streamSnapshots 以 SSE 推送集合快照
// 连接建立时先推送 initial，之后每条 updates 都是一份完整快照
func streamSnapshots(c *gin.Context, event string, initial interface{}, updates <-chan []byte) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent(event, initial)
	c.Writer.Flush()

	ticker := time.NewTicker(streamHeartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case payload, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent(event, string(payload))
			return true
		case <-ticker.C:
			_, err := io.WriteString(w, ": ping\n\n")
			return err == nil
		case <-ctx.Done():
			return false
		}
	})
}
