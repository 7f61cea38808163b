package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-go/pkg/log"
)

const (
	// maxLoggedBody 请求体和响应体最多记录的字节数。
	maxLoggedBody = 2048
	// maxRequestBody 是 JSON 请求体的大小上限，上传请求由 UploadHandler 单独限制。
	maxRequestBody = 1 << 20
)

// replayBody 先返回已读取的前缀，再继续读取原始请求体。
type replayBody struct {
	io.Reader
	io.Closer
}

// bodyLogWriter 用于捕获响应体
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 实现了 io.Writer 接口，将响应写入 gin.ResponseWriter 和一个内部的 buffer
func (w bodyLogWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - w.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		w.body.Write(b[:room])
	}
	return w.ResponseWriter.Write(b)
}

// skipBody 判断请求体是否不应该被记录：登录凭据、文件上传和 websocket。
func skipBody(c *gin.Context) bool {
	if strings.HasSuffix(c.Request.URL.Path, "/auth") {
		return true
	}
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return true
	}
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

func truncate(b []byte) string {
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + "...(truncated)"
	}
	return string(b)
}

// RequestLogger 是一个 Gin 中间件，用于记录请求和响应日志。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		skip := skipBody(c)

		// 只缓存请求体的前缀用于日志，其余部分原样交给 handler
		var requestBody []byte
		if !skip && c.Request.Body != nil {
			body := http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBody)
			requestBody, _ = io.ReadAll(io.LimitReader(body, maxLoggedBody+1))
			c.Request.Body = replayBody{Reader: io.MultiReader(bytes.NewReader(requestBody), body), Closer: body}
		}

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		if !skip {
			c.Writer = blw
		}

		c.Next()

		fields := []interface{}{
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		}
		if !skip {
			fields = append(fields, "requestBody", truncate(requestBody), "responseBody", blw.body.String())
		}
		log.Infow("HTTP Request Log", fields...)
	}
}
