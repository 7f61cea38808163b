// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"portfolio-go/internal/model"
	"portfolio-go/internal/service"
	"portfolio-go/pkg/log"
)

// SessionCookieName 是保存管理员会话 token 的 cookie。
const SessionCookieName = "admin_session"

// sessionKey 是会话在 gin.Context 中的键。
const sessionKey = "admin_session"

// TokenFromRequest 依次从 cookie 和 Authorization 请求头中提取会话 token。
func TokenFromRequest(c *gin.Context) string {
	if tok, err := c.Cookie(SessionCookieName); err == nil && tok != "" {
		return tok
	}
	const bearerPrefix = "Bearer "
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	}
	return ""
}

// AuthMiddleware 要求请求携带有效的管理员会话，并把会话存入上下文。
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := authService.Authenticate(c.Request.Context(), TokenFromRequest(c))
		if err != nil {
			if !errors.Is(err, model.ErrAuthRequired) {
				log.Errorw("校验管理员会话失败", "error", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

// SessionFromContext 返回 AuthMiddleware 存入的会话。
func SessionFromContext(c *gin.Context) (*model.AdminSession, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*model.AdminSession)
	return s, ok
}
