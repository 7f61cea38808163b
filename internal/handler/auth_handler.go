package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-go/internal/middleware"
	"portfolio-go/internal/service"
	"portfolio-go/pkg/log"
)

// AuthHandler 处理管理员登录、会话检查和登出 (/api/admin/auth)。
type AuthHandler struct {
	authService  service.AuthService
	secureCookie bool
	maxAge       int
}

// NewAuthHandler 创建一个新的 AuthHandler。secureCookie 在生产环境下应为 true。
func NewAuthHandler(authService service.AuthService, secureCookie bool, maxAgeSeconds int) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie, maxAge: maxAgeSeconds}
}

// LoginRequest 定义了登录 API 的请求体结构。
type LoginRequest struct {
	UID      string `json:"uid"`
	Password string `json:"password"`
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, value, maxAge, "/", "", h.secureCookie, true)
}

// Login 校验凭据并写入会话 cookie。响应中同时返回 token，供命令行工具使用。
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}
	tok, session, err := h.authService.Login(c.Request.Context(), req.UID, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	h.setCookie(c, tok, h.maxAge)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Logged in successfully",
		"token":      tok,
		"expires_at": session.ExpiresAt,
	})
}

// Status 返回当前请求是否带有有效的会话。
func (h *AuthHandler) Status(c *gin.Context) {
	_, err := h.authService.Authenticate(c.Request.Context(), middleware.TokenFromRequest(c))
	c.JSON(http.StatusOK, gin.H{"authenticated": err == nil})
}

// Logout 销毁会话并清除 cookie。
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.TokenFromRequest(c)); err != nil {
		log.Errorw("销毁管理员会话失败", "error", err)
	}
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}
