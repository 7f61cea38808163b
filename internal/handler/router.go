package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-go/internal/middleware"
	"portfolio-go/internal/service"
)

// Handlers 汇总了所有需要注册的控制器。
type Handlers struct {
	Admin  *AdminHandler
	Auth   *AuthHandler
	Chat   *ChatHandler
	Site   *SiteHandler
	Upload *UploadHandler
}

// RegisterRoutes 注册所有路由。后台路由（登录接口除外）需要通过会话认证。
func RegisterRoutes(r *gin.Engine, h Handlers, authService service.AuthService) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Chat 路由，/api/chatbot 兼容旧版前端
	for _, prefix := range []string{"/chatbot", "/api/chatbot"} {
		chatGroup := r.Group(prefix)
		{
			chatGroup.POST("", h.Chat.Post)
			chatGroup.GET("/session", h.Chat.Session)
			chatGroup.GET("/ws", h.Chat.Stream)
		}
	}

	api := r.Group("/api")
	{
		// 公开站点路由
		api.GET("/content/about", h.Site.About)
		api.GET("/content/:table", h.Site.List)
		api.GET("/projects/:id", h.Site.Project)
		api.POST("/contact", h.Site.Contact)

		// Auth 路由组，无需认证
		auth := api.Group("/admin/auth")
		{
			auth.POST("", h.Auth.Login)
			auth.GET("", h.Auth.Status)
			auth.DELETE("", h.Auth.Logout)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(authService))
		{
			admin.POST("/upload", h.Upload.Upload)
			admin.GET("/:table", h.Admin.List)
			admin.POST("/:table", h.Admin.Create)
			admin.PUT("/:table", h.Admin.Update)
			admin.DELETE("/:table", h.Admin.Delete)
		}
	}
}
