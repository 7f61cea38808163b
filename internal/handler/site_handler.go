package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"portfolio-go/internal/content"
	"portfolio-go/internal/service"
)

// publicTables 是公开站点可以读取的列表。
var publicTables = map[content.Table]bool{
	content.Skills:         true,
	content.Projects:       true,
	content.Experience:     true,
	content.Certifications: true,
}

// SiteHandler 负责公开站点的内容读取和联系表单。
type SiteHandler struct {
	siteService service.SiteService
}

// NewSiteHandler 创建一个新的 SiteHandler。
func NewSiteHandler(siteService service.SiteService) *SiteHandler {
	return &SiteHandler{siteService: siteService}
}

// About 返回个人简介。
func (h *SiteHandler) About(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.siteService.About(c.Request.Context())})
}

// List 返回一个公开列表。
func (h *SiteHandler) List(c *gin.Context) {
	name := c.Param("table")
	t, ok := content.Lookup(name)
	if !ok || !publicTables[t] {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid table: %s", name)})
		return
	}
	rows, err := h.siteService.List(c.Request.Context(), t)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// Project 返回单个项目详情。
func (h *SiteHandler) Project(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project id"})
		return
	}
	row, err := h.siteService.Project(c.Request.Context(), uint(id))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": row})
}

// Contact 处理联系表单提交。
func (h *SiteHandler) Contact(c *gin.Context) {
	var form service.ContactForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}
	if err := h.siteService.Contact(c.Request.Context(), form); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message sent successfully"})
}
