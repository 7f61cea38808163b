package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-go/internal/service"
)

// UploadHandler 处理后台的媒体上传。
type UploadHandler struct {
	uploadService service.UploadService
}

// NewUploadHandler 创建一个新的 UploadHandler。
func NewUploadHandler(uploadService service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Upload 接收 multipart 字段 file，?type= 指定上传类别（resume、photos、projects）。
func (h *UploadHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxUploadSize+(1<<20))
	// 缺少文件时 file 为 nil，由 service 统一返回校验错误
	file, _ := c.FormFile("file")
	res, err := h.uploadService.Upload(c.Request.Context(), c.Query("type"), file)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}
