package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"portfolio-go/internal/content"
	"portfolio-go/internal/model"
	"portfolio-go/internal/service"
)

// AdminHandler 负责后台的通用内容 CRUD 接口 /api/admin/:table。
type AdminHandler struct {
	crudService service.CRUDService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(crudService service.CRUDService) *AdminHandler {
	return &AdminHandler{crudService: crudService}
}

// table 解析路径中的表名，未知表直接返回 400，不会触达存储。
func (h *AdminHandler) table(c *gin.Context) (content.Table, bool) {
	name := c.Param("table")
	t, ok := content.Lookup(name)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid table: %s", name)})
		return "", false
	}
	return t, true
}

func queryID(c *gin.Context) uint {
	id, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func bindRecord(c *gin.Context) (model.Record, bool) {
	var payload model.Record
	if err := c.ShouldBindJSON(&payload); err != nil || len(payload) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body is required"})
		return nil, false
	}
	return payload, true
}

// List 返回表中的所有行。
func (h *AdminHandler) List(c *gin.Context) {
	t, ok := h.table(c)
	if !ok {
		return
	}
	rows, err := h.crudService.List(c.Request.Context(), t)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// Create 新增一行。
func (h *AdminHandler) Create(c *gin.Context) {
	t, ok := h.table(c)
	if !ok {
		return
	}
	payload, ok := bindRecord(c)
	if !ok {
		return
	}
	row, err := h.crudService.Create(c.Request.Context(), t, payload)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": row})
}

// Update 更新 ?id= 指定的行。
func (h *AdminHandler) Update(c *gin.Context) {
	t, ok := h.table(c)
	if !ok {
		return
	}
	id := queryID(c)
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID is required for update"})
		return
	}
	payload, ok := bindRecord(c)
	if !ok {
		return
	}
	row, err := h.crudService.Update(c.Request.Context(), t, id, payload)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": row})
}

// Delete 删除 ?id= 指定的行。
func (h *AdminHandler) Delete(c *gin.Context) {
	t, ok := h.table(c)
	if !ok {
		return
	}
	id := queryID(c)
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID is required for delete"})
		return
	}
	if err := h.crudService.Delete(c.Request.Context(), t, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
