package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"portfolio-go/internal/model"
	"portfolio-go/pkg/log"
	"portfolio-go/pkg/token"
)

// MaxUploadSize 单个上传文件的大小上限。
const MaxUploadSize = 20 << 20

var imageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif", "image/svg+xml"}

// uploadWhitelist 按上传类别列出允许的 MIME 类型。
var uploadWhitelist = map[string][]string{
	"resume":   {"application/pdf"},
	"photos":   imageTypes,
	"projects": imageTypes,
}

// ErrStorageUnavailable 表示对象存储未配置。
var ErrStorageUnavailable = errors.New("object storage is not configured")

// ObjectStore 保存上传的对象并返回公开 URL。
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// UploadResult 是上传成功后的返回值。
type UploadResult struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

// UploadService 处理后台的媒体上传。
type UploadService interface {
	Upload(ctx context.Context, kind string, file *multipart.FileHeader) (*UploadResult, error)
}

type uploadService struct {
	store ObjectStore
	now   func() time.Time
}

// NewUploadService 创建一个新的 UploadService 实例。store 为 nil 时上传返回 ErrStorageUnavailable。
func NewUploadService(store ObjectStore) UploadService {
	return &uploadService{store: store, now: time.Now}
}

func allowedKinds() string {
	return "resume, photos, projects"
}

func (s *uploadService) Upload(ctx context.Context, kind string, file *multipart.FileHeader) (*UploadResult, error) {
	allowed, ok := uploadWhitelist[kind]
	if !ok {
		return nil, &model.ValidationError{Field: "type", Message: "Invalid type. Must be one of: " + allowedKinds()}
	}
	if file == nil {
		return nil, &model.ValidationError{Field: "file", Message: "No file uploaded or file type not allowed"}
	}
	if file.Size > MaxUploadSize {
		return nil, &model.ValidationError{Field: "file", Message: "File exceeds the 20 MB limit"}
	}
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	contentType := detectContentType(file, f)
	if !contains(allowed, contentType) {
		return nil, &model.ValidationError{Field: "file", Message: "No file uploaded or file type not allowed"}
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	fileName := fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), token.GenerateRandomString(4), ext)
	key := kind + "/" + fileName
	url, err := s.store.Put(ctx, key, f, file.Size, contentType)
	if err != nil {
		return nil, err
	}
	log.Infow("文件上传成功", "key", key, "size", file.Size, "content_type", contentType)
	return &UploadResult{URL: url, FileName: fileName}, nil
}

// detectContentType 优先使用客户端声明的类型，缺失时嗅探文件头。
func detectContentType(file *multipart.FileHeader, f multipart.File) string {
	if ct := file.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			return mt
		}
	}
	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	_, _ = f.Seek(0, io.SeekStart)
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(buf[:n]))
	return mt
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
