package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolio-go/internal/content"
	"portfolio-go/internal/model"
)

// sessionCookie 与服务端 middleware.SessionCookieName 保持一致。
const sessionCookie = "admin_session"

// APIError 是服务端返回的非 2xx 响应。Error 返回服务端的原始错误文本。
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Unwrap 把状态码映射到 model 中的哨兵错误，便于 errors.Is 判断。
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return model.ErrAuthRequired
	case http.StatusNotFound:
		return model.ErrNotFound
	case http.StatusServiceUnavailable:
		return model.ErrStoreUnavailable
	}
	return nil
}

var _ Gateway = (*HTTPGateway)(nil)

// HTTPGateway 通过后台 HTTP 接口访问内容存储。
type HTTPGateway struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPGateway 创建一个 HTTPGateway。client 为 nil 时使用 10 秒超时的默认客户端。
func NewHTTPGateway(baseURL, token string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPGateway{baseURL: strings.TrimRight(baseURL, "/"), token: token, client: client}
}

// Token 返回当前使用的会话令牌。
func (g *HTTPGateway) Token() string { return g.token }

// do 发送请求并把响应中的 data 字段解码到 out。
func (g *HTTPGateway) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: g.token})
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", model.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		if e.Error == "" {
			e.Error = fmt.Sprintf("%s %s: %s", method, path, resp.Status)
		}
		if resp.StatusCode == http.StatusBadRequest {
			return &model.ValidationError{Message: e.Error}
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

func tablePath(t content.Table, id uint) string {
	p := "/api/admin/" + url.PathEscape(string(t))
	if id != 0 {
		p += fmt.Sprintf("?id=%d", id)
	}
	return p
}

func (g *HTTPGateway) List(ctx context.Context, t content.Table) ([]model.Record, error) {
	var env dataEnvelope[[]model.Record]
	if err := g.do(ctx, http.MethodGet, tablePath(t, 0), nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		env.Data = []model.Record{}
	}
	return env.Data, nil
}

func (g *HTTPGateway) Create(ctx context.Context, t content.Table, row model.Record) (model.Record, error) {
	var env dataEnvelope[model.Record]
	if err := g.do(ctx, http.MethodPost, tablePath(t, 0), row, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (g *HTTPGateway) Update(ctx context.Context, t content.Table, id uint, fields model.Record) (model.Record, error) {
	var env dataEnvelope[model.Record]
	if err := g.do(ctx, http.MethodPut, tablePath(t, id), fields, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (g *HTTPGateway) Delete(ctx context.Context, t content.Table, id uint) error {
	return g.do(ctx, http.MethodDelete, tablePath(t, id), nil, nil)
}

// Login 登录并保存返回的会话令牌。
func (g *HTTPGateway) Login(ctx context.Context, uid, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := g.do(ctx, http.MethodPost, "/api/admin/auth", map[string]string{"uid": uid, "password": password}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("login response did not include a token")
	}
	g.token = resp.Token
	return resp.Token, nil
}

// Logout 销毁服务端会话并清空本地令牌。
func (g *HTTPGateway) Logout(ctx context.Context) error {
	err := g.do(ctx, http.MethodDelete, "/api/admin/auth", nil, nil)
	g.token = ""
	return err
}

// Authenticated 检查当前令牌是否仍然有效。
func (g *HTTPGateway) Authenticated(ctx context.Context) (bool, error) {
	var resp struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := g.do(ctx, http.MethodGet, "/api/admin/auth", nil, &resp); err != nil {
		return false, err
	}
	return resp.Authenticated, nil
}
