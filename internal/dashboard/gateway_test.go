package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-go/internal/chat"
	"portfolio-go/internal/config"
	"portfolio-go/internal/content"
	"portfolio-go/internal/handler"
	"portfolio-go/internal/model"
	"portfolio-go/internal/notify"
	"portfolio-go/internal/repository"
	"portfolio-go/internal/service"
	"portfolio-go/pkg/database"
	"portfolio-go/pkg/hash"
	"portfolio-go/pkg/token"
)

func testClient(t *testing.T) *http.Client {
	t.Helper()
	tr := &http.Transport{}
	t.Cleanup(tr.CloseIdleConnections)
	return &http.Client{Transport: tr, Timeout: 5 * time.Second}
}

func TestHTTPGatewayErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
		text   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"Unauthorized"}`, func(err error) bool { return errors.Is(err, model.ErrAuthRequired) }, "Unauthorized"},
		{"forbidden", http.StatusForbidden, `{"error":"Forbidden"}`, func(err error) bool { return errors.Is(err, model.ErrAuthRequired) }, "Forbidden"},
		{"not found", http.StatusNotFound, `{"error":"Not found"}`, func(err error) bool { return errors.Is(err, model.ErrNotFound) }, "Not found"},
		{"unavailable", http.StatusServiceUnavailable, `{"error":"Content store is not configured"}`, func(err error) bool { return errors.Is(err, model.ErrStoreUnavailable) }, "Content store is not configured"},
		{"validation", http.StatusBadRequest, `{"error":"Name is required"}`, model.IsValidation, "Name is required"},
		{"server error", http.StatusInternalServerError, `{"error":"pq: relation does not exist"}`, func(err error) bool { return err != nil }, "pq: relation does not exist"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer tok" {
					t.Errorf("missing bearer token: %q", r.Header.Get("Authorization"))
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			gw := NewHTTPGateway(srv.URL, "tok", testClient(t))
			_, err := gw.List(context.Background(), content.Skills)
			if !tc.check(err) {
				t.Fatalf("unexpected error type: %v", err)
			}
			if err.Error() != tc.text {
				t.Fatalf("error text: got=%q want=%q", err.Error(), tc.text)
			}
		})
	}
}

func TestHTTPGatewayNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	gw := NewHTTPGateway(url, "", testClient(t))
	if _, err := gw.List(context.Background(), content.Skills); !errors.Is(err, model.ErrNetwork) {
		t.Fatalf("want network error, got %v", err)
	}
}

// newServer 启动一个使用内存 sqlite 的完整后台服务。
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := repository.NewContentRepository(db)
	pw, err := hash.HashPassword("pw")
	if err != nil {
		t.Fatal(err)
	}
	authSvc := service.NewAuthService("owner", pw, repository.NewMemorySessionRepository(), token.NewJWTManager("k", time.Hour))
	notifier := notify.New(notify.NopTransport{})
	bot := service.NewChatbotService(chat.NewKnowledgeBase(chat.DefaultKnowledge("Jane"), 1), repo, notifier)
	engine := chat.NewEngine(repository.NewMemoryChatSessionRepository(time.Hour), bot, bot, chat.Options{OwnerName: "Jane"})

	r := gin.New()
	handler.RegisterRoutes(r, handler.Handlers{
		Admin:  handler.NewAdminHandler(service.NewCRUDService(repo)),
		Auth:   handler.NewAuthHandler(authSvc, false, 3600),
		Chat:   handler.NewChatHandler(engine),
		Site:   handler.NewSiteHandler(service.NewSiteService(repo, notifier, config.SiteConfig{})),
		Upload: handler.NewUploadHandler(service.NewUploadService(nil)),
	}, authSvc)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestManagerOverHTTP(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	gw := NewHTTPGateway(srv.URL, "", testClient(t))

	m := NewManager(content.Skills, gw, confirmWith(true))
	if err := m.Refresh(ctx); !errors.Is(err, model.ErrAuthRequired) {
		t.Fatalf("refresh before login: %v", err)
	}
	if _, err := gw.Login(ctx, "owner", "wrong"); !errors.Is(err, model.ErrAuthRequired) {
		t.Fatalf("bad login: %v", err)
	}
	if _, err := gw.Login(ctx, "owner", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if ok, err := gw.Authenticated(ctx); err != nil || !ok {
		t.Fatalf("authenticated: %v %v", ok, err)
	}

	if err := m.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	for k, v := range map[string]string{"name": "Rust", "category": "Core", "level": "70", "order": "16"} {
		if err := m.SetDraft(k, v); err != nil {
			t.Fatal(err)
		}
	}
	created, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rows := m.Rows()
	if len(rows) != 1 {
		t.Fatalf("rows after create: %d", len(rows))
	}
	lvl, _ := m.Entity().Field("level")
	if got := content.Format(lvl, rows[0]["level"]); got != "70%" {
		t.Fatalf("level display: %q", got)
	}

	id := created.ID()
	if err := m.SetSkillLevel(ctx, id, 85); err != nil {
		t.Fatalf("set level: %v", err)
	}
	if got := m.Rows()[0]["level"]; got != float64(85) {
		t.Fatalf("level after slider: %v", got)
	}

	if err := m.BeginEdit(id); err != nil {
		t.Fatal(err)
	}
	_ = m.SetEdit("name", "")
	if err := m.SaveEdit(ctx); !model.IsValidation(err) {
		t.Fatalf("blank name update: %v", err)
	}
	m.CancelEdit()

	if ok, err := m.Delete(ctx, id); !ok || err != nil {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if len(m.Rows()) != 0 {
		t.Fatalf("rows after delete: %v", m.Rows())
	}

	if err := gw.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := m.Refresh(ctx); !errors.Is(err, model.ErrAuthRequired) {
		t.Fatalf("refresh after logout: %v", err)
	}
}
