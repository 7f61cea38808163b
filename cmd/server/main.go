// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-go/internal/chat"
	"portfolio-go/internal/config"
	"portfolio-go/internal/content"
	"portfolio-go/internal/handler"
	"portfolio-go/internal/middleware"
	"portfolio-go/internal/notify"
	"portfolio-go/internal/repository"
	"portfolio-go/internal/seed"
	"portfolio-go/internal/service"
	"portfolio-go/pkg/database"
	"portfolio-go/pkg/hash"
	"portfolio-go/pkg/kafka"
	"portfolio-go/pkg/log"
	"portfolio-go/pkg/mailer"
	"portfolio-go/pkg/storage"
	"portfolio-go/pkg/token"
)

func configPath() string {
	if p := os.Getenv("PORTFOLIO_CONFIG"); p != "" {
		return p
	}
	return "./configs/config.yaml"
}

func main() {
	// 1. 初始化配置
	config.Init(configPath())
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和 Redis。内容库未配置时站点使用默认内容，后台返回 503。
	database.InitDB(cfg.Database.Driver, cfg.Database.DSN)
	if database.DB != nil {
		if err := repository.AutoMigrate(database.DB); err != nil {
			log.Fatal("数据库迁移失败", err)
		}
	}
	if cfg.Database.Redis.Addr != "" {
		database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	}

	// 4. 初始化 Repository
	contentRepo := repository.NewContentRepository(database.DB)
	sessionTTL := time.Duration(cfg.Session.TTLHours) * time.Hour
	chatTTL := time.Duration(cfg.Session.ChatTTLMins) * time.Minute
	var (
		sessionRepo     repository.SessionRepository
		chatSessionRepo repository.ChatSessionRepository
	)
	switch cfg.Session.Backend {
	case "redis":
		if database.RDB == nil {
			log.Fatalf("session.backend=redis 需要配置 database.redis.addr")
		}
		sessionRepo = repository.NewRedisSessionRepository(database.RDB)
		chatSessionRepo = repository.NewRedisChatSessionRepository(database.RDB, chatTTL)
	default:
		sessionRepo = repository.NewMemorySessionRepository()
		chatSessionRepo = repository.NewMemoryChatSessionRepository(chatTTL)
	}

	// 5. 初始化通知投递
	var transport notify.Transport = notify.NopTransport{}
	switch cfg.Notify.Driver {
	case "smtp":
		transport = notify.MailTransport{Mailer: mailer.New(cfg.Mail)}
	case "kafka":
		producer := kafka.NewProducer(cfg.Kafka)
		defer func() {
			if err := producer.Close(); err != nil {
				log.Error("关闭 Kafka 生产者失败", err)
			}
		}()
		transport = notify.KafkaTransport{Producer: producer}
	}
	notifier := notify.New(transport)
	log.Infof("通知投递方式: %s", cfg.Notify.Driver)

	// 6. 初始化对象存储，未配置时上传接口返回 503
	var objectStore service.ObjectStore
	if cfg.MinIO.Endpoint != "" {
		store, err := storage.InitMinIO(cfg.MinIO)
		if err != nil {
			log.Error("MinIO 初始化失败，上传功能不可用", err)
		} else {
			objectStore = store
		}
	}

	// 7. 初始化 Service (依赖注入)
	passwordHash := cfg.Admin.PasswordHash
	if passwordHash == "" && cfg.Admin.Password != "" {
		log.Warnf("admin.password 为明文密码，仅应在本地开发中使用")
		h, err := hash.HashPassword(cfg.Admin.Password)
		if err != nil {
			log.Fatal("管理员密码哈希失败", err)
		}
		passwordHash = h
	}
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, sessionTTL)
	authService := service.NewAuthService(cfg.Admin.UID, passwordHash, sessionRepo, jwtManager)
	crudService := service.NewCRUDService(contentRepo)
	siteService := service.NewSiteService(contentRepo, notifier, cfg.Site)
	uploadService := service.NewUploadService(objectStore)

	knowledge := chat.DefaultKnowledge(cfg.Chatbot.OwnerName).Override(chat.Knowledge{
		Greetings:    cfg.Chatbot.Knowledge.Greetings,
		Skills:       cfg.Chatbot.Knowledge.Skills,
		Projects:     cfg.Chatbot.Knowledge.Projects,
		Experience:   cfg.Chatbot.Knowledge.Experience,
		Education:    cfg.Chatbot.Knowledge.Education,
		Contact:      cfg.Chatbot.Knowledge.Contact,
		Availability: cfg.Chatbot.Knowledge.Availability,
		TechStack:    cfg.Chatbot.Knowledge.TechStack,
		Fallback:     cfg.Chatbot.Knowledge.Fallback,
	})
	chatbotService := service.NewChatbotService(chat.NewKnowledgeBase(knowledge, time.Now().UnixNano()), contentRepo, notifier)
	engine := chat.NewEngine(chatSessionRepo, chatbotService, chatbotService, chat.Options{
		OwnerName:     cfg.Chatbot.OwnerName,
		WhatsAppURL:   cfg.Chatbot.WhatsAppURL,
		FallbackEmail: cfg.Chatbot.FallbackEmail,
		TypingDelay:   time.Duration(cfg.Chatbot.TypingDelayMs) * time.Millisecond,
	})

	// 8. 导入种子数据（仅写入空表）
	if cfg.Seed.File != "" && database.DB != nil {
		seedContent(cfg.Seed.File, contentRepo, crudService)
	}

	// 9. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.CORS(cfg.Server.AllowedOrigins))

	// 10. 注册路由
	handler.RegisterRoutes(r, handler.Handlers{
		Admin:  handler.NewAdminHandler(crudService),
		Auth:   handler.NewAuthHandler(authService, cfg.Server.Mode == gin.ReleaseMode, int(sessionTTL.Seconds())),
		Chat:   handler.NewChatHandler(engine),
		Site:   handler.NewSiteHandler(siteService),
		Upload: handler.NewUploadHandler(uploadService),
	}, authService)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}

// seedContent 导入种子文件，失败只记录日志，不影响启动。
func seedContent(path string, counter seed.Counter, creator seed.Creator) {
	f, err := seed.Load(path)
	if err != nil {
		log.Warnf("跳过种子数据: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	seeded, err := seed.Apply(ctx, counter, creator, f)
	if err != nil {
		log.Error("导入种子数据失败", err)
		return
	}
	for _, t := range content.Tables() {
		if n := seeded[t]; n > 0 {
			log.Infow("种子数据已导入", "table", t, "rows", n)
		}
	}
}
