// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`
	Chatbot  ChatbotConfig  `mapstructure:"chatbot"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Mail     MailConfig     `mapstructure:"mail"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Seed     SeedConfig     `mapstructure:"seed"`
	Site     SiteConfig     `mapstructure:"site"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	// Driver 取值 mysql、postgres 或 sqlite；DSN 为空表示内容库未配置。
	Driver string      `mapstructure:"driver"`
	DSN    string      `mapstructure:"dsn"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// AdminConfig 描述唯一的管理员身份。
type AdminConfig struct {
	UID          string `mapstructure:"uid"`
	PasswordHash string `mapstructure:"password_hash"`
	// Password 仅用于本地开发，启动时会被哈希。
	Password string `mapstructure:"password"`
}

// SessionConfig 选择会话存储后端。
type SessionConfig struct {
	Backend     string `mapstructure:"backend"` // memory 或 redis
	TTLHours    int    `mapstructure:"ttl_hours"`
	ChatTTLMins int    `mapstructure:"chat_ttl_minutes"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// ChatbotConfig 存储聊天助手的可配置文案。
type ChatbotConfig struct {
	OwnerName     string          `mapstructure:"owner_name"`
	WhatsAppURL   string          `mapstructure:"whatsapp_url"`
	FallbackEmail string          `mapstructure:"fallback_email"`
	TypingDelayMs int             `mapstructure:"typing_delay_ms"`
	Knowledge     KnowledgeConfig `mapstructure:"knowledge"`
}

// KnowledgeConfig 覆盖内置知识库中的回复，空值表示沿用默认文案。
type KnowledgeConfig struct {
	Greetings    []string `mapstructure:"greetings"`
	Skills       string   `mapstructure:"skills"`
	Projects     string   `mapstructure:"projects"`
	Experience   string   `mapstructure:"experience"`
	Education    string   `mapstructure:"education"`
	Contact      string   `mapstructure:"contact"`
	Availability string   `mapstructure:"availability"`
	TechStack    string   `mapstructure:"tech_stack"`
	Fallback     []string `mapstructure:"fallback"`
}

// NotifyConfig 选择通知投递方式。
type NotifyConfig struct {
	Driver string `mapstructure:"driver"` // none、smtp 或 kafka
}

// MailConfig 存储 SMTP 相关的配置。
type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	To       string `mapstructure:"to"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
}

// SeedConfig 指向启动时导入的种子数据文件。
type SeedConfig struct {
	File string `mapstructure:"file"`
}

// SiteConfig 存储 about 表为空时使用的默认资料。
type SiteConfig struct {
	Name      string `mapstructure:"name"`
	Title     string `mapstructure:"title"`
	Tagline   string `mapstructure:"tagline"`
	Bio       string `mapstructure:"bio"`
	PhotoURL  string `mapstructure:"photo_url"`
	ResumeURL string `mapstructure:"resume_url"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl_hours", 24)
	v.SetDefault("session.chat_ttl_minutes", 120)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("chatbot.typing_delay_ms", 1500)
	v.SetDefault("notify.driver", "none")
	v.SetDefault("mail.port", 587)
	v.SetDefault("kafka.group_id", "portfolio-notifier")
}

// Load 从指定路径读取 YAML 配置，环境变量（PORTFOLIO_ 前缀）优先级更高。
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PORTFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	return cfg, nil
}

// Init 初始化配置加载，并将结果写入全局变量 Conf。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg
}
