// Package main 是通知投递进程：消费 Kafka 中的通知任务并通过 SMTP 发送。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"portfolio-go/internal/config"
	"portfolio-go/internal/notify"
	"portfolio-go/pkg/database"
	"portfolio-go/pkg/kafka"
	"portfolio-go/pkg/log"
	"portfolio-go/pkg/mailer"
)

func main() {
	configPath := os.Getenv("PORTFOLIO_CONFIG")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}
	config.Init(configPath)
	cfg := config.Conf

	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()

	// Redis 用于记录失败次数，未配置时失败的消息会一直重试
	if cfg.Database.Redis.Addr != "" {
		database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	} else {
		log.Warnf("未配置 Redis，失败的通知不会被放弃")
	}

	processor := notify.MailTransport{Mailer: mailer.New(cfg.Mail)}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := kafka.StartConsumer(ctx, cfg.Kafka, processor, database.RDB); err != nil {
		log.Fatal("Kafka 消费者异常退出", err)
	}
	log.Info("通知进程已退出")
}
