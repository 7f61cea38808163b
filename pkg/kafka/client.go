// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"

	"portfolio-go/internal/config"
	"portfolio-go/pkg/log"
	"portfolio-go/pkg/tasks"
)

// maxAttempts 单条通知的最大处理次数，超过后提交 offset 放弃重试。
const maxAttempts = 3

// TaskProcessor 处理一条通知任务，例如发送邮件。
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.NotificationTask) error
}

// Producer 把通知任务写入 Kafka。
type Producer struct {
	writer *kafka.Writer
}

func brokers(cfg config.KafkaConfig) []string {
	var out []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	log.Info("Kafka 生产者初始化成功")
	return &Producer{writer: &kafka.Writer{
		Addr:     kafka.TCP(brokers(cfg)...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}}
}

// Produce 发送一个通知任务到 Kafka。
func (p *Producer) Produce(ctx context.Context, task tasks.NotificationTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.ID),
		Value: taskBytes,
	})
}

// Close 关闭生产者。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// messageReader 是消费循环用到的 kafka.Reader 方法。
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// retryBackoff 是第一次重试前的等待时间，之后按次数线性增加。
var retryBackoff = 2 * time.Second

// StartConsumer 启动一个 Kafka 消费者来处理通知任务，直到 ctx 被取消。
// rdb 用于跨进程重启累计失败次数，为 nil 时只在本进程内计数。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor TaskProcessor, rdb *redis.Client) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)
	return consume(ctx, r, processor, rdb, retryBackoff)
}

// consume 逐条处理消息。未提交的消息不会被同一个 reader 再次读取，
// 所以重试在这里完成，处理成功或放弃之后才提交 offset。
func consume(ctx context.Context, r messageReader, processor TaskProcessor, rdb *redis.Client, backoff time.Duration) error {
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("从 Kafka 读取消息失败: %w", err)
		}

		var task tasks.NotificationTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交错误消息失败: %v", err)
			}
			continue
		}

		if err := processWithRetry(ctx, processor, task, rdb, backoff); err != nil {
			// 停机时不提交，重启后从这条消息继续
			return nil
		}
		if err := r.CommitMessages(ctx, m); err != nil {
			log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
		}
	}
}

func attemptsKey(id string) string { return fmt.Sprintf("kafka:attempts:%s", id) }

// nextAttempt 返回本次是第几次处理。Redis 不可用时退回本地计数。
func nextAttempt(ctx context.Context, rdb *redis.Client, id string, local int) int {
	if rdb == nil {
		return local
	}
	n, err := rdb.Incr(ctx, attemptsKey(id)).Result()
	if err != nil {
		return local
	}
	_ = rdb.Expire(ctx, attemptsKey(id), 24*time.Hour).Err()
	return int(n)
}

// processWithRetry 最多处理 maxAttempts 次。只有 ctx 被取消时返回错误。
func processWithRetry(ctx context.Context, processor TaskProcessor, task tasks.NotificationTask, rdb *redis.Client, backoff time.Duration) error {
	for local := 1; ; local++ {
		attempt := nextAttempt(ctx, rdb, task.ID, local)
		if attempt > maxAttempts {
			log.Errorf("通知任务此前已失败 %d 次，跳过: id=%s", maxAttempts, task.ID)
			return nil
		}
		err := processor.Process(ctx, task)
		if err == nil {
			log.Infow("通知任务处理成功", "id", task.ID, "kind", task.Kind, "attempt", attempt)
			if rdb != nil {
				_ = rdb.Del(ctx, attemptsKey(task.ID)).Err()
			}
			return nil
		}
		log.Errorw("处理通知任务失败", "id", task.ID, "kind", task.Kind, "attempt", attempt, "error", err)
		if attempt >= maxAttempts {
			log.Errorf("通知任务多次失败(>=%d)，提交 offset 终止重试: id=%s", maxAttempts, task.ID)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(attempt)):
		}
	}
}
