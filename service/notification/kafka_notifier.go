/*
 * @module service/notification/kafka_notifier
 * @description 报表完成事件通知器，向Kafka主题发布生成完成/失败事件供下游系统消费
 * @architecture 适配器模式 - 封装kafka-go生产者，实现编排器的通知边界
 * @documentReference ai_docs/report_platform_req.md §6
 * @stateFlow 生成终态 -> 事件序列化 -> Kafka发布
 * @rules KAFKA_BROKERS 未配置时通知器不启用；发布失败只告警，绝不影响报表交付
 * @dependencies github.com/segmentio/kafka-go, encoding/json
 * @refs service/report/generator.go
 */

package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"reporthub-service/service/report"
)

// defaultTopic 报表事件主题
const defaultTopic = "reporthub.report_events"

// KafkaNotifier Kafka报表事件通知器
type KafkaNotifier struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaNotifierFromEnv 从环境变量装配通知器；KAFKA_BROKERS 为空返回 nil（通知禁用）
func NewKafkaNotifierFromEnv() *KafkaNotifier {
	brokersEnv := os.Getenv("KAFKA_BROKERS")
	if brokersEnv == "" {
		return nil
	}
	brokers := strings.Split(brokersEnv, ",")
	topic := os.Getenv("KAFKA_REPORT_TOPIC")
	if topic == "" {
		topic = defaultTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}

	slog.Info("Kafka报表事件通知器已启用", "brokers", brokers, "topic", topic)
	return &KafkaNotifier{writer: writer, topic: topic}
}

// ReportCompleted 发布生成完成事件
func (n *KafkaNotifier) ReportCompleted(ctx context.Context, event report.CompletionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("falha ao serializar o evento: %w", err)
	}

	eventType := "report_generated"
	if event.Status != report.StatusCompleted {
		eventType = "report_failed"
	}
	msg := kafka.Message{
		Key:   []byte(event.ClientID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("falha ao publicar o evento no Kafka: %w", err)
	}
	return nil
}

// Close 关闭生产者
func (n *KafkaNotifier) Close() error {
	if n.writer != nil {
		return n.writer.Close()
	}
	return nil
}
