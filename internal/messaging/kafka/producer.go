package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// Producer публикует события жизненного цикла заказов и столов в Kafka.
// Используется синхронный идемпотентный producer: подтверждение от всех
// in-sync реплик, не больше одного запроса в полёте.
type Producer struct {
	producer sarama.SyncProducer
	logger   *log.Entry
}

func producerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Idempotent = true
	// Идемпотентность требует ровно один запрос в полёте.
	cfg.Net.MaxOpenRequests = 1
	return cfg
}

// NewProducer подключается к брокерам и возвращает готовый Producer.
func NewProducer(brokers []string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are not configured")
	}

	sp, err := sarama.NewSyncProducer(brokers, producerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &Producer{
		producer: sp,
		logger:   log.WithField("component", "kafka-producer"),
	}, nil
}

// PublishEvent сериализует событие в JSON и отправляет его в topic.
// Ключ определяет партицию: события одного агрегата сохраняют порядок.
func (p *Producer) PublishEvent(topic string, key string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(body),
		Timestamp: time.Now(),
	})
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic": topic,
			"key":   key,
		}).Error("failed to send message to kafka")
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.WithFields(log.Fields{
		"topic":     topic,
		"key":       key,
		"partition": partition,
		"offset":    offset,
	}).Debug("message sent to kafka")

	return nil
}

// Close закрывает соединение с брокерами.
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}
