package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	applog "onlineshop/internal/log"
	"onlineshop/internal/metrics"
)

// KafkaPublisher sends events synchronously through a sarama producer.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	metrics  *metrics.ShopMetrics
	logger   *logrus.Entry
}

func NewKafkaPublisher(brokers []string, m *metrics.ShopMetrics) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, m), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, m *metrics.ShopMetrics) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		metrics:  m,
		logger:   applog.Component("kafka-publisher"),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	topic := e.Topic()
	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(e.Key()),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: time.Now(),
		Headers:   []sarama.RecordHeader{{Key: []byte("event-type"), Value: []byte(e.Type)}},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	p.metrics.RecordEvent(topic, err)
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{"topic": topic, "type": e.Type}).Error("failed to send event")
		return fmt.Errorf("failed to send event: %w", err)
	}
	p.logger.WithFields(logrus.Fields{
		"topic":     topic,
		"type":      e.Type,
		"partition": partition,
		"offset":    offset,
	}).Debug("event sent")
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}
