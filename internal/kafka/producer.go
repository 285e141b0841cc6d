package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dreamstate-ticketing/internal/logger"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes domain events. The writer carries no default topic; every
// message names its own.
type Producer struct {
	Writer  messageWriter
	Brokers []string
	Logger  *logger.Logger
}

func NewProducer(brokers []string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Brokers: brokers, Logger: log}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	msg := kafka.Message{Topic: topic, Key: []byte(key), Value: value}
	err := p.Writer.WriteMessages(ctx, msg)
	if errors.Is(err, kafka.UnknownTopicOrPartition) && len(p.Brokers) > 0 {
		p.Logger.Warn("KAFKA", fmt.Sprintf("Topic %s missing, creating it and retrying", topic))
		if cerr := CreateTopicIfNotExists(p.Brokers, topic, p.Logger); cerr != nil {
			return fmt.Errorf("create topic %s: %w", topic, cerr)
		}
		err = p.Writer.WriteMessages(ctx, msg)
	}
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	p.Logger.LogKafka("PUBLISH", topic, key)
	return nil
}

func (p *Producer) PublishJSON(ctx context.Context, topic, key string, v interface{}) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	return p.Publish(ctx, topic, key, value)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
