package kafka

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Config struct {
	Brokers []string `mapstructure:"brokers"`
}

// Producer writes JSON messages, topic chosen per message.
type Producer struct {
	w   *kafka.Writer
	log *zap.Logger
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		log: zap.L().With(zap.String("component", "kafka.producer")),
	}
}

func (p *Producer) WithLogger(l *zap.Logger) *Producer {
	if l == nil {
		return p
	}
	cp := *p
	cp.log = l.With(zap.String("component", "kafka.producer"))
	return &cp
}

func (p *Producer) PublishJSON(ctx context.Context, topic string, key []byte, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		p.log.Error("json marshal failed", zap.String("topic", topic), zap.Error(err))
		return err
	}

	if err := p.w.WriteMessages(ctx, kafka.Message{Topic: topic, Key: key, Value: value}); err != nil {
		p.log.Error("kafka write failed", zap.String("topic", topic), zap.Error(err))
		return err
	}
	p.log.Debug("message published",
		zap.String("topic", topic),
		zap.Int("value_len", len(value)),
	)
	return nil
}

func (p *Producer) Close() error { return p.w.Close() }

func KeyFromInt64(id int64) []byte { return []byte(strconv.FormatInt(id, 10)) }
