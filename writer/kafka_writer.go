package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"golang.org/x/time/rate"

	appconfig "quotedump/config"
	"quotedump/logger"
	"quotedump/models"
	"quotedump/processor"
)

// kafkaBatchSize bounds one WriteMessages call when replay is unpaced.
const kafkaBatchSize = 500

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// quoteMessage is the JSON value of a replayed quote.
type quoteMessage struct {
	models.Quote
	AcceptInstant string `json:"accept_instant"`
}

// KafkaWriter replays decoded quotes to a topic, keyed by issue code.
type KafkaWriter struct {
	writer  messageWriter
	limiter *rate.Limiter
	base    processor.AcceptBase
	runID   string
	topic   string
	log     *logger.Log
}

func NewKafkaWriter(cfg appconfig.KafkaConfig, base processor.AcceptBase, runID string) (*KafkaWriter, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}
	kw := newKafkaWriter(w, cfg, base, runID)
	kw.log.WithComponent("kafka_writer").WithFields(logger.Fields{
		"brokers": cfg.Brokers,
		"topic":   cfg.Topic,
	}).Debug("kafka writer initialized")
	return kw, nil
}

func newKafkaWriter(w messageWriter, cfg appconfig.KafkaConfig, base processor.AcceptBase, runID string) *KafkaWriter {
	kw := &KafkaWriter{
		writer: w,
		base:   base,
		runID:  runID,
		topic:  cfg.Topic,
		log:    logger.GetLogger(),
	}
	if cfg.MessagesPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		kw.limiter = rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), burst)
	}
	return kw
}

// Publish sends one message per quote in order and returns how many were
// written. Paced replay sends each message as soon as the limiter allows;
// cancelling ctx stops the replay.
func (kw *KafkaWriter) Publish(ctx context.Context, quotes []models.Quote) (int, error) {
	start := time.Now()
	log := kw.log.WithComponent("kafka_writer").WithFields(logger.Fields{
		"topic":  kw.topic,
		"run_id": kw.runID,
	})

	sent := 0
	batch := make([]kafka.Message, 0, kafkaBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := kw.writer.WriteMessages(ctx, batch...); err != nil {
			return fmt.Errorf("write %d messages: %w", len(batch), err)
		}
		sent += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, q := range quotes {
		if kw.limiter != nil {
			if err := kw.limiter.Wait(ctx); err != nil {
				return sent, fmt.Errorf("kafka replay paced wait: %w", err)
			}
		}
		msg, err := kw.message(q)
		if err != nil {
			return sent, err
		}
		batch = append(batch, msg)
		if kw.limiter != nil || len(batch) == kafkaBatchSize {
			if err := flush(); err != nil {
				return sent, err
			}
		}
	}
	if err := flush(); err != nil {
		return sent, err
	}

	logger.LogDataFlowEntry(log, "quote_collection", "kafka", sent, "quotes")
	logger.LogPerformanceEntry(log, "kafka_writer", "publish", time.Since(start), logger.Fields{"messages": sent})
	return sent, nil
}

func (kw *KafkaWriter) message(q models.Quote) (kafka.Message, error) {
	data, err := json.Marshal(quoteMessage{
		Quote:         q,
		AcceptInstant: processor.FormatAcceptTime(kw.base.Instant(q)),
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal quote %s: %w", q.IssueCode, err)
	}
	return kafka.Message{
		Key:     []byte(q.IssueCode),
		Value:   data,
		Headers: []kafka.Header{{Key: "run_id", Value: []byte(kw.runID)}},
	}, nil
}

func (kw *KafkaWriter) Close() error {
	kw.log.WithComponent("kafka_writer").Debug("closing kafka writer")
	return kw.writer.Close()
}
