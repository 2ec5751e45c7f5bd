// Package eventbus publishes a finished simulation's timeline events to
// Kafka; events are not streamed while the run is still in progress.
// It mirrors the teacher's internal/kafka consumer wiring
// (TLS/SASL via config.KafkaConfig, a single kgo.Client) but on the
// producer side.
package eventbus

import (
	"context"
	"crypto/tls"
	"encoding/json"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"
	"go.uber.org/zap"

	"github.com/route-beacon/bgpsim/internal/bgpcore"
	"github.com/route-beacon/bgpsim/internal/metrics"
)

// Publisher fire-and-forgets timeline events to a single Kafka topic,
// keyed by scenario id. A publish failure is counted and logged, never
// returned to the simulation caller.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *zap.Logger
}

// New dials a Kafka producer client. Brokers must be non-empty; callers
// skip constructing a Publisher entirely when Kafka.Brokers is empty.
func New(brokers []string, clientID, topic string, tlsCfg *tls.Config, saslMech sasl.Mechanism, logger *zap.Logger) (*Publisher, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
	}
	if tlsCfg != nil {
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}
	if saslMech != nil {
		opts = append(opts, kgo.SASL(saslMech))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}

	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

// PublishTimeline publishes every event in events for scenario, keyed
// by the scenario name, so every run of the same scenario shares a key.
func (p *Publisher) PublishTimeline(ctx context.Context, scenario string, events []bgpcore.Event) {
	for _, e := range events {
		p.publishOne(ctx, scenario, e)
	}
}

func (p *Publisher) publishOne(ctx context.Context, scenario string, e bgpcore.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		metrics.PublishErrorsTotal.Inc()
		p.logger.Error("eventbus: marshaling event", zap.Error(err))
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(scenario),
		Value: payload,
	}

	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			metrics.PublishErrorsTotal.Inc()
			p.logger.Error("eventbus: produce failed", zap.Error(err))
		}
	})
}

func (p *Publisher) Close() {
	p.client.Close()
}
