package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

type JetStreamConfig struct {
	URL           string
	StreamName    string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	// MaxAge bounds how long order history is replayable.
	MaxAge          time.Duration
	DuplicateWindow time.Duration
	// MaxMsgsPerOrderSubject caps the history kept per order and event type.
	MaxMsgsPerOrderSubject int64
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:                    nats.DefaultURL,
		StreamName:             "BUFFET_EVENTS",
		SubjectPrefix:          "buffet.events",
		MaxReconnects:          -1,
		ReconnectWait:          2 * time.Second,
		MaxAge:                 24 * time.Hour,
		DuplicateWindow:        2 * time.Minute,
		MaxMsgsPerOrderSubject: 1000,
	}
}

// streamPublisher is the part of jetstream.JetStream the publisher uses
type streamPublisher interface {
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// JetStreamPublisher writes order events to a JetStream stream. Subjects are
// <prefix>.<type>.<order id>, so a consumer can follow one event type with
// <prefix>.ItemAdded.> or one order with <prefix>.*.<order id>.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     streamPublisher
	config JetStreamConfig
}

func NewJetStreamPublisher(cfg JetStreamConfig) (*JetStreamPublisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("buffet-server"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p, err := newJetStreamPublisher(ctx, js, cfg)
	if err != nil {
		nc.Close()
		return nil, err
	}
	p.nc = nc
	return p, nil
}

func newJetStreamPublisher(ctx context.Context, js streamPublisher, cfg JetStreamConfig) (*JetStreamPublisher, error) {
	p := &JetStreamPublisher{js: js, config: cfg}
	if _, err := js.CreateOrUpdateStream(ctx, p.streamConfig()); err != nil {
		return nil, fmt.Errorf("failed to set up stream %s: %w", cfg.StreamName, err)
	}
	log.Info().Str("stream", cfg.StreamName).Str("subjects", cfg.SubjectPrefix+".>").Msg("JetStream stream ready")
	return p, nil
}

func (p *JetStreamPublisher) streamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:              p.config.StreamName,
		Description:       "Buffet order lifecycle events",
		Subjects:          []string{p.config.SubjectPrefix + ".>"},
		Retention:         jetstream.LimitsPolicy,
		MaxAge:            p.config.MaxAge,
		MaxMsgsPerSubject: p.config.MaxMsgsPerOrderSubject,
		Storage:           jetstream.FileStorage,
		Duplicates:        p.config.DuplicateWindow,
	}
}

// SubjectFor is the subject an event is stored under
func (p *JetStreamPublisher) SubjectFor(event Event) string {
	return p.config.SubjectPrefix + "." + event.Subject() + "." + subjectToken(event.OrderID)
}

// subjectToken makes an order id usable as a single subject token
func subjectToken(id string) string {
	if id == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, id)
}

func (p *JetStreamPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := nats.NewMsg(p.SubjectFor(event))
	msg.Data = data
	msg.Header.Set("Event-Type", string(event.Type))
	msg.Header.Set("Order-ID", event.OrderID)
	if event.TableNumber != nil {
		msg.Header.Set("Table-Number", *event.TableNumber)
	}

	ack, err := p.js.PublishMsg(ctx, msg,
		jetstream.WithMsgID(event.ID.String()),
		jetstream.WithExpectStream(p.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s for order %s: %w", event.Type, event.OrderID, err)
	}
	if ack.Duplicate {
		log.Debug().Str("event_id", event.ID.String()).Msg("JetStream dropped duplicate event")
		return nil
	}

	log.Debug().
		Str("subject", msg.Subject).
		Str("event_id", event.ID.String()).
		Uint64("sequence", ack.Sequence).
		Msg("published to JetStream")
	return nil
}

func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		return p.nc.Drain()
	}
	return nil
}
