package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/buffet/go/internal/kitchen"
	"github.com/mcdev12/buffet/go/internal/ordering"
	"github.com/mcdev12/buffet/go/internal/ordering/events"
)

type Services struct {
	Ordering *ordering.Service
	Kitchen  *kitchen.Handler

	hub     *kitchen.Hub
	db      *sql.DB
	closers []io.Closer
}

// setupServices wires storage → publishers → App → Service
func setupServices(ctx context.Context, cfg *Config) (*Services, error) {
	s := &Services{}

	var repo ordering.Repository
	switch cfg.Storage {
	case "memory":
		log.Warn().Msg("using in-memory storage, orders are lost on restart")
		repo = ordering.NewMemoryRepository()
	default:
		database, err := setupDatabase(ctx)
		if err != nil {
			return nil, err
		}
		s.db = database
		repo = ordering.NewPostgresRepository(database)
	}

	fanout, err := s.setupPublishers(cfg.Events)
	if err != nil {
		s.Close()
		return nil, err
	}

	app := ordering.NewApp(repo, fanout, ordering.WithSessionLength(cfg.Session.Length))
	s.Ordering = ordering.NewService(app)
	if s.hub != nil {
		s.Kitchen = kitchen.NewHandler(s.hub)
	}
	return s, nil
}

func (s *Services) setupPublishers(cfg EventsConfig) (*events.Fanout, error) {
	fanout := events.NewFanout()

	if cfg.Log {
		fanout.Add(events.LogPublisher{})
	}

	if cfg.Kitchen {
		s.hub = kitchen.NewHub(kitchen.DefaultConfig())
		fanout.Add(s.hub)
	}

	if cfg.NATS.Enabled {
		jsCfg := events.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATS.URL
		if cfg.NATS.StreamName != "" {
			jsCfg.StreamName = cfg.NATS.StreamName
		}
		if cfg.NATS.SubjectPrefix != "" {
			jsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix
		}
		js, err := events.NewJetStreamPublisher(jsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream publisher: %w", err)
		}
		s.closers = append(s.closers, js)
		fanout.Add(js)
		log.Info().Str("url", jsCfg.URL).Str("stream", jsCfg.StreamName).Msg("publishing events to JetStream")
	}

	if cfg.RabbitMQ.Enabled {
		rmqCfg := events.DefaultRabbitConfig()
		if cfg.RabbitMQ.URL != "" {
			rmqCfg.URL = cfg.RabbitMQ.URL
		}
		if cfg.RabbitMQ.Exchange != "" {
			rmqCfg.Exchange = cfg.RabbitMQ.Exchange
		}
		rmq, err := events.NewRabbitPublisher(rmqCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create RabbitMQ publisher: %w", err)
		}
		s.closers = append(s.closers, rmq)
		fanout.Add(rmq)
	}

	if cfg.Telegram.Enabled {
		if cfg.Telegram.ChatID == 0 {
			return nil, fmt.Errorf("telegram notifier needs TELEGRAM_CHAT_ID")
		}
		tg, err := events.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			return nil, err
		}
		fanout.Add(tg)
		log.Info().Int64("chat_id", cfg.Telegram.ChatID).Msg("sending staff notices to telegram")
	}

	return fanout, nil
}

// Start runs background workers until ctx is done
func (s *Services) Start(ctx context.Context) {
	if s.hub != nil {
		go s.hub.Start(ctx)
	}
}

func (s *Services) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close publisher")
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}
}
