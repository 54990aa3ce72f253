package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/buffet/go/clients/buffet_api_client"
	"github.com/mcdev12/buffet/go/internal/kiosk"
	"github.com/mcdev12/buffet/go/internal/menu"
	"github.com/mcdev12/buffet/go/internal/session"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	// the screen owns stdout, logs go to stderr
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "warn"))
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	baseURL := getEnv("BUFFET_API_URL", buffet_api_client.DefaultBaseURL)
	client := buffet_api_client.NewBuffetApiClient(baseURL)
	cache := menu.NewCache(client)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var screen *kiosk.Kiosk
	controller := session.NewController(client, cache, session.WithObserver(func(s session.State) {
		screen.Redraw(s)
	}))
	screen = kiosk.New(controller, cache, os.Stdout, isatty.IsTerminal(os.Stdout.Fd()))

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- controller.Run(ctx)
	}()

	log.Info().Str("api_url", baseURL).Msg("kiosk started")
	if err := screen.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("kiosk stopped")
	}

	stop()
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("session loop exited")
	}
}
