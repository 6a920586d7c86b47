package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/lunchvote/go-session-client/api"
	"github.com/lunchvote/go-session-client/credentials"
	"github.com/lunchvote/go-session-client/internal/config"
	"github.com/lunchvote/go-session-client/session"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error running client: %s\n", err)
	}
	log.Printf("Client stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	redirectURL := flag.String("redirect-url", "", "redirect URL from a social login, including its query parameters")
	flag.Parse()

	_ = godotenv.Load()
	c := config.New()
	displayAppname(c.GetAppName())
	logger := newLogger(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := credentials.OpenStore(c.GetProfileDir(), logger)
	backend := api.NewClient(c.GetAPIBaseURL(), store, api.WithLogger(logger))
	manager, err := session.New(session.Deps{
		Store:   store,
		Backend: backend,
		Log:     logger,
	}, session.WithRevalidateInterval(c.GetRevalidateInterval()))
	if err != nil {
		return fmt.Errorf("session.New: %w", err)
	}

	state, transitions, unsubscribe := manager.Subscribe()
	defer unsubscribe()
	go logTransitions(logger, transitions)
	logger.Info().Str("status", string(state.Status)).Msg("session state")

	if _, err := manager.Initialize(ctx, *redirectURL); err != nil {
		return fmt.Errorf("manager.Initialize: %w", err)
	}
	if err := manager.WaitUntilReady(ctx); err != nil {
		return fmt.Errorf("manager.WaitUntilReady: %w", err)
	}

	go func() {
		if err := manager.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("session revalidation loop stopped")
		}
	}()

	waitForStopSignal()
	return nil
}

func logTransitions(logger zerolog.Logger, transitions <-chan session.State) {
	for state := range transitions {
		event := logger.Info().Str("status", string(state.Status))
		if state.User != nil {
			event = event.Str("user", state.User.Username)
		}
		event.Msg("session state changed")
	}
}

func newLogger(c config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	if c.GetEnv() == "DEV" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
