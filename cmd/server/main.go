package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/phuslu/log"

	"github.com/avolis/presenced/internal/gameserver"
)

type Config struct {
	Addr          string `envconfig:"PRESENCED_ADDR" default:"0.0.0.0:8081"`
	DebugPassword string `envconfig:"PRESENCED_DEBUG_PASSWORD" default:"s33-3v3rything"`
}

func loadConfig() (*Config, error) {
	config := new(Config)
	if err := envconfig.Process("", config); err != nil {
		return nil, err
	}
	return config, nil
}

func configureLogger() *log.Logger {
	logger := log.DefaultLogger

	// https://github.com/phuslu/log?tab=readme-ov-file#pretty-console-writer
	logger.Caller = 1
	logger.TimeFormat = "15:04:05"
	logger.Writer = &log.ConsoleWriter{
		ColorOutput:    true,
		QuoteString:    true,
		EndWithMessage: true,
	}

	return &logger
}

func erringMain() error {
	config, err := loadConfig()
	if err != nil {
		return fmt.Errorf("could not process config: %w", err)
	}

	logger := configureLogger()

	server := gameserver.NewServer(config.DebugPassword, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWS)

	httpServer := &http.Server{Addr: config.Addr, Handler: mux}

	wg := new(sync.WaitGroup)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg.Add(1)
	var runErr error
	go func() {
		defer wg.Done()
		runErr = server.Run(ctx)
	}()

	wg.Add(1)
	var serveErr error
	go func() {
		defer wg.Done()
		logger.Info().Msgf("listening on %s", config.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
			cancel()
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-signalChan:
		logger.Info().Msgf("received %+v signal", sig)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)

	cancel()
	wg.Wait()

	if serveErr != nil {
		return fmt.Errorf("http server failed: %w", serveErr)
	}
	if runErr != nil {
		return fmt.Errorf("game server run failed: %w", runErr)
	}
	return nil
}

func main() {
	if err := erringMain(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
