package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/braillechain/go/internal/config"
	"github.com/mcdev12/braillechain/go/internal/gateway"
)

func main() {
	// Load .env file if it exists
	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := setupLogging(cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}

	loc, err := loadLocale(cfg.Locale)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load locale")
	}

	log.Info().
		Str("keyboard_url", cfg.Keyboard.BaseURL).
		Str("locale", loc.Name).
		Str("speech_engine", cfg.Speech.Engine).
		Dur("poll_interval", cfg.Poll.Interval).
		Msg("starting braille word chain")

	services, err := setupServices(cfg, loc)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := services.Gateway.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	server := gateway.NewHTTPServer(cfg.GatewayAddr(), services.Gateway)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Quitting the game ends the process the same way a signal does.
	quit := make(chan struct{})
	services.Controller.OnQuit(func() {
		if err := services.Loop.Stop(); err != nil {
			log.Warn().Err(err).Msg("failed to stop poll loop")
		}
		close(quit)
	})

	if err := services.Controller.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start game")
	}
	if err := services.Loop.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start poll loop")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		if services.Loop.Running() {
			if err := services.Loop.Stop(); err != nil {
				log.Warn().Err(err).Msg("failed to stop poll loop")
			}
		}
	case <-quit:
		log.Info().Msg("game ended")
		// Let the exit announcement and menu navigation reach the display.
		time.Sleep(cfg.Speech.SettleDelay + time.Second)
	}
	services.Loop.Wait()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	cancel()
	services.Close()

	log.Info().Msg("shutdown complete")
}
