package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/braillechain/go/clients/keyboard_client"
	"github.com/mcdev12/braillechain/go/internal/config"
	"github.com/mcdev12/braillechain/go/internal/events"
	"github.com/mcdev12/braillechain/go/internal/game"
	"github.com/mcdev12/braillechain/go/internal/gateway"
	"github.com/mcdev12/braillechain/go/internal/health"
	"github.com/mcdev12/braillechain/go/internal/locale"
	"github.com/mcdev12/braillechain/go/internal/poller"
	"github.com/mcdev12/braillechain/go/internal/speech"
)

type Services struct {
	Keyboard   *keyboard_client.KeyboardClient
	Publisher  events.Publisher
	Gateway    *gateway.Service
	Announcer  *speech.Announcer
	Controller *game.Controller
	Loop       *poller.Loop
	Health     *health.Checker
}

func setupServices(cfg *config.Config, loc locale.Locale) (*Services, error) {
	// keyboard client → display gateway → speech → controller → poll loop
	keyboard := keyboard_client.NewKeyboardClientWithTimeout(cfg.Keyboard.BaseURL, loc.Endpoints, cfg.Keyboard.Timeout)

	publisher, err := setupPublisher(cfg.NATS)
	if err != nil {
		return nil, err
	}

	gatewayService := gateway.NewService(gateway.DefaultConfig())

	engine, err := setupSpeechEngine(cfg.Speech, gatewayService)
	if err != nil {
		publisher.Close()
		return nil, err
	}
	announcer := speech.NewAnnouncer(engine, speech.Config{SettleDelay: cfg.Speech.SettleDelay})

	controller, err := game.NewController(keyboard, announcer, gatewayService, publisher, loc, game.Config{
		MenuRoute: cfg.Game.MenuRoute,
	})
	if err != nil {
		announcer.Close()
		publisher.Close()
		return nil, fmt.Errorf("failed to create game controller: %w", err)
	}
	gatewayService.Bind(controller)
	controller.Subscribe(gatewayService.PublishView)

	loop := poller.NewLoop(keyboard, controller, poller.Config{Interval: cfg.Poll.Interval})

	var connectivity health.Connectivity
	if conn, ok := publisher.(health.Connectivity); ok {
		connectivity = conn
	}
	checker := health.NewChecker(loop, connectivity, func() int {
		return gatewayService.GetStats().TotalConnections
	}, health.DefaultConfig())
	gatewayService.Handle("/health/detail", checker)
	gatewayService.Handle("/metrics", health.NewPrometheusExporter(checker))

	return &Services{
		Keyboard:   keyboard,
		Publisher:  publisher,
		Gateway:    gatewayService,
		Announcer:  announcer,
		Controller: controller,
		Loop:       loop,
		Health:     checker,
	}, nil
}

func (s *Services) Close() {
	s.Controller.Wait()
	s.Announcer.Close()
	if err := s.Publisher.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close event publisher")
	}
}

// setupPublisher connects to NATS when a URL is configured and falls back
// to dropping events otherwise.
func setupPublisher(cfg config.NATSConfig) (events.Publisher, error) {
	if cfg.URL == "" {
		log.Info().Msg("NATS not configured, game events are not published")
		return events.NewNoOpPublisher(), nil
	}
	natsConfig := events.DefaultNATSConfig()
	natsConfig.URL = cfg.URL
	if cfg.SubjectPrefix != "" {
		natsConfig.SubjectPrefix = cfg.SubjectPrefix
	}
	publisher, err := events.NewNATSPublisher(natsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	return publisher, nil
}

func setupSpeechEngine(cfg config.SpeechConfig, gatewayService *gateway.Service) (speech.Engine, error) {
	switch cfg.Engine {
	case config.SpeechEngineGateway:
		return gatewayService, nil
	case config.SpeechEngineLog:
		return speech.NewLogEngine(), nil
	case config.SpeechEngineCommand:
		return speech.NewCommandEngine(speech.CommandConfig{Command: cfg.Command, Args: cfg.Args}), nil
	default:
		return nil, fmt.Errorf("%w: %q", speech.ErrUnknownSpeechEngine, cfg.Engine)
	}
}
