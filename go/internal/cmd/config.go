package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/braillechain/go/internal/config"
	"github.com/mcdev12/braillechain/go/internal/locale"
)

func configPath() string {
	if path := os.Getenv("BRAILLECHAIN_CONFIG"); path != "" {
		return path
	}
	return config.DefaultPath
}

func setupLogging(cfg *config.Config) error {
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(level)
	return nil
}

// loadLocale resolves the configured locale, preferring a locale file
// over the builtin tables when one is set.
func loadLocale(cfg config.LocaleConfig) (locale.Locale, error) {
	var (
		table locale.Table
		err   error
	)
	if cfg.File != "" {
		table, err = locale.LoadFile(cfg.File)
	} else {
		table, err = locale.Builtin()
	}
	if err != nil {
		return locale.Locale{}, fmt.Errorf("failed to load locales: %w", err)
	}
	return table.Get(cfg.Name)
}
