// Command mock_keyboard serves an in-memory keyboard service driven from
// stdin, for running the game without the braille hardware.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/braillechain/go/internal/devserver"
	"github.com/mcdev12/braillechain/go/internal/locale"
)

const usage = `Commands:
  type <word>      type a word at the cursor
  dots <1 2 ...>   type one cell with the given dots raised
  enter | left | right | back | ctrl
  quit             Ctrl+Backspace
  restart          Ctrl+Enter
  state            print the buffer and cursor
  history          print the word history
  exit`

var keyCommands = map[string]string{
	"enter":   devserver.KeyEnter,
	"left":    devserver.KeyLeft,
	"right":   devserver.KeyRight,
	"back":    devserver.KeyBack,
	"ctrl":    devserver.KeyCtrl,
	"quit":    devserver.KeyCtrlBackspace,
	"restart": devserver.KeyCtrlEnter,
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	addr := getEnv("MOCK_KEYBOARD_ADDR", ":5000")
	localeName := getEnv("LOCALE", "en-US")
	signalSeq, _ := strconv.ParseBool(getEnv("MOCK_KEYBOARD_SIGNAL_SEQ", "false"))

	table, err := locale.Builtin()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load locales")
	}
	loc, err := table.Get(localeName)
	if err != nil {
		log.Fatal().Err(err).Msg("unknown locale")
	}

	srv := devserver.NewServerForLocale(loc, signalSeq)
	server := &http.Server{
		Addr:        addr,
		Handler:     srv.Handler(),
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Str("prefix", loc.Endpoints.Prefix).Msg("mock keyboard listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	fmt.Println(usage)
	scanner := bufio.NewScanner(os.Stdin)
	for fmt.Print("> "); scanner.Scan(); fmt.Print("> ") {
		if !handleCommand(srv, scanner.Text()) {
			break
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}

// handleCommand runs one stdin line. It returns false on exit.
func handleCommand(srv *devserver.Server, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	if key, ok := keyCommands[cmd]; ok {
		srv.Press(key)
		return true
	}

	switch cmd {
	case "type":
		srv.TypeWord(strings.Join(args, ""))
	case "dots":
		dots := make([]int, 0, len(args))
		for _, a := range args {
			d, err := strconv.Atoi(a)
			if err != nil || d < 1 || d > 6 {
				fmt.Printf("invalid dot %q, must be 1-6\n", a)
				return true
			}
			dots = append(dots, d)
		}
		srv.Type(devserver.Dots(dots...))
	case "state":
		buffer, cursor := srv.Buffer()
		fmt.Printf("buffer=%q cursor=%d pending=%d\n", devserver.Decode(buffer), cursor, srv.Pending())
	case "history":
		fmt.Println(strings.Join(srv.History(), " -> "))
	case "help":
		fmt.Println(usage)
	case "exit":
		return false
	default:
		fmt.Printf("unknown command %q\n", cmd)
	}
	return true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
