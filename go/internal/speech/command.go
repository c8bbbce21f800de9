package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrUnknownSpeechEngine is returned when configuration names an engine
// that does not exist.
var ErrUnknownSpeechEngine = errors.New("unknown speech engine")

const (
	langPlaceholder = "{lang}"
	textPlaceholder = "{text}"
)

// CommandConfig describes an external TTS program. Arguments may contain
// {lang} and {text} placeholders; without {text} the message is passed as
// the last argument.
type CommandConfig struct {
	Command string
	Args    []string
}

// DefaultCommandConfig speaks through espeak-ng.
func DefaultCommandConfig() CommandConfig {
	return CommandConfig{
		Command: "espeak-ng",
		Args:    []string{"-v", langPlaceholder},
	}
}

// CommandEngine speaks by running an external program, one process per
// utterance. Cancel kills the running process.
type CommandEngine struct {
	cfg CommandConfig

	mu      sync.Mutex
	current *exec.Cmd
}

func NewCommandEngine(cfg CommandConfig) *CommandEngine {
	defaults := DefaultCommandConfig()
	if strings.TrimSpace(cfg.Command) == "" {
		cfg.Command = defaults.Command
	}
	// An explicitly empty list is kept.
	if cfg.Args == nil {
		cfg.Args = defaults.Args
	}
	return &CommandEngine{cfg: cfg}
}

func (e *CommandEngine) Name() string { return "command" }

func (e *CommandEngine) Speak(ctx context.Context, u Utterance) error {
	cmd := exec.CommandContext(ctx, e.cfg.Command, e.args(u)...)

	e.mu.Lock()
	e.killLocked()
	if err := cmd.Start(); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("failed to start %s: %w", e.cfg.Command, err)
	}
	e.current = cmd
	e.mu.Unlock()

	go func() {
		err := cmd.Wait()
		e.mu.Lock()
		if e.current == cmd {
			e.current = nil
		}
		e.mu.Unlock()
		if err != nil && ctx.Err() == nil {
			log.Debug().Err(err).Str("command", e.cfg.Command).Msg("speech process exited")
		}
	}()
	return nil
}

func (e *CommandEngine) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.killLocked()
}

func (e *CommandEngine) killLocked() error {
	if e.current == nil || e.current.Process == nil {
		return nil
	}
	cmd := e.current
	e.current = nil
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to stop speech process: %w", err)
	}
	return nil
}

func (e *CommandEngine) args(u Utterance) []string {
	args := make([]string, 0, len(e.cfg.Args)+1)
	hasText := false
	for _, arg := range e.cfg.Args {
		if strings.Contains(arg, textPlaceholder) {
			hasText = true
		}
		arg = strings.ReplaceAll(arg, langPlaceholder, u.LanguageTag)
		arg = strings.ReplaceAll(arg, textPlaceholder, u.Text)
		args = append(args, arg)
	}
	if !hasText {
		args = append(args, u.Text)
	}
	return args
}

func (e *CommandEngine) String() string {
	if len(e.cfg.Args) == 0 {
		return e.cfg.Command
	}
	return fmt.Sprintf("%s %s", e.cfg.Command, strings.Join(e.cfg.Args, " "))
}
