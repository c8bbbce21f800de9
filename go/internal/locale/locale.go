// Package locale holds the per-language string tables and rules that
// parameterize the game client: speech language tag, minimum counted word
// length, target labels, spoken cues and the keyboard service route layout.
package locale

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales.yaml
var builtinTable []byte

var ErrUnknownLocale = errors.New("unknown locale")

// Endpoints describes how a locale's keyboard service routes are laid out.
type Endpoints struct {
	Prefix     string `yaml:"prefix"`
	SendBuffer bool   `yaml:"send_buffer"`
}

type Labels struct {
	Transcription string `yaml:"transcription"`
	BackToMenu    string `yaml:"back_to_menu"`
	Retry         string `yaml:"retry"`
	Cancel        string `yaml:"cancel"`
}

type Messages struct {
	CursorLeft        string `yaml:"cursor_left"`
	CursorRight       string `yaml:"cursor_right"`
	Deleted           string `yaml:"deleted"`
	NothingToSubmit   string `yaml:"nothing_to_submit"`
	Accepted          string `yaml:"accepted"`
	OpponentWord      string `yaml:"opponent_word"`
	AttemptsExhausted string `yaml:"attempts_exhausted"`
	OpponentExhausted string `yaml:"opponent_exhausted"`
	SubmitFailed      string `yaml:"submit_failed"`
	Restarted         string `yaml:"restarted"`
	RestartFailed     string `yaml:"restart_failed"`
	StartFailed       string `yaml:"start_failed"`
	Quitting          string `yaml:"quitting"`
	Score             string `yaml:"score"`
}

// Locale is one language's table.
type Locale struct {
	Name          string    `yaml:"-"`
	LanguageTag   string    `yaml:"language_tag"`
	MinWordLength int       `yaml:"min_word_length"`
	Endpoints     Endpoints `yaml:"endpoints"`
	Labels        Labels    `yaml:"labels"`
	Messages      Messages  `yaml:"messages"`
}

// Table maps locale names ("en-US") to their tables.
type Table map[string]Locale

// Builtin returns the tables compiled into the binary.
func Builtin() (Table, error) {
	return Parse(builtinTable)
}

// Parse decodes a YAML document of locale tables.
func Parse(data []byte) (Table, error) {
	var raw map[string]Locale
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse locale table: %w", err)
	}
	table := make(Table, len(raw))
	for name, loc := range raw {
		loc.Name = name
		if err := loc.Validate(); err != nil {
			return nil, err
		}
		table[name] = loc
	}
	return table, nil
}

// LoadFile reads locale tables from path and layers them over the builtin
// ones. Entries in the file replace builtin entries with the same name.
func LoadFile(path string) (Table, error) {
	table, err := Builtin()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read locale file: %w", err)
	}
	overrides, err := Parse(data)
	if err != nil {
		return nil, err
	}
	for name, loc := range overrides {
		table[name] = loc
	}
	return table, nil
}

// Get looks a locale up by name.
func (t Table) Get(name string) (Locale, error) {
	loc, ok := t[name]
	if !ok {
		return Locale{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownLocale, name, strings.Join(t.Names(), ", "))
	}
	return loc, nil
}

func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l Locale) Validate() error {
	if l.LanguageTag == "" {
		return fmt.Errorf("locale %q: language_tag is required", l.Name)
	}
	if l.MinWordLength < 1 {
		return fmt.Errorf("locale %q: min_word_length must be positive", l.Name)
	}
	if l.Endpoints.Prefix == "" {
		return fmt.Errorf("locale %q: endpoints.prefix is required", l.Name)
	}
	return nil
}

func (l Locale) AcceptedMessage(word string) string {
	return fmt.Sprintf(l.Messages.Accepted, word)
}

func (l Locale) OpponentMessage(word string) string {
	return fmt.Sprintf(l.Messages.OpponentWord, word)
}

func (l Locale) ScoreLine(incorrect, exchanges int) string {
	return fmt.Sprintf(l.Messages.Score, incorrect, exchanges)
}
