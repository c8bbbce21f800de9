package locale

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinTables(t *testing.T) {
	table, err := Builtin()
	require.NoError(t, err)

	en, err := table.Get("en-US")
	require.NoError(t, err)
	assert.Equal(t, "en-US", en.Name)
	assert.Equal(t, 3, en.MinWordLength)
	assert.Equal(t, "/word_chain_en", en.Endpoints.Prefix)
	assert.False(t, en.Endpoints.SendBuffer)
	assert.Equal(t, "You entered: cat.", en.AcceptedMessage("cat"))
	assert.Equal(t, "Incorrect Attempts: 1 | Total Exchanges: 4", en.ScoreLine(1, 4))

	ko, err := table.Get("ko-KR")
	require.NoError(t, err)
	assert.Equal(t, 2, ko.MinWordLength)
	assert.Equal(t, "ko-KR", ko.LanguageTag)
	assert.True(t, ko.Endpoints.SendBuffer)
}

func TestGetUnknownLocale(t *testing.T) {
	table, err := Builtin()
	require.NoError(t, err)

	_, err = table.Get("fr-FR")
	assert.ErrorIs(t, err, ErrUnknownLocale)
}

func TestParseRejectsInvalidTable(t *testing.T) {
	_, err := Parse([]byte("xx:\n  language_tag: xx\n  min_word_length: 0\n  endpoints:\n    prefix: /x\n"))
	assert.Error(t, err)
}

func TestLoadFileOverridesBuiltin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locales.yaml")
	doc := `
en-US:
  language_tag: en-GB
  min_word_length: 4
  endpoints:
    prefix: /chain
  messages:
    accepted: "Got %s"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	table, err := LoadFile(path)
	require.NoError(t, err)

	en, err := table.Get("en-US")
	require.NoError(t, err)
	assert.Equal(t, "en-GB", en.LanguageTag)
	assert.Equal(t, 4, en.MinWordLength)
	assert.Equal(t, "Got cat", en.AcceptedMessage("cat"))

	_, err = table.Get("ko-KR")
	assert.NoError(t, err)
}
