package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadLexiconEmptyPathReturnsDefaults(t *testing.T) {
	lex, err := LoadLexicon("")

	require.NoError(t, err)
	require.Equal(t, DefaultLexicon(), lex)
}

func TestLoadLexiconOverridesKeywords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := `
crisis_keywords:
  - giving up
topics:
  - topic: loneliness
    keywords: [lonely, alone]
    reply: You are not alone in this.
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	lex, err := LoadLexicon(path)

	require.NoError(t, err)
	require.Equal(t, []string{"giving up"}, lex.CrisisKeywords)
	require.Len(t, lex.Topics, 1)
	require.Equal(t, "loneliness", lex.Topics[0].Topic)
	// Untouched fields keep their defaults.
	require.Equal(t, DefaultLexicon().FallbackReply, lex.FallbackReply)
	require.Equal(t, DefaultLexicon().WelcomeMessage, lex.WelcomeMessage)
}

func TestLoadLexiconMissingFile(t *testing.T) {
	lex, err := LoadLexicon(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
	// Defaults are still usable on error.
	require.Equal(t, DefaultLexicon(), lex)
}

func TestLoadLexiconMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crisis_keywords: {not: a list"), 0644))

	_, err := LoadLexicon(path)

	require.Error(t, err)
}
