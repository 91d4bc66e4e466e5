package crisis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"MindTalk/internal/config"
)

func TestClassifyDetectsIndicatorPhrases(t *testing.T) {
	c := NewClassifier(config.DefaultLexicon().CrisisKeywords)

	require.True(t, c.Classify("I want to kill myself"))
	require.True(t, c.Classify("sometimes I think about suicide"))
	require.True(t, c.Classify("there is no reason to live anymore"))
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	c := NewClassifier([]string{"kill myself"})

	require.True(t, c.Classify("I WANT TO KILL MYSELF"))
	require.True(t, c.Classify("Kill Myself"))
}

func TestClassifyIgnoresNeutralText(t *testing.T) {
	c := NewClassifier(config.DefaultLexicon().CrisisKeywords)

	require.False(t, c.Classify("I had a great day at school"))
	require.False(t, c.Classify("exams are stressing me out"))
}

func TestClassifyEmptyInput(t *testing.T) {
	c := NewClassifier(config.DefaultLexicon().CrisisKeywords)

	require.False(t, c.Classify(""))
	require.False(t, c.Classify("   \n\t "))
}

func TestClassifyWithCustomKeywords(t *testing.T) {
	c := NewClassifier([]string{"  GIVING UP  ", ""})

	require.True(t, c.Classify("I feel like giving up"))
	require.False(t, c.Classify("I want to kill myself"))
}
