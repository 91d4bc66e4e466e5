package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TopicRule maps trigger keywords to a canned reply. Rules are evaluated in
// order; the first keyword hit wins.
type TopicRule struct {
	Topic    string   `yaml:"topic"`
	Keywords []string `yaml:"keywords"`
	Reply    string   `yaml:"reply"`
}

// Lexicon is the tunable language table: crisis indicator keywords, topic
// rules and the fixed reply copy. It ships with built-in defaults and can be
// overridden from a YAML file so the keyword screen is configuration, not a
// hard-coded literal.
type Lexicon struct {
	CrisisKeywords []string    `yaml:"crisis_keywords"`
	CrisisReply    string      `yaml:"crisis_reply"`
	Topics         []TopicRule `yaml:"topics"`
	FallbackReply  string      `yaml:"fallback_reply"`
	WelcomeMessage string      `yaml:"welcome_message"`
}

// DefaultLexicon returns the built-in language table.
func DefaultLexicon() Lexicon {
	return Lexicon{
		CrisisKeywords: []string{
			"suicide",
			"suicidal",
			"kill myself",
			"end my life",
			"end it all",
			"self harm",
			"self-harm",
			"hurt myself",
			"want to die",
			"better off dead",
			"no reason to live",
		},
		CrisisReply: "I notice you might be going through a difficult time. " +
			"Remember, it's okay to ask for help. Please consider reaching out to " +
			"someone you trust or a professional. Would you like me to provide " +
			"resources that might help?",
		Topics: []TopicRule{
			{
				Topic:    "stress",
				Keywords: []string{"stress", "anxiety"},
				Reply: "Dealing with stress and anxiety can be challenging. Deep " +
					"breathing, mindfulness, and physical activity can help manage " +
					"these feelings. Would you like to explore some specific techniques?",
			},
			{
				Topic:    "low-mood",
				Keywords: []string{"sad", "depress"},
				Reply: "I'm sorry to hear you're feeling this way. Sometimes talking " +
					"to someone, maintaining routines, and engaging in activities you " +
					"enjoy can help. Have you considered speaking with a counselor at " +
					"your university?",
			},
			{
				Topic:    "sleep",
				Keywords: []string{"sleep", "tired"},
				Reply: "Sleep is crucial for mental health. Establishing a regular " +
					"sleep schedule, limiting screen time before bed, and creating a " +
					"comfortable sleep environment can help improve sleep quality.",
			},
		},
		FallbackReply: "Thank you for sharing. Your feelings are valid, and it's " +
			"important to acknowledge them. Would you like to talk more about " +
			"what's on your mind or discuss some coping strategies?",
		WelcomeMessage: "Hi, I'm here to listen. How are you feeling today?",
	}
}

// LoadLexicon reads a YAML lexicon file on top of the defaults. Fields left
// empty in the file keep their built-in values.
func LoadLexicon(path string) (Lexicon, error) {
	lex := DefaultLexicon()
	if path == "" {
		return lex, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return lex, fmt.Errorf("failed to read lexicon file: %w", err)
	}

	var override Lexicon
	if err := yaml.Unmarshal(data, &override); err != nil {
		return lex, fmt.Errorf("failed to parse lexicon file: %w", err)
	}

	if len(override.CrisisKeywords) > 0 {
		lex.CrisisKeywords = override.CrisisKeywords
	}
	if override.CrisisReply != "" {
		lex.CrisisReply = override.CrisisReply
	}
	if len(override.Topics) > 0 {
		lex.Topics = override.Topics
	}
	if override.FallbackReply != "" {
		lex.FallbackReply = override.FallbackReply
	}
	if override.WelcomeMessage != "" {
		lex.WelcomeMessage = override.WelcomeMessage
	}

	return lex, nil
}
