package config

import "time"

// DefaultReplyDelay is the artificial pause between a user message and the
// assistant reply, standing in for thinking time.
const DefaultReplyDelay = time.Second

// Config holds application configuration
type Config struct {
	SpeechURL    string        // WebSocket URL of a remote speech service
	SpeechCmd    string        // Path to a local speech engine command; SpeechURL wins if both are set
	SpeechOutput bool          // Vocalize assistant replies on startup
	ReplyDelay   time.Duration // Delay before the assistant reply is appended
	LexiconPath  string        // Optional YAML file overriding the built-in lexicon
	ResourcesDB  string        // SQLite file holding the support-resource catalog
	SeedDemo     bool          // Pre-seed demo conversations at startup
	Debug        bool
	NoTUI        bool // Run the plain stdin loop instead of the two-pane UI
}
