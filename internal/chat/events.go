package chat

import (
	"MindTalk/internal/resources"
	"MindTalk/internal/session"
)

// EventKind discriminates session events.
type EventKind int

const (
	// EventReply: the assistant reply landed in a conversation.
	EventReply EventKind = iota
	// EventCrisis: crisis language was detected in a submission.
	EventCrisis
	// EventTranscript: voice input produced a transcript.
	EventTranscript
	// EventSpeechStarted / EventSpeechEnded: vocalization lifecycle.
	EventSpeechStarted
	EventSpeechEnded
	// EventNotice: a transient, non-fatal notice for the user.
	EventNotice
)

// Event is pushed to front ends over the session's event channel so the
// view layer stays decoupled from the orchestrator.
type Event struct {
	Kind      EventKind
	ChatID    string
	Message   session.Message      // set for EventReply
	Text      string               // transcript or notice text
	Resources []resources.Resource // set for EventCrisis
}
