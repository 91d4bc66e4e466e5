package chat

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"MindTalk/internal/config"
	"MindTalk/internal/resources"
	"MindTalk/internal/responder"
	"MindTalk/internal/session"
	"MindTalk/internal/speech"
	"MindTalk/internal/store"
)

type fakeBridge struct {
	mu             sync.Mutex
	support        speech.Support
	spoken         []string
	stopSpeakCalls int
	transcript     string
	listenErr      error
}

func (f *fakeBridge) StartListening(onResult func(string), onError func(error)) {
	if f.listenErr != nil {
		onError(f.listenErr)
		return
	}
	onResult(f.transcript)
}

func (f *fakeBridge) StopListening() {}

func (f *fakeBridge) Speak(text string, onEnd func()) {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()
	if onEnd != nil {
		onEnd()
	}
}

func (f *fakeBridge) StopSpeaking() {
	f.mu.Lock()
	f.stopSpeakCalls++
	f.mu.Unlock()
}

func (f *fakeBridge) Support() speech.Support { return f.support }

func (f *fakeBridge) Close() error { return nil }

func (f *fakeBridge) spokenTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.spoken))
	copy(out, f.spoken)
	return out
}

func newTestSession(t *testing.T, bridge speech.Bridge) *Session {
	t.Helper()
	if bridge == nil {
		bridge = speech.NewUnavailable()
	}
	cfg := config.Config{ReplyDelay: 10 * time.Millisecond}
	lex := config.DefaultLexicon()
	s := NewSession(
		cfg,
		lex,
		store.NewStore(lex.WelcomeMessage),
		bridge,
		nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracenoop.NewTracerProvider().Tracer("test"),
		metricnoop.NewMeterProvider().Meter("test"),
	)
	t.Cleanup(s.Close)
	return s
}

// waitFor drains the event stream until an event of the wanted kind shows
// up, failing the test on timeout.
func waitFor(t *testing.T, s *Session, kind EventKind) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-s.Events():
			require.True(t, ok, "event channel closed while waiting")
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event kind %d", kind)
		}
	}
}

func TestSubmitGuards(t *testing.T) {
	s := newTestSession(t, nil)

	require.ErrorIs(t, s.Submit(context.Background(), "hello", nil), ErrNoActiveChat)

	s.NewChat()
	require.ErrorIs(t, s.Submit(context.Background(), "   ", nil), ErrEmptyMessage)

	// A file attachment alone satisfies the guard.
	err := s.Submit(context.Background(), "", []session.FileRef{{Name: "notes.txt"}})
	require.NoError(t, err)
}

func TestSubmitStressScenario(t *testing.T) {
	s := newTestSession(t, nil)
	s.NewChat()

	require.NoError(t, s.Submit(context.Background(), "I've been so stressed about exams", nil))
	require.Equal(t, AwaitingReply, s.State())

	ev := waitFor(t, s, EventReply)
	require.Equal(t, s.ActiveChat(), ev.ChatID)
	require.Equal(t, session.RoleAssistant, ev.Message.Role)

	msgs := s.Messages()
	require.Len(t, msgs, 3) // seed, user, assistant
	require.Equal(t, session.RoleAssistant, msgs[0].Role)
	require.Equal(t, "I've been so stressed about exams", msgs[1].Content)
	require.Equal(t, config.DefaultLexicon().Topics[0].Reply, msgs[2].Content)
	require.Equal(t, Idle, s.State())
}

func TestSubmitCrisisScenario(t *testing.T) {
	s := newTestSession(t, nil)
	s.NewChat()

	require.NoError(t, s.Submit(context.Background(), "I want to kill myself", nil))

	alert := waitFor(t, s, EventCrisis)
	require.Equal(t, s.ActiveChat(), alert.ChatID)

	reply := waitFor(t, s, EventReply)
	require.Equal(t, config.DefaultLexicon().CrisisReply, reply.Message.Content)
}

func TestSubmitAttachmentsWinOverCrisis(t *testing.T) {
	s := newTestSession(t, nil)
	s.NewChat()

	files := []session.FileRef{{Name: "diary.txt", SizeBytes: 42, MimeType: "text/plain"}}
	require.NoError(t, s.Submit(context.Background(), "I feel suicidal", files))

	// The crisis screen still fires on the text...
	waitFor(t, s, EventCrisis)
	// ...but the reply takes the attachments branch.
	reply := waitFor(t, s, EventReply)
	require.Contains(t, reply.Message.Content, "diary.txt")
	require.NotEqual(t, config.DefaultLexicon().CrisisReply, reply.Message.Content)
}

func TestReplyDroppedWhenConversationDeleted(t *testing.T) {
	s := newTestSession(t, nil)
	id := s.NewChat()

	require.NoError(t, s.Submit(context.Background(), "hello there", nil))
	s.DeleteChat(id)

	select {
	case ev, ok := <-s.Events():
		if ok {
			require.NotEqual(t, EventReply, ev.Kind, "reply must be dropped for a deleted conversation")
		}
	case <-time.After(100 * time.Millisecond):
	}
	require.Empty(t, s.ActiveChat())
	require.Empty(t, s.Messages())
}

func TestReplyLandsInOriginConversationAfterSwitch(t *testing.T) {
	s := newTestSession(t, nil)
	first := s.NewChat()

	require.NoError(t, s.Submit(context.Background(), "can't sleep lately", nil))
	second := s.NewChat() // switches active before the timer fires

	ev := waitFor(t, s, EventReply)
	require.Equal(t, first, ev.ChatID)

	// The active (second) conversation only has its seed message.
	require.Equal(t, second, s.ActiveChat())
	require.Len(t, s.Messages(), 1)

	conv, ok := s.store.Get(first)
	require.True(t, ok)
	require.Len(t, conv.Messages, 3)
}

func TestSpeechOutputSpeaksReplies(t *testing.T) {
	bridge := &fakeBridge{support: speech.Support{Synthesis: true}}
	s := newTestSession(t, bridge)
	s.NewChat()

	require.True(t, s.ToggleSpeechOutput())
	require.NoError(t, s.Submit(context.Background(), "feeling anxious today", nil))

	waitFor(t, s, EventSpeechStarted)
	waitFor(t, s, EventSpeechEnded)
	spoken := bridge.spokenTexts()
	require.Len(t, spoken, 1)
	require.Equal(t, config.DefaultLexicon().Topics[0].Reply, spoken[0])
}

func TestSubmitInterruptsSpeech(t *testing.T) {
	bridge := &fakeBridge{support: speech.Support{Synthesis: true}}
	s := newTestSession(t, bridge)
	s.NewChat()

	require.NoError(t, s.Submit(context.Background(), "hello", nil))

	bridge.mu.Lock()
	calls := bridge.stopSpeakCalls
	bridge.mu.Unlock()
	require.Equal(t, 1, calls)
}

func TestToggleSpeechOutputWithoutSynthesis(t *testing.T) {
	s := newTestSession(t, nil)

	require.False(t, s.ToggleSpeechOutput())
	ev := waitFor(t, s, EventNotice)
	require.Contains(t, ev.Text, "not available")
	require.False(t, s.SpeechOutput())
}

func TestVoiceInputTranscript(t *testing.T) {
	bridge := &fakeBridge{
		support:    speech.Support{Recognition: true},
		transcript: "I had trouble sleeping",
	}
	s := newTestSession(t, bridge)

	s.StartVoiceInput()

	ev := waitFor(t, s, EventTranscript)
	require.Equal(t, "I had trouble sleeping", ev.Text)
}

func TestAwaitTranscriptDeliversVoiceInput(t *testing.T) {
	bridge := &fakeBridge{
		support:    speech.Support{Recognition: true},
		transcript: "I feel stressed",
	}
	s := newTestSession(t, bridge)

	s.StartVoiceInput()

	text, ok := s.awaitTranscript()
	require.True(t, ok)
	require.Equal(t, "I feel stressed", text)
}

func TestAwaitTranscriptEndsOnNotice(t *testing.T) {
	s := newTestSession(t, nil) // no recognition support

	s.StartVoiceInput()

	_, ok := s.awaitTranscript()
	require.False(t, ok)
}

func TestReplyEventSurvivesFullChannel(t *testing.T) {
	s := newTestSession(t, nil)
	s.NewChat()

	// Saturate the event channel with transient events; the reply must
	// still come through once a front end drains.
	for i := 0; i < cap(s.events); i++ {
		s.emit(Event{Kind: EventNotice, Text: "filler"})
	}

	require.NoError(t, s.Submit(context.Background(), "hello", nil))

	ev := waitFor(t, s, EventReply)
	require.Equal(t, session.RoleAssistant, ev.Message.Role)
}

func TestAllResourcesSpansCategories(t *testing.T) {
	catalog, err := resources.Open(filepath.Join(t.TempDir(), "resources.db"))
	require.NoError(t, err)
	t.Cleanup(func() { catalog.Close() })

	cfg := config.Config{ReplyDelay: 10 * time.Millisecond}
	lex := config.DefaultLexicon()
	s := NewSession(
		cfg,
		lex,
		store.NewStore(lex.WelcomeMessage),
		speech.NewUnavailable(),
		catalog,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracenoop.NewTracerProvider().Tracer("test"),
		metricnoop.NewMeterProvider().Meter("test"),
	)
	t.Cleanup(s.Close)

	categories := make(map[string]bool)
	for _, r := range s.AllResources(context.Background()) {
		categories[r.Category] = true
	}
	require.True(t, categories[resources.CategoryCrisis])
	require.True(t, categories[resources.CategoryCoping])

	for _, r := range s.CrisisResources(context.Background()) {
		require.Equal(t, resources.CategoryCrisis, r.Category)
	}
}

func TestVoiceInputPermissionDenied(t *testing.T) {
	bridge := &fakeBridge{
		support:   speech.Support{Recognition: true},
		listenErr: speech.ErrPermissionDenied,
	}
	s := newTestSession(t, bridge)

	s.StartVoiceInput()

	ev := waitFor(t, s, EventNotice)
	require.Contains(t, ev.Text, "Microphone access")
}

func TestRepeatedSelectionServedFromCache(t *testing.T) {
	s := newTestSession(t, nil)
	s.NewChat()

	require.NoError(t, s.Submit(context.Background(), "so much stress", nil))
	first := waitFor(t, s, EventReply)
	require.NoError(t, s.Submit(context.Background(), "so much stress", nil))
	second := waitFor(t, s, EventReply)

	require.Equal(t, first.Message.Content, second.Message.Content)
}

func TestSelectReplyBranches(t *testing.T) {
	s := newTestSession(t, nil)

	reply := s.selectReply(context.Background(), "random chatter", false, nil)
	require.Equal(t, responder.BranchFallback, reply.Branch)

	reply = s.selectReply(context.Background(), "random chatter", true, nil)
	require.Equal(t, responder.BranchCrisis, reply.Branch)
}
