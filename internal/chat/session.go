package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"MindTalk/internal/cache"
	"MindTalk/internal/config"
	"MindTalk/internal/crisis"
	"MindTalk/internal/resources"
	"MindTalk/internal/responder"
	"MindTalk/internal/session"
	"MindTalk/internal/speech"
	"MindTalk/internal/store"
)

// Submission guard errors.
var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoActiveChat = errors.New("no active conversation")
)

// State of the orchestrator.
type State int

const (
	// Idle: no assistant reply pending.
	Idle State = iota
	// AwaitingReply: at least one reply timer is in flight.
	AwaitingReply
)

// Session wires user input through the store, the crisis screen and the
// response selector, with a fixed artificial delay standing in for thinking
// time. Each pending reply is bound to the conversation id captured at
// submission; if that conversation is deleted before the timer fires, the
// reply is dropped and logged rather than reattributed.
type Session struct {
	cfg        config.Config
	store      *store.Store
	classifier *crisis.Classifier
	selector   *responder.Selector
	bridge     speech.Bridge
	catalog    *resources.Catalog
	logger     *slog.Logger
	tracer     trace.Tracer
	meter      metric.Meter
	replies    sync.Map // cache.GenerateKey -> cache.CachedReply

	msgCounter    metric.Int64Counter
	crisisCounter metric.Int64Counter
	cacheCounter  metric.Int64Counter
	replyLatency  metric.Float64Histogram

	mu           sync.Mutex
	pending      map[string]*time.Timer // user message id -> reply timer
	speechOutput bool
	closed       bool

	events   chan Event
	done     chan struct{}  // closed by Close to unblock reply emitters
	emitters sync.WaitGroup // in-flight emit calls, waited on before closing events
}

// NewSession creates the orchestrator. The store, speech bridge and
// resource catalog are injected; the classifier and selector are built from
// the lexicon.
func NewSession(
	cfg config.Config,
	lex config.Lexicon,
	st *store.Store,
	bridge speech.Bridge,
	catalog *resources.Catalog,
	logger *slog.Logger,
	tracer trace.Tracer,
	meter metric.Meter,
) *Session {
	s := &Session{
		cfg:          cfg,
		store:        st,
		classifier:   crisis.NewClassifier(lex.CrisisKeywords),
		selector:     responder.NewSelector(lex),
		bridge:       bridge,
		catalog:      catalog,
		logger:       logger,
		tracer:       tracer,
		meter:        meter,
		pending:      make(map[string]*time.Timer),
		speechOutput: cfg.SpeechOutput,
		events:       make(chan Event, 32),
		done:         make(chan struct{}),
	}

	var err error
	if s.msgCounter, err = meter.Int64Counter("chat.messages",
		metric.WithDescription("Messages appended to conversations")); err != nil {
		logger.Warn("failed to create counter", "name", "chat.messages", "error", err)
	}
	if s.crisisCounter, err = meter.Int64Counter("chat.crisis_detections",
		metric.WithDescription("Submissions flagged by the crisis screen")); err != nil {
		logger.Warn("failed to create counter", "name", "chat.crisis_detections", "error", err)
	}
	if s.cacheCounter, err = meter.Int64Counter("chat.reply_cache_hits",
		metric.WithDescription("Replies served from the selection cache")); err != nil {
		logger.Warn("failed to create counter", "name", "chat.reply_cache_hits", "error", err)
	}
	if s.replyLatency, err = meter.Float64Histogram("chat.reply.delay",
		metric.WithDescription("Submit-to-reply delay in milliseconds")); err != nil {
		logger.Warn("failed to create histogram", "name", "chat.reply.delay", "error", err)
	}

	return s
}

// Events exposes the session event stream consumed by front ends.
func (s *Session) Events() <-chan Event {
	return s.events
}

// State reports Idle or AwaitingReply.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) > 0 {
		return AwaitingReply
	}
	return Idle
}

// NewChat creates and activates a conversation.
func (s *Session) NewChat() string {
	id := s.store.Create("")
	s.logger.Info("created new conversation", "chat_id", id)
	return id
}

// SelectChat moves the active pointer. Unknown ids are a silent no-op.
func (s *Session) SelectChat(id string) {
	s.store.Select(id)
}

// DeleteChat removes a conversation. A pending reply bound to it will be
// dropped when its timer fires.
func (s *Session) DeleteChat(id string) {
	if err := s.store.Delete(id); err != nil {
		s.logger.Warn("delete ignored", "chat_id", id, "error", err)
		return
	}
	s.logger.Info("deleted conversation", "chat_id", id)
}

// Chats returns conversation summaries in display order.
func (s *Session) Chats() []store.Summary {
	return s.store.List()
}

// Messages returns the active conversation's log.
func (s *Session) Messages() []session.Message {
	return s.store.CurrentMessages()
}

// ActiveChat returns the active conversation id, or "".
func (s *Session) ActiveChat() string {
	return s.store.ActiveID()
}

// Submit appends the user message to the active conversation, runs the
// crisis screen and schedules the assistant reply. Guard: the text must be
// non-blank or at least one file attached, and a conversation must be
// active.
func (s *Session) Submit(ctx context.Context, text string, files []session.FileRef) error {
	ctx, span := s.tracer.Start(ctx, "submit_message")
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" && len(files) == 0 {
		return ErrEmptyMessage
	}

	chatID := s.store.ActiveID()
	if chatID == "" {
		return ErrNoActiveChat
	}

	// A new submission always interrupts in-flight vocalization.
	s.bridge.StopSpeaking()

	userMsg := session.NewMessage(session.RoleUser, text, files)
	if err := s.store.Append(chatID, userMsg); err != nil {
		return err
	}
	s.addCount(ctx, s.msgCounter, attribute.String("role", session.RoleUser))

	isCrisis := s.classifier.Classify(text)
	if isCrisis {
		s.addCount(ctx, s.crisisCounter)
		s.logger.Info("crisis language detected", "chat_id", chatID)
		s.emit(Event{Kind: EventCrisis, ChatID: chatID, Resources: s.crisisResources(ctx)})
	}

	s.scheduleReply(chatID, userMsg.ID, text, isCrisis, files)

	s.logger.Info("user message submitted",
		"chat_id", chatID,
		"chars", len(text),
		"files", len(files),
		"crisis", isCrisis)
	return nil
}

func (s *Session) scheduleReply(chatID, msgID, text string, isCrisis bool, files []session.FileRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	submitted := time.Now()
	s.pending[msgID] = time.AfterFunc(s.cfg.ReplyDelay, func() {
		s.deliverReply(chatID, msgID, text, isCrisis, files, submitted)
	})
}

// deliverReply runs when the reply timer fires. The reply lands in the
// conversation captured at submission time, or is dropped if that
// conversation no longer exists.
func (s *Session) deliverReply(chatID, msgID, text string, isCrisis bool, files []session.FileRef, submitted time.Time) {
	s.mu.Lock()
	delete(s.pending, msgID)
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	ctx, span := s.tracer.Start(context.Background(), "deliver_reply")
	defer span.End()

	reply := s.selectReply(ctx, text, isCrisis, files)

	assistantMsg := session.NewMessage(session.RoleAssistant, reply.Text, nil)
	if err := s.store.Append(chatID, assistantMsg); err != nil {
		s.logger.Warn("dropping reply for deleted conversation", "chat_id", chatID, "error", err)
		return
	}
	s.addCount(ctx, s.msgCounter, attribute.String("role", session.RoleAssistant))
	if s.replyLatency != nil {
		s.replyLatency.Record(ctx, float64(time.Since(submitted).Milliseconds()))
	}

	s.logger.Info("assistant reply appended",
		"chat_id", chatID,
		"branch", string(reply.Branch))
	s.emit(Event{Kind: EventReply, ChatID: chatID, Message: assistantMsg})

	s.maybeSpeak(reply.Text)
}

func (s *Session) selectReply(ctx context.Context, text string, isCrisis bool, files []session.FileRef) responder.Reply {
	key := cache.GenerateKey(text, isCrisis, files)
	if val, ok := s.replies.Load(key); ok {
		cached := val.(cache.CachedReply)
		s.addCount(ctx, s.cacheCounter)
		s.logger.Debug("reply cache hit", "key", key[:16])
		return responder.Reply{Branch: responder.Branch(cached.Branch), Text: cached.Text}
	}

	reply := s.selector.Select(text, isCrisis, files)
	s.replies.Store(key, cache.CachedReply{
		Branch: string(reply.Branch),
		Text:   reply.Text,
		At:     time.Now(),
	})
	return reply
}

// ToggleSpeechOutput flips vocalization of assistant replies and reports
// the new setting. Enabling it without synthesis support is refused with a
// notice.
func (s *Session) ToggleSpeechOutput() bool {
	s.mu.Lock()
	enabled := !s.speechOutput
	if enabled && !s.bridge.Support().Synthesis {
		s.mu.Unlock()
		s.emit(Event{Kind: EventNotice, Text: "Speech output is not available."})
		return false
	}
	s.speechOutput = enabled
	s.mu.Unlock()

	if !enabled {
		s.bridge.StopSpeaking()
		s.emit(Event{Kind: EventSpeechEnded})
	}
	s.logger.Info("speech output toggled", "enabled", enabled)
	return enabled
}

// SpeechOutput reports whether assistant replies are vocalized.
func (s *Session) SpeechOutput() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speechOutput
}

func (s *Session) maybeSpeak(text string) {
	s.mu.Lock()
	enabled := s.speechOutput
	s.mu.Unlock()
	if !enabled {
		return
	}

	s.emit(Event{Kind: EventSpeechStarted})
	s.bridge.Speak(text, func() {
		s.emit(Event{Kind: EventSpeechEnded})
	})
}

// StartVoiceInput begins a speech-to-text capture; the transcript arrives
// as an EventTranscript. Failures degrade to a notice.
func (s *Session) StartVoiceInput() {
	if !s.bridge.Support().Recognition {
		s.emit(Event{Kind: EventNotice, Text: "Voice input is not available."})
		return
	}

	s.bridge.StartListening(
		func(text string) {
			s.emit(Event{Kind: EventTranscript, Text: text})
		},
		func(err error) {
			s.logger.Warn("voice input failed", "error", err)
			switch {
			case errors.Is(err, speech.ErrPermissionDenied):
				s.emit(Event{Kind: EventNotice, Text: "Microphone access was denied."})
			default:
				s.emit(Event{Kind: EventNotice, Text: "Voice input failed, please try again."})
			}
		},
	)
}

// StopVoiceInput cancels an in-flight capture. Safe when idle.
func (s *Session) StopVoiceInput() {
	s.bridge.StopListening()
}

// CrisisResources returns the support resources offered with a crisis
// alert. A missing catalog yields an empty list, never a failure.
func (s *Session) CrisisResources(ctx context.Context) []resources.Resource {
	return s.crisisResources(ctx)
}

// AllResources returns the whole support catalog, crisis and coping entries
// alike. A missing catalog yields an empty list, never a failure.
func (s *Session) AllResources(ctx context.Context) []resources.Resource {
	if s.catalog == nil {
		return nil
	}
	list, err := s.catalog.All(ctx)
	if err != nil {
		s.logger.Warn("failed to load resources", "error", err)
		return nil
	}
	return list
}

func (s *Session) crisisResources(ctx context.Context) []resources.Resource {
	if s.catalog == nil {
		return nil
	}
	list, err := s.catalog.ListByCategory(ctx, resources.CategoryCrisis)
	if err != nil {
		s.logger.Warn("failed to load crisis resources", "error", err)
		return nil
	}
	return list
}

// Close cancels pending reply timers and stops speech. The event channel
// is closed once nothing can emit anymore.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	for id, timer := range s.pending {
		timer.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()

	s.bridge.StopSpeaking()
	s.bridge.StopListening()
	s.emitters.Wait()
	close(s.events)
}

// emit delivers an event to the front end. Reply events must not be lost,
// so they block until the channel drains or the session closes; transient
// events (notices, speech lifecycle) are dropped when the channel is full.
func (s *Session) emit(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.emitters.Add(1)
	s.mu.Unlock()
	defer s.emitters.Done()

	if ev.Kind == EventReply {
		select {
		case s.events <- ev:
		case <-s.done:
		}
		return
	}

	select {
	case s.events <- ev:
	default:
		s.logger.Warn("event dropped, channel full", "kind", ev.Kind)
	}
}

func (s *Session) addCount(ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}
