package store

import (
	"errors"
	"sync"
	"time"

	"MindTalk/internal/session"
)

// ErrChatNotFound is returned when an operation names a conversation id
// that is not in the store.
var ErrChatNotFound = errors.New("conversation not found")

// DefaultTitle is used for conversations created without an explicit title.
const DefaultTitle = "New conversation"

// Store owns the set of conversations, their display order and the active
// conversation pointer. All state is in memory; nothing survives the
// process. Access is mutex-serialized so reply timers firing for different
// conversations cannot interleave appends.
type Store struct {
	mu      sync.RWMutex
	chats   map[string]*session.Conversation
	order   []string // display order, newest first
	active  string   // empty means no conversation selected
	welcome string
}

// Summary is a read-only snapshot of one conversation for list views.
type Summary struct {
	ID           string
	Title        string
	LastActivity time.Time
	MessageCount int
	Active       bool
}

// NewStore creates an empty store. Every conversation it creates is seeded
// with one assistant message carrying the welcome text.
func NewStore(welcome string) *Store {
	return &Store{
		chats:   make(map[string]*session.Conversation),
		welcome: welcome,
	}
}

// Create allocates a new conversation, seeds the welcome message, inserts
// it at the front of the display order and makes it active.
func (s *Store) Create(title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.insert(title, time.Now())
	s.active = id
	return id
}

// Seed inserts a pre-existing demo conversation at the end of the display
// order without activating it.
func (s *Store) Seed(title string, lastActivity time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.insert(title, lastActivity)
	// Move from front to back: seeds are listed oldest-last already.
	s.order = append(s.order[1:], s.order[0])
	return id
}

func (s *Store) insert(title string, lastActivity time.Time) string {
	if title == "" {
		title = DefaultTitle
	}
	id := session.NewConversationID()
	conv := &session.Conversation{
		ID:        id,
		Title:     title,
		StartTime: time.Now(),
		UpdatedAt: lastActivity,
		Messages:  []session.Message{session.NewMessage(session.RoleAssistant, s.welcome, nil)},
	}
	s.chats[id] = conv
	s.order = append([]string{id}, s.order...)
	return id
}

// Delete removes a conversation. Deleting the active conversation clears
// the active pointer; no other conversation is auto-selected. Unknown ids
// return ErrChatNotFound.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[id]; !ok {
		return ErrChatNotFound
	}
	delete(s.chats, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.active == id {
		s.active = ""
	}
	return nil
}

// Select sets the active conversation pointer. Selecting an unknown id is a
// no-op; callers needing feedback check existence via Get.
func (s *Store) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[id]; ok {
		s.active = id
	}
}

// Append adds a message to the named conversation. The message lands in the
// conversation it was addressed to even if the active pointer has moved on;
// unknown ids return ErrChatNotFound so stale reply timers can drop their
// message instead of guessing.
func (s *Store) Append(id string, msg session.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.chats[id]
	if !ok {
		return ErrChatNotFound
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = msg.Timestamp
	return nil
}

// ActiveID returns the active conversation id, or "" when none is selected.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// CurrentMessages returns a copy of the active conversation's message log
// in append order, or an empty slice when no conversation is active.
func (s *Store) CurrentMessages() []session.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.chats[s.active]
	if !ok {
		return []session.Message{}
	}
	out := make([]session.Message, len(conv.Messages))
	copy(out, conv.Messages)
	return out
}

// Get returns a copy of the named conversation.
func (s *Store) Get(id string) (session.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.chats[id]
	if !ok {
		return session.Conversation{}, false
	}
	out := *conv
	out.Messages = make([]session.Message, len(conv.Messages))
	copy(out.Messages, conv.Messages)
	return out, true
}

// List returns conversation summaries in display order, newest first.
func (s *Store) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.order))
	for _, id := range s.order {
		conv := s.chats[id]
		out = append(out, Summary{
			ID:           conv.ID,
			Title:        conv.Title,
			LastActivity: conv.UpdatedAt,
			MessageCount: len(conv.Messages),
			Active:       id == s.active,
		})
	}
	return out
}

// Count returns the number of conversations.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chats)
}
