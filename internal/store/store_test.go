package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"MindTalk/internal/session"
)

const welcome = "Hi, I'm here to listen. How are you feeling today?"

func TestCreateSeedsWelcomeAndActivates(t *testing.T) {
	s := NewStore(welcome)

	id := s.Create("")

	require.Equal(t, id, s.ActiveID())
	msgs := s.CurrentMessages()
	require.Len(t, msgs, 1)
	require.Equal(t, session.RoleAssistant, msgs[0].Role)
	require.Equal(t, welcome, msgs[0].Content)
}

func TestCreateInsertsAtFront(t *testing.T) {
	s := NewStore(welcome)

	first := s.Create("")
	second := s.Create("")

	list := s.List()
	require.Len(t, list, 2)
	require.Equal(t, second, list[0].ID)
	require.Equal(t, first, list[1].ID)
	require.True(t, list[0].Active)
	require.False(t, list[1].Active)
}

func TestAppendPreservesOrder(t *testing.T) {
	s := NewStore(welcome)
	id := s.Create("")

	a := session.NewMessage(session.RoleUser, "message A", nil)
	b := session.NewMessage(session.RoleAssistant, "message B", nil)
	require.NoError(t, s.Append(id, a))
	require.NoError(t, s.Append(id, b))

	msgs := s.CurrentMessages()
	require.Len(t, msgs, 3)
	require.Equal(t, welcome, msgs[0].Content)
	require.Equal(t, "message A", msgs[1].Content)
	require.Equal(t, "message B", msgs[2].Content)
}

func TestAppendUnknownID(t *testing.T) {
	s := NewStore(welcome)
	s.Create("")

	err := s.Append("chat_missing", session.NewMessage(session.RoleUser, "hi", nil))

	require.ErrorIs(t, err, ErrChatNotFound)
	require.Len(t, s.CurrentMessages(), 1)
}

func TestAppendToInactiveConversation(t *testing.T) {
	s := NewStore(welcome)
	first := s.Create("")
	s.Create("")

	// Reply timers bind to the conversation captured at submit time, so the
	// append must land there even though another chat is active.
	require.NoError(t, s.Append(first, session.NewMessage(session.RoleAssistant, "late reply", nil)))

	conv, ok := s.Get(first)
	require.True(t, ok)
	require.Len(t, conv.Messages, 2)
	require.Equal(t, "late reply", conv.Messages[1].Content)
}

func TestDeleteActiveClearsPointer(t *testing.T) {
	s := NewStore(welcome)
	id := s.Create("")

	require.NoError(t, s.Delete(id))

	require.Empty(t, s.ActiveID())
	require.Empty(t, s.CurrentMessages())
	require.Zero(t, s.Count())
}

func TestDeleteInactiveKeepsPointer(t *testing.T) {
	s := NewStore(welcome)
	first := s.Create("")
	second := s.Create("")

	require.NoError(t, s.Delete(first))

	require.Equal(t, second, s.ActiveID())
	require.Equal(t, 1, s.Count())
}

func TestDeleteUnknownID(t *testing.T) {
	s := NewStore(welcome)
	s.Create("")

	require.ErrorIs(t, s.Delete("chat_missing"), ErrChatNotFound)
	require.Equal(t, 1, s.Count())
}

func TestSelectUnknownIDIsNoOp(t *testing.T) {
	s := NewStore(welcome)
	id := s.Create("")

	s.Select("chat_missing")

	require.Equal(t, id, s.ActiveID())
}

func TestSelectSwitchesActive(t *testing.T) {
	s := NewStore(welcome)
	first := s.Create("")
	s.Create("")

	s.Select(first)

	require.Equal(t, first, s.ActiveID())
}

func TestSeedDoesNotActivate(t *testing.T) {
	s := NewStore(welcome)

	past := time.Now().Add(-2 * time.Hour)
	a := s.Seed("Stress management techniques", past)
	b := s.Seed("Dealing with exam anxiety", past.Add(-22*time.Hour))

	require.Empty(t, s.ActiveID())
	list := s.List()
	require.Len(t, list, 2)
	require.Equal(t, a, list[0].ID)
	require.Equal(t, b, list[1].ID)

	// New chats still go to the front of the seeded list.
	id := s.Create("")
	require.Equal(t, id, s.List()[0].ID)
}

func TestCurrentMessagesReturnsCopy(t *testing.T) {
	s := NewStore(welcome)
	id := s.Create("")

	msgs := s.CurrentMessages()
	msgs[0].Content = "mutated"

	require.Equal(t, welcome, s.CurrentMessages()[0].Content)
	conv, _ := s.Get(id)
	require.Equal(t, welcome, conv.Messages[0].Content)
}
