package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"MindTalk/internal/chat"
	"MindTalk/internal/resources"
	"MindTalk/internal/session"
	"MindTalk/internal/store"
)

type focusArea int

const (
	focusSidebar focusArea = iota
	focusComposer
)

type sessionEventMsg struct {
	ev chat.Event
}

type eventsClosedMsg struct{}

type clearNoticeMsg struct{ seq int }

// Model is the two-pane chat screen: conversation sidebar on the left,
// message thread and composer on the right.
type Model struct {
	sess *chat.Session

	chats    []store.Summary
	cursor   int
	thread   viewport.Model
	composer textarea.Model
	focus    focusArea

	width  int
	height int
	ready  bool

	notice      string
	noticeSeq   int
	crisisAlert []resources.Resource
	showCrisis  bool
	speaking    bool
	attachments []session.FileRef

	quitting bool
}

// NewModel builds the initial UI state over a running session.
func NewModel(sess *chat.Session) Model {
	composer := textarea.New()
	composer.Placeholder = "Type your message here..."
	composer.ShowLineNumbers = false
	composer.SetHeight(3)
	composer.CharLimit = 0
	composer.Focus()

	return Model{
		sess:     sess,
		chats:    sess.Chats(),
		composer: composer,
		focus:    focusComposer,
	}
}

// Run starts the bubbletea program and blocks until exit.
func Run(sess *chat.Session) error {
	p := tea.NewProgram(NewModel(sess), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForEvent(m.sess.Events()))
}

func waitForEvent(ch <-chan chat.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return sessionEventMsg{ev: ev}
	}
}

func clearNoticeAfter(seq int) tea.Cmd {
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshThread()
		m.ready = true
		return m, nil

	case sessionEventMsg:
		cmds = append(cmds, m.applyEvent(msg.ev)...)
		cmds = append(cmds, waitForEvent(m.sess.Events()))
		return m, tea.Batch(cmds...)

	case eventsClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		if m.showCrisis {
			m.showCrisis = false
			return m, nil
		}
		m.toggleFocus()
		return m, nil

	case "tab":
		m.toggleFocus()
		return m, nil

	case "ctrl+n":
		m.sess.NewChat()
		m.cursor = 0
		m.refreshChats()
		m.refreshThread()
		return m, nil

	case "ctrl+t":
		enabled := m.sess.ToggleSpeechOutput()
		if enabled {
			return m.withNotice("Speech output on")
		}
		m.speaking = false
		return m.withNotice("Speech output off")

	case "ctrl+l":
		m.sess.StartVoiceInput()
		return m.withNotice("Listening...")
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleComposerKey(msg)
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.chats)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(m.chats) {
			m.sess.SelectChat(m.chats[m.cursor].ID)
			m.refreshChats()
			m.refreshThread()
			m.focus = focusComposer
			m.composer.Focus()
		}
	case "n":
		m.sess.NewChat()
		m.cursor = 0
		m.refreshChats()
		m.refreshThread()
	case "d":
		if m.cursor < len(m.chats) {
			m.sess.DeleteChat(m.chats[m.cursor].ID)
			m.refreshChats()
			if m.cursor >= len(m.chats) && m.cursor > 0 {
				m.cursor--
			}
			m.refreshThread()
		}
	case "q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submit()
	case "ctrl+j":
		// Newline inside the composer.
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'\n'}})
		return m, cmd
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.composer.Value())

	// "/attach <path>" queues a file for the next submission.
	if path, ok := strings.CutPrefix(input, "/attach "); ok {
		ref, err := session.FileRefFromPath(strings.TrimSpace(path))
		if err != nil {
			return m.withNotice("Could not attach: " + err.Error())
		}
		m.attachments = append(m.attachments, ref)
		m.composer.Reset()
		return m.withNotice("Attached " + ref.Name)
	}

	if m.sess.ActiveChat() == "" {
		return m.withNotice("Select or create a conversation first")
	}
	if input == "" && len(m.attachments) == 0 {
		return m, nil
	}

	if err := m.sess.Submit(context.Background(), input, m.attachments); err != nil {
		return m.withNotice(err.Error())
	}
	m.attachments = nil
	m.composer.Reset()
	m.refreshChats()
	m.refreshThread()
	return m, nil
}

func (m *Model) applyEvent(ev chat.Event) []tea.Cmd {
	switch ev.Kind {
	case chat.EventReply:
		m.refreshChats()
		m.refreshThread()
	case chat.EventCrisis:
		m.crisisAlert = ev.Resources
		m.showCrisis = true
	case chat.EventTranscript:
		m.composer.SetValue(ev.Text)
		m.composer.CursorEnd()
		m.notice = ""
	case chat.EventSpeechStarted:
		m.speaking = true
	case chat.EventSpeechEnded:
		m.speaking = false
	case chat.EventNotice:
		m.notice = ev.Text
		m.noticeSeq++
		return []tea.Cmd{clearNoticeAfter(m.noticeSeq)}
	}
	return nil
}

func (m Model) withNotice(text string) (tea.Model, tea.Cmd) {
	m.notice = text
	m.noticeSeq++
	return m, clearNoticeAfter(m.noticeSeq)
}

func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	cmds = append(cmds, cmd)
	m.thread, cmd = m.thread.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) toggleFocus() {
	if m.focus == focusSidebar {
		m.focus = focusComposer
		m.composer.Focus()
	} else {
		m.focus = focusSidebar
		m.composer.Blur()
	}
}

func (m *Model) refreshChats() {
	m.chats = m.sess.Chats()
}

func (m *Model) refreshThread() {
	if !m.ready && m.width == 0 {
		return
	}
	m.thread.SetContent(m.renderMessages())
	m.thread.GotoBottom()
}

func (m *Model) layout() {
	sidebarW := sidebarWidth
	if m.width < 70 {
		sidebarW = m.width / 3
	}
	threadW := m.width - sidebarW - 4
	threadH := m.height - m.composer.Height() - 7
	if threadH < 3 {
		threadH = 3
	}

	m.thread = viewport.New(threadW, threadH)
	m.composer.SetWidth(threadW)
}
