package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"MindTalk/internal/session"
)

const (
	sidebarWidth   = 28
	noticeDuration = 4 * time.Second
)

var (
	appTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

	sidebarStyle = lipgloss.NewStyle().
			Width(sidebarWidth).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), false, true, false, false)

	chatItemStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	chatActiveStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chatCursorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	chatTimestampStyle  = lipgloss.NewStyle().Faint(true)
	sidebarHeadingStyle = lipgloss.NewStyle().Faint(true).MarginTop(1)

	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	attachmentStyle     = lipgloss.NewStyle().Faint(true).Italic(true)

	crisisBannerStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("1")).
				Padding(0, 1)
	crisisBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Padding(0, 1)

	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

func (m Model) View() string {
	if m.quitting {
		return "Take care!\n"
	}
	if !m.ready {
		return "Loading..."
	}

	sidebar := m.renderSidebar()
	right := m.renderRightPane()
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, right)
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(appTitleStyle.Render("MindTalk"))
	b.WriteString("\n")
	b.WriteString(sidebarHeadingStyle.Render("Recent Conversations"))
	b.WriteString("\n")

	if len(m.chats) == 0 {
		b.WriteString(chatTimestampStyle.Render("No conversations yet."))
		b.WriteString("\n")
	}
	for i, c := range m.chats {
		cursor := "  "
		if m.focus == focusSidebar && i == m.cursor {
			cursor = chatCursorStyle.Render("> ")
		}
		title := truncate(c.Title, sidebarWidth-6)
		style := chatItemStyle
		if c.Active {
			style = chatActiveStyle
		}
		b.WriteString(cursor + style.Render(title) + "\n")
		b.WriteString("  " + chatTimestampStyle.Render(formatRelative(c.LastActivity)) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("n new · d delete\nenter open · q quit"))
	return sidebarStyle.Height(m.height - 1).Render(b.String())
}

func (m Model) renderRightPane() string {
	sections := []string{}

	if m.showCrisis {
		sections = append(sections, m.renderCrisisAlert())
	}

	header := appTitleStyle.Render(m.activeTitle())
	if m.sess.SpeechOutput() {
		status := " · speech on"
		if m.speaking {
			status = " · speaking..."
		}
		header += statusStyle.Render(status)
	}
	sections = append(sections, header, m.thread.View())

	if len(m.attachments) > 0 {
		names := make([]string, len(m.attachments))
		for i, f := range m.attachments {
			names[i] = f.Name
		}
		sections = append(sections, attachmentStyle.Render("Attached: "+strings.Join(names, ", ")))
	}

	sections = append(sections, m.composer.View())

	footer := helpStyle.Render("enter send · ctrl+j newline · /attach <path> · ctrl+l voice · ctrl+t speech · tab chats")
	if m.notice != "" {
		footer = noticeStyle.Render(m.notice)
	}
	sections = append(sections, footer)

	return lipgloss.NewStyle().Padding(0, 1).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m Model) renderCrisisAlert() string {
	var b strings.Builder
	b.WriteString(crisisBannerStyle.Render("Support Resources Available"))
	b.WriteString("\n")
	b.WriteString(crisisBodyStyle.Render("We've detected concerning language. Help is available."))
	b.WriteString("\n")
	for _, r := range m.crisisAlert {
		line := "  • " + r.Name
		if r.Contact != "" {
			line += " — " + r.Contact
		}
		b.WriteString(crisisBodyStyle.Render(line))
		b.WriteString("\n")
	}
	b.WriteString(crisisBodyStyle.Render("Press esc to dismiss."))
	return b.String()
}

func (m Model) renderMessages() string {
	msgs := m.sess.Messages()
	if len(msgs) == 0 {
		return chatTimestampStyle.Render("No conversation selected. Press ctrl+n to start one.")
	}

	width := m.thread.Width
	var b strings.Builder
	for _, msg := range msgs {
		label := assistantLabelStyle.Render("MindTalk")
		if msg.Role == session.RoleUser {
			label = userLabelStyle.Render("You")
		}
		b.WriteString(label + " " + chatTimestampStyle.Render(msg.Timestamp.Format("15:04")) + "\n")
		if msg.Content != "" {
			b.WriteString(lipgloss.NewStyle().Width(width).Render(msg.Content))
			b.WriteString("\n")
		}
		for _, f := range msg.Files {
			b.WriteString(attachmentStyle.Render(fmt.Sprintf("  [%s · %s · %d bytes]", f.Name, f.MimeType, f.SizeBytes)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) activeTitle() string {
	for _, c := range m.chats {
		if c.Active {
			return c.Title
		}
	}
	return "MindTalk"
}

func truncate(s string, max int) string {
	if max <= 1 || len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

// formatRelative renders a last-activity label the way the sidebar shows
// it: "now", "5m ago", "2h ago", "3d ago".
func formatRelative(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
