package chat

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"MindTalk/internal/session"
)

// listenTimeout bounds how long /listen waits for a capture to finish.
const listenTimeout = 30 * time.Second

// Run starts the plain stdin front end. It drives the same session entry
// points as the two-pane UI, one submission at a time.
func (s *Session) Run() error {
	fmt.Println("=== MindTalk ===")
	if s.ActiveChat() == "" {
		s.NewChat()
	}
	s.printMessages()
	fmt.Println("Type /help for commands, /quit to exit")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	ctx := context.Background()
	var attachments []session.FileRef

	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldQuit, err := s.handleCommand(ctx, input, &attachments)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				s.logger.Error("command error", "error", err)
			}
			if shouldQuit {
				break
			}
			continue
		}

		if err := s.Submit(ctx, input, attachments); err != nil {
			fmt.Printf("Error: %v\n", err)
			s.logger.Error("failed to submit message", "error", err)
			continue
		}
		attachments = nil

		s.awaitReply()
	}

	fmt.Println("Take care!")
	return nil
}

// awaitReply blocks until the pending assistant reply for the active
// conversation arrives, printing alerts and notices on the way.
func (s *Session) awaitReply() {
	chatID := s.ActiveChat()
	deadline := time.After(s.cfg.ReplyDelay + 5*time.Second)

	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				return
			}
			switch ev.Kind {
			case EventReply:
				if ev.ChatID == chatID {
					fmt.Printf("MindTalk: %s\n\n", ev.Message.Content)
					return
				}
			case EventCrisis:
				s.printCrisisAlert(ev)
			case EventTranscript:
				fmt.Printf("You (voice): %s\n", ev.Text)
			case EventNotice:
				fmt.Printf("[notice] %s\n", ev.Text)
			}
		case <-deadline:
			fmt.Println("[notice] No reply arrived; the conversation may have been deleted.")
			return
		}
	}
}

// awaitTranscript blocks until a voice capture produces a transcript. A
// notice means the capture failed or voice input is unavailable; both are
// printed and end the wait.
func (s *Session) awaitTranscript() (string, bool) {
	deadline := time.After(listenTimeout)

	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				return "", false
			}
			switch ev.Kind {
			case EventTranscript:
				return ev.Text, true
			case EventNotice:
				fmt.Printf("[notice] %s\n", ev.Text)
				return "", false
			case EventCrisis:
				s.printCrisisAlert(ev)
			}
		case <-deadline:
			fmt.Println("[notice] No voice input captured.")
			return "", false
		}
	}
}

func (s *Session) printCrisisAlert(ev Event) {
	fmt.Println()
	fmt.Println("*** Support resources are available ***")
	fmt.Println("We've detected concerning language. Help is available:")
	for _, r := range ev.Resources {
		line := "  - " + r.Name
		if r.Contact != "" {
			line += " (" + r.Contact + ")"
		}
		fmt.Println(line)
		if r.URL != "" {
			fmt.Println("    " + r.URL)
		}
	}
	fmt.Println()
}

func (s *Session) printMessages() {
	for _, msg := range s.Messages() {
		switch msg.Role {
		case session.RoleUser:
			fmt.Printf("You: %s\n", msg.Content)
		default:
			fmt.Printf("MindTalk: %s\n", msg.Content)
		}
	}
	fmt.Println()
}

// handleCommand handles slash commands
func (s *Session) handleCommand(ctx context.Context, cmd string, attachments *[]session.FileRef) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false, nil
	}

	switch parts[0] {
	case "/quit", "/exit":
		return true, nil

	case "/new":
		id := s.NewChat()
		fmt.Println("Started new conversation:", id)
		s.printMessages()
		return false, nil

	case "/chats":
		fmt.Println("\nConversations:")
		for i, c := range s.Chats() {
			marker := " "
			if c.Active {
				marker = "*"
			}
			fmt.Printf("%s %d. %s (%d messages) [%s]\n", marker, i+1, c.Title, c.MessageCount, c.ID)
		}
		fmt.Println()
		return false, nil

	case "/switch":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /switch <chat-id>")
		}
		s.SelectChat(parts[1])
		if s.ActiveChat() != parts[1] {
			return false, fmt.Errorf("unknown conversation: %s", parts[1])
		}
		s.printMessages()
		return false, nil

	case "/delete":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /delete <chat-id>")
		}
		s.DeleteChat(parts[1])
		if s.ActiveChat() == "" {
			fmt.Println("Active conversation deleted. Use /new or /switch to continue.")
		}
		return false, nil

	case "/attach":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /attach <path>")
		}
		ref, err := session.FileRefFromPath(parts[1])
		if err != nil {
			return false, err
		}
		*attachments = append(*attachments, ref)
		fmt.Printf("Attached %s (%d bytes, %s)\n", ref.Name, ref.SizeBytes, ref.MimeType)
		return false, nil

	case "/speech":
		if s.ToggleSpeechOutput() {
			fmt.Println("Speech output enabled")
		} else {
			fmt.Println("Speech output disabled")
		}
		return false, nil

	case "/listen":
		s.StartVoiceInput()
		fmt.Println("Listening...")
		text, ok := s.awaitTranscript()
		if !ok {
			return false, nil
		}
		fmt.Printf("You (voice): %s\n", text)
		if err := s.Submit(ctx, text, *attachments); err != nil {
			return false, err
		}
		*attachments = nil
		s.awaitReply()
		return false, nil

	case "/resources":
		list := s.AllResources(ctx)
		if len(list) == 0 {
			fmt.Println("No resources available.")
			return false, nil
		}
		fmt.Println("\nSupport resources:")
		for _, r := range list {
			line := fmt.Sprintf("  [%s] %s", r.Category, r.Name)
			if r.Contact != "" {
				line += " (" + r.Contact + ")"
			}
			fmt.Println(line)
			if r.URL != "" {
				fmt.Println("      " + r.URL)
			}
		}
		fmt.Println()
		return false, nil

	case "/help":
		fmt.Println("Available commands:")
		fmt.Println("  /quit, /exit        - Exit")
		fmt.Println("  /new                - Start a new conversation")
		fmt.Println("  /chats              - List conversations")
		fmt.Println("  /switch <chat-id>   - Switch conversation")
		fmt.Println("  /delete <chat-id>   - Delete a conversation")
		fmt.Println("  /attach <path>      - Attach a file to the next message")
		fmt.Println("  /speech             - Toggle spoken replies")
		fmt.Println("  /listen             - Capture one voice input")
		fmt.Println("  /resources          - Show support resources")
		fmt.Println("  /help               - Show this help message")
		return false, nil

	default:
		return false, nil
	}
}
