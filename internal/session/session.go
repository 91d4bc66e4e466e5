package session

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// FileRef describes a file attached to a message. The payload itself stays
// with the caller; only the descriptor crosses package boundaries.
type FileRef struct {
	Name       string `json:"name"`
	SizeBytes  int64  `json:"size_bytes"`
	MimeType   string `json:"mime_type"`
	PreviewURL string `json:"preview_url,omitempty"` // inline data URL for image previews
}

// Message represents a single chat message. Messages are immutable once
// created; the store only ever appends them.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Files     []FileRef `json:"files,omitempty"`
}

// Conversation represents one chat thread. Messages are kept in append
// order, which is also chronological and display order.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

var msgSeq atomic.Int64

// NewMessage builds a message with a timestamp-derived id. The sequence
// suffix keeps ids unique when two messages land in the same nanosecond.
func NewMessage(role, content string, files []FileRef) Message {
	now := time.Now()
	return Message{
		ID:        fmt.Sprintf("msg_%d_%d", now.UnixNano(), msgSeq.Add(1)),
		Role:      role,
		Content:   content,
		Timestamp: now,
		Files:     files,
	}
}

// NewConversationID allocates a unique conversation identifier.
func NewConversationID() string {
	return "chat_" + uuid.NewString()
}
