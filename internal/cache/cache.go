package cache

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"time"

	"MindTalk/internal/session"
)

// CachedReply represents a previously selected reply
type CachedReply struct {
	Branch string
	Text   string
	At     time.Time
}

// GenerateKey generates a cache key from the selector inputs: the message
// text, the crisis flag and the attachment names.
func GenerateKey(text string, isCrisis bool, attachments []session.FileRef) string {
	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte(strconv.FormatBool(isCrisis)))
	for _, f := range attachments {
		h.Write([]byte(f.Name))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
