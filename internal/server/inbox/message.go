// Package inbox stores per-user durable messages about uploads, downloads
// and file requests.
package inbox

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the timestamp format shown to users.
const TimeLayout = "2006-01-02 15:04:05"

// Kind classifies a message.
type Kind string

const (
	KindFileRequest      Kind = "FILE_REQUEST"
	KindRequestFulfilled Kind = "REQUEST_FULFILLED"
	KindUploadComplete   Kind = "UPLOAD_COMPLETE"
	KindDownloadComplete Kind = "DOWNLOAD_COMPLETE"
)

// Label returns the bracketed heading used in formatted entries.
func (k Kind) Label() string {
	return "[" + strings.ReplaceAll(string(k), "_", " ") + "]"
}

// From value used for messages the server generates itself.
const FromServer = "Server"

type Message struct {
	ID        string
	Recipient string
	Kind      Kind
	From      string
	Content   string
	CreatedAt time.Time
	Read      bool
}

// Format renders the entry as shown in the unread and read views.
func (m Message) Format() string {
	return fmt.Sprintf("%s From: %s | %s\n%s", m.Kind.Label(), m.From, m.CreatedAt.Format(TimeLayout), m.Content)
}
