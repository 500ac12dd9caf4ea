// Package requests tracks outstanding file requests and delivers them to
// their recipients.
package requests

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophshare/internal/common"
	"github.com/dmitrijs2005/gophshare/internal/server/inbox"
	"github.com/google/uuid"
)

// Broadcast addresses a request to every registered user.
const Broadcast = "ALL"

type Request struct {
	ID          string
	Requester   string
	Description string
	Recipient   string
	CreatedAt   time.Time
}

func (r Request) IsBroadcast() bool { return r.Recipient == Broadcast }

// NormalizeRecipient trims s and maps any spelling of "all" to Broadcast.
func NormalizeRecipient(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, Broadcast) {
		return Broadcast
	}
	return s
}

// Directory lists users; *sessions.Registry implements it.
type Directory interface {
	Registered() []string
	Online() []string
}

// Pusher delivers a live notification; *notify.Hub implements it.
type Pusher interface {
	Push(user, text string) bool
}

// Workflow is safe for concurrent use. Broadcast requests are never
// removed: any number of users may answer them.
type Workflow struct {
	dir   Directory
	inbox inbox.Store
	push  Pusher

	mu   sync.Mutex
	byID map[string]Request
}

func New(dir Directory, in inbox.Store, p Pusher) *Workflow {
	return &Workflow{dir: dir, inbox: in, push: p, byID: make(map[string]Request)}
}

func recipientsOf(r Request, users []string) []string {
	if !r.IsBroadcast() {
		return []string{r.Recipient}
	}
	out := make([]string, 0, len(users))
	for _, u := range users {
		if u != r.Requester {
			out = append(out, u)
		}
	}
	return out
}

// Submit stores one inbox message per recipient and registers the request.
// The returned request carries its assigned id.
func (w *Workflow) Submit(ctx context.Context, r Request) (Request, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.Recipient = NormalizeRecipient(r.Recipient)

	content := fmt.Sprintf("File request (ID: %s): %s", r.ID, r.Description)
	for _, u := range recipientsOf(r, w.dir.Registered()) {
		_, err := w.inbox.Append(ctx, u, inbox.Message{
			Kind:      inbox.KindFileRequest,
			From:      r.Requester,
			Content:   content,
			CreatedAt: r.CreatedAt,
		})
		if err != nil {
			return Request{}, fmt.Errorf("deliver request to %s: %w", u, err)
		}
	}

	w.mu.Lock()
	w.byID[r.ID] = r
	w.mu.Unlock()

	return r, nil
}

// Notify pushes a live notification to the online recipients of r and
// returns how many pushes were queued.
func (w *Workflow) Notify(r Request) int {
	text := fmt.Sprintf("NEW_FILE_REQUEST (ID: %s) from %s: %s", r.ID, r.Requester, r.Description)

	online := w.dir.Online()
	isOnline := func(u string) bool {
		for _, o := range online {
			if o == u {
				return true
			}
		}
		return false
	}

	n := 0
	for _, u := range recipientsOf(r, online) {
		if isOnline(u) && w.push.Push(u, text) {
			n++
		}
	}
	return n
}

// Get looks up an open request.
func (w *Workflow) Get(id string) (Request, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.byID[strings.TrimSpace(id)]
	return r, ok
}

// Fulfill returns the request with the given id. A unicast request is
// removed so it can be fulfilled only once; a broadcast request stays open.
func (w *Workflow) Fulfill(id, responder string) (Request, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id = strings.TrimSpace(id)
	r, ok := w.byID[id]
	if !ok {
		return Request{}, common.ErrorNotFound
	}
	if !r.IsBroadcast() {
		delete(w.byID, id)
	}
	return r, nil
}

// AnnounceFulfilled tells the requester, durably and live, that responder
// uploaded fileName for r.
func (w *Workflow) AnnounceFulfilled(ctx context.Context, r Request, responder, fileName string) error {
	_, err := w.inbox.Append(ctx, r.Requester, inbox.Message{
		Kind:    inbox.KindRequestFulfilled,
		From:    responder,
		Content: fmt.Sprintf("Your request (ID: %s) has been fulfilled by %s. Uploaded file: %s", r.ID, responder, fileName),
	})
	if err != nil {
		return fmt.Errorf("deliver fulfilment to %s: %w", r.Requester, err)
	}

	w.push.Push(r.Requester, fmt.Sprintf("REQUEST_FULFILLED (ID: %s) by %s: %s", r.ID, responder, fileName))
	return nil
}

// Open returns the number of registered requests.
func (w *Workflow) Open() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.byID)
}
