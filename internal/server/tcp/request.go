package tcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophshare/internal/common"
	"github.com/dmitrijs2005/gophshare/internal/server/activity"
	"github.com/dmitrijs2005/gophshare/internal/server/requests"
	"github.com/dmitrijs2005/gophshare/internal/wire"
)

// promptText asks for one line of input. ok is false when the client
// cancelled or broke the protocol; the client has been answered then.
func (t *clientTask) promptText(ctx context.Context, text string) (string, bool, error) {
	if err := t.send(&wire.Message{Kind: wire.KindPrompt, Text: text}); err != nil {
		return "", false, err
	}

	m, ok, err := t.expect(ctx, wire.KindText, wire.KindCancel)
	if err != nil || !ok {
		return "", false, err
	}
	if m.Kind == wire.KindCancel {
		return "", false, t.sendInfo("Request cancelled.")
	}
	return strings.TrimSpace(m.Text), true, nil
}

func (t *clientTask) request(ctx context.Context) error {
	desc, ok, err := t.promptText(ctx, "Enter file description: ")
	if err != nil || !ok {
		return err
	}
	if desc == "" {
		return t.sendError(common.ErrEmptyField.Error())
	}

	recipient, ok, err := t.promptText(ctx, "Enter recipient username (or ALL for broadcast): ")
	if err != nil || !ok {
		return err
	}
	if recipient == "" {
		return t.sendError(common.ErrEmptyField.Error())
	}
	recipient = requests.NormalizeRecipient(recipient)

	if recipient == t.user {
		return t.sendError(common.ErrSelfRequest.Error())
	}
	if recipient != requests.Broadcast && !t.svc.Sessions.IsRegistered(recipient) {
		return t.sendError(common.ErrUnknownUser.Error())
	}

	req, err := t.svc.Requests.Submit(ctx, requests.Request{
		Requester:   t.user,
		Description: desc,
		Recipient:   recipient,
	})
	if err != nil {
		t.log.Error(ctx, "request submit failed", "error", err)
		return t.sendError("Request failed: " + err.Error())
	}
	pushed := t.svc.Requests.Notify(req)

	scope, text := "unicast", "Request sent to "+recipient
	if req.IsBroadcast() {
		scope, text = "broadcast", "Request broadcast to all online users"
	}
	if t.svc.Metrics != nil {
		t.svc.Metrics.Requests.WithLabelValues(scope).Inc()
	}
	t.log.Info(ctx, "file request submitted", "request", req.ID, "recipient", recipient, "pushed", pushed)

	if err := t.svc.Activity.Append(ctx, activity.Entry{
		User:        t.user,
		FileName:    "[REQUEST]",
		Kind:        activity.KindRequest,
		Description: fmt.Sprintf("To: %s - %s", recipient, desc),
		CreatedAt:   time.Now(),
	}); err != nil {
		t.log.Error(ctx, "activity append failed", "error", err)
	}

	return t.send(&wire.Message{Kind: wire.KindSuccess, Text: text, Arg: req.ID})
}
