package tcp

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/gophshare/internal/server/activity"
	"github.com/dmitrijs2005/gophshare/internal/server/catalog"
	"github.com/dmitrijs2005/gophshare/internal/server/inbox"
	"github.com/dmitrijs2005/gophshare/internal/wire"
)

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (t *clientTask) sendList(title string, items []string) error {
	return t.send(&wire.Message{Kind: wire.KindList, Text: title, Items: items})
}

func (t *clientTask) viewUsers() error {
	all := t.svc.Sessions.ListAll()

	items := make([]string, 0, len(all))
	for _, name := range sortedKeys(all) {
		status := "[OFFLINE]"
		if all[name] {
			status = "[ONLINE]"
		}
		items = append(items, name+" "+status)
	}
	return t.sendList("All Clients", items)
}

func ownFileLine(r catalog.FileRecord) string {
	return fmt.Sprintf("%s (%s, %d bytes) | %s", r.Name, r.Visibility(), r.Size, r.CreatedAt.Format(inbox.TimeLayout))
}

func (t *clientTask) viewMyFiles() error {
	files := t.svc.Catalog.ListFiles(t.user)

	items := make([]string, 0, len(files))
	for _, r := range files {
		items = append(items, ownFileLine(r))
	}
	return t.sendList("My Files", items)
}

func (t *clientTask) viewPublicFiles() error {
	public := t.svc.Catalog.ListPublicFiles(t.user)

	var items []string
	for _, owner := range sortedKeys(public) {
		for _, r := range public[owner] {
			items = append(items, fileLine(r))
		}
	}
	return t.sendList("Public Files", items)
}

func formatMessages(msgs []inbox.Message) ([]string, []string) {
	items := make([]string, 0, len(msgs))
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, m.Format())
		ids = append(ids, m.ID)
	}
	return items, ids
}

// viewUnread shows the unread messages and then marks exactly those as read.
func (t *clientTask) viewUnread(ctx context.Context) error {
	msgs, err := t.svc.Inbox.ListUnread(ctx, t.user)
	if err != nil {
		t.log.Error(ctx, "list unread failed", "error", err)
		return t.sendError("Cannot load messages")
	}

	items, ids := formatMessages(msgs)
	if err := t.sendList("Unread Messages", items); err != nil {
		return err
	}

	if len(ids) > 0 {
		if err := t.svc.Inbox.MarkRead(ctx, t.user, ids); err != nil {
			t.log.Error(ctx, "mark read failed", "error", err)
		}
	}
	return nil
}

func (t *clientTask) viewRead(ctx context.Context) error {
	msgs, err := t.svc.Inbox.ListRead(ctx, t.user)
	if err != nil {
		t.log.Error(ctx, "list read failed", "error", err)
		return t.sendError("Cannot load messages")
	}

	items, _ := formatMessages(msgs)
	return t.sendList("Read Messages", items)
}

// viewHistory lists the caller's activity, optionally only one kind.
func (t *clientTask) viewHistory(ctx context.Context, filter string) error {
	var (
		entries []activity.Entry
		err     error
		title   = "Activity History"
	)

	if strings.TrimSpace(filter) == "" {
		entries, err = t.svc.Activity.List(ctx, t.user)
	} else {
		kind, perr := activity.ParseKind(filter)
		if perr != nil {
			return t.sendError(perr.Error())
		}
		title = fmt.Sprintf("Activity History (%s)", kind)
		entries, err = t.svc.Activity.ListKind(ctx, t.user, kind)
	}
	if err != nil {
		t.log.Error(ctx, "list activity failed", "error", err)
		return t.sendError("Cannot load history")
	}

	items := make([]string, 0, len(entries))
	for _, e := range entries {
		items = append(items, e.Format())
	}
	return t.sendList(title, items)
}
