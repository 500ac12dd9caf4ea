package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophshare/internal/common"
	"github.com/dmitrijs2005/gophshare/internal/server/activity"
	"github.com/dmitrijs2005/gophshare/internal/server/catalog"
	"github.com/dmitrijs2005/gophshare/internal/server/inbox"
	"github.com/dmitrijs2005/gophshare/internal/wire"
)

const defaultDownloadChunk = 64 << 10

func fileLine(r catalog.FileRecord) string {
	return fmt.Sprintf("%s/%s (%s, %d bytes)", r.Owner, r.Name, r.Visibility(), r.Size)
}

// downloadable lists the caller's own files followed by the public files of
// everyone else, owners in name order.
func (t *clientTask) downloadable() []string {
	var items []string
	for _, r := range t.svc.Catalog.ListFiles(t.user) {
		items = append(items, fileLine(r))
	}

	public := t.svc.Catalog.ListPublicFiles(t.user)
	for _, owner := range sortedKeys(public) {
		for _, r := range public[owner] {
			items = append(items, fileLine(r))
		}
	}
	return items
}

func (t *clientTask) download(ctx context.Context) error {
	if err := t.send(&wire.Message{Kind: wire.KindList, Text: "Available Files for Download", Items: t.downloadable()}); err != nil {
		return err
	}

	m, ok, err := t.expect(ctx, wire.KindDownloadTarget, wire.KindCancel)
	if err != nil || !ok {
		return err
	}
	if m.Kind == wire.KindCancel {
		return t.sendInfo("Download cancelled.")
	}

	owner, name := strings.TrimSpace(m.Text), strings.TrimSpace(m.Arg)

	rec, err := t.svc.Catalog.Find(owner, name)
	if err != nil {
		t.countDownload("failed")
		return t.sendError("File not found")
	}
	if rec.Owner != t.user && !rec.Public {
		t.countDownload("denied")
		t.log.Warn(ctx, "download denied", "owner", owner, "file", name)
		return t.sendError(common.ErrAccessDenied.Error())
	}

	rc, size, err := t.svc.Store.Open(ctx, owner, name)
	if err != nil {
		t.countDownload("failed")
		if errors.Is(err, common.ErrorNotFound) {
			t.log.Error(ctx, "catalogued file missing from store", "owner", owner, "file", name)
			return t.sendError("File not found on server")
		}
		t.log.Error(ctx, "open failed", "owner", owner, "file", name, "error", err)
		return t.sendError("Download failed: " + err.Error())
	}
	defer rc.Close()

	if err := t.send(&wire.Message{Kind: wire.KindDownloadApproved, Num: size, Arg: rec.Checksum, Text: name}); err != nil {
		return err
	}

	sent, err := t.stream(rc, size)
	if err != nil {
		var se sendError
		if errors.As(err, &se) {
			return se.err
		}
		t.countDownload("failed")
		t.log.Error(ctx, "download aborted", "owner", owner, "file", name, "sent", sent, "error", err)
		return t.sendError("Download failed: " + err.Error())
	}

	if err := t.send(&wire.Message{Kind: wire.KindDownloadComplete, Num: sent}); err != nil {
		return err
	}

	t.countDownload("ok")
	if t.svc.Metrics != nil {
		t.svc.Metrics.DownloadedBytes.Add(float64(sent))
	}
	t.log.Info(ctx, "download complete", "owner", owner, "file", name, "size", sent)
	t.afterDownload(ctx, owner, name)

	return nil
}

// sendError marks a transport failure while streaming, as opposed to a
// failure reading the stored file.
type sendError struct{ err error }

func (e sendError) Error() string { return e.err.Error() }

// stream sends size bytes from r as chunk frames.
func (t *clientTask) stream(r io.Reader, size int64) (int64, error) {
	chunk := t.svc.DownloadChunkSize
	if chunk <= 0 {
		chunk = defaultDownloadChunk
	}
	buf := make([]byte, chunk)

	var sent int64
	for sent < size {
		want := int64(len(buf))
		if left := size - sent; left < want {
			want = left
		}

		n, err := io.ReadFull(r, buf[:want])
		if n > 0 {
			if serr := t.send(&wire.Message{Kind: wire.KindChunk, Data: buf[:n]}); serr != nil {
				return sent, sendError{serr}
			}
			sent += int64(n)
		}
		if err != nil {
			return sent, fmt.Errorf("read stored file: %w", err)
		}
	}
	return sent, nil
}

func (t *clientTask) afterDownload(ctx context.Context, owner, name string) {
	_, err := t.svc.Inbox.Append(ctx, t.user, inbox.Message{
		Kind:    inbox.KindDownloadComplete,
		From:    inbox.FromServer,
		Content: fmt.Sprintf("Successfully downloaded file: %s from %s", name, owner),
	})
	if err != nil {
		t.log.Error(ctx, "inbox append failed", "error", err)
	}
	t.svc.Hub.Push(t.user, "DOWNLOAD_COMPLETE: "+name)

	if err := t.svc.Activity.Append(ctx, activity.Entry{
		User:        t.user,
		FileName:    name,
		Kind:        activity.KindDownload,
		Description: "Downloaded from " + owner,
		CreatedAt:   time.Now(),
	}); err != nil {
		t.log.Error(ctx, "activity append failed", "error", err)
	}
}

func (t *clientTask) countDownload(result string) {
	if t.svc.Metrics != nil {
		t.svc.Metrics.Downloads.WithLabelValues(result).Inc()
	}
}
