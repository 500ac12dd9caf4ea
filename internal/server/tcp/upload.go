package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophshare/internal/common"
	"github.com/dmitrijs2005/gophshare/internal/filex"
	"github.com/dmitrijs2005/gophshare/internal/server/activity"
	"github.com/dmitrijs2005/gophshare/internal/server/catalog"
	"github.com/dmitrijs2005/gophshare/internal/server/inbox"
	"github.com/dmitrijs2005/gophshare/internal/server/uploads"
	"github.com/dmitrijs2005/gophshare/internal/wire"
)

const msgUploadCancelled = "Upload cancelled."

// uploadPlan is what the client asked to upload, before a session exists.
type uploadPlan struct {
	name      string
	size      int64
	public    bool
	requestID string
}

func (t *clientTask) upload(ctx context.Context) error {
	m, ok, err := t.expect(ctx, wire.KindUploadPlain, wire.KindUploadForRequest, wire.KindCancel)
	if err != nil || !ok {
		return err
	}
	if m.Kind == wire.KindCancel {
		return t.sendInfo(msgUploadCancelled)
	}

	var plan uploadPlan
	if m.Kind == wire.KindUploadForRequest {
		plan.requestID = strings.TrimSpace(m.Arg)
	}

	info, ok, err := t.expect(ctx, wire.KindUploadInfo, wire.KindCancel)
	if err != nil || !ok {
		return err
	}
	if info.Kind == wire.KindCancel {
		return t.sendInfo(msgUploadCancelled)
	}

	plan.name = strings.TrimSpace(info.Text)
	plan.size = info.Num
	plan.public = info.Flag

	if err := filex.CheckName(plan.name); err != nil {
		return t.sendError(fmt.Sprintf("%v: %v", common.ErrInvalidName, err))
	}
	if plan.size < 0 {
		return t.sendError(common.ErrInvalidSize.Error())
	}
	if m.Kind == wire.KindUploadForRequest {
		if _, ok := t.svc.Requests.Get(plan.requestID); !ok {
			return t.sendError(common.ErrInvalidRequest.Error())
		}
		// uploads answering a request are always public
		plan.public = true
	}

	proceed, err := t.resolveConflict(ctx, &plan)
	if err != nil || !proceed {
		return err
	}

	sess, err := t.svc.Uploads.Begin(t.user, plan.name, plan.size)
	if err != nil {
		t.countUpload("rejected")
		t.log.Warn(ctx, "upload rejected", "file", plan.name, "size", plan.size, "error", err)
		return t.send(&wire.Message{Kind: wire.KindUploadRejected, Text: err.Error()})
	}
	t.uploadID = sess.ID
	t.log.Info(ctx, "upload started", "file", plan.name, "size", plan.size, "session", sess.ID, "chunk", sess.ChunkSize)

	if err := t.send(&wire.Message{Kind: wire.KindUploadApproved, Arg: sess.ID, Num: int64(sess.ChunkSize)}); err != nil {
		return err
	}

	return t.receiveChunks(ctx, sess, plan)
}

// resolveConflict loops while the target name is already taken, letting the
// client replace, rename or cancel. It returns false if the upload should
// not proceed and the client has already been answered.
func (t *clientTask) resolveConflict(ctx context.Context, plan *uploadPlan) (bool, error) {
	for t.svc.Catalog.Exists(t.user, plan.name) {
		if err := t.send(&wire.Message{Kind: wire.KindFileExists, Text: plan.name}); err != nil {
			return false, err
		}

		m, ok, err := t.expect(ctx, wire.KindReplace, wire.KindRename, wire.KindCancel)
		if err != nil || !ok {
			return false, err
		}

		switch m.Kind {
		case wire.KindReplace:
			return true, nil
		case wire.KindCancel:
			return false, t.sendInfo(msgUploadCancelled)
		case wire.KindRename:
			name := strings.TrimSpace(m.Text)
			if err := filex.CheckName(name); err != nil {
				return false, t.sendError(fmt.Sprintf("%v: %v", common.ErrInvalidName, err))
			}
			plan.name = name
		}
	}

	return true, t.send(&wire.Message{Kind: wire.KindFileNew, Text: plan.name})
}

func (t *clientTask) receiveChunks(ctx context.Context, sess *uploads.Session, plan uploadPlan) error {
	abort := func(text string) error {
		t.svc.Uploads.Cancel(sess.ID)
		t.uploadID = ""
		t.countUpload("failed")
		return t.sendError(text)
	}

	for {
		m, err := t.conn.Recv()
		if err != nil {
			if errors.Is(err, common.ErrProtocolViolation) {
				return abort(err.Error())
			}
			return err
		}

		switch m.Kind {
		case wire.KindChunk:
			if err := t.svc.Uploads.AppendChunk(sess.ID, m.Data); err != nil {
				t.log.Warn(ctx, "chunk refused", "session", sess.ID, "error", err)
				return abort(err.Error())
			}
			if err := t.send(&wire.Message{Kind: wire.KindAck}); err != nil {
				return err
			}

		case wire.KindCancel:
			t.svc.Uploads.Cancel(sess.ID)
			t.uploadID = ""
			t.countUpload("cancelled")
			return t.sendInfo(msgUploadCancelled)

		case wire.KindComplete:
			return t.completeUpload(ctx, sess, plan)

		default:
			return abort(fmt.Sprintf("%v: unexpected %s during upload", common.ErrProtocolViolation, m.Kind))
		}
	}
}

func (t *clientTask) completeUpload(ctx context.Context, sess *uploads.Session, plan uploadPlan) error {
	var checksum string

	err := t.svc.Uploads.Complete(sess.ID, func(st *uploads.Staged) error {
		checksum = st.ChecksumHex()

		rec := catalog.FileRecord{
			ID:        st.ID,
			Owner:     st.Owner,
			Name:      st.Name,
			Size:      st.Size,
			Public:    plan.public,
			Checksum:  checksum,
			CreatedAt: time.Now(),
		}

		// prev holds the bytes being replaced, nil when the name is new
		var prev []byte
		write := func(ctx context.Context) error {
			old, err := t.snapshot(ctx, st.Owner, st.Name)
			if err != nil {
				return err
			}
			prev = old
			return t.svc.Store.Write(ctx, st.Owner, st.Name, st.Data)
		}
		undo := func(ctx context.Context) error {
			if prev == nil {
				return t.svc.Store.Delete(ctx, st.Owner, st.Name)
			}
			return t.svc.Store.Write(ctx, st.Owner, st.Name, prev)
		}

		_, err := t.svc.Catalog.Publish(ctx, rec, write, undo)
		return err
	})
	t.uploadID = ""

	if err != nil {
		t.countUpload("failed")
		t.log.Error(ctx, "upload failed", "file", plan.name, "session", sess.ID, "error", err)
		if errors.Is(err, common.ErrSizeMismatch) {
			return t.sendError(err.Error())
		}
		return t.sendError("Upload failed: " + err.Error())
	}

	t.countUpload("ok")
	if t.svc.Metrics != nil {
		t.svc.Metrics.UploadedBytes.Add(float64(plan.size))
	}
	t.log.Info(ctx, "upload complete", "file", plan.name, "size", plan.size, "public", plan.public)

	t.afterUpload(ctx, plan)

	return t.send(&wire.Message{
		Kind: wire.KindSuccess,
		Text: fmt.Sprintf("File '%s' uploaded successfully", plan.name),
		Arg:  checksum,
		Num:  plan.size,
	})
}

// afterUpload records the upload in the inbox and activity log and closes
// the answered request. Failures are logged; the file itself is committed.
func (t *clientTask) afterUpload(ctx context.Context, plan uploadPlan) {
	_, err := t.svc.Inbox.Append(ctx, t.user, inbox.Message{
		Kind:    inbox.KindUploadComplete,
		From:    inbox.FromServer,
		Content: "Successfully uploaded file: " + plan.name,
	})
	if err != nil {
		t.log.Error(ctx, "inbox append failed", "error", err)
	}
	t.svc.Hub.Push(t.user, "UPLOAD_COMPLETE: "+plan.name)

	desc := "Private file"
	if plan.public {
		desc = "Public file"
	}
	if err := t.svc.Activity.Append(ctx, activity.Entry{
		User:        t.user,
		FileName:    plan.name,
		Kind:        activity.KindUpload,
		Description: desc,
		CreatedAt:   time.Now(),
	}); err != nil {
		t.log.Error(ctx, "activity append failed", "error", err)
	}

	if plan.requestID == "" {
		return
	}

	req, err := t.svc.Requests.Fulfill(plan.requestID, t.user)
	if err != nil {
		t.log.Warn(ctx, "request already fulfilled", "request", plan.requestID)
		return
	}
	if err := t.svc.Requests.AnnounceFulfilled(ctx, req, t.user, plan.name); err != nil {
		t.log.Error(ctx, "fulfilment announcement failed", "request", req.ID, "error", err)
	}
}

// snapshot reads the stored bytes of (owner, name) so a failed replacement
// can put them back. A missing file yields nil.
func (t *clientTask) snapshot(ctx context.Context, owner, name string) ([]byte, error) {
	rc, _, err := t.svc.Store.Open(ctx, owner, name)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot %s/%s: %w", owner, name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s/%s: %w", owner, name, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func (t *clientTask) countUpload(result string) {
	if t.svc.Metrics != nil {
		t.svc.Metrics.Uploads.WithLabelValues(result).Inc()
	}
}
