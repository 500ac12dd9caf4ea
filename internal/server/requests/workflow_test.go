package requests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophshare/internal/common"
	"github.com/dmitrijs2005/gophshare/internal/server/inbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDir struct {
	registered []string
	online     []string
}

func (d fakeDir) Registered() []string { return d.registered }
func (d fakeDir) Online() []string     { return d.online }

type recPusher struct {
	mu    sync.Mutex
	calls map[string][]string
}

func (p *recPusher) Push(user, text string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = map[string][]string{}
	}
	p.calls[user] = append(p.calls[user], text)
	return true
}

func (p *recPusher) users() []string {
	var out []string
	for u := range p.calls {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func newWorkflow(dir fakeDir) (*Workflow, *inbox.MemoryStore, *recPusher) {
	in := inbox.NewMemoryStore()
	p := &recPusher{}
	return New(dir, in, p), in, p
}

func unread(t *testing.T, in *inbox.MemoryStore, u string) []inbox.Message {
	t.Helper()
	msgs, err := in.ListUnread(context.Background(), u)
	require.NoError(t, err)
	return msgs
}

func TestNormalizeRecipient(t *testing.T) {
	assert.Equal(t, Broadcast, NormalizeRecipient(" all "))
	assert.Equal(t, Broadcast, NormalizeRecipient("All"))
	assert.Equal(t, "bob", NormalizeRecipient("bob"))
}

func TestSubmit_BroadcastReachesAllRegisteredButRequester(t *testing.T) {
	dir := fakeDir{registered: []string{"alice", "bob", "carol"}, online: []string{"alice", "bob"}}
	w, in, p := newWorkflow(dir)

	r, err := w.Submit(context.Background(), Request{Requester: "alice", Description: "slides", Recipient: "all"})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.True(t, r.IsBroadcast())

	assert.Empty(t, unread(t, in, "alice"))
	for _, u := range []string{"bob", "carol"} {
		msgs := unread(t, in, u)
		require.Len(t, msgs, 1, u)
		assert.Equal(t, inbox.KindFileRequest, msgs[0].Kind)
		assert.Equal(t, "alice", msgs[0].From)
		assert.Equal(t, "File request (ID: "+r.ID+"): slides", msgs[0].Content)
	}

	assert.Equal(t, 1, w.Notify(r))
	assert.Equal(t, []string{"bob"}, p.users())
	assert.Equal(t, "NEW_FILE_REQUEST (ID: "+r.ID+") from alice: slides", p.calls["bob"][0])
}

func TestSubmit_UnicastOfflineRecipientGetsInboxOnly(t *testing.T) {
	dir := fakeDir{registered: []string{"alice", "bob"}, online: []string{"alice"}}
	w, in, p := newWorkflow(dir)

	r, err := w.Submit(context.Background(), Request{Requester: "alice", Description: "x", Recipient: "bob"})
	require.NoError(t, err)

	assert.Len(t, unread(t, in, "bob"), 1)
	assert.Zero(t, w.Notify(r))
	assert.Empty(t, p.users())
}

func TestFulfill_UnicastIsOneShot(t *testing.T) {
	w, _, _ := newWorkflow(fakeDir{registered: []string{"alice", "carol"}})
	r, err := w.Submit(context.Background(), Request{Requester: "alice", Description: "d", Recipient: "carol"})
	require.NoError(t, err)

	got, err := w.Fulfill(r.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Requester)

	_, err = w.Fulfill(r.ID, "carol")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Zero(t, w.Open())
}

func TestFulfill_BroadcastStaysOpen(t *testing.T) {
	w, _, _ := newWorkflow(fakeDir{registered: []string{"alice", "a", "b"}})
	r, err := w.Submit(context.Background(), Request{Requester: "alice", Description: "d", Recipient: Broadcast})
	require.NoError(t, err)

	_, err = w.Fulfill(r.ID, "a")
	require.NoError(t, err)
	_, err = w.Fulfill(" "+r.ID+" ", "b")
	require.NoError(t, err)

	_, ok := w.Get(r.ID)
	assert.True(t, ok)
}

func TestFulfill_Unknown(t *testing.T) {
	w, _, _ := newWorkflow(fakeDir{})
	_, err := w.Fulfill("nope", "x")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAnnounceFulfilled(t *testing.T) {
	w, in, p := newWorkflow(fakeDir{registered: []string{"alice", "bob"}})
	r := Request{ID: "r1", Requester: "alice"}

	require.NoError(t, w.AnnounceFulfilled(context.Background(), r, "bob", "f.txt"))

	msgs := unread(t, in, "alice")
	require.Len(t, msgs, 1)
	assert.Equal(t, inbox.KindRequestFulfilled, msgs[0].Kind)
	assert.Equal(t, "Your request (ID: r1) has been fulfilled by bob. Uploaded file: f.txt", msgs[0].Content)
	assert.Equal(t, []string{"REQUEST_FULFILLED (ID: r1) by bob: f.txt"}, p.calls["alice"])
}

type failingInbox struct{ inbox.MemoryStore }

func (f *failingInbox) Append(context.Context, string, inbox.Message) (inbox.Message, error) {
	return inbox.Message{}, errors.New("inbox down")
}

func TestSubmit_InboxErrorDoesNotRegister(t *testing.T) {
	w := New(fakeDir{registered: []string{"a", "b"}}, &failingInbox{}, &recPusher{})
	_, err := w.Submit(context.Background(), Request{Requester: "a", Recipient: "b", Description: "d"})
	assert.ErrorContains(t, err, "inbox down")
	assert.Zero(t, w.Open())
}
