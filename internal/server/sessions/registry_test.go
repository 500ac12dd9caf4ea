package sessions

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophshare/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_FirstLoginProvisions(t *testing.T) {
	var provisioned []string
	r := New(func(_ context.Context, u string) error {
		provisioned = append(provisioned, u)
		return nil
	})

	first, err := r.Login(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, first)
	assert.True(t, r.IsRegistered("alice"))
	assert.True(t, r.IsOnline("alice"))

	r.Logout("alice")
	first, err = r.Login(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, first)
	assert.Equal(t, []string{"alice"}, provisioned)
}

func TestLogin_AlreadyOnline(t *testing.T) {
	r := New(nil)
	_, err := r.Login(context.Background(), "bob")
	require.NoError(t, err)

	_, err = r.Login(context.Background(), "bob")
	assert.ErrorIs(t, err, common.ErrAlreadyOnline)
}

func TestLogin_InvalidName(t *testing.T) {
	r := New(nil)
	for _, name := range []string{"", "..", "a/b", "ALL", "all", "All"} {
		_, err := r.Login(context.Background(), name)
		assert.ErrorIs(t, err, common.ErrInvalidName, name)
	}
}

func TestLogin_ProvisionErrorLeavesUserUnregistered(t *testing.T) {
	r := New(func(context.Context, string) error { return errors.New("mkdir failed") })

	_, err := r.Login(context.Background(), "carol")
	assert.ErrorContains(t, err, "mkdir failed")
	assert.False(t, r.IsRegistered("carol"))
	assert.False(t, r.IsOnline("carol"))
}

func TestLogout_Idempotent(t *testing.T) {
	r := New(nil)
	r.Logout("ghost")
	assert.False(t, r.IsRegistered("ghost"))

	_, err := r.Login(context.Background(), "alice")
	require.NoError(t, err)
	r.Logout("alice")
	r.Logout("alice")
	assert.True(t, r.IsRegistered("alice"))
	assert.False(t, r.IsOnline("alice"))
}

func TestRegistry_Listings(t *testing.T) {
	r := New(nil)
	r.Restore([]string{"dave", "alice"})
	_, err := r.Login(context.Background(), "carol")
	require.NoError(t, err)
	_, err = r.Login(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"alice": true, "carol": true, "dave": false}, r.ListAll())
	assert.Equal(t, []string{"alice", "carol", "dave"}, r.Registered())
	assert.Equal(t, []string{"alice", "carol"}, r.Online())
	assert.Equal(t, 2, r.OnlineCount())

	r.Restore([]string{"alice"})
	assert.True(t, r.IsOnline("alice"), "restore must not reset a live session")
}

func TestLogin_ConcurrentSameNameSingleWinner(t *testing.T) {
	r := New(nil)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Login(context.Background(), "same"); err == nil {
				wins.Add(1)
			} else {
				assert.ErrorIs(t, err, common.ErrAlreadyOnline)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestRestore_SkipsReservedNames(t *testing.T) {
	r := New(nil)
	r.Restore([]string{"alice", "ALL", "all"})
	assert.Equal(t, []string{"alice"}, r.Registered())
}

func TestLogin_ProvisionDoesNotBlockReaders(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	r := New(func(_ context.Context, u string) error {
		if u == "alice" {
			close(started)
			<-release
		}
		return nil
	})
	_, err := r.Login(context.Background(), "bob")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := r.Login(context.Background(), "alice")
		done <- err
	}()
	<-started

	read := make(chan struct{})
	go func() {
		defer close(read)
		assert.Equal(t, []string{"bob"}, r.Online())
		assert.True(t, r.IsRegistered("bob"))
		assert.False(t, r.IsRegistered("alice"))
		assert.Equal(t, map[string]bool{"bob": true}, r.ListAll())
	}()
	select {
	case <-read:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("registry reads blocked by a pending provision")
	}

	_, err = r.Login(context.Background(), "alice")
	assert.ErrorIs(t, err, common.ErrAlreadyOnline, "a login being provisioned holds the name")

	close(release)
	require.NoError(t, <-done)
	assert.True(t, r.IsOnline("alice"))
}

func TestLogin_FailedProvisionReleasesName(t *testing.T) {
	var calls atomic.Int32
	r := New(func(context.Context, string) error {
		if calls.Add(1) == 1 {
			return errors.New("bucket unavailable")
		}
		return nil
	})

	_, err := r.Login(context.Background(), "erin")
	require.ErrorContains(t, err, "bucket unavailable")
	assert.Empty(t, r.ListAll())

	first, err := r.Login(context.Background(), "erin")
	require.NoError(t, err)
	assert.True(t, first)
	assert.True(t, r.IsOnline("erin"))
}

func TestLogin_ConcurrentFirstLoginsProvisionOnce(t *testing.T) {
	var provisions atomic.Int32
	r := New(func(context.Context, string) error {
		provisions.Add(1)
		time.Sleep(5 * time.Millisecond)
		return nil
	})

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Login(context.Background(), "fresh"); err == nil {
				wins.Add(1)
			} else {
				assert.ErrorIs(t, err, common.ErrAlreadyOnline)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(1), provisions.Load())
}
