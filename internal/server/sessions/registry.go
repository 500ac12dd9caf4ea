// Package sessions tracks which usernames are registered and which of them
// are online. A username may hold at most one live session.
package sessions

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophshare/internal/common"
	"github.com/dmitrijs2005/gophshare/internal/filex"
	"github.com/dmitrijs2005/gophshare/internal/server/requests"
)

// Provisioner prepares per-user storage on first login.
type Provisioner func(ctx context.Context, username string) error

// Registry is safe for concurrent use. A username present in online is
// registered; the bool is its online flag. A username in pending is being
// provisioned by a first login and counts as taken, but is neither listed
// nor registered until provisioning succeeds.
type Registry struct {
	provision Provisioner

	mu      sync.Mutex
	online  map[string]bool
	pending map[string]struct{}
}

// New returns an empty registry. A nil provisioner is allowed.
func New(p Provisioner) *Registry {
	return &Registry{
		provision: p,
		online:    make(map[string]bool),
		pending:   make(map[string]struct{}),
	}
}

func checkUsername(username string) error {
	if err := filex.CheckName(username); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidName, err)
	}
	if strings.EqualFold(username, requests.Broadcast) {
		return fmt.Errorf("%w: %q is reserved for broadcast requests", common.ErrInvalidName, username)
	}
	return nil
}

// Restore marks users as registered and offline. Users already known keep
// their current state.
func (r *Registry) Restore(users []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range users {
		if checkUsername(u) != nil {
			continue
		}
		if _, ok := r.online[u]; !ok {
			r.online[u] = false
		}
	}
}

// Login tests and sets the online flag in one step. The first login of a
// username also registers it and provisions its storage; if provisioning
// fails the user stays unregistered. Provisioning runs without holding the
// registry lock.
func (r *Registry) Login(ctx context.Context, username string) (first bool, err error) {
	if err := checkUsername(username); err != nil {
		return false, err
	}

	r.mu.Lock()
	online, registered := r.online[username]
	_, busy := r.pending[username]
	if online || busy {
		r.mu.Unlock()
		return false, common.ErrAlreadyOnline
	}
	if registered || r.provision == nil {
		r.online[username] = true
		r.mu.Unlock()
		return !registered, nil
	}
	r.pending[username] = struct{}{}
	r.mu.Unlock()

	err = r.provision(ctx, username)

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pending, username)
	if err != nil {
		return false, fmt.Errorf("provision %s: %w", username, err)
	}
	r.online[username] = true
	return true, nil
}

// Logout clears the online flag. It is idempotent.
func (r *Registry) Logout(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.online[username]; ok {
		r.online[username] = false
	}
}

// ListAll returns a snapshot of every registered user and its online flag.
func (r *Registry) ListAll() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]bool, len(r.online))
	for u, on := range r.online {
		out[u] = on
	}
	return out
}

func (r *Registry) IsRegistered(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.online[username]
	return ok
}

// IsOnline reports the online flag. A login still provisioning is not
// online yet.
func (r *Registry) IsOnline(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.online[username]
}

// Registered returns all registered usernames, sorted.
func (r *Registry) Registered() []string {
	return r.collect(func(bool) bool { return true })
}

// Online returns the usernames currently online, sorted.
func (r *Registry) Online() []string {
	return r.collect(func(on bool) bool { return on })
}

// OnlineCount returns the number of online users.
func (r *Registry) OnlineCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, on := range r.online {
		if on {
			n++
		}
	}
	return n
}

func (r *Registry) collect(keep func(online bool) bool) []string {
	r.mu.Lock()
	out := make([]string, 0, len(r.online))
	for u, on := range r.online {
		if keep(on) {
			out = append(out, u)
		}
	}
	r.mu.Unlock()

	sort.Strings(out)
	return out
}
