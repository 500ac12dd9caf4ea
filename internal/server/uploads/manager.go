// Package uploads keeps per-upload staging buffers and their chunk
// bookkeeping. Every live session holds an admission reservation equal to
// its expected size; the reservation is returned when the session ends,
// whatever the outcome.
package uploads

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/dmitrijs2005/gophshare/internal/common"
	"github.com/dmitrijs2005/gophshare/internal/server/admission"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Manager owns all upload sessions.
type Manager struct {
	admission *admission.Controller
	minChunk  int
	maxChunk  int

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a Manager drawing per-upload chunk sizes uniformly from
// [minChunk, maxChunk].
func NewManager(ac *admission.Controller, minChunk, maxChunk int) *Manager {
	return &Manager{
		admission: ac,
		minChunk:  minChunk,
		maxChunk:  maxChunk,
		sessions:  make(map[string]*Session),
	}
}

// Begin reserves expectedSize bytes and opens a session. If admission is
// denied nothing changes and ErrCapacityExhausted is returned.
func (m *Manager) Begin(owner, name string, expectedSize int64) (*Session, error) {
	if expectedSize < 0 {
		return nil, common.ErrInvalidSize
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.admission.TryReserve(expectedSize) {
		return nil, common.ErrCapacityExhausted
	}

	s := &Session{
		ID:           uuid.NewString(),
		Owner:        owner,
		Name:         name,
		ExpectedSize: expectedSize,
		ChunkSize:    m.minChunk + rand.IntN(m.maxChunk-m.minChunk+1),
	}
	m.sessions[s.ID] = s

	return s, nil
}

// AppendChunk appends chunk to the session. A chunk that would take the
// session past its expected size is refused with ErrSizeMismatch and leaves
// the buffer untouched. The connection handler then cancels the session,
// which releases its reservation.
func (m *Manager) AppendChunk(id string, chunk []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return common.ErrUnknownSession
	}
	if s.received+int64(len(chunk)) > s.ExpectedSize {
		return fmt.Errorf("%w: chunk of %d bytes overflows %d/%d", common.ErrSizeMismatch, len(chunk), s.received, s.ExpectedSize)
	}

	s.append(chunk)
	return nil
}

// Complete verifies the session and, on success, passes the staged bytes to
// commit while the reservation is still held. The session is destroyed and
// its reservation released afterwards, whether commit succeeds or not.
func (m *Manager) Complete(id string, commit func(*Staged) error) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return common.ErrUnknownSession
	}
	if s.received != s.ExpectedSize {
		m.dropLocked(s)
		m.mu.Unlock()
		return fmt.Errorf("%w: received %d of %d bytes", common.ErrSizeMismatch, s.received, s.ExpectedSize)
	}
	data := s.bytes()
	s.chunks = nil
	m.mu.Unlock()

	sum := blake2b.Sum256(data)
	staged := &Staged{
		ID:       s.ID,
		Owner:    s.Owner,
		Name:     s.Name,
		Size:     s.ExpectedSize,
		Data:     data,
		Checksum: sum[:],
	}

	err := commit(staged)

	m.mu.Lock()
	if cur, ok := m.sessions[id]; ok && cur == s {
		m.dropLocked(s)
	}
	m.mu.Unlock()

	return err
}

// Cancel destroys the session if present and releases its reservation.
// Cancelling an unknown or finished session is a no-op.
func (m *Manager) Cancel(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		m.dropLocked(s)
	}
}

// Active returns the number of open sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Reserved returns the bytes held by open sessions.
func (m *Manager) Reserved() int64 {
	return m.admission.Reserved()
}

func (m *Manager) dropLocked(s *Session) {
	delete(m.sessions, s.ID)
	s.chunks = nil
	m.admission.Release(s.ExpectedSize)
}
