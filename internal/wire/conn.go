package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/gophshare/internal/common"
)

// DefaultMaxFrame bounds a single frame body when the caller passes 0.
const DefaultMaxFrame = 4 << 20

const headerLen = 4

// Conn sends and receives framed messages over a byte stream.
//
// Recv must be called from one goroutine at a time. Send is safe for
// concurrent use.
type Conn struct {
	r        *bufio.Reader
	w        io.Writer
	maxFrame int

	wmu sync.Mutex
	buf []byte
}

// NewConn wraps rw. Frames larger than maxFrame are rejected on both ends.
func NewConn(rw io.ReadWriter, maxFrame int) *Conn {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrame
	}
	return &Conn{r: bufio.NewReader(rw), w: rw, maxFrame: maxFrame}
}

// Send writes m as one frame.
func (c *Conn) Send(m *Message) error {
	size := m.Size()
	if size > c.maxFrame {
		return fmt.Errorf("%w: %d > %d", common.ErrFrameTooLarge, size, c.maxFrame)
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	c.buf = c.buf[:0]
	c.buf = binary.BigEndian.AppendUint32(c.buf, uint32(size))
	c.buf = m.Marshal(c.buf)

	_, err := c.w.Write(c.buf)
	return err
}

// Recv reads the next frame. io.EOF is returned unchanged when the peer
// closed the stream between frames.
func (c *Conn) Recv() (*Message, error) {
	var hdr [headerLen]byte
	if _, err := io.ReadFull(c.r, hdr[:]); err != nil {
		return nil, err
	}

	n := binary.BigEndian.Uint32(hdr[:])
	if int64(n) > int64(c.maxFrame) {
		return nil, fmt.Errorf("%w: %d > %d", common.ErrFrameTooLarge, n, c.maxFrame)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(c.r, body); err != nil {
		return nil, err
	}

	return Unmarshal(body)
}

// Expect reads the next frame and checks its kind against want. On mismatch
// the message is still returned together with an ErrProtocolViolation.
func (c *Conn) Expect(want ...Kind) (*Message, error) {
	m, err := c.Recv()
	if err != nil {
		return nil, err
	}
	for _, k := range want {
		if m.Kind == k {
			return m, nil
		}
	}
	return m, fmt.Errorf("%w: unexpected %s, want %v", common.ErrProtocolViolation, m.Kind, want)
}
