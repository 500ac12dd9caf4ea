package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/dmitrijs2005/gophshare/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConn_RoundTripOverPipe(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	ca, cb := NewConn(a, 0), NewConn(b, 0)

	go func() {
		_ = ca.Send(&Message{Kind: KindChunk, Data: bytes.Repeat([]byte{7}, 1000)})
		_ = ca.Send(&Message{Kind: KindComplete})
	}()

	m, err := cb.Expect(KindChunk)
	require.NoError(t, err)
	assert.Len(t, m.Data, 1000)

	m, err = cb.Expect(KindChunk, KindComplete)
	require.NoError(t, err)
	assert.Equal(t, KindComplete, m.Kind)
}

func TestConn_ExpectMismatch(t *testing.T) {
	var buf bytes.Buffer
	c := NewConn(&buf, 0)
	require.NoError(t, c.Send(&Message{Kind: KindText, Text: "hello"}))

	m, err := c.Expect(KindChunk)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrProtocolViolation))
	require.NotNil(t, m)
	assert.Equal(t, "hello", m.Text)
}

func TestConn_FrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	c := NewConn(&buf, 16)

	err := c.Send(&Message{Kind: KindChunk, Data: make([]byte, 64)})
	assert.True(t, errors.Is(err, common.ErrFrameTooLarge))
	assert.Zero(t, buf.Len(), "nothing written for oversized frame")

	hdr := binary.BigEndian.AppendUint32(nil, 1<<20)
	_, err = NewConn(bytes.NewBuffer(hdr), 16).Recv()
	assert.True(t, errors.Is(err, common.ErrFrameTooLarge))
}

func TestConn_EOF(t *testing.T) {
	_, err := NewConn(&bytes.Buffer{}, 0).Recv()
	assert.ErrorIs(t, err, io.EOF)

	truncated := bytes.NewBuffer([]byte{0, 0, 0, 9, 0x08})
	_, err = NewConn(truncated, 0).Recv()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
