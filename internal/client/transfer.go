package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophshare/internal/wire"
)

// OnConflict says what to do when the target name already exists.
type OnConflict int

const (
	ConflictCancel OnConflict = iota
	ConflictReplace
	ConflictRename
)

type Upload struct {
	Name   string
	Data   []byte
	Public bool
	// RequestID answers an open file request; the file is made public.
	RequestID string

	OnConflict OnConflict
	// RenameTo is used with ConflictRename. A second clash cancels.
	RenameTo string
}

type UploadResult struct {
	Name      string
	Size      int64
	Checksum  string
	ChunkSize int
	Message   string
}

// Upload sends u to the server in chunks of the size the server picks and
// verifies the checksum the server computed.
func (c *Client) Upload(ctx context.Context, u Upload) (UploadResult, error) {
	defer c.bind(ctx)()

	res := UploadResult{Name: u.Name, Size: int64(len(u.Data))}

	start := &wire.Message{Kind: wire.KindUploadPlain}
	if u.RequestID != "" {
		start = &wire.Message{Kind: wire.KindUploadForRequest, Arg: u.RequestID}
	}
	for _, m := range []*wire.Message{
		{Kind: wire.KindSelect, Text: selUpload},
		start,
		{Kind: wire.KindUploadInfo, Text: u.Name, Num: res.Size, Flag: u.Public},
	} {
		if err := c.send(m); err != nil {
			return res, err
		}
	}

	renamed := false
	for {
		m, err := c.recv(wire.KindFileExists, wire.KindFileNew)
		if err != nil {
			return res, c.finish(err)
		}
		if m.Kind == wire.KindFileNew {
			res.Name = m.Text
			break
		}

		switch {
		case u.OnConflict == ConflictReplace:
			err = c.send(&wire.Message{Kind: wire.KindReplace})
		case u.OnConflict == ConflictRename && !renamed:
			renamed = true
			err = c.send(&wire.Message{Kind: wire.KindRename, Text: u.RenameTo})
		default:
			if err := c.send(&wire.Message{Kind: wire.KindCancel}); err != nil {
				return res, err
			}
			if _, err := c.recv(wire.KindInfo); err != nil {
				return res, c.finish(err)
			}
			return res, c.finish(fmt.Errorf("%w: %s already exists", ErrCancelled, m.Text))
		}
		if err != nil {
			return res, err
		}
		if u.OnConflict == ConflictReplace {
			res.Name = m.Text
			break
		}
	}

	m, err := c.recv(wire.KindUploadApproved, wire.KindUploadRejected)
	if err != nil {
		return res, c.finish(err)
	}
	if m.Kind == wire.KindUploadRejected {
		return res, c.finish(&ServerError{Text: m.Text})
	}
	res.ChunkSize = int(m.Num)
	if res.ChunkSize <= 0 {
		return res, fmt.Errorf("%w: chunk size %d", ErrUnexpected, res.ChunkSize)
	}

	for off := 0; off < len(u.Data); off += res.ChunkSize {
		end := min(off+res.ChunkSize, len(u.Data))
		if err := c.send(&wire.Message{Kind: wire.KindChunk, Data: u.Data[off:end]}); err != nil {
			return res, err
		}
		if _, err := c.recv(wire.KindAck); err != nil {
			return res, c.finish(err)
		}
	}

	if err := c.send(&wire.Message{Kind: wire.KindComplete}); err != nil {
		return res, err
	}
	m, err = c.recv(wire.KindSuccess)
	if err != nil {
		return res, c.finish(err)
	}
	res.Checksum = m.Arg
	res.Message = m.Text

	if want := checksum(u.Data); res.Checksum != want {
		return res, c.finish(fmt.Errorf("%w: server %s, local %s", ErrChecksumMismatch, res.Checksum, want))
	}
	return res, c.finish(nil)
}

// Download fetches owner's file name and verifies its size and checksum.
func (c *Client) Download(ctx context.Context, owner, name string) ([]byte, error) {
	defer c.bind(ctx)()

	if err := c.send(&wire.Message{Kind: wire.KindSelect, Text: selDownload}); err != nil {
		return nil, err
	}
	if _, err := c.recv(wire.KindList); err != nil {
		return nil, c.finish(err)
	}
	if err := c.send(&wire.Message{Kind: wire.KindDownloadTarget, Text: owner, Arg: name}); err != nil {
		return nil, err
	}

	m, err := c.recv(wire.KindDownloadApproved)
	if err != nil {
		return nil, c.finish(err)
	}
	size, sum := m.Num, m.Arg

	data := make([]byte, 0, size)
	for {
		m, err := c.recv(wire.KindChunk, wire.KindDownloadComplete)
		if err != nil {
			return nil, c.finish(err)
		}
		if m.Kind == wire.KindDownloadComplete {
			break
		}
		data = append(data, m.Data...)
	}

	if int64(len(data)) != size {
		return nil, c.finish(&ServerError{Text: fmt.Sprintf("received %d of %d bytes", len(data), size)})
	}
	if got := checksum(data); sum != "" && got != sum {
		return nil, c.finish(fmt.Errorf("%w: got %s, want %s", ErrChecksumMismatch, got, sum))
	}
	return data, c.finish(nil)
}
