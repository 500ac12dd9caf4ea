package uploads

import "encoding/hex"

// Session is the staging area of one upload.
type Session struct {
	ID           string
	Owner        string
	Name         string
	ExpectedSize int64
	ChunkSize    int

	received int64
	chunks   [][]byte
}

// Received returns the number of bytes appended so far.
func (s *Session) Received() int64 { return s.received }

func (s *Session) append(chunk []byte) {
	c := make([]byte, len(chunk))
	copy(c, chunk)
	s.chunks = append(s.chunks, c)
	s.received += int64(len(c))
}

func (s *Session) bytes() []byte {
	out := make([]byte, 0, s.received)
	for _, c := range s.chunks {
		out = append(out, c...)
	}
	return out
}

// Staged is a fully received upload handed to the caller for write-out.
type Staged struct {
	ID       string
	Owner    string
	Name     string
	Size     int64
	Data     []byte
	Checksum []byte
}

// ChecksumHex returns the content digest as lowercase hex.
func (s *Staged) ChecksumHex() string {
	return hex.EncodeToString(s.Checksum)
}
