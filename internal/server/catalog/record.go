package catalog

import "time"

// FileRecord describes one stored file.
type FileRecord struct {
	ID        string
	Owner     string
	Name      string
	Size      int64
	Public    bool
	Checksum  string
	CreatedAt time.Time
}

// Visibility returns "Public" or "Private".
func (r FileRecord) Visibility() string {
	if r.Public {
		return "Public"
	}
	return "Private"
}
