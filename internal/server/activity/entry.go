// Package activity records what each user uploaded, downloaded and
// requested.
package activity

import (
	"fmt"
	"strings"
	"time"
)

const TimeLayout = "2006-01-02 15:04:05"

type Kind string

const (
	KindUpload   Kind = "UPLOAD"
	KindDownload Kind = "DOWNLOAD"
	KindRequest  Kind = "REQUEST"
)

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindUpload, KindDownload, KindRequest:
		return k, nil
	}
	return "", fmt.Errorf("unknown activity kind %q", s)
}

type Entry struct {
	User        string
	FileName    string
	Kind        Kind
	Description string
	CreatedAt   time.Time
}

// Format renders "[KIND] file - description | timestamp"; the description
// part is omitted when empty.
func (e Entry) Format() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(string(e.Kind))
	b.WriteString("] ")
	b.WriteString(e.FileName)
	if e.Description != "" {
		b.WriteString(" - ")
		b.WriteString(e.Description)
	}
	b.WriteString(" | ")
	b.WriteString(e.CreatedAt.Format(TimeLayout))
	return b.String()
}
