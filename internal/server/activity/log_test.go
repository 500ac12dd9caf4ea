package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry_Format(t *testing.T) {
	ts := time.Date(2024, 6, 1, 9, 30, 0, 0, time.Local)

	tests := []struct {
		name string
		e    Entry
		want string
	}{
		{"with description", Entry{FileName: "a.txt", Kind: KindUpload, Description: "Public file", CreatedAt: ts}, "[UPLOAD] a.txt - Public file | 2024-06-01 09:30:00"},
		{"without description", Entry{FileName: "b", Kind: KindDownload, CreatedAt: ts}, "[DOWNLOAD] b | 2024-06-01 09:30:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.e.Format())
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" upload ")
	require.NoError(t, err)
	assert.Equal(t, KindUpload, k)

	k, err = ParseKind("Request")
	require.NoError(t, err)
	assert.Equal(t, KindRequest, k)

	_, err = ParseKind("delete")
	assert.Error(t, err)
}

func TestMemoryLog_ListAndFilter(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog()

	require.NoError(t, l.Append(ctx, Entry{User: "alice", FileName: "a", Kind: KindUpload}))
	require.NoError(t, l.Append(ctx, Entry{User: "alice", FileName: "b", Kind: KindDownload}))
	require.NoError(t, l.Append(ctx, Entry{User: "alice", FileName: "c", Kind: KindUpload}))
	require.NoError(t, l.Append(ctx, Entry{User: "bob", FileName: "z", Kind: KindRequest}))

	all, err := l.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.False(t, all[0].CreatedAt.IsZero())

	ups, err := l.ListKind(ctx, "alice", KindUpload)
	require.NoError(t, err)
	require.Len(t, ups, 2)
	assert.Equal(t, "a", ups[0].FileName)
	assert.Equal(t, "c", ups[1].FileName)

	none, err := l.ListKind(ctx, "bob", KindUpload)
	require.NoError(t, err)
	assert.Empty(t, none)
}
