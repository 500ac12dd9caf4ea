package wire

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophshare/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestMessage_MarshalUnmarshal(t *testing.T) {
	in := &Message{
		Kind:  KindUploadApproved,
		Text:  "0b6f1a52-6f1d-4bd2-9a54-3bd9c0bc3a4e",
		Arg:   "report.pdf",
		Data:  []byte{0, 1, 2, 255},
		Num:   153600,
		Flag:  true,
		Items: []string{"a", "", "c"},
	}

	b := in.Marshal(nil)
	assert.Len(t, b, in.Size())

	out, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMessage_ZeroFieldsOmitted(t *testing.T) {
	b := (&Message{Kind: KindAck}).Marshal(nil)
	assert.Equal(t, []byte{0x08, byte(KindAck)}, b)
}

func TestUnmarshal_Errors(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{name: "empty body has no kind", body: nil},
		{name: "unknown kind", body: protowire.AppendVarint(protowire.AppendTag(nil, fieldKind, protowire.VarintType), 200)},
		{name: "truncated tag", body: []byte{0x80}},
		{name: "truncated bytes", body: append(protowire.AppendTag(nil, fieldText, protowire.BytesType), 10, 'a')},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(tt.body)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrProtocolViolation))
		})
	}
}

func TestUnmarshal_SkipsUnknownFields(t *testing.T) {
	b := (&Message{Kind: KindInfo, Text: "hi"}).Marshal(nil)
	b = protowire.AppendTag(b, 42, protowire.BytesType)
	b = protowire.AppendString(b, "future")

	m, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, KindInfo, m.Kind)
	assert.Equal(t, "hi", m.Text)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "ACK", KindAck.String())
	assert.Equal(t, "DOWNLOAD_COMPLETE", KindDownloadComplete.String())
	assert.Equal(t, "Kind(250)", Kind(250).String())
	assert.False(t, KindInvalid.Valid())
}
