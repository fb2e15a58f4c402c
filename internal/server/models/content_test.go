package models

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewContent(t *testing.T) {
	tests := []struct {
		name     string
		str      *string
		blob     []byte
		wantKind ValueKind
		wantErr  bool
		wantMsg  string
	}{
		{name: "text", str: strPtr("42"), wantKind: ValueKindText},
		{name: "empty text is still text", str: strPtr(""), wantKind: ValueKindText},
		{name: "binary", blob: []byte{0, 1, 2}, wantKind: ValueKindBinary},
		{name: "empty binary", blob: []byte{}, wantKind: ValueKindBinary},
		{name: "both", str: strPtr("a"), blob: []byte("a"), wantErr: true, wantMsg: "Either string_value or blob_value must be set"},
		{name: "neither", wantErr: true, wantMsg: "Either string_value or blob_value must be set"},
		{name: "nul in text", str: strPtr("a\x00b"), wantErr: true, wantMsg: "NUL"},
		{name: "invalid utf-8", str: strPtr("\xff"), wantErr: true, wantMsg: "UTF-8"},
		{name: "nul in binary", blob: []byte{'a', 0, 'b'}, wantKind: ValueKindBinary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewContent(tt.str, tt.blob)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrorValidation))
				assert.Contains(t, err.Error(), tt.wantMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, c.Kind())
		})
	}
}

func TestContent_BytesAndLen(t *testing.T) {
	txt := Text("héllo")
	assert.Equal(t, []byte("héllo"), txt.Bytes())
	assert.Equal(t, 6, txt.Len())

	bin := Binary{0xff, 0x00}
	assert.Equal(t, []byte{0xff, 0x00}, bin.Bytes())
	assert.Equal(t, 2, bin.Len())
}

func TestContentOf(t *testing.T) {
	c, err := ContentOf(ValueKindText, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, Text("abc"), c)

	c, err = ContentOf(ValueKindBinary, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, Binary("abc"), c)

	_, err = ContentOf("video", nil)
	require.Error(t, err)
}

func TestCheckContent(t *testing.T) {
	require.NoError(t, CheckContent(Text("héllo")))
	require.NoError(t, CheckContent(Binary{0xff, 0x00}))
	assert.True(t, errors.Is(CheckContent(Text("a\x00")), common.ErrorValidation))
	assert.True(t, errors.Is(CheckContent(Text([]byte{0xc3})), common.ErrorValidation))
}
