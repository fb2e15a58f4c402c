package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophstore/internal/common"
)

// Content is a payload supplied by a caller: either Text or Binary.
type Content interface {
	// Bytes returns the bytes the content hash is computed over
	// (UTF-8 for text).
	Bytes() []byte
	// Kind reports the variant.
	Kind() ValueKind
	// Len is len(Bytes()).
	Len() int

	isContent()
}

// Text is a string payload.
type Text string

func (t Text) Bytes() []byte   { return []byte(t) }
func (t Text) Kind() ValueKind { return ValueKindText }
func (t Text) Len() int        { return len(t) }
func (Text) isContent()        {}

// Binary is a raw byte payload.
type Binary []byte

func (b Binary) Bytes() []byte   { return b }
func (b Binary) Kind() ValueKind { return ValueKindBinary }
func (b Binary) Len() int        { return len(b) }
func (Binary) isContent()        {}

// CheckContent rejects text the string_value column cannot hold: invalid
// UTF-8 or NUL characters. Such payloads must be sent as Binary.
func CheckContent(c Content) error {
	t, ok := c.(Text)
	if !ok {
		return nil
	}
	if !utf8.ValidString(string(t)) {
		return fmt.Errorf("%w: string_value is not valid UTF-8", common.ErrorValidation)
	}
	if strings.IndexByte(string(t), 0) >= 0 {
		return fmt.Errorf("%w: string_value contains a NUL character", common.ErrorValidation)
	}
	return nil
}

// NewContent converts the two optional wire fields into a Content. Exactly
// one of str and blob must be set.
func NewContent(str *string, blob []byte) (Content, error) {
	switch {
	case str != nil && blob != nil, str == nil && blob == nil:
		return nil, fmt.Errorf("%w: Either string_value or blob_value must be set", common.ErrorValidation)
	case str != nil:
		t := Text(*str)
		if err := CheckContent(t); err != nil {
			return nil, err
		}
		return t, nil
	default:
		return Binary(blob), nil
	}
}

// ContentOf rebuilds a Content of the given kind from raw bytes.
func ContentOf(kind ValueKind, b []byte) (Content, error) {
	switch kind {
	case ValueKindText:
		return Text(b), nil
	case ValueKindBinary:
		return Binary(b), nil
	default:
		return nil, fmt.Errorf("unknown value kind %q", kind)
	}
}
