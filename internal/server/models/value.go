package models

import "time"

// ValueKind tells whether a value holds text or raw bytes.
type ValueKind string

const (
	ValueKindText   ValueKind = "text"
	ValueKindBinary ValueKind = "binary"
)

// Value is an immutable, content-addressed payload. There is at most one
// Value per Hash. Inline payloads live in StringValue or BlobValue; when
// IsMultipart is set neither is populated and the payload is the ordered
// concatenation of the value's BlobParts.
type Value struct {
	ID          int64
	Hash        string
	Kind        ValueKind
	StringValue *string
	BlobValue   []byte
	Type        string
	IsMultipart bool
	Size        int64
	CreatedAt   time.Time
}

// BlobPart is one chunk of a multipart value. Data is set when part bytes
// are kept in the database; StorageKey is set when they live in object storage.
type BlobPart struct {
	ID         int64
	ValueID    int64
	PartIndex  int
	Size       int64
	Data       []byte
	StorageKey *string
}
