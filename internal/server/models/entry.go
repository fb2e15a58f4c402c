package models

import "time"

// Entry is a named, user-owned pointer to a Value. Key is unique within its
// scope: the owner's root when CollectionID is nil, otherwise the collection.
//
// Type is recorded per entry: values are shared by hash and keep the type of
// whoever wrote them first.
type Entry struct {
	ID           int64
	Key          string
	ValueID      int64
	Type         string
	Filename     *string
	UserID       int64
	CollectionID *int64
	Metadata     *string
	Origin       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Populated from the referenced value by read queries.
	Secret      string
	Size        int64
	IsMultipart bool
}

// EntryFilter narrows ListEntries. Empty fields do not filter; Limit 0 means
// no limit.
type EntryFilter struct {
	Prefix   string
	Contains string
	Limit    int
	Offset   int
}
