package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
)

// AccessLevel is a totally ordered permission level. AccessNone means the
// user has no access at all.
type AccessLevel int

const (
	AccessNone AccessLevel = iota
	AccessReadOnly
	AccessReadWrite
	AccessAdmin
)

func (l AccessLevel) String() string {
	switch l {
	case AccessReadOnly:
		return "READONLY"
	case AccessReadWrite:
		return "READWRITE"
	case AccessAdmin:
		return "ADMIN"
	default:
		return "NONE"
	}
}

func (l AccessLevel) CanView() bool         { return l >= AccessReadOnly }
func (l AccessLevel) CanEdit() bool         { return l >= AccessReadWrite }
func (l AccessLevel) CanDelete() bool       { return l == AccessAdmin }
func (l AccessLevel) CanManageAccess() bool { return l == AccessAdmin }

// ParseAccessLevel parses READONLY, READWRITE or ADMIN (case-insensitive).
func ParseAccessLevel(s string) (AccessLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "READONLY":
		return AccessReadOnly, nil
	case "READWRITE":
		return AccessReadWrite, nil
	case "ADMIN":
		return AccessAdmin, nil
	default:
		return AccessNone, fmt.Errorf("%w: unknown access level %q", common.ErrorValidation, s)
	}
}

// Value stores the level by name.
func (l AccessLevel) Value() (driver.Value, error) {
	if l == AccessNone {
		return nil, fmt.Errorf("cannot store access level %s", l)
	}
	return l.String(), nil
}

// Scan reads a level stored by name.
func (l *AccessLevel) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into AccessLevel", src)
	}
	parsed, err := ParseAccessLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ResourceType identifies what an AccessGrant targets.
type ResourceType string

const (
	ResourceCollection ResourceType = "collection"
	ResourceEntry      ResourceType = "entry"
)

// ParseResourceType validates a resource type name.
func ParseResourceType(s string) (ResourceType, error) {
	switch ResourceType(strings.ToLower(strings.TrimSpace(s))) {
	case ResourceCollection:
		return ResourceCollection, nil
	case ResourceEntry:
		return ResourceEntry, nil
	default:
		return "", fmt.Errorf("%w: unknown resource type %q", common.ErrorValidation, s)
	}
}

// AccessGrant gives UserID a level on exactly one of a collection or an entry.
type AccessGrant struct {
	ID           int64
	UserID       int64
	CollectionID *int64
	EntryID      *int64
	Level        AccessLevel
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Grantee profile, populated by listing queries.
	Email       string
	DisplayName string
}

// Target returns the resource the grant applies to.
func (g *AccessGrant) Target() (ResourceType, int64) {
	if g.CollectionID != nil {
		return ResourceCollection, *g.CollectionID
	}
	if g.EntryID != nil {
		return ResourceEntry, *g.EntryID
	}
	return "", 0
}
