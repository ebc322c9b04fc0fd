package querycache

import "strings"

// Tag is a logical resource label attached to cache entries and declared by
// mutations. A bare tag ("Vendor") names a whole collection; an ID tag
// ("Vendor:42") names one resource.
type Tag struct {
	Type string
	ID   string
}

// NewTag returns a collection tag for the given resource type.
func NewTag(resourceType string) Tag {
	return Tag{Type: resourceType}
}

// NewIDTag returns a tag for one resource instance.
func NewIDTag(resourceType, id string) Tag {
	return Tag{Type: resourceType, ID: id}
}

// ParseTag parses "Type" or "Type:ID" into a Tag.
func ParseTag(s string) Tag {
	if typ, id, ok := strings.Cut(s, ":"); ok {
		return Tag{Type: typ, ID: id}
	}
	return Tag{Type: s}
}

// String renders the canonical "Type" or "Type:ID" form.
func (t Tag) String() string {
	if t.ID == "" {
		return t.Type
	}
	return t.Type + ":" + t.ID
}

// Matches reports whether an invalidation of t affects an entry carrying
// other. Tags of the same type match when either side is the bare collection
// tag or when both name the same ID. Invalidating "Vendor:42" therefore hits
// entries tagged "Vendor:42" and entries tagged "Vendor", while invalidating
// "Vendor" hits every "Vendor*" entry.
func (t Tag) Matches(other Tag) bool {
	if t.Type != other.Type {
		return false
	}
	return t.ID == "" || other.ID == "" || t.ID == other.ID
}

func matchesAny(entryTags []Tag, invalidated []Tag) bool {
	for _, inv := range invalidated {
		for _, et := range entryTags {
			if inv.Matches(et) {
				return true
			}
		}
	}
	return false
}
