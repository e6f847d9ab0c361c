// Package model defines the record types kept by the collection stores.
package model

// ArchiveType tags what kind of item was archived.
type ArchiveType string

const (
	ArchiveJob       ArchiveType = "job"
	ArchiveCandidate ArchiveType = "candidate"
	ArchiveOffer     ArchiveType = "offer"
)

// ValidArchiveTypes are the allowed archive tags.
var ValidArchiveTypes = map[ArchiveType]bool{
	ArchiveJob:       true,
	ArchiveCandidate: true,
	ArchiveOffer:     true,
}

// ArchiveEntry is an archived job, candidate or offer. Identity is (ID, Type).
type ArchiveEntry struct {
	ID         string      `json:"id" yaml:"id" validate:"required"`
	Type       ArchiveType `json:"type" yaml:"type" validate:"required,oneof=job candidate offer"`
	Name       string      `json:"name" yaml:"name"`
	Detail     string      `json:"detail" yaml:"detail"`
	ArchivedAt string      `json:"archivedAt" yaml:"archivedAt" validate:"required"`
}

// ArchiveKey is the compound identity of an archive entry.
type ArchiveKey struct {
	ID   string
	Type ArchiveType
}

// Key returns the entry's compound identity.
func (e ArchiveEntry) Key() ArchiveKey {
	return ArchiveKey{ID: e.ID, Type: e.Type}
}
