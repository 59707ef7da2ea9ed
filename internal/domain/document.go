package domain

import "time"

// DocumentCategory groups attachments for reviewers.
type DocumentCategory string

const (
	CategoryIdentification DocumentCategory = "identification"
	CategoryIncorporation  DocumentCategory = "incorporation"
	CategoryEvidence       DocumentCategory = "evidence"
	CategoryCorrespondence DocumentCategory = "correspondence"
	CategoryCertificate    DocumentCategory = "certificate"
	CategoryOther          DocumentCategory = "other"
)

// Valid reports whether c is a known category.
func (c DocumentCategory) Valid() bool {
	switch c {
	case CategoryIdentification, CategoryIncorporation, CategoryEvidence,
		CategoryCorrespondence, CategoryCertificate, CategoryOther:
		return true
	}
	return false
}

// DocumentAttachment is a binary record owned by one service request.
// Content is nil in metadata-only reads. StorageKey is set when the payload
// lives in object storage instead of the database row.
type DocumentAttachment struct {
	ID         string
	RequestID  string
	Name       string
	MimeType   string
	SizeBytes  int64
	Checksum   string
	Category   DocumentCategory
	UploadedBy string
	StorageKey *string
	Content    []byte
	UploadedAt time.Time
}
