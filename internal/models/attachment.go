package models

import "time"

// AttachmentKind groups uploads by size ceiling and MIME allow-list.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentDocument AttachmentKind = "document"
	AttachmentVideo    AttachmentKind = "video"
)

// AttachmentKinds lists the accepted upload kinds.
func AttachmentKinds() []string {
	return []string{string(AttachmentImage), string(AttachmentDocument), string(AttachmentVideo)}
}

// Attachment is file metadata linked to a document.
type Attachment struct {
	ID           string         `db:"id" json:"id"`
	DocumentType DocumentType   `db:"document_type" json:"document_type"`
	DocumentID   string         `db:"document_id" json:"document_id"`
	Kind         AttachmentKind `db:"kind" json:"kind"`
	OriginalName string         `db:"original_name" json:"original_name"`
	FilePath     string         `db:"file_path" json:"-"`
	MimeType     string         `db:"mime_type" json:"mime_type"`
	SizeBytes    int64          `db:"size_bytes" json:"size_bytes"`
	UploadedBy   string         `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	DeletedAt    *time.Time     `db:"deleted_at" json:"-"`
}
