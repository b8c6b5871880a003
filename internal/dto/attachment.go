package dto

import "github.com/noah-isme/erp-api/internal/models"

// AttachmentResponse enriches metadata with a signed download URL.
type AttachmentResponse struct {
	models.Attachment
	DownloadURL string `json:"download_url"`
}
