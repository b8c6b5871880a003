package dto

import "github.com/noah-isme/erp-api/internal/models"

// NotificationSettingInput is one toggle in a settings update.
type NotificationSettingInput struct {
	DocumentType string `json:"document_type,omitempty"`
	Channel      string `json:"channel,omitempty"`
	Enabled      *bool  `json:"enabled,omitempty"`
}

// UpdateNotificationSettingsRequest is the body of PUT /notification-settings.
type UpdateNotificationSettingsRequest struct {
	Settings []NotificationSettingInput `json:"settings"`
}

// NotificationMatrix lists every document type with its channel toggles.
type NotificationMatrix struct {
	UserID string                  `json:"user_id"`
	Rows   []NotificationMatrixRow `json:"rows"`
}

// NotificationMatrixRow holds the channel toggles of one document type.
type NotificationMatrixRow struct {
	DocumentType models.DocumentType     `json:"document_type"`
	Label        string                  `json:"label"`
	Channels     map[models.Channel]bool `json:"channels"`
}

// Enabled reports the toggle for one cell.
func (m NotificationMatrix) Enabled(docType models.DocumentType, channel models.Channel) bool {
	for _, row := range m.Rows {
		if row.DocumentType == docType {
			return row.Channels[channel]
		}
	}
	return channel.DefaultEnabled()
}
