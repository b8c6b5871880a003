package models

import "time"

// Channel is a notification delivery channel.
type Channel string

const (
	ChannelSystem Channel = "system"
	ChannelEmail  Channel = "email"
	ChannelSMS    Channel = "sms"
)

// Channels lists every delivery channel.
func Channels() []Channel {
	return []Channel{ChannelSystem, ChannelEmail, ChannelSMS}
}

// ChannelValues returns the channels as strings.
func ChannelValues() []string {
	return []string{string(ChannelSystem), string(ChannelEmail), string(ChannelSMS)}
}

// DefaultEnabled is the toggle used when a user has no stored setting.
func (c Channel) DefaultEnabled() bool {
	return c == ChannelSystem
}

// NotificationSetting is one cell of the user × document type × channel matrix.
type NotificationSetting struct {
	UserID       string       `db:"user_id" json:"-"`
	DocumentType DocumentType `db:"document_type" json:"document_type"`
	Channel      Channel      `db:"channel" json:"channel"`
	Enabled      bool         `db:"enabled" json:"enabled"`
}

// Notification is an entry of the in-app (system channel) inbox.
type Notification struct {
	ID           string       `db:"id" json:"id"`
	UserID       string       `db:"user_id" json:"user_id"`
	DocumentType DocumentType `db:"document_type" json:"document_type"`
	DocumentID   string       `db:"document_id" json:"document_id"`
	Title        string       `db:"title" json:"title"`
	Body         string       `db:"body" json:"body"`
	ReadAt       *time.Time   `db:"read_at" json:"read_at,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// NotificationFilter narrows inbox listings.
type NotificationFilter struct {
	UnreadOnly bool
	Page       int
	PageSize   int
}

// NotificationEvent is the payload dispatched to every enabled channel.
type NotificationEvent struct {
	Kind         string         `json:"kind"`
	RecipientID  string         `json:"recipient_id"`
	ActorID      string         `json:"actor_id,omitempty"`
	DocumentType DocumentType   `json:"document_type"`
	DocumentID   string         `json:"document_id"`
	DocumentNo   string         `json:"document_number,omitempty"`
	Status       ApprovalStatus `json:"status,omitempty"`
	Title        string         `json:"title"`
	Body         string         `json:"body"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

// Notification event kinds.
const (
	NotificationKindApproval = "approval"
	NotificationKindReminder = "reminder"
)
