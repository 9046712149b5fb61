package models

import (
	"time"
)

// Status represents the handling state of a reply record
type Status string

const (
	// StatusUnread indicates a new email waiting for a reply
	StatusUnread Status = "unread"
	// StatusNoReply indicates an automated sender that never gets a reply
	StatusNoReply Status = "no-reply"
	// StatusDraft indicates a reply draft exists at the provider
	StatusDraft Status = "draft"
	// StatusSent indicates the reply has been sent
	StatusSent Status = "sent"
)

// IsValid checks if the status is one of the known states
func (s Status) IsValid() bool {
	switch s {
	case StatusUnread, StatusNoReply, StatusDraft, StatusSent:
		return true
	}
	return false
}

// IsTerminal reports whether the record can never transition again
func (s Status) IsTerminal() bool {
	return s == StatusSent || s == StatusNoReply
}

// CanTransitionTo reports whether the forward-only transition s -> next is allowed.
// Allowed: unread -> draft, unread -> sent, draft -> sent. no-reply and sent
// are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	switch s {
	case StatusUnread:
		return next == StatusDraft || next == StatusSent
	case StatusDraft:
		return next == StatusSent
	}
	return false
}

// ReplyRecord represents one inbound email and its reply lifecycle state
type ReplyRecord struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	MessageID    string     `gorm:"uniqueIndex;size:255;not null" json:"message_id"`
	Sender       string     `gorm:"size:255;not null" json:"sender"`
	Contact      string     `gorm:"size:255" json:"contact"` // Reply-To address when present
	Subject      string     `gorm:"size:500" json:"subject"`
	EmailDate    time.Time  `gorm:"index" json:"email_date"`
	OriginalBody string     `gorm:"type:text" json:"original_body"`
	Reply        string     `gorm:"type:text" json:"reply,omitempty"`
	ReplyDate    *time.Time `json:"reply_date,omitempty"`
	Status       Status     `gorm:"size:20;index;default:'unread'" json:"status"`
	DraftID      string     `gorm:"size:255" json:"draft_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName overrides the table name to match the original schema
func (ReplyRecord) TableName() string {
	return "reply_records"
}
