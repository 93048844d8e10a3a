package models

import "time"

type AuditAction string

const (
	ActionEdited          AuditAction = "edited"
	ActionEditedByAdmin   AuditAction = "edited_by_admin"
	ActionCancelled       AuditAction = "cancelled"
	ActionRestored        AuditAction = "restored"
	ActionFeedbackUpdated AuditAction = "feedback_updated"
)

// AuditEntry is one element of a transaction's append-only history.
type AuditEntry struct {
	By     Actor          `json:"by"`
	Role   Role           `json:"role"`
	When   time.Time      `json:"when"`
	Action AuditAction    `json:"action"`
	Before map[string]any `json:"before"`
	After  map[string]any `json:"after"`
}

func NewAuditEntry(by Actor, action AuditAction, when time.Time, before, after map[string]any) AuditEntry {
	return AuditEntry{
		By:     by,
		Role:   by.Role,
		When:   when,
		Action: action,
		Before: before,
		After:  after,
	}
}
