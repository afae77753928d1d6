package domain

import "time"

// AuditAction captures what kind of change an audit entry documents.
type AuditAction string

const (
	AuditActionCreated       AuditAction = "CREATED"
	AuditActionStatusChanged AuditAction = "STATUS_CHANGED"
	AuditActionAssigned      AuditAction = "ASSIGNED"
	AuditActionCommented     AuditAction = "COMMENTED"
	AuditActionUpdated       AuditAction = "UPDATED"
)

// AuditLogEntry is an immutable audit trail entry. OldValue and NewValue
// hold JSON snapshots.
type AuditLogEntry struct {
	ID          string
	TicketID    string
	ActorID     string
	Action      AuditAction
	Description string
	OldValue    *string
	NewValue    *string
	CreatedAt   time.Time
}

// Ticket field names as they appear in change sets and audit entries.
const (
	FieldTitle             = "title"
	FieldDescription       = "description"
	FieldStatus            = "status"
	FieldPriority          = "priority"
	FieldAgentID           = "agentId"
	FieldCustomFieldValues = "customFieldValues"
)

// FieldChange is one accepted field mutation.
type FieldChange struct {
	Field string
	Old   any
	New   any
}
