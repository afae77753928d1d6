package lifecycle

import "github.com/spec-kit/helpdesk-sla/internal/domain"

// RecordFirstResponse stamps FirstResponseAt from the comment when the
// ticket has not been answered yet and the author is not a requester.
// Internal comments count. It reports whether the ticket changed.
func RecordFirstResponse(ticket *domain.Ticket, comment *domain.Comment, authorRole domain.UserRole) bool {
	if ticket.FirstResponseAt != nil || authorRole == domain.UserRoleRequester {
		return false
	}
	at := comment.CreatedAt
	ticket.FirstResponseAt = &at
	return true
}
