package domain

import "time"

// Comment captures a message in a ticket thread. Internal comments are
// hidden from requesters.
type Comment struct {
	ID         string
	TicketID   string
	AuthorID   string
	IsInternal bool
	Content    string
	CreatedAt  time.Time
}
