package entities

import (
	"fmt"

	"github.com/gearsandcogs/tick/pkg/custom"
)

// TicketState is the lifecycle state of a ticket.
type TicketState string

const (
	// StatePending is a ticket whose intake is complete but which has no
	// responder yet. The row is persisted before matching so that collected
	// answers survive a matching timeout.
	StatePending TicketState = "pending"

	// StateClaimed is a ticket with an assigned responder.
	StateClaimed TicketState = "claimed"

	// StateUnclaimed is a ticket whose responder stepped away and which is
	// awaiting a new match.
	StateUnclaimed TicketState = "unclaimed"

	// StateReview is a ticket seeking a reviewer.
	StateReview TicketState = "review"

	// StateReviewed is a ticket that has been reviewed.
	StateReviewed TicketState = "reviewed"
)

// Ticket is one active support session. Closed tickets are deleted, so every
// row here is an open ticket and its channel ID is unique.
type Ticket struct {
	// ID is the unique ID of the ticket.
	ID string `json:"id" bson:"id"`

	// Number is the per guild sequence number of the ticket.
	// It is combined with the flow prefix and username for the channel name.
	Number int `json:"number" bson:"number"`

	// GuildID is the ID of the guild that the ticket is in.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// ConfigID is the ID of the flow that the ticket belongs to.
	ConfigID string `json:"config_id" bson:"config_id"`

	// ChannelID is the ID of the backing channel. Unique while the ticket is open.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// UserID is the ID of the user that requested the ticket.
	UserID string `json:"user_id" bson:"user_id"`

	// Username is the username of the requester at creation time.
	Username string `json:"username" bson:"username"`

	// ResponderID is the ID of the responder. Empty until claimed.
	ResponderID string `json:"responder_id" bson:"responder_id"`

	// JumpMessageID is the ID of the pinned first question, used as the jump
	// point by unclaim and review notices.
	JumpMessageID string `json:"jump_message_id" bson:"jump_message_id"`

	// State is the lifecycle state.
	State TicketState `json:"state" bson:"state"`

	// Practice is whether this is a practice ticket.
	Practice bool `json:"practice" bson:"practice"`

	// Answers are the intake answers, in question order.
	Answers []TicketAnswer `json:"answers" bson:"answers"`

	// CreatedAt is the time that the ticket was created.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`

	// UpdatedAt is the time of the last transition.
	UpdatedAt custom.Datetime `json:"updated_at" bson:"updated_at"`
}

// TicketAnswer is one intake answer.
type TicketAnswer struct {
	// Num is the 1-based question number answered.
	Num int `json:"num" bson:"num"`

	// Text is the answer text.
	Text string `json:"text" bson:"text"`
}

// ChannelName builds the display name of the backing channel from the flow
// prefix. Usernames are truncated to five characters as in "help-12-gears".
func (t *Ticket) ChannelName(prefix string) string {
	return fmt.Sprintf("%s-%d-%.5s", prefix, t.Number, t.Username)
}
