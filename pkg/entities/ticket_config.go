package entities

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// MaxQuestionLen is the maximum length of a question or an answer, in runes.
const MaxQuestionLen = 500

// ErrTextEmpty is returned when a question or answer is empty.
var ErrTextEmpty = errors.New("text must not be empty")

// ErrTextTooLong is returned when a question or answer exceeds MaxQuestionLen.
var ErrTextTooLong = fmt.Errorf("text must be at most %d characters", MaxQuestionLen)

// DeclinePolicy controls who may decline a responder matching request.
type DeclinePolicy string

const (
	// DeclineRequester restricts declining to the ticket requester.
	DeclineRequester DeclinePolicy = "requester"

	// DeclineSupervisor restricts declining to the supervisory role.
	DeclineSupervisor DeclinePolicy = "supervisor"

	// DeclineBoth allows both the requester and the supervisory role.
	DeclineBoth DeclinePolicy = "both"
)

// TicketConfig is a named ticket flow for a guild. The (guild, name),
// (guild, emoji) and (guild, prefix) pairs are each unique.
type TicketConfig struct {
	// ID is the unique ID of the flow.
	ID string `json:"id" bson:"id"`

	// GuildID is the ID of the guild that owns the flow.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// Name is the name of the flow.
	Name string `json:"name" bson:"name"`

	// Prefix is the channel name prefix for tickets of this flow.
	Prefix string `json:"prefix" bson:"prefix"`

	// EmojiID is the ID of the emoji that triggers this flow on the pin.
	EmojiID string `json:"emoji_id" bson:"emoji_id"`

	// MonitorActivity is whether inactive tickets of this flow are auto closed.
	MonitorActivity bool `json:"monitor_activity" bson:"monitor_activity"`

	// TimeoutSeconds is the inactivity threshold for this flow.
	TimeoutSeconds int `json:"timeout_seconds" bson:"timeout_seconds"`

	// Practice is whether tickets of this flow are practice tickets.
	Practice bool `json:"practice" bson:"practice"`

	// DeclinePolicy is who may decline matching requests for this flow.
	DeclinePolicy DeclinePolicy `json:"decline_policy" bson:"decline_policy"`

	// Questions are the intake questions, in order.
	Questions []Question `json:"questions" bson:"questions"`

	// Roles are the roles eligible to respond to tickets of this flow.
	Roles []ResponderRole `json:"roles" bson:"roles"`
}

// Question is one intake question of a flow.
type Question struct {
	// Num is the 1-based position of the question.
	Num int `json:"num" bson:"num"`

	// Text is the question text.
	Text string `json:"text" bson:"text"`
}

// ResponderRole is one role eligible to respond to a flow's tickets.
type ResponderRole struct {
	// RoleID is the ID of the role.
	RoleID string `json:"role_id" bson:"role_id"`

	// RoleText is the display name of the role at configuration time.
	RoleText string `json:"role_text" bson:"role_text"`
}

// Configured reports whether the flow is complete enough to start tickets.
func (c *TicketConfig) Configured() bool {
	return c.Name != "" && c.Prefix != "" && c.EmojiID != ""
}

// RoleIDs returns the IDs of the responder roles.
func (c *TicketConfig) RoleIDs() []string {
	ids := make([]string, 0, len(c.Roles))
	for _, r := range c.Roles {
		ids = append(ids, r.RoleID)
	}
	return ids
}

// Renumber rewrites the question numbers to match their order.
func (c *TicketConfig) Renumber() {
	for i := range c.Questions {
		c.Questions[i].Num = i + 1
	}
}

// ValidateText validates a question or answer at write time.
func ValidateText(text string) error {
	if text == "" {
		return ErrTextEmpty
	}
	if utf8.RuneCountInString(text) > MaxQuestionLen {
		return ErrTextTooLong
	}
	return nil
}
