package dialog

import (
	"github.com/Jacobbrewer1/discordgo"
)

// MessageFilter scopes a message wait. Zero fields are wildcards.
type MessageFilter struct {
	// ChannelID is the channel the message must be sent in.
	ChannelID string

	// AuthorID is the user the message must be sent by.
	AuthorID string
}

// Matches reports whether a message qualifies for the wait.
func (f MessageFilter) Matches(m *discordgo.Message) bool {
	if m == nil || m.Author == nil {
		return false
	}
	if f.ChannelID != "" && m.ChannelID != f.ChannelID {
		return false
	}
	if f.AuthorID != "" && m.Author.ID != f.AuthorID {
		return false
	}
	return true
}

// ReactionFilter scopes a reaction wait. Zero fields are wildcards.
type ReactionFilter struct {
	// ChannelID is the channel the reaction must be made in.
	ChannelID string

	// MessageID is the message the reaction must be made on.
	MessageID string

	// UserID is the user the reaction must be made by.
	UserID string

	// Emoji is the emoji name the reaction must carry.
	Emoji string
}

// Matches reports whether a reaction qualifies for the wait.
func (f ReactionFilter) Matches(r *discordgo.MessageReaction) bool {
	if r == nil {
		return false
	}
	if f.ChannelID != "" && r.ChannelID != f.ChannelID {
		return false
	}
	if f.MessageID != "" && r.MessageID != f.MessageID {
		return false
	}
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	if f.Emoji != "" && r.Emoji.APIName() != f.Emoji {
		return false
	}
	return true
}
