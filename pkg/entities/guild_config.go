package entities

// GuildConfig is the ticketing configuration for a guild. There is at most
// one per guild ID.
type GuildConfig struct {
	// ID is the ID of the guild.
	ID string `json:"id" bson:"id"`

	// CategoryChannelID is the ID of the category that ticket channels are created under.
	CategoryChannelID string `json:"category_channel_id" bson:"category_channel_id"`

	// LogChannelID is the ID of the channel that ticket logs are sent to.
	LogChannelID string `json:"log_channel_id" bson:"log_channel_id"`

	// TicketChannelID is the ID of the channel that tickets are started from.
	TicketChannelID string `json:"ticket_channel_id" bson:"ticket_channel_id"`

	// PinnedMessageID is the ID of the pinned message that starts tickets.
	PinnedMessageID string `json:"pinned_message_id" bson:"pinned_message_id"`
}

// Configured reports whether the guild has the channels required to run
// tickets.
func (g *GuildConfig) Configured() bool {
	return g.CategoryChannelID != "" && g.TicketChannelID != ""
}
