package main

import (
	"io"

	"github.com/Jacobbrewer1/discordgo"

	"github.com/gearsandcogs/tick/pkg/ticketing"
)

// discordSession adapts a live discord session to the narrow surface the
// ticket lifecycle is written against.
type discordSession struct {
	s *discordgo.Session
}

var _ ticketing.Session = (*discordSession)(nil)

func newDiscordSession(s *discordgo.Session) *discordSession {
	return &discordSession{
		s: s,
	}
}

func (d *discordSession) ChannelMessageSend(channelID, content string) (*discordgo.Message, error) {
	return d.s.ChannelMessageSend(channelID, content)
}

func (d *discordSession) ChannelMessageDelete(channelID, messageID string) error {
	return d.s.ChannelMessageDelete(channelID, messageID)
}

func (d *discordSession) ChannelMessagesBulkDelete(channelID string, messages []string) error {
	return d.s.ChannelMessagesBulkDelete(channelID, messages)
}

func (d *discordSession) MessageReactionAdd(channelID, messageID, emojiID string) error {
	return d.s.MessageReactionAdd(channelID, messageID, emojiID)
}

func (d *discordSession) MessageReactionRemove(channelID, messageID, emojiID, userID string) error {
	return d.s.MessageReactionRemove(channelID, messageID, emojiID, userID)
}

func (d *discordSession) GuildMember(guildID, userID string) (*discordgo.Member, error) {
	return d.s.GuildMember(guildID, userID)
}

func (d *discordSession) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	return d.s.GuildRoles(guildID)
}

func (d *discordSession) Channel(channelID string) (*discordgo.Channel, error) {
	return d.s.Channel(channelID)
}

func (d *discordSession) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string) ([]*discordgo.Message, error) {
	return d.s.ChannelMessages(channelID, limit, beforeID, afterID, aroundID)
}

func (d *discordSession) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	return d.s.GuildChannelCreateComplex(guildID, data)
}

func (d *discordSession) ChannelEditComplex(channelID string, data *discordgo.ChannelEdit) (*discordgo.Channel, error) {
	return d.s.ChannelEditComplex(channelID, data)
}

func (d *discordSession) ChannelDelete(channelID string) (*discordgo.Channel, error) {
	return d.s.ChannelDelete(channelID)
}

func (d *discordSession) ChannelMessagePin(channelID, messageID string) error {
	return d.s.ChannelMessagePin(channelID, messageID)
}

func (d *discordSession) MessageReactionsRemoveEmoji(channelID, messageID, emojiID string) error {
	return d.s.MessageReactionsRemoveEmoji(channelID, messageID, emojiID)
}

func (d *discordSession) UserChannelCreate(recipientID string) (*discordgo.Channel, error) {
	return d.s.UserChannelCreate(recipientID)
}

func (d *discordSession) ChannelFileSendWithMessage(channelID, content, name string, r io.Reader) (*discordgo.Message, error) {
	return d.s.ChannelFileSendWithMessage(channelID, content, name, r)
}
