package main

import (
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/discordgo"

	"github.com/gearsandcogs/tick/cmd/bot/config"
	"github.com/gearsandcogs/tick/pkg/logging"
)

// logErr wraps an error for structured logging.
func logErr(err error) slog.Attr {
	return slog.String(logging.KeyError, err.Error())
}

// reply sends a plain message, logging delivery failures instead of
// propagating them.
func reply(a IApp, channelID, content string) {
	if _, err := a.Session().ChannelMessageSend(channelID, content); err != nil {
		a.Log().Error("Error sending reply",
			slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyChannel, channelID))
	}
}

// isSupervisor reports whether the message author holds the supervisory role.
func isSupervisor(a IApp, m *discordgo.MessageCreate) bool {
	if m.Member == nil || config.SupervisorRole == "" {
		return false
	}

	roles, err := a.Session().GuildRoles(m.GuildID)
	if err != nil {
		a.Log().Warn("Error listing guild roles",
			slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyGuild, m.GuildID))
		return false
	}

	var supervisorID string
	for _, role := range roles {
		if strings.EqualFold(role.Name, config.SupervisorRole) {
			supervisorID = role.ID
			break
		}
	}
	if supervisorID == "" {
		return false
	}

	for _, id := range m.Member.Roles {
		if id == supervisorID {
			return true
		}
	}
	return false
}

// parseChannelID extracts a channel ID from a channel mention, or returns the
// argument unchanged if it is already a bare ID.
func parseChannelID(arg string) string {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "<#") && strings.HasSuffix(arg, ">") {
		return arg[2 : len(arg)-1]
	}
	return arg
}
