package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Jacobbrewer1/discordgo"

	"github.com/gearsandcogs/tick/cmd/bot/config"
)

// appVersion is stamped into the status reply.
const appVersion = "1.0.0"

func statusController(_ context.Context, a IApp, m *discordgo.MessageCreate, _ []string) error {
	content := fmt.Sprintf("**%s**\nVersion: %s\nUptime: %s",
		config.AppName, appVersion, a.Uptime().Round(time.Second))
	reply(a, m.ChannelID, content)
	return nil
}

func helpController(_ context.Context, a IApp, m *discordgo.MessageCreate, _ []string) error {
	p := config.CommandPrefix
	content := fmt.Sprintf(`**Commands**
%[1]sadmin setup - configure the log, intake and category channels (supervisor)
%[1]sadmin pin - create or replace the pinned intake message (supervisor)
%[1]sadmin ticket_setup <name> - create or edit a ticket flow (supervisor)
%[1]sadmin questions <name> - review and edit a flow's intake questions (supervisor)
%[1]sadmin ticket_remove <name> - remove a ticket flow (supervisor)
%[1]sadmin summary - show the guild's ticket configuration (supervisor)
%[1]sticket close [reason] - close the current ticket
%[1]sticket unclaim - hand the current ticket back to the responder pool
%[1]sticket review - request a review of the current ticket
%[1]sticket rename <name> - rename the current ticket channel
%[1]sstatus - bot status
%[1]shelp - this overview`, p)
	reply(a, m.ChannelID, content)
	return nil
}
