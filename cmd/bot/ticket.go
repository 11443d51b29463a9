package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/discordgo"

	"github.com/gearsandcogs/tick/pkg/dataaccess"
	"github.com/gearsandcogs/tick/pkg/entities"
	"github.com/gearsandcogs/tick/pkg/messages"
)

// ticketController handles the in-ticket subcommands. The ticket is resolved
// from the channel the command was issued in.
func ticketController(ctx context.Context, a IApp, m *discordgo.MessageCreate, args []string) error {
	if m.GuildID == "" {
		reply(a, m.ChannelID, messages.ErrNotTicketChannel)
		return nil
	}
	if len(args) == 0 {
		reply(a, m.ChannelID, messages.ErrInvalidSubcommand)
		return nil
	}

	svc := a.TicketService()
	ticket, cfg, err := svc.ResolveTicket(ctx, m.GuildID, m.ChannelID)
	if err != nil {
		return err
	}

	gc, err := a.GuildConfigs().GetGuildConfig(ctx, m.GuildID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		gc = &entities.GuildConfig{ID: m.GuildID}
	} else if err != nil {
		return fmt.Errorf("getting guild config: %w", err)
	}

	switch strings.ToLower(args[0]) {
	case "close":
		return svc.Close(ctx, gc, cfg, ticket, m.Author.ID, strings.Join(args[1:], " "), false)
	case "unclaim":
		return svc.Unclaim(ctx, gc, cfg, ticket, m.Author.Username)
	case "review":
		return svc.Review(ctx, gc, cfg, ticket, m.Author.Username)
	case "rename":
		name := strings.Join(args[1:], " ")
		if name == "" {
			reply(a, m.ChannelID, "Please give the new name, e.g. `rename billing question`.")
			return nil
		}
		return svc.Rename(ctx, cfg, ticket, name)
	default:
		reply(a, m.ChannelID, messages.ErrInvalidSubcommand)
		return nil
	}
}
