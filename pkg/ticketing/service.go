// Package ticketing drives the ticket lifecycle: opening tickets from the
// pinned intake message, claiming and swapping responders, reviews, renames
// and the close flow with its transcript archive.
package ticketing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"

	"github.com/gearsandcogs/tick/pkg/dataaccess"
	"github.com/gearsandcogs/tick/pkg/dialog"
	"github.com/gearsandcogs/tick/pkg/entities"
	"github.com/gearsandcogs/tick/pkg/logging"
	"github.com/gearsandcogs/tick/pkg/messages"
	"github.com/gearsandcogs/tick/pkg/perms"
	"github.com/gearsandcogs/tick/pkg/vote"
)

// logTemplate formats the entries posted to the guild's log channel.
const logTemplate = "__Action__: %s\n__User__: %s\n%s"

// unknownChannelCode is the discord error code for a deleted channel.
const unknownChannelCode = 10003

// Session is the full platform surface the ticket lifecycle needs. A live
// discord session satisfies it through a thin adapter; tests use a fake.
type Session interface {
	dialog.Messenger

	// GuildMember gets a guild member, including their roles.
	GuildMember(guildID, userID string) (*discordgo.Member, error)

	// GuildRoles lists the roles of a guild.
	GuildRoles(guildID string) ([]*discordgo.Role, error)

	// Channel gets a channel.
	Channel(channelID string) (*discordgo.Channel, error)

	// ChannelMessages returns up to limit messages from a channel, scoped by
	// the before/after/around message IDs.
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string) ([]*discordgo.Message, error)

	// GuildChannelCreateComplex creates a channel with full creation data.
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error)

	// ChannelEditComplex edits a channel, including its overwrite map.
	ChannelEditComplex(channelID string, data *discordgo.ChannelEdit) (*discordgo.Channel, error)

	// ChannelDelete deletes a channel.
	ChannelDelete(channelID string) (*discordgo.Channel, error)

	// ChannelMessagePin pins a message in a channel.
	ChannelMessagePin(channelID, messageID string) error

	// MessageReactionsRemoveEmoji removes every reaction of one emoji from a
	// message.
	MessageReactionsRemoveEmoji(channelID, messageID, emojiID string) error

	// UserChannelCreate opens (or returns) the DM channel with a user.
	UserChannelCreate(recipientID string) (*discordgo.Channel, error)

	// ChannelFileSendWithMessage sends a file with an accompanying message.
	ChannelFileSendWithMessage(channelID, content, name string, r io.Reader) (*discordgo.Message, error)
}

// UserError is an error whose text is meant for the invoking user, rendered
// by the command controller as a short reply.
type UserError struct {
	msg string
}

// NewUserError creates a user facing error.
func NewUserError(msg string) *UserError {
	return &UserError{
		msg: msg,
	}
}

func (e *UserError) Error() string {
	return e.msg
}

// Service runs the ticket lifecycle state machine.
type Service struct {
	// l is the logger.
	l *slog.Logger

	// s is the platform session.
	s Session

	// asker runs the intake and confirmation dialogs.
	asker *dialog.Asker

	// matcher runs the responder matching rounds.
	matcher *vote.Matcher

	// guilds is the guild configuration store.
	guilds dataaccess.GuildConfigDal

	// configs is the ticket flow configuration store.
	configs dataaccess.TicketConfigDal

	// tickets is the ticket store.
	tickets dataaccess.TicketDal

	// botID is the bot's own user ID.
	botID string

	// prefix is the command prefix, used in the directions pin.
	prefix string

	// supervisorRole is the name of the supervisory role, if any.
	supervisorRole string

	// responseTimeout bounds each dialog and confirmation wait.
	responseTimeout time.Duration

	// matchTimeout bounds each responder matching round.
	matchTimeout time.Duration
}

// NewService creates the ticket lifecycle service.
func NewService(
	l *slog.Logger,
	s Session,
	stream dialog.Stream,
	guilds dataaccess.GuildConfigDal,
	configs dataaccess.TicketConfigDal,
	tickets dataaccess.TicketDal,
	botID, prefix, supervisorRole string,
	responseTimeout, matchTimeout time.Duration,
) *Service {
	return &Service{
		l:               l,
		s:               s,
		asker:           dialog.NewAsker(l, s, stream, botID),
		matcher:         vote.NewMatcher(l, s, stream, botID),
		guilds:          guilds,
		configs:         configs,
		tickets:         tickets,
		botID:           botID,
		prefix:          prefix,
		supervisorRole:  supervisorRole,
		responseTimeout: responseTimeout,
		matchTimeout:    matchTimeout,
	}
}

// ResolveTicket finds the open ticket backed by a channel along with its flow
// configuration. Commands issued outside ticket channels get a user error.
func (s *Service) ResolveTicket(ctx context.Context, guildID, channelID string) (*entities.Ticket, *entities.TicketConfig, error) {
	ticket, err := s.tickets.GetTicketByChannel(ctx, guildID, channelID)
	if errors.Is(err, dataaccess.ErrNotFound) || errors.Is(err, dataaccess.ErrMultipleFound) {
		return nil, nil, NewUserError(messages.ErrNotTicketChannel)
	} else if err != nil {
		return nil, nil, fmt.Errorf("resolving ticket for channel: %w", err)
	}

	cfg, err := s.configs.GetTicketConfigByID(ctx, ticket.ConfigID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving ticket flow: %w", err)
	}
	return ticket, cfg, nil
}

// logAction posts an action entry to the guild's log channel, if configured.
func (s *Service) logAction(gc *entities.GuildConfig, action, user, msg string) {
	if gc == nil || gc.LogChannelID == "" {
		return
	}
	if _, err := s.s.ChannelMessageSend(gc.LogChannelID, fmt.Sprintf(logTemplate, action, user, msg)); err != nil {
		s.l.Warn("Error posting to log channel",
			slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyChannel, gc.LogChannelID))
	}
}

// supervisorRoleID resolves the configured supervisor role name to its ID in
// a guild. Returns empty when unset or not found.
func (s *Service) supervisorRoleID(guildID string) string {
	if s.supervisorRole == "" {
		return ""
	}

	roles, err := s.s.GuildRoles(guildID)
	if err != nil {
		s.l.Warn("Error listing guild roles",
			slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyGuild, guildID))
		return ""
	}

	for _, role := range roles {
		if strings.EqualFold(role.Name, s.supervisorRole) {
			return role.ID
		}
	}
	return ""
}

// principals builds the overwrite principals for a ticket.
func (s *Service) principals(cfg *entities.TicketConfig, ticket *entities.Ticket) perms.Principals {
	return perms.Principals{
		GuildID:        ticket.GuildID,
		BotID:          s.botID,
		RequesterID:    ticket.UserID,
		ResponderID:    ticket.ResponderID,
		RoleIDs:        cfg.RoleIDs(),
		OverseerRoleID: s.supervisorRoleID(ticket.GuildID),
	}
}

// declineFor derives who may decline a matching round from the flow policy.
func (s *Service) declineFor(cfg *entities.TicketConfig, requesterID, overseerRoleID string) (users, roles []string) {
	switch cfg.DeclinePolicy {
	case entities.DeclineRequester:
		users = []string{requesterID}
	case entities.DeclineSupervisor:
		if overseerRoleID != "" {
			roles = []string{overseerRoleID}
		}
	default:
		users = []string{requesterID}
		if overseerRoleID != "" {
			roles = []string{overseerRoleID}
		}
	}
	return users, roles
}

// applyOverwrites replaces the channel's overwrite map wholesale.
func (s *Service) applyOverwrites(channelID string, overwrites []*discordgo.PermissionOverwrite) error {
	if _, err := s.s.ChannelEditComplex(channelID, &discordgo.ChannelEdit{
		PermissionOverwrites: overwrites,
	}); err != nil {
		return fmt.Errorf("applying channel overwrites: %w", err)
	}
	return nil
}

// jumpLink builds the message link other transitions point responders at.
func (s *Service) jumpLink(ticket *entities.Ticket) string {
	if ticket.JumpMessageID == "" {
		return "No jump set."
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", ticket.GuildID, ticket.ChannelID, ticket.JumpMessageID)
}

// roleMentions renders the flow's responder roles as mentions.
func roleMentions(cfg *entities.TicketConfig) string {
	mentions := make([]string, 0, len(cfg.Roles))
	for _, r := range cfg.Roles {
		mentions = append(mentions, fmt.Sprintf("<@&%s>", r.RoleID))
	}
	return strings.Join(mentions, " ")
}

// isForbidden reports whether err is the platform refusing the request, which
// for direct messages means the recipient disallows DMs.
func isForbidden(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden
}

// isUnknownChannel reports whether err means the channel no longer exists.
func isUnknownChannel(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == unknownChannelCode {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
