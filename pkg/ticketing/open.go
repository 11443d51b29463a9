package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/google/uuid"

	"github.com/gearsandcogs/tick/pkg/custom"
	"github.com/gearsandcogs/tick/pkg/dataaccess"
	"github.com/gearsandcogs/tick/pkg/dialog"
	"github.com/gearsandcogs/tick/pkg/entities"
	"github.com/gearsandcogs/tick/pkg/logging"
	"github.com/gearsandcogs/tick/pkg/messages"
	"github.com/gearsandcogs/tick/pkg/perms"
	"github.com/gearsandcogs/tick/pkg/ticketing/monitoring"
	"github.com/gearsandcogs/tick/pkg/vote"
)

const ticketDirections = `Hello, this is a private ticket. It operates as follows:

    You, staff and responders for this type of ticket can see the contents. The contents are NOT public.
    When you finish answering questions a ping will be made to responders.
    Responders will read the answers and one will claim it.
    When a responder claims the ticket, only you, the responder and staff can see ticket.
    Access to other responders will be removed until you **unclaim** it or request **review**.

To close this ticket: %[1]sticket close
To get a new supporter: %[1]sticket unclaim
To get a reviewer: %[1]sticket review`

const ticketUnclaimed = `This ticket is now unclaimed.
Please read the questions and answers, to the first question: %s
To claim it, please click the reaction.

%s`

const responderWelcome = "Hope your new responder <@%s> can help. Take care!"

// HandlePinReaction inspects a reaction added somewhere in a guild and opens
// a ticket when it is a flow's trigger emoji on the configured pinned intake
// message. Reactions anywhere else are ignored; foreign emojis on the pin are
// cleared to keep its affordances clean.
func (s *Service) HandlePinReaction(ctx context.Context, r *discordgo.MessageReactionAdd) error {
	if r.UserID == s.botID || r.GuildID == "" {
		return nil
	}

	gc, err := s.guilds.GetGuildConfig(ctx, r.GuildID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil
	} else if err != nil {
		return fmt.Errorf("getting guild config: %w", err)
	}
	if !gc.Configured() || gc.PinnedMessageID == "" || r.MessageID != gc.PinnedMessageID {
		return nil
	}

	// The pin keeps exactly one bot reaction per flow; the user's gesture is
	// always reverted.
	if err := s.s.MessageReactionRemove(r.ChannelID, r.MessageID, r.Emoji.APIName(), r.UserID); err != nil {
		s.l.Warn("Error removing pin reaction", slog.String(logging.KeyError, err.Error()))
	}

	emojiID := r.Emoji.ID
	if emojiID == "" {
		emojiID = r.Emoji.APIName()
	}
	cfg, err := s.configs.GetTicketConfigByEmoji(ctx, r.GuildID, emojiID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		if err := s.s.MessageReactionsRemoveEmoji(r.ChannelID, r.MessageID, r.Emoji.APIName()); err != nil {
			s.l.Warn("Error clearing foreign pin reaction", slog.String(logging.KeyError, err.Error()))
		}
		return nil
	} else if err != nil {
		return fmt.Errorf("getting ticket flow by emoji: %w", err)
	}

	member, err := s.s.GuildMember(r.GuildID, r.UserID)
	if err != nil {
		return fmt.Errorf("getting requesting member: %w", err)
	}

	return s.Open(ctx, gc, cfg, member)
}

// Open runs the full intake for one ticket: backing channel, directions pin,
// question dialog, persisted pending row, then a responder matching round.
// The row is persisted before matching so collected answers survive a
// matching timeout; the ticket is then left pending for a later unclaim.
func (s *Service) Open(ctx context.Context, gc *entities.GuildConfig, cfg *entities.TicketConfig, member *discordgo.Member) error {
	number := 1
	latest, err := s.tickets.GetLatestTicket(ctx, cfg.GuildID)
	if err == nil {
		number = latest.Number + 1
	} else if !errors.Is(err, dataaccess.ErrNotFound) {
		return fmt.Errorf("getting latest ticket: %w", err)
	}

	now := custom.Now()
	ticket := &entities.Ticket{
		ID:        uuid.New().String(),
		Number:    number,
		GuildID:   cfg.GuildID,
		ConfigID:  cfg.ID,
		UserID:    member.User.ID,
		Username:  member.User.Username,
		State:     entities.StatePending,
		Practice:  cfg.Practice,
		CreatedAt: now,
		UpdatedAt: now,
	}

	p := s.principals(cfg, ticket)
	ch, err := s.s.GuildChannelCreateComplex(cfg.GuildID, discordgo.GuildChannelCreateData{
		Name:                 ticket.ChannelName(cfg.Prefix),
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             gc.CategoryChannelID,
		PermissionOverwrites: perms.Created(p),
	})
	if err != nil {
		return fmt.Errorf("creating ticket channel: %w", err)
	}
	ticket.ChannelID = ch.ID
	monitoring.TotalTicketsOpened.WithLabelValues(cfg.Name).Inc()

	s.l.Info("Ticket channel created",
		slog.String(logging.KeyGuild, ticket.GuildID),
		slog.String(logging.KeyChannel, ticket.ChannelID),
		slog.String(logging.KeyUser, ticket.UserID))
	s.logAction(gc, "Ticket Created", ticket.Username, fmt.Sprintf("%s ticket created.", cfg.Name))

	directions, err := s.s.ChannelMessageSend(ch.ID, fmt.Sprintf(ticketDirections, s.prefix))
	if err != nil {
		s.discardChannel(ch.ID)
		return fmt.Errorf("posting ticket directions: %w", err)
	}
	if err := s.s.ChannelMessagePin(ch.ID, directions.ID); err != nil {
		s.l.Warn("Error pinning ticket directions", slog.String(logging.KeyError, err.Error()))
	}

	answers, outcome := s.intake(ctx, cfg, ticket)
	switch outcome {
	case dialog.OutcomeCancelled:
		return s.abandon(gc, cfg, ticket, messages.DialogCancelled)
	case dialog.OutcomeTimedOut:
		return s.abandon(gc, cfg, ticket, messages.DialogTimedOut)
	}
	ticket.Answers = answers

	// Answer summary doubles as the jump point responders read from.
	summary, err := s.s.ChannelMessageSend(ch.ID, answerSummary(cfg, ticket))
	if err != nil {
		s.discardChannel(ch.ID)
		return fmt.Errorf("posting answer summary: %w", err)
	}
	if err := s.s.ChannelMessagePin(ch.ID, summary.ID); err != nil {
		s.l.Warn("Error pinning answer summary", slog.String(logging.KeyError, err.Error()))
	}
	ticket.JumpMessageID = summary.ID

	// Durability boundary: the pending row commits before anyone can claim.
	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		s.discardChannel(ch.ID)
		return fmt.Errorf("saving pending ticket: %w", err)
	}

	return s.match(ctx, gc, cfg, ticket, matchRound{
		prompt:   fmt.Sprintf(ticketUnclaimed, s.jumpLink(ticket), roleMentions(cfg)),
		excluded: []string{ticket.UserID},
		action:   "Ticket Taken",
		actor:    ticket.Username,
	})
}

// intake asks the flow's questions in order. The first non-completed outcome
// ends the dialog; answers collected so far are discarded by the caller.
func (s *Service) intake(ctx context.Context, cfg *entities.TicketConfig, ticket *entities.Ticket) ([]entities.TicketAnswer, dialog.Outcome) {
	filter := dialog.MessageFilter{
		ChannelID: ticket.ChannelID,
		AuthorID:  ticket.UserID,
	}

	answers := make([]entities.TicketAnswer, 0, len(cfg.Questions))
	for i, q := range cfg.Questions {
		prompt := fmt.Sprintf("Question %d of %d:\n\n%s", i+1, len(cfg.Questions), q.Text)
		res := s.asker.Ask(ctx, filter, prompt, entities.ValidateText, s.responseTimeout)
		if !res.Completed() {
			return nil, res.Outcome
		}
		answers = append(answers, entities.TicketAnswer{Num: q.Num, Text: res.Value})
	}
	return answers, dialog.OutcomeCompleted
}

// abandon tears the ticket channel down after a failed intake. No row exists
// yet at this point, so there is nothing to roll back in the store.
func (s *Service) abandon(gc *entities.GuildConfig, cfg *entities.TicketConfig, ticket *entities.Ticket, notice string) error {
	if gc.TicketChannelID != "" {
		if _, err := s.s.ChannelMessageSend(gc.TicketChannelID, fmt.Sprintf("<@%s> %s", ticket.UserID, notice)); err != nil {
			s.l.Warn("Error notifying requester", slog.String(logging.KeyError, err.Error()))
		}
	}
	s.logAction(gc, "Ticket Aborted", ticket.Username, fmt.Sprintf("%s ticket abandoned during intake.", cfg.Name))

	if _, err := s.s.ChannelDelete(ticket.ChannelID); err != nil {
		return fmt.Errorf("removing abandoned ticket channel: %w", err)
	}
	return nil
}

// discardChannel removes a ticket channel that has no row yet. The watchdog
// only reconciles rows without channels, so a channel without a row would
// otherwise live forever.
func (s *Service) discardChannel(channelID string) {
	if _, err := s.s.ChannelDelete(channelID); err != nil {
		s.l.Warn("Error discarding ticket channel",
			slog.String(logging.KeyChannel, channelID),
			slog.String(logging.KeyError, err.Error()))
	}
}

// matchRound parameterises one responder matching round.
type matchRound struct {
	// prompt is the request text posted to the ticket channel.
	prompt string

	// excluded are the actors that may not accept this round.
	excluded []string

	// action is the log channel action on success.
	action string

	// actor is the username recorded as initiating the round.
	actor string

	// detail supplements the log entry on success, before the responder line.
	detail string
}

// match runs a responder matching round for a ticket and, on an accept,
// promotes the ticket to claimed with the accepting member as responder.
func (s *Service) match(ctx context.Context, gc *entities.GuildConfig, cfg *entities.TicketConfig, ticket *entities.Ticket, round matchRound) error {
	overseer := s.supervisorRoleID(ticket.GuildID)
	declineUsers, declineRoles := s.declineFor(cfg, ticket.UserID, overseer)

	res := s.matcher.RequestMatch(ctx, vote.Request{
		GuildID:       ticket.GuildID,
		ChannelID:     ticket.ChannelID,
		Prompt:        round.prompt,
		EligibleRoles: cfg.RoleIDs(),
		ExcludedUsers: round.excluded,
		DeclineUsers:  declineUsers,
		DeclineRoles:  declineRoles,
		Timeout:       s.matchTimeout,
	})

	switch res.Outcome {
	case dialog.OutcomeTimedOut:
		if _, err := s.s.ChannelMessageSend(ticket.ChannelID, messages.MatchTimedOut); err != nil {
			s.l.Warn("Error posting match timeout notice", slog.String(logging.KeyError, err.Error()))
		}
		return nil
	case dialog.OutcomeCancelled:
		if _, err := s.s.ChannelMessageSend(ticket.ChannelID, messages.MatchDeclined); err != nil {
			s.l.Warn("Error posting match declined notice", slog.String(logging.KeyError, err.Error()))
		}
		return nil
	}

	responder := res.Value
	ticket.ResponderID = responder.User.ID
	ticket.State = entities.StateClaimed
	ticket.UpdatedAt = custom.Now()

	if err := s.applyOverwrites(ticket.ChannelID, perms.Claimed(s.principals(cfg, ticket))); err != nil {
		return err
	}
	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		return fmt.Errorf("saving claimed ticket: %w", err)
	}

	detail := fmt.Sprintf("__Responder:__ %s", responder.User.Username)
	if round.detail != "" {
		detail = round.detail + "\n" + detail
	}
	s.logAction(gc, round.action, round.actor, detail)

	if _, err := s.s.ChannelMessageSend(ticket.ChannelID, fmt.Sprintf(responderWelcome, responder.User.ID)); err != nil {
		s.l.Warn("Error welcoming responder", slog.String(logging.KeyError, err.Error()))
	}
	return nil
}

// answerSummary renders the collected answers as the pinned jump message.
func answerSummary(cfg *entities.TicketConfig, ticket *entities.Ticket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s ticket for %s**", cfg.Name, ticket.Username)

	questions := make(map[int]string, len(cfg.Questions))
	for _, q := range cfg.Questions {
		questions[q.Num] = q.Text
	}
	for _, a := range ticket.Answers {
		fmt.Fprintf(&b, "\n\n**%d. %s**\n%s", a.Num, questions[a.Num], a.Text)
	}
	return b.String()
}
